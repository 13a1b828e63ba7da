package rest

import (
	"net/http"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/Freeeeeet/office_scheduler/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// SlotBatchRequest параметры пакетной генерации. Поля формы совпадают
// с веб-формой администратора.
type SlotBatchRequest struct {
	StartDate       string `json:"start_date" form:"data_inicio"`
	EndDate         string `json:"end_date" form:"data_fim"`
	DailyStart      string `json:"daily_start" form:"hora_inicio"`
	DailyEnd        string `json:"daily_end" form:"hora_fim"`
	DurationMinutes int    `json:"duration_minutes" form:"duracao_minutos"`
	Weekdays        []int  `json:"weekdays" form:"dias_semana"`
	Modality        string `json:"modality" form:"tipo_permitido"`
	Note            string `json:"note" form:"observacao"`
}

func (r SlotBatchRequest) toSchedule() (model.SlotSchedule, error) {
	var (
		sch model.SlotSchedule
		err error
	)

	if sch.StartDate, err = model.ParseDate(r.StartDate); err != nil {
		return sch, err
	}
	if sch.EndDate, err = model.ParseDate(r.EndDate); err != nil {
		return sch, err
	}
	if sch.DailyStart, err = model.ParseClock(r.DailyStart); err != nil {
		return sch, err
	}
	if sch.DailyEnd, err = model.ParseClock(r.DailyEnd); err != nil {
		return sch, err
	}
	if sch.Modality, err = model.ParseModality(defaultString(r.Modality, string(model.ModalityEither))); err != nil {
		return sch, err
	}
	sch.DurationMinutes = r.DurationMinutes
	sch.Weekdays = r.Weekdays
	sch.Note = r.Note

	return sch, nil
}

// SlotBatchResponse ответ пакетной генерации
type SlotBatchResponse struct {
	Success bool `json:"success"`
	Total   int  `json:"total"`
	Skipped int  `json:"skipped"`
}

// SlotRequest одиночный слот
type SlotRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Modality  string `json:"modality"`
	Note      string `json:"note"`
}

// SlotPatchRequest частичное изменение слота
type SlotPatchRequest struct {
	Date      *string `json:"date"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Modality  *string `json:"modality"`
	Available *bool   `json:"available"`
	Note      *string `json:"note"`
}

func (r SlotPatchRequest) toUpdate() (service.SlotUpdate, error) {
	upd := service.SlotUpdate{Available: r.Available, Note: r.Note}

	if r.Date != nil {
		d, err := model.ParseDate(*r.Date)
		if err != nil {
			return upd, err
		}
		upd.Date = &d
	}
	if r.StartTime != nil {
		c, err := model.ParseClock(*r.StartTime)
		if err != nil {
			return upd, err
		}
		upd.StartTime = &c
	}
	if r.EndTime != nil {
		c, err := model.ParseClock(*r.EndTime)
		if err != nil {
			return upd, err
		}
		upd.EndTime = &c
	}
	if r.Modality != nil {
		m, err := model.ParseModality(*r.Modality)
		if err != nil {
			return upd, err
		}
		upd.Modality = &m
	}

	return upd, nil
}

func (s *Server) handleCreateSlotBatch(c echo.Context) error {
	var req SlotBatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	schedule, err := req.toSchedule()
	if err != nil {
		return badRequest(err)
	}

	res, err := s.slots.CreateSlots(c.Request().Context(), schedule)
	if err != nil {
		return s.toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, SlotBatchResponse{Success: true, Total: res.Created, Skipped: res.Skipped})
}

func (s *Server) handleCreateSlot(c echo.Context) error {
	var req SlotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	date, err := model.ParseDate(req.Date)
	if err != nil {
		return badRequest(err)
	}
	start, err := model.ParseClock(req.StartTime)
	if err != nil {
		return badRequest(err)
	}
	end, err := model.ParseClock(req.EndTime)
	if err != nil {
		return badRequest(err)
	}
	modality, err := model.ParseModality(defaultString(req.Modality, string(model.ModalityEither)))
	if err != nil {
		return badRequest(err)
	}

	slot, err := s.slots.CreateSlot(c.Request().Context(), &model.Slot{
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Modality:  modality,
		Note:      req.Note,
	})
	if err != nil {
		return s.toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, slot)
}

// slotQuery читает фильтр из query string; старые имена параметров тоже принимаются
func slotQuery(c echo.Context, availableOnly bool) (service.SlotQuery, error) {
	q := service.SlotQuery{AvailableOnly: availableOnly}

	from, err := optionalDate(firstParam(c, "from", "data_inicio"))
	if err != nil {
		return q, err
	}
	to, err := optionalDate(firstParam(c, "to", "data_fim"))
	if err != nil {
		return q, err
	}
	q.From, q.To = from, to

	if m := firstParam(c, "modality", "tipo"); m != "" {
		modality, err := model.ParseModality(m)
		if err != nil {
			return q, err
		}
		q.Modality = modality
	}

	return q, nil
}

func (s *Server) handleAvailableSlots(c echo.Context) error {
	q, err := slotQuery(c, true)
	if err != nil {
		return badRequest(err)
	}

	slots, err := s.slots.ListSlots(c.Request().Context(), q)
	if err != nil {
		return s.toHTTPError(err)
	}

	return c.JSON(http.StatusOK, nonNil(slots))
}

func (s *Server) handleListSlots(c echo.Context) error {
	q, err := slotQuery(c, c.QueryParam("available") == "true")
	if err != nil {
		return badRequest(err)
	}

	slots, err := s.slots.ListSlots(c.Request().Context(), q)
	if err != nil {
		return s.toHTTPError(err)
	}

	return c.JSON(http.StatusOK, nonNil(slots))
}

func (s *Server) handleUpdateSlot(c echo.Context) error {
	id, err := uuidParam(c)
	if err != nil {
		return err
	}

	var req SlotPatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	upd, err := req.toUpdate()
	if err != nil {
		return badRequest(err)
	}

	slot, err := s.slots.UpdateSlot(c.Request().Context(), id, upd)
	if err != nil {
		return s.toHTTPError(err)
	}

	return c.JSON(http.StatusOK, slot)
}

func (s *Server) handleDeleteSlot(c echo.Context) error {
	id, err := uuidParam(c)
	if err != nil {
		return err
	}

	if err := s.slots.DeleteSlot(c.Request().Context(), id); err != nil {
		return s.toHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func uuidParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func optionalDate(s string) (*model.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func firstParam(c echo.Context, names ...string) string {
	for _, name := range names {
		if v := c.QueryParam(name); v != "" {
			return v
		}
	}
	return ""
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// nonNil пустой список отдаётся как [], а не null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
