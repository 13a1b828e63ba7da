package rest

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/Freeeeeet/office_scheduler/internal/service"
	"github.com/labstack/echo/v4"
)

// BookingRequest запись на слот
type BookingRequest struct {
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	ClientID     string `json:"client_id"`
	ClientName   string `json:"client_name"`
	CaseNumber   string `json:"case_number"`
	ContactPhone string `json:"contact_phone"`
	Modality     string `json:"modality"`
	Note         string `json:"note"`
	Origin       string `json:"origin"`
}

// BookingPatchRequest изменение статуса и полей записи
type BookingPatchRequest struct {
	Status     *string `json:"status"`
	Note       *string `json:"note"`
	CaseNumber *string `json:"case_number"`
}

func (s *Server) handleCreateBooking(c echo.Context) error {
	var req BookingRequest
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
	modality, err := model.ParseModality(req.Modality)
	if err != nil {
		return badRequest(err)
	}

	reserve := service.ReserveRequest{
		Date:         date,
		StartTime:    start,
		ClientID:     req.ClientID,
		ClientName:   req.ClientName,
		CaseNumber:   req.CaseNumber,
		ContactPhone: req.ContactPhone,
		Modality:     modality,
		Note:         req.Note,
		Origin:       model.BookingOrigin(req.Origin),
	}

	// Клиент записывает только себя; администратор записывает вручную от имени клиента
	id := identityFrom(c)
	if id.IsAdmin() {
		reserve.CreatedBy = model.RoleAdministrator
		if reserve.Origin == "" {
			reserve.Origin = model.OriginManual
		}
	} else {
		reserve.CreatedBy = model.RoleClient
		reserve.ClientID = id.Subject
		if reserve.ClientName == "" {
			reserve.ClientName = id.Name
		}
	}

	booking, err := s.bookings.Reserve(c.Request().Context(), reserve)
	if err != nil {
		return s.toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, booking)
}

func (s *Server) handleListBookings(c echo.Context) error {
	clientID := c.QueryParam("client_id")

	// Клиент видит только свои записи, администратор без client_id видит все
	if id := identityFrom(c); !id.IsAdmin() {
		clientID = id.Subject
	}

	bookings, err := s.bookings.ListBookings(c.Request().Context(), clientID)
	if err != nil {
		return s.toHTTPError(err)
	}

	return c.JSON(http.StatusOK, nonNil(bookings))
}

func (s *Server) handleAdminListBookings(c echo.Context) error {
	filter := model.BookingFilter{
		ClientID:   c.QueryParam("client_id"),
		ActiveOnly: c.QueryParam("active") == "true",
	}

	date, err := optionalDate(c.QueryParam("date"))
	if err != nil {
		return badRequest(err)
	}
	if date != nil {
		filter.Date = *date
	}

	from, err := optionalDate(c.QueryParam("from"))
	if err != nil {
		return badRequest(err)
	}
	if from != nil {
		filter.From = *from
	}

	bookings, err := s.bookings.ListBookingsFiltered(c.Request().Context(), filter)
	if err != nil {
		return s.toHTTPError(err)
	}

	return c.JSON(http.StatusOK, nonNil(bookings))
}

func (s *Server) handleGetBooking(c echo.Context) error {
	bookingID, err := uuidParam(c)
	if err != nil {
		return err
	}

	booking, err := s.bookings.GetBooking(c.Request().Context(), bookingID)
	if err != nil {
		return s.toHTTPError(err)
	}

	// Чужая запись для клиента выглядит как отсутствующая
	id := identityFrom(c)
	if !id.IsAdmin() && booking.ClientID != id.Subject {
		return s.toHTTPError(model.ErrNotFound)
	}

	return c.JSON(http.StatusOK, booking)
}

func (s *Server) handleUpdateBooking(c echo.Context) error {
	bookingID, err := uuidParam(c)
	if err != nil {
		return err
	}

	var req BookingPatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	upd := service.BookingUpdate{Note: req.Note, CaseNumber: req.CaseNumber}
	if req.Status != nil {
		status, err := model.ParseBookingStatus(*req.Status)
		if err != nil {
			return badRequest(err)
		}
		upd.Status = &status
	}

	if upd.Status == nil && upd.Note == nil && upd.CaseNumber == nil {
		return badRequest(errors.New("nothing to update"))
	}

	booking, err := s.bookings.UpdateStatus(c.Request().Context(), bookingID, upd)
	if err != nil {
		return s.toHTTPError(err)
	}

	return c.JSON(http.StatusOK, booking)
}
