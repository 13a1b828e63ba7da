package rest

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// toHTTPError сопоставляет ошибки движка кодам HTTP.
// Порядок важен: атомарный пакет с дубликатом несёт и ErrStore, и ErrDuplicateSlot.
func (s *Server) toHTTPError(err error) error {
	switch {
	case errors.Is(err, model.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrSlotUnavailable):
		return echo.NewHTTPError(http.StatusConflict, "slot unavailable")
	case errors.Is(err, model.ErrSlotInUse), errors.Is(err, model.ErrDuplicateSlot):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		s.logger.Error("Request failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func badRequest(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
