package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/google/uuid"
)

// Callback data формата "prefix:payload"
const (
	CallbackBook   = "book:"   // book:2024-03-04:0900:online
	CallbackCancel = "cancel:" // cancel:<booking uuid>
)

var errUsage = errors.New("usage")

// commandArgs отбрасывает саму команду (вместе с @botname) и возвращает аргументы
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

// parseDateArg принимает дату в виде 04/03/2024, 04/03 или 2024-03-04.
// Год по умолчанию берётся из today.
func parseDateArg(s string, today model.Date) (model.Date, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "hoje":
		return today, nil
	case "amanha", "amanhã":
		return today.AddDays(1), nil
	}

	if d, err := model.ParseDate(s); err == nil {
		return d, nil
	}
	if t, err := time.Parse("02/01/2006", s); err == nil {
		return model.DateOf(t), nil
	}
	if t, err := time.Parse("02/01", s); err == nil {
		return model.NewDate(today.Time().Year(), t.Month(), t.Day()), nil
	}
	return model.Date{}, fmt.Errorf("%w: invalid date %q", model.ErrValidation, s)
}

// bookArgs аргументы команды /agendar
type bookArgs struct {
	date     model.Date
	start    model.Clock
	modality model.Modality
}

// parseBookArgs разбирает "/agendar 04/03/2024 09:00 online"
func parseBookArgs(args []string, today model.Date) (bookArgs, error) {
	var out bookArgs
	if len(args) != 3 {
		return out, errUsage
	}

	date, err := parseDateArg(args[0], today)
	if err != nil {
		return out, err
	}
	start, err := model.ParseClock(args[1])
	if err != nil {
		return out, err
	}
	modality, err := model.ParseModality(args[2])
	if err != nil {
		return out, err
	}
	if modality == model.ModalityEither {
		return out, fmt.Errorf("%w: choose online or presencial", model.ErrValidation)
	}

	out.date, out.start, out.modality = date, start, modality
	return out, nil
}

func bookCallbackData(date model.Date, start model.Clock, modality model.Modality) string {
	return fmt.Sprintf("%s%s:%02d%02d:%s", CallbackBook, date, start.Hour(), start.Minute(), modality)
}

func parseBookCallback(data string) (bookArgs, error) {
	var out bookArgs

	parts := strings.Split(strings.TrimPrefix(data, CallbackBook), ":")
	if len(parts) != 3 || len(parts[1]) != 4 {
		return out, fmt.Errorf("invalid callback data format")
	}

	date, err := model.ParseDate(parts[0])
	if err != nil {
		return out, err
	}
	start, err := model.ParseClock(parts[1][:2] + ":" + parts[1][2:])
	if err != nil {
		return out, err
	}
	modality, err := model.ParseModality(parts[2])
	if err != nil {
		return out, err
	}

	out.date, out.start, out.modality = date, start, modality
	return out, nil
}

func cancelCallbackData(id uuid.UUID) string {
	return CallbackCancel + id.String()
}

func parseCancelCallback(data string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimPrefix(data, CallbackCancel))
}
