package model

import (
	"fmt"
	"time"
)

// SlotSchedule описывает пакетную генерацию слотов: один слот на каждый
// интервал длиной DurationMinutes внутри [DailyStart, DailyEnd) в разрешённые дни
type SlotSchedule struct {
	StartDate       Date     `json:"start_date"`
	EndDate         Date     `json:"end_date"` // включительно
	DailyStart      Clock    `json:"daily_start"`
	DailyEnd        Clock    `json:"daily_end"`
	DurationMinutes int      `json:"duration_minutes"`
	Weekdays        []int    `json:"weekdays"` // 1 = понедельник, 7 = воскресенье
	Modality        Modality `json:"modality"`
	Note            string   `json:"note"`
}

// Validate проверяет параметры генерации
func (s SlotSchedule) Validate() error {
	if s.StartDate.IsZero() || s.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrValidation)
	}
	if s.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %d", ErrValidation, s.DurationMinutes)
	}
	for _, wd := range s.Weekdays {
		if wd < 1 || wd > 7 {
			return fmt.Errorf("%w: weekday %d out of range 1..7", ErrValidation, wd)
		}
	}
	switch s.Modality {
	case ModalityOnline, ModalityInPerson, ModalityEither:
	default:
		return fmt.Errorf("%w: unknown modality %q", ErrValidation, s.Modality)
	}
	return nil
}

// Generate строит слоты по расписанию. Ничего не сохраняет и не дедуплицирует:
// два вызова на одном расписании дают одинаковые наборы.
func (s SlotSchedule) Generate() ([]*Slot, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	permitted := make(map[int]bool, len(s.Weekdays))
	for _, wd := range s.Weekdays {
		permitted[wd] = true
	}

	var slots []*Slot
	for day := s.StartDate; !day.After(s.EndDate); day = day.AddDays(1) {
		if !permitted[day.ISOWeekday()] {
			continue
		}

		// Хвост короче длительности отбрасывается
		for start := s.DailyStart; start.Add(s.DurationMinutes) <= s.DailyEnd; start = start.Add(s.DurationMinutes) {
			slots = append(slots, &Slot{
				Date:            day,
				StartTime:       start,
				EndTime:         start.Add(s.DurationMinutes),
				DurationMinutes: s.DurationMinutes,
				Modality:        s.Modality,
				Available:       true,
				Note:            s.Note,
			})
		}
	}

	return slots, nil
}

// Days возвращает число календарных дней в диапазоне расписания
func (s SlotSchedule) Days() int {
	if s.EndDate.Before(s.StartDate) {
		return 0
	}
	return int(s.EndDate.Time().Sub(s.StartDate.Time())/(24*time.Hour)) + 1
}
