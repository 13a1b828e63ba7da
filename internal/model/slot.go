package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Modality string

const (
	ModalityOnline   Modality = "online"
	ModalityInPerson Modality = "in-person"
	ModalityEither   Modality = "either" // слот подходит для обоих форматов
)

// ParseModality разбирает формат приёма, принимая и португальские названия из веб-формы
func ParseModality(s string) (Modality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "online":
		return ModalityOnline, nil
	case "in-person", "presencial":
		return ModalityInPerson, nil
	case "either", "ambos":
		return ModalityEither, nil
	default:
		return "", fmt.Errorf("%w: unknown modality %q", ErrValidation, s)
	}
}

// Matches проверяет, подходит ли слот с этим ограничением под запрошенный формат
func (m Modality) Matches(requested Modality) bool {
	return m == ModalityEither || requested == "" || requested == ModalityEither || m == requested
}

type Slot struct {
	ID              uuid.UUID `json:"id"`
	Date            Date      `json:"date"`
	StartTime       Clock     `json:"start_time"`
	EndTime         Clock     `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Modality        Modality  `json:"modality"`
	Available       bool      `json:"available"`
	Note            string    `json:"note"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Validate проверяет инварианты слота и пересчитывает длительность
func (s *Slot) Validate() error {
	if s.Date.IsZero() {
		return fmt.Errorf("%w: slot date is required", ErrValidation)
	}
	if s.StartTime < 0 || s.EndTime > NewClock(24, 0) {
		return fmt.Errorf("%w: slot time out of day bounds", ErrValidation)
	}
	if s.StartTime >= s.EndTime {
		return fmt.Errorf("%w: start time %s must be before end time %s", ErrValidation, s.StartTime, s.EndTime)
	}
	switch s.Modality {
	case ModalityOnline, ModalityInPerson, ModalityEither:
	default:
		return fmt.Errorf("%w: unknown modality %q", ErrValidation, s.Modality)
	}
	s.DurationMinutes = int(s.EndTime - s.StartTime)
	return nil
}

// SlotFilter фильтр выборки слотов. Нулевые значения означают «без ограничения».
type SlotFilter struct {
	From          Date
	To            Date
	Modality      Modality
	AvailableOnly bool
}

// Match применяет фильтр к слоту
func (f SlotFilter) Match(s *Slot) bool {
	if f.AvailableOnly && !s.Available {
		return false
	}
	if !f.From.IsZero() && s.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && s.Date.After(f.To) {
		return false
	}
	return s.Modality.Matches(f.Modality)
}
