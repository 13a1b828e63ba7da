package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusScheduled BookingStatus = "scheduled" // Создана клиентом или администратором
	BookingStatusConfirmed BookingStatus = "confirmed" // Подтверждена офисом
	BookingStatusCompleted BookingStatus = "completed" // Консультация состоялась
	BookingStatusCancelled BookingStatus = "cancelled" // Отменена, слот освобождён
)

// Допустимые переходы статуса записи. Повтор текущего статуса разрешён всегда.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusScheduled: {BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
}

// ParseBookingStatus разбирает статус записи
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case BookingStatusScheduled, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return status, nil
	case "canceled":
		return BookingStatusCancelled, nil
	}
	return "", fmt.Errorf("%w: unknown booking status %q", ErrValidation, s)
}

// CanTransitionTo проверяет переход по таблице статусов
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive запись удерживает слот, пока она не отменена
func (s BookingStatus) IsActive() bool {
	return s != BookingStatusCancelled
}

type BookingOrigin string

const (
	OriginSelfService      BookingOrigin = "self-service"
	OriginMessagingChannel BookingOrigin = "messaging-channel"
	OriginManual           BookingOrigin = "manual"
)

// ParseOrigin разбирает канал, через который создана запись
func ParseOrigin(s string) (BookingOrigin, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "self-service", "site":
		return OriginSelfService, nil
	case "messaging-channel", "whatsapp", "telegram":
		return OriginMessagingChannel, nil
	case "manual":
		return OriginManual, nil
	}
	return "", fmt.Errorf("%w: unknown booking origin %q", ErrValidation, s)
}

type Role string

const (
	RoleClient        Role = "client"
	RoleAdministrator Role = "administrator"
)

// ParseRole разбирает роль создателя записи
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "client":
		return RoleClient, nil
	case "administrator", "admin":
		return RoleAdministrator, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
}

type Booking struct {
	ID           uuid.UUID     `json:"id"`
	ClientID     string        `json:"client_id"`
	ClientName   string        `json:"client_name"`
	CaseNumber   string        `json:"case_number,omitempty"`   // номер процесса клиента
	ContactPhone string        `json:"contact_phone,omitempty"` // для уведомлений
	Date         Date          `json:"date"`
	StartTime    Clock         `json:"start_time"`
	EndTime      Clock         `json:"end_time"`
	Modality     Modality      `json:"modality"`
	Status       BookingStatus `json:"status"`
	Origin       BookingOrigin `json:"origin"`
	CreatedBy    Role          `json:"created_by"`
	Note         string        `json:"note"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// BookingFilter фильтр выборки записей. Пустые поля не ограничивают выборку.
type BookingFilter struct {
	ClientID   string
	Date       Date
	StartTime  *Clock
	From       Date // записи начиная с этой даты
	ActiveOnly bool
}

// Match применяет фильтр к записи
func (f BookingFilter) Match(b *Booking) bool {
	if f.ClientID != "" && b.ClientID != f.ClientID {
		return false
	}
	if !f.Date.IsZero() && !b.Date.Equal(f.Date) {
		return false
	}
	if f.StartTime != nil && b.StartTime != *f.StartTime {
		return false
	}
	if !f.From.IsZero() && b.Date.Before(f.From) {
		return false
	}
	if f.ActiveOnly && !b.Status.IsActive() {
		return false
	}
	return true
}
