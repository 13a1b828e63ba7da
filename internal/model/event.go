package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingEventType string

const (
	EventBookingCreated       BookingEventType = "booking.created"
	EventBookingStatusChanged BookingEventType = "booking.status_changed"
	EventBookingCancelled     BookingEventType = "booking.cancelled"
)

// BookingEvent доменное событие по записи, публикуется после сохранения
type BookingEvent struct {
	Type           BookingEventType `json:"type"`
	BookingID      uuid.UUID        `json:"booking_id"`
	ClientID       string           `json:"client_id"`
	Date           Date             `json:"date"`
	StartTime      Clock            `json:"start_time"`
	Modality       Modality         `json:"modality"`
	Origin         BookingOrigin    `json:"origin"`
	Status         BookingStatus    `json:"status"`
	PreviousStatus BookingStatus    `json:"previous_status,omitempty"`
	OccurredAt     time.Time        `json:"occurred_at"`
}

// NewBookingEvent собирает событие из текущего состояния записи
func NewBookingEvent(t BookingEventType, b *Booking) BookingEvent {
	return BookingEvent{
		Type:       t,
		BookingID:  b.ID,
		ClientID:   b.ClientID,
		Date:       b.Date,
		StartTime:  b.StartTime,
		Modality:   b.Modality,
		Origin:     b.Origin,
		Status:     b.Status,
		OccurredAt: time.Now().UTC(),
	}
}
