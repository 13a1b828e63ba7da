package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/google/uuid"
)

// BookingStore потокобезопасное хранилище записей
type BookingStore struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*model.Booking
	now      func() time.Time
}

func NewBookingStore() *BookingStore {
	return &BookingStore{
		bookings: make(map[uuid.UUID]*model.Booking),
		now:      time.Now,
	}
}

func copyBooking(b *model.Booking) *model.Booking {
	c := *b
	return &c
}

func (s *BookingStore) Create(_ context.Context, booking *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if _, exists := s.bookings[booking.ID]; exists {
		return fmt.Errorf("create booking: id %s already exists", booking.ID)
	}
	now := s.now()
	booking.CreatedAt, booking.UpdatedAt = now, now

	s.bookings[booking.ID] = copyBooking(booking)
	return nil
}

func (s *BookingStore) GetByID(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	return copyBooking(booking), nil
}

func (s *BookingStore) List(_ context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var bookings []*model.Booking
	for _, booking := range s.bookings {
		if filter.Match(booking) {
			bookings = append(bookings, copyBooking(booking))
		}
	}

	sort.Slice(bookings, func(i, j int) bool {
		a, b := bookings[i], bookings[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime > b.StartTime
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	return bookings, nil
}

// Update сохраняет статус, заметку и номер процесса
func (s *BookingStore) Update(_ context.Context, booking *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.bookings[booking.ID]
	if !ok {
		return fmt.Errorf("update booking %s: %w", booking.ID, model.ErrNotFound)
	}

	current.Status = booking.Status
	current.Note = booking.Note
	current.CaseNumber = booking.CaseNumber
	current.UpdatedAt = s.now()
	booking.UpdatedAt = current.UpdatedAt
	return nil
}

func (s *BookingStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[id]; !ok {
		return fmt.Errorf("delete booking %s: %w", id, model.ErrNotFound)
	}
	delete(s.bookings, id)
	return nil
}
