package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService struct {
	slots    SlotStore
	bookings BookingStore
	opts     options
	logger   *zap.Logger
}

func NewBookingService(slots SlotStore, bookings BookingStore, logger *zap.Logger, opts ...Option) *BookingService {
	return &BookingService{
		slots:    slots,
		bookings: bookings,
		opts:     applyOptions(opts),
		logger:   logger,
	}
}

// ReserveRequest данные для записи клиента на слот
type ReserveRequest struct {
	Date         model.Date          `json:"date"`
	StartTime    model.Clock         `json:"start_time"`
	ClientID     string              `json:"client_id"`
	ClientName   string              `json:"client_name"`
	CaseNumber   string              `json:"case_number"`
	ContactPhone string              `json:"contact_phone"`
	Modality     model.Modality      `json:"modality"`
	Note         string              `json:"note"`
	CreatedBy    model.Role          `json:"created_by"`
	Origin       model.BookingOrigin `json:"origin"`
}

func (r *ReserveRequest) validate() error {
	r.ClientID = strings.TrimSpace(r.ClientID)
	r.ClientName = strings.TrimSpace(r.ClientName)

	if r.Date.IsZero() {
		return fmt.Errorf("%w: date is required", model.ErrValidation)
	}
	if r.ClientID == "" {
		return fmt.Errorf("%w: client id is required", model.ErrValidation)
	}
	if r.ClientName == "" {
		return fmt.Errorf("%w: client name is required", model.ErrValidation)
	}
	if r.Modality != model.ModalityOnline && r.Modality != model.ModalityInPerson {
		return fmt.Errorf("%w: booking modality must be online or in-person, got %q", model.ErrValidation, r.Modality)
	}

	role, err := model.ParseRole(string(r.CreatedBy))
	if err != nil {
		return err
	}
	r.CreatedBy = role

	origin, err := model.ParseOrigin(string(r.Origin))
	if err != nil {
		return err
	}
	r.Origin = origin

	return nil
}

// Reserve записывает клиента на свободный слот.
// Сначала сохраняется запись, затем слот занимается условной записью.
// Проигравший гонку удаляет свою запись и получает ErrSlotUnavailable.
func (s *BookingService) Reserve(ctx context.Context, req ReserveRequest) (*model.Booking, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	slot, err := s.slots.FindByDateTime(ctx, req.Date, req.StartTime)
	if err != nil {
		return nil, storeError("find slot", err)
	}

	if slot == nil || !slot.Available || !slot.Modality.Matches(req.Modality) {
		return nil, fmt.Errorf("reserve %s %s: %w", req.Date, req.StartTime, model.ErrSlotUnavailable)
	}

	booking := &model.Booking{
		ClientID:     req.ClientID,
		ClientName:   req.ClientName,
		CaseNumber:   req.CaseNumber,
		ContactPhone: req.ContactPhone,
		Date:         slot.Date,
		StartTime:    slot.StartTime,
		EndTime:      slot.EndTime,
		Modality:     req.Modality,
		Status:       model.BookingStatusScheduled,
		Origin:       req.Origin,
		CreatedBy:    req.CreatedBy,
		Note:         req.Note,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, storeError("create booking", err)
	}

	won, err := s.slots.Reserve(ctx, slot.ID)
	if err != nil {
		// Запись остаётся, слот может остаться свободным до сверки
		s.logger.Error("Slot flip failed after booking was written",
			zap.String("booking_id", booking.ID.String()),
			zap.String("slot_id", slot.ID.String()),
			zap.Error(err),
		)
		return nil, storeError("reserve slot", err)
	}

	if !won {
		s.opts.metrics.ReserveConflict()
		if err := s.discardLosingBooking(ctx, booking); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("reserve %s %s: %w", req.Date, req.StartTime, model.ErrSlotUnavailable)
	}

	s.opts.cache.Invalidate(ctx)
	s.opts.metrics.BookingReserved(booking.Origin)

	s.logger.Info("Slot reserved",
		zap.String("booking_id", booking.ID.String()),
		zap.String("client_id", booking.ClientID),
		zap.String("date", booking.Date.String()),
		zap.String("start", booking.StartTime.String()),
		zap.String("origin", string(booking.Origin)),
	)

	s.publish(ctx, model.NewBookingEvent(model.EventBookingCreated, booking))
	s.notify(ctx, booking, ConfirmationMessage(booking))

	return booking, nil
}

// discardLosingBooking убирает запись, проигравшую условную запись слота.
// Пока она была активной, сверка или Release могли оставить слот занятым
// ради неё, поэтому после удаления слот перепроверяется.
func (s *BookingService) discardLosingBooking(ctx context.Context, booking *model.Booking) error {
	if err := s.bookings.Delete(ctx, booking.ID); err != nil {
		s.logger.Error("Failed to remove booking that lost the slot, cancelling it instead",
			zap.String("booking_id", booking.ID.String()),
			zap.Error(err),
		)

		booking.Status = model.BookingStatusCancelled
		booking.Note = strings.TrimSpace(booking.Note + " [slot lost to a concurrent reservation]")
		if err := s.bookings.Update(ctx, booking); err != nil {
			s.logger.Error("Failed to cancel booking that lost the slot",
				zap.String("booking_id", booking.ID.String()),
				zap.Error(err),
			)
			return storeError("discard losing booking", err)
		}
	}

	if _, _, err := s.freeUnreferenced(ctx, booking.Date, booking.StartTime); err != nil {
		s.logger.Error("Failed to recheck slot after losing reservation",
			zap.String("booking_id", booking.ID.String()),
			zap.String("date", booking.Date.String()),
			zap.String("start", booking.StartTime.String()),
			zap.Error(err),
		)
	}

	return nil
}

// Release освобождает слот на (date, start). Если слота нет, ничего не делает.
// Слот остаётся занятым, пока на него ссылается другая активная запись.
func (s *BookingService) Release(ctx context.Context, date model.Date, start model.Clock) error {
	slot, holder, err := s.freeUnreferenced(ctx, date, start)
	if err != nil {
		return err
	}

	if holder != nil {
		s.logger.Warn("Slot still referenced by an active booking, keeping it occupied",
			zap.String("slot_id", slot.ID.String()),
			zap.String("booking_id", holder.ID.String()),
		)
	}

	return nil
}

// freeUnreferenced освобождает слот, если на него не ссылается ни одна
// активная запись. Возвращает слот и запись, которая его держит.
func (s *BookingService) freeUnreferenced(ctx context.Context, date model.Date, start model.Clock) (*model.Slot, *model.Booking, error) {
	slot, err := s.slots.FindByDateTime(ctx, date, start)
	if err != nil {
		return nil, nil, storeError("find slot", err)
	}

	if slot == nil {
		return nil, nil, nil
	}

	active, err := findActiveBookings(ctx, s.bookings, date, start)
	if err != nil {
		return nil, nil, err
	}

	if len(active) > 0 {
		return slot, active[0], nil
	}

	if slot.Available {
		return slot, nil, nil
	}

	if err := s.slots.SetAvailability(ctx, slot.ID, true); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return slot, nil, nil
		}
		return nil, nil, storeError("release slot", err)
	}

	s.opts.cache.Invalidate(ctx)

	s.logger.Info("Slot released",
		zap.String("slot_id", slot.ID.String()),
		zap.String("date", date.String()),
		zap.String("start", start.String()),
	)

	return slot, nil, nil
}

// BookingUpdate изменяемые поля записи. nil означает «не менять».
type BookingUpdate struct {
	Status     *model.BookingStatus `json:"status"`
	Note       *string              `json:"note"`
	CaseNumber *string              `json:"case_number"`
}

// UpdateStatus меняет статус и сопутствующие поля записи.
// Переход в cancelled освобождает слот.
func (s *BookingService) UpdateStatus(ctx context.Context, id uuid.UUID, upd BookingUpdate) (*model.Booking, error) {
	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := booking.Status

	if upd.Status != nil {
		next, err := model.ParseBookingStatus(string(*upd.Status))
		if err != nil {
			return nil, err
		}
		if s.opts.strictTransitions && !previous.CanTransitionTo(next) {
			return nil, fmt.Errorf("%w: transition %s -> %s is not allowed", model.ErrValidation, previous, next)
		}
		booking.Status = next
	}
	if upd.Note != nil {
		booking.Note = *upd.Note
	}
	if upd.CaseNumber != nil {
		booking.CaseNumber = *upd.CaseNumber
	}

	if err := s.bookings.Update(ctx, booking); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, storeError("update booking", err)
	}

	if previous == booking.Status {
		return booking, nil
	}

	s.opts.metrics.BookingStatusChanged(previous, booking.Status)

	s.logger.Info("Booking status changed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(booking.Status)),
	)

	if booking.Status == model.BookingStatusCancelled {
		if err := s.Release(ctx, booking.Date, booking.StartTime); err != nil {
			return nil, fmt.Errorf("release slot for cancelled booking: %w", err)
		}
		s.publish(ctx, model.NewBookingEvent(model.EventBookingCancelled, booking))
		s.notify(ctx, booking, CancellationMessage(booking))
		return booking, nil
	}

	event := model.NewBookingEvent(model.EventBookingStatusChanged, booking)
	event.PreviousStatus = previous
	s.publish(ctx, event)

	return booking, nil
}

// GetBooking получает запись по ID
func (s *BookingService) GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get booking", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", id, model.ErrNotFound)
	}
	return booking, nil
}

// ListBookings записи клиента или все записи при пустом clientID,
// сначала самые поздние
func (s *BookingService) ListBookings(ctx context.Context, clientID string) ([]*model.Booking, error) {
	bookings, err := s.bookings.List(ctx, model.BookingFilter{ClientID: strings.TrimSpace(clientID)})
	if err != nil {
		return nil, storeError("list bookings", err)
	}
	return bookings, nil
}

// ListBookingsFiltered выборка записей по произвольному фильтру
func (s *BookingService) ListBookingsFiltered(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	bookings, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, storeError("list bookings", err)
	}
	return bookings, nil
}

func (s *BookingService) publish(ctx context.Context, event model.BookingEvent) {
	if err := s.opts.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish booking event",
			zap.String("type", string(event.Type)),
			zap.String("booking_id", event.BookingID.String()),
			zap.Error(err),
		)
	}
}

func (s *BookingService) notify(ctx context.Context, booking *model.Booking, message string) {
	recipient := booking.ContactPhone
	if recipient == "" {
		return
	}

	ok := s.opts.notifier.Send(ctx, recipient, message)
	s.opts.metrics.NotificationSent(ok)
	if !ok {
		s.logger.Warn("Notification not delivered",
			zap.String("booking_id", booking.ID.String()),
		)
	}
}
