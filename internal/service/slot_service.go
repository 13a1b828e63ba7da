package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SlotService struct {
	slots    SlotStore
	bookings BookingStore
	opts     options
	logger   *zap.Logger
}

func NewSlotService(slots SlotStore, bookings BookingStore, logger *zap.Logger, opts ...Option) *SlotService {
	return &SlotService{
		slots:    slots,
		bookings: bookings,
		opts:     applyOptions(opts),
		logger:   logger,
	}
}

// CreateSlotsResult итог пакетного создания
type CreateSlotsResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"` // дубликаты (дата, начало), только best-effort
}

// CreateSlots генерирует слоты по расписанию и сохраняет их согласно политике пакета.
// В режиме best-effort при сбое хранилища уже созданные слоты остаются,
// а Created содержит их число.
func (s *SlotService) CreateSlots(ctx context.Context, schedule model.SlotSchedule) (CreateSlotsResult, error) {
	var result CreateSlotsResult

	slots, err := schedule.Generate()
	if err != nil {
		return result, err
	}

	if len(slots) == 0 {
		return result, nil
	}

	defer s.opts.cache.Invalidate(ctx)

	if s.opts.batchPolicy == BatchAtomic {
		// Дубликат тоже откатывает весь пакет
		if err := s.slots.CreateAll(ctx, slots); err != nil {
			return result, storeError("create slots", err)
		}
		result.Created = len(slots)
	} else {
		for _, slot := range slots {
			err := s.slots.Create(ctx, slot)
			if errors.Is(err, model.ErrDuplicateSlot) {
				result.Skipped++
				continue
			}
			if err != nil {
				s.logger.Error("Slot batch interrupted",
					zap.Int("created", result.Created),
					zap.Int("total", len(slots)),
					zap.Error(err),
				)
				s.opts.metrics.SlotsCreated(result.Created)
				return result, storeError("create slots", err)
			}
			result.Created++
		}
	}

	s.opts.metrics.SlotsCreated(result.Created)
	s.opts.metrics.SlotsSkipped(result.Skipped)

	s.logger.Info("Slots generated",
		zap.String("from", schedule.StartDate.String()),
		zap.String("to", schedule.EndDate.String()),
		zap.Int("days", schedule.Days()),
		zap.String("policy", string(s.opts.batchPolicy)),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}

// CreateSlot создаёт одиночный свободный слот
func (s *SlotService) CreateSlot(ctx context.Context, slot *model.Slot) (*model.Slot, error) {
	if err := slot.Validate(); err != nil {
		return nil, err
	}
	slot.ID = uuid.Nil
	slot.Available = true

	if err := s.slots.Create(ctx, slot); err != nil {
		if errors.Is(err, model.ErrDuplicateSlot) {
			return nil, err
		}
		return nil, storeError("create slot", err)
	}

	s.opts.cache.Invalidate(ctx)
	s.opts.metrics.SlotsCreated(1)

	s.logger.Info("Slot created",
		zap.String("slot_id", slot.ID.String()),
		zap.String("date", slot.Date.String()),
		zap.String("start", slot.StartTime.String()),
	)

	return slot, nil
}

// SlotQuery параметры выборки слотов
type SlotQuery struct {
	From          *model.Date
	To            *model.Date
	Modality      model.Modality
	AvailableOnly bool
}

func (q SlotQuery) filter() model.SlotFilter {
	f := model.SlotFilter{Modality: q.Modality, AvailableOnly: q.AvailableOnly}
	if q.From != nil {
		f.From = *q.From
	}
	if q.To != nil {
		f.To = *q.To
	}
	return f
}

func (q SlotQuery) cacheKey() string {
	f := q.filter()
	return fmt.Sprintf("available:%s:%s:%s", f.From, f.To, f.Modality)
}

// ListSlots возвращает слоты по возрастанию даты и времени.
// Для выдачи только свободных слотов нижняя граница даты обязательна.
func (s *SlotService) ListSlots(ctx context.Context, q SlotQuery) ([]*model.Slot, error) {
	if q.AvailableOnly && (q.From == nil || q.From.IsZero()) {
		return nil, fmt.Errorf("%w: date lower bound is required for availability query", model.ErrValidation)
	}
	if q.Modality != "" {
		if _, err := model.ParseModality(string(q.Modality)); err != nil {
			return nil, err
		}
	}

	var (
		generation int64
		cacheable  bool
	)
	if q.AvailableOnly {
		if cached, ok := s.opts.cache.Get(ctx, q.cacheKey()); ok {
			return cached, nil
		}
		// Поколение читается до запроса к хранилищу: изменение слотов
		// между List и Set не даст записать устаревшую выдачу
		generation, cacheable = s.opts.cache.Generation(ctx)
	}

	slots, err := s.slots.List(ctx, q.filter())
	if err != nil {
		return nil, storeError("list slots", err)
	}

	if cacheable {
		s.opts.cache.Set(ctx, q.cacheKey(), generation, slots)
	}

	return slots, nil
}

// GetSlot получает слот по ID
func (s *SlotService) GetSlot(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get slot", err)
	}
	if slot == nil {
		return nil, fmt.Errorf("slot %s: %w", id, model.ErrNotFound)
	}
	return slot, nil
}

// SlotUpdate изменяемые поля слота. nil означает «не менять».
type SlotUpdate struct {
	Date      *model.Date     `json:"date"`
	StartTime *model.Clock    `json:"start_time"`
	EndTime   *model.Clock    `json:"end_time"`
	Modality  *model.Modality `json:"modality"`
	Available *bool           `json:"available"`
	Note      *string         `json:"note"`
}

// UpdateSlot изменяет слот администратором. Слот с активной записью
// нельзя освободить, перенести или изменить его конец.
func (s *SlotService) UpdateSlot(ctx context.Context, id uuid.UUID, upd SlotUpdate) (*model.Slot, error) {
	slot, err := s.GetSlot(ctx, id)
	if err != nil {
		return nil, err
	}

	moved := (upd.Date != nil && !upd.Date.Equal(slot.Date)) ||
		(upd.StartTime != nil && *upd.StartTime != slot.StartTime) ||
		(upd.EndTime != nil && *upd.EndTime != slot.EndTime)
	freed := upd.Available != nil && *upd.Available && !slot.Available

	if moved || freed {
		active, err := s.activeBookings(ctx, slot.Date, slot.StartTime)
		if err != nil {
			return nil, err
		}
		if len(active) > 0 {
			return nil, fmt.Errorf("update slot %s: %w", id, model.ErrSlotInUse)
		}
	}

	if upd.Date != nil {
		slot.Date = *upd.Date
	}
	if upd.StartTime != nil {
		slot.StartTime = *upd.StartTime
	}
	if upd.EndTime != nil {
		slot.EndTime = *upd.EndTime
	}
	if upd.Modality != nil {
		slot.Modality = *upd.Modality
	}
	if upd.Available != nil {
		slot.Available = *upd.Available
	}
	if upd.Note != nil {
		slot.Note = *upd.Note
	}

	if err := slot.Validate(); err != nil {
		return nil, err
	}

	if err := s.slots.Update(ctx, slot); err != nil {
		if errors.Is(err, model.ErrDuplicateSlot) || errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, storeError("update slot", err)
	}

	s.opts.cache.Invalidate(ctx)

	s.logger.Info("Slot updated",
		zap.String("slot_id", slot.ID.String()),
		zap.String("date", slot.Date.String()),
		zap.String("start", slot.StartTime.String()),
		zap.Bool("available", slot.Available),
	)

	return slot, nil
}

// DeleteSlot удаляет слот, если на него нет активной записи
func (s *SlotService) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	slot, err := s.GetSlot(ctx, id)
	if err != nil {
		return err
	}

	active, err := s.activeBookings(ctx, slot.Date, slot.StartTime)
	if err != nil {
		return err
	}
	if len(active) > 0 {
		return fmt.Errorf("delete slot %s: %w", id, model.ErrSlotInUse)
	}

	if err := s.slots.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		return storeError("delete slot", err)
	}

	s.opts.cache.Invalidate(ctx)

	s.logger.Info("Slot deleted",
		zap.String("slot_id", id.String()),
		zap.String("date", slot.Date.String()),
		zap.String("start", slot.StartTime.String()),
	)

	return nil
}

func (s *SlotService) activeBookings(ctx context.Context, date model.Date, start model.Clock) ([]*model.Booking, error) {
	return findActiveBookings(ctx, s.bookings, date, start)
}

func findActiveBookings(ctx context.Context, store BookingStore, date model.Date, start model.Clock) ([]*model.Booking, error) {
	bookings, err := store.List(ctx, model.BookingFilter{
		Date:       date,
		StartTime:  &start,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, storeError("list active bookings", err)
	}
	return bookings, nil
}
