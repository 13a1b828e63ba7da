package service

import (
	"context"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/google/uuid"
)

// SlotStore хранилище слотов. GetByID и FindByDateTime возвращают (nil, nil),
// если слота нет. Уникальность (дата, начало) обеспечивает само хранилище.
type SlotStore interface {
	Create(ctx context.Context, slot *model.Slot) error
	CreateAll(ctx context.Context, slots []*model.Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	FindByDateTime(ctx context.Context, date model.Date, start model.Clock) (*model.Slot, error)
	List(ctx context.Context, filter model.SlotFilter) ([]*model.Slot, error)
	Update(ctx context.Context, slot *model.Slot) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Reserve условная запись: available=false только если сейчас available=true
	Reserve(ctx context.Context, id uuid.UUID) (bool, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
}

// BookingStore хранилище записей
type BookingStore interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
	Update(ctx context.Context, booking *model.Booking) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Notifier доставка сообщений клиенту. Ошибки доставки не прерывают операцию.
type Notifier interface {
	Send(ctx context.Context, recipient, message string) bool
}

// EventPublisher публикация доменных событий по записям
type EventPublisher interface {
	Publish(ctx context.Context, event model.BookingEvent) error
}

// AvailabilityCache кэш выдачи свободных слотов.
// Каждый Invalidate меняет поколение кэша; Set с поколением, прочитанным
// до изменения слотов, ничего не пишет.
type AvailabilityCache interface {
	Get(ctx context.Context, key string) ([]*model.Slot, bool)
	// Generation текущее поколение. false: кэш недоступен, писать не нужно.
	Generation(ctx context.Context) (int64, bool)
	Set(ctx context.Context, key string, generation int64, slots []*model.Slot)
	Invalidate(ctx context.Context)
}

// Metrics счётчики движка записи
type Metrics interface {
	SlotsCreated(n int)
	SlotsSkipped(n int)
	BookingReserved(origin model.BookingOrigin)
	ReserveConflict()
	BookingStatusChanged(from, to model.BookingStatus)
	NotificationSent(ok bool)
	SlotsRepaired(n int)
}

type nopNotifier struct{}

func (nopNotifier) Send(context.Context, string, string) bool { return true }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, model.BookingEvent) error { return nil }

type nopCache struct{}

func (nopCache) Get(context.Context, string) ([]*model.Slot, bool) { return nil, false }
func (nopCache) Generation(context.Context) (int64, bool) { return 0, false }
func (nopCache) Set(context.Context, string, int64, []*model.Slot) {}
func (nopCache) Invalidate(context.Context) {}

type nopMetrics struct{}

func (nopMetrics) SlotsCreated(int) {}
func (nopMetrics) SlotsSkipped(int) {}
func (nopMetrics) BookingReserved(model.BookingOrigin) {}
func (nopMetrics) ReserveConflict() {}
func (nopMetrics) BookingStatusChanged(model.BookingStatus, model.BookingStatus) {}
func (nopMetrics) NotificationSent(bool) {}
func (nopMetrics) SlotsRepaired(int) {}
