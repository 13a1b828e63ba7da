package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/Freeeeeet/office_scheduler/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errDisk = errors.New("disk on fire")

type engine struct {
	slots    *memory.SlotStore
	bookings *memory.BookingStore
	slotSvc  *SlotService
	booking  *BookingService
	notifier *recordingNotifier
	events   *recordingPublisher
}

func newEngine(t *testing.T, opts ...Option) *engine {
	t.Helper()

	e := &engine{
		slots:    memory.NewSlotStore(),
		bookings: memory.NewBookingStore(),
		notifier: &recordingNotifier{},
		events:   &recordingPublisher{},
	}
	opts = append([]Option{WithNotifier(e.notifier), WithPublisher(e.events)}, opts...)

	e.slotSvc = NewSlotService(e.slots, e.bookings, zap.NewNop(), opts...)
	e.booking = NewBookingService(e.slots, e.bookings, zap.NewNop(), opts...)
	return e
}

// seedScenarioA Пн 2024-03-04 и Вт 2024-03-05, 09:00–11:00 по 60 минут
func (e *engine) seedScenarioA(t *testing.T) {
	t.Helper()
	res, err := e.slotSvc.CreateSlots(context.Background(), scheduleA())
	require.NoError(t, err)
	require.Equal(t, 4, res.Created)
}

func scheduleA() model.SlotSchedule {
	return model.SlotSchedule{
		StartDate:       model.NewDate(2024, 3, 4),
		EndDate:         model.NewDate(2024, 3, 5),
		DailyStart:      model.NewClock(9, 0),
		DailyEnd:        model.NewClock(11, 0),
		DurationMinutes: 60,
		Weekdays:        []int{1, 2},
		Modality:        model.ModalityEither,
	}
}

func reserveAna() ReserveRequest {
	return ReserveRequest{
		Date:         model.NewDate(2024, 3, 4),
		StartTime:    model.NewClock(9, 0),
		ClientID:     "client-ana",
		ClientName:   "Ana",
		ContactPhone: "(11) 98888-7777",
		Modality:     model.ModalityOnline,
	}
}

func datePtr(d model.Date) *model.Date { return &d }

func statusPtr(s model.BookingStatus) *model.BookingStatus { return &s }

type sentMessage struct {
	recipient string
	message   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	fail bool
}

func (n *recordingNotifier) Send(_ context.Context, recipient, message string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{recipient: recipient, message: message})
	return !n.fail
}

func (n *recordingNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event model.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []model.BookingEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []model.BookingEventType
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

// flakySlotStore ломает выбранные операции хранилища слотов
type flakySlotStore struct {
	SlotStore
	failCreateAfter int // -1: не ломать Create
	created         int
	failReserve     bool
	staleFind       bool // FindByDateTime всегда видит слот свободным
	beforeReserve   func(ctx context.Context)
	afterList       func(ctx context.Context)
}

func (f *flakySlotStore) Create(ctx context.Context, slot *model.Slot) error {
	if f.failCreateAfter >= 0 && f.created >= f.failCreateAfter {
		return errDisk
	}
	f.created++
	return f.SlotStore.Create(ctx, slot)
}

func (f *flakySlotStore) Reserve(ctx context.Context, id uuid.UUID) (bool, error) {
	if f.failReserve {
		return false, errDisk
	}
	if f.beforeReserve != nil {
		f.beforeReserve(ctx)
	}
	return f.SlotStore.Reserve(ctx, id)
}

func (f *flakySlotStore) List(ctx context.Context, filter model.SlotFilter) ([]*model.Slot, error) {
	slots, err := f.SlotStore.List(ctx, filter)
	if f.afterList != nil {
		hook := f.afterList
		f.afterList = nil
		hook(ctx)
	}
	return slots, err
}

func (f *flakySlotStore) FindByDateTime(ctx context.Context, date model.Date, start model.Clock) (*model.Slot, error) {
	slot, err := f.SlotStore.FindByDateTime(ctx, date, start)
	if slot != nil && f.staleFind {
		slot.Available = true
	}
	return slot, err
}

// flakyBookingStore ломает удаление и обновление записей
type flakyBookingStore struct {
	BookingStore
	failDelete bool
	failUpdate bool
}

func (f *flakyBookingStore) Delete(ctx context.Context, id uuid.UUID) error {
	if f.failDelete {
		return errDisk
	}
	return f.BookingStore.Delete(ctx, id)
}

func (f *flakyBookingStore) Update(ctx context.Context, booking *model.Booking) error {
	if f.failUpdate {
		return errDisk
	}
	return f.BookingStore.Update(ctx, booking)
}

// generationCache кэш доступности в памяти с поколениями, как в Redis
type generationCache struct {
	mu         sync.Mutex
	generation int64
	entries    map[string][]*model.Slot
}

func newGenerationCache() *generationCache {
	return &generationCache{entries: make(map[string][]*model.Slot)}
}

func (c *generationCache) Get(_ context.Context, key string) ([]*model.Slot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slots, ok := c.entries[key]
	return slots, ok
}

func (c *generationCache) Generation(context.Context) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, true
}

func (c *generationCache) Set(_ context.Context, key string, generation int64, slots []*model.Slot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return
	}
	c.entries[key] = slots
}

func (c *generationCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.entries = make(map[string][]*model.Slot)
}
