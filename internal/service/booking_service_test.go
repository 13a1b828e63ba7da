package service

import (
	"context"
	"sync"
	"testing"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/Freeeeeet/office_scheduler/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReserve_ScenarioB(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.seedScenarioA(t)

	booking, err := e.booking.Reserve(ctx, reserveAna())
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusScheduled, booking.Status)
	assert.Equal(t, model.NewClock(10, 0), booking.EndTime)
	assert.Equal(t, model.OriginSelfService, booking.Origin)
	assert.Equal(t, model.RoleClient, booking.CreatedBy)

	slot, err := e.slots.FindByDateTime(ctx, booking.Date, booking.StartTime)
	require.NoError(t, err)
	assert.False(t, slot.Available)

	again := reserveAna()
	again.ClientID, again.ClientName = "client-bruno", "Bruno"
	_, err = e.booking.Reserve(ctx, again)
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)

	all, err := e.booking.ListBookings(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpdateStatus_ScenarioC(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.seedScenarioA(t)

	booking, err := e.booking.Reserve(ctx, reserveAna())
	require.NoError(t, err)

	updated, err := e.booking.UpdateStatus(ctx, booking.ID, BookingUpdate{Status: statusPtr(model.BookingStatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, updated.Status)

	slots, err := e.slotSvc.ListSlots(ctx, SlotQuery{From: datePtr(model.NewDate(2024, 3, 4)), AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, slots, 4)
	assert.Equal(t, "2024-03-04", slots[0].Date.String())
	assert.Equal(t, model.NewClock(9, 0), slots[0].StartTime)
	assert.True(t, slots[0].Available)

	// Слот снова можно занять
	_, err = e.booking.Reserve(ctx, reserveAna())
	require.NoError(t, err)
}

func TestReserve_NeverExistedAndTakenLookTheSame(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.seedScenarioA(t)

	missing := reserveAna()
	missing.StartTime = model.NewClock(9, 30)
	_, err := e.booking.Reserve(ctx, missing)
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)

	_, err = e.booking.Reserve(ctx, reserveAna())
	require.NoError(t, err)
	_, err = e.booking.Reserve(ctx, reserveAna())
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)
}

func TestReserve_ModalityMismatch(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	_, err := e.slotSvc.CreateSlot(ctx, &model.Slot{
		Date:      model.NewDate(2024, 3, 4),
		StartTime: model.NewClock(9, 0),
		EndTime:   model.NewClock(10, 0),
		Modality:  model.ModalityInPerson,
	})
	require.NoError(t, err)

	_, err = e.booking.Reserve(ctx, reserveAna())
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)

	req := reserveAna()
	req.Modality = model.ModalityInPerson
	_, err = e.booking.Reserve(ctx, req)
	assert.NoError(t, err)
}

func TestReserve_Validation(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.seedScenarioA(t)

	tests := []struct {
		name   string
		modify func(r *ReserveRequest)
	}{
		{"missing client id", func(r *ReserveRequest) { r.ClientID = "  " }},
		{"missing client name", func(r *ReserveRequest) { r.ClientName = "" }},
		{"missing date", func(r *ReserveRequest) { r.Date = model.Date{} }},
		{"either is not a booking modality", func(r *ReserveRequest) { r.Modality = model.ModalityEither }},
		{"unknown role", func(r *ReserveRequest) { r.CreatedBy = "intern" }},
		{"unknown origin", func(r *ReserveRequest) { r.Origin = "fax" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := reserveAna()
			tt.modify(&req)
			_, err := e.booking.Reserve(ctx, req)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}

	slot, err := e.slots.FindByDateTime(ctx, model.NewDate(2024, 3, 4), model.NewClock(9, 0))
	require.NoError(t, err)
	assert.True(t, slot.Available, "rejected requests must not touch the slot")
}

func TestReserve_ConcurrentExactlyOneWinner(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.seedScenarioA(t)

	const clients = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
		losers  int
	)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := reserveAna()
			req.ClientID = string(rune('a' + i))
			_, err := e.booking.Reserve(ctx, req)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners++
			} else if assert.ErrorIs(t, err, model.ErrSlotUnavailable) {
				losers++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, clients-1, losers)

	active, err := e.bookings.List(ctx, model.BookingFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 1, "losing bookings are removed")
}

func TestReserve_LostCompareAndSetDeletesBooking(t *testing.T) {
	ctx := context.Background()
	slots := memory.NewSlotStore()
	bookings := memory.NewBookingStore()
	seed := NewSlotService(slots, bookings, zap.NewNop())
	_, err := seed.CreateSlots(ctx, scheduleA())
	require.NoError(t, err)

	first := NewBookingService(slots, bookings, zap.NewNop())
	_, err = first.Reserve(ctx, reserveAna())
	require.NoError(t, err)

	// Устаревшее чтение: слот выглядит свободным, но условная запись проигрывает
	stale := &flakySlotStore{SlotStore: slots, failCreateAfter: -1, staleFind: true}
	second := NewBookingService(stale, bookings, zap.NewNop())

	req := reserveAna()
	req.ClientID = "client-bruno"
	_, err = second.Reserve(ctx, req)
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)

	bruno, err := bookings.List(ctx, model.BookingFilter{ClientID: "client-bruno"})
	require.NoError(t, err)
	assert.Empty(t, bruno)
}

func TestReserve_ReconcileBeforeFlipDoesNotStrandSlot(t *testing.T) {
	ctx := context.Background()
	slots := memory.NewSlotStore()
	bookings := memory.NewBookingStore()
	_, err := NewSlotService(slots, bookings, zap.NewNop()).CreateSlots(ctx, scheduleA())
	require.NoError(t, err)

	// Сверка видит уже записанную, но ещё не закрепившую слот запись и занимает слот за неё
	racing := &flakySlotStore{
		SlotStore:       slots,
		failCreateAfter: -1,
		beforeReserve: func(ctx context.Context) {
			report, err := NewReconciler(slots, bookings, zap.NewNop()).Reconcile(ctx, model.Date{})
			require.NoError(t, err)
			require.Equal(t, 1, report.Repaired)
		},
	}
	svc := NewBookingService(racing, bookings, zap.NewNop())

	_, err = svc.Reserve(ctx, reserveAna())
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)

	active, err := bookings.List(ctx, model.BookingFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)

	slot, err := slots.FindByDateTime(ctx, model.NewDate(2024, 3, 4), model.NewClock(9, 0))
	require.NoError(t, err)
	assert.True(t, slot.Available, "slot without an active booking must be open")
}

func TestReserve_CancelOfWinnerDuringLostFlipFreesSlot(t *testing.T) {
	ctx := context.Background()
	slots := memory.NewSlotStore()
	bookings := memory.NewBookingStore()
	_, err := NewSlotService(slots, bookings, zap.NewNop()).CreateSlots(ctx, scheduleA())
	require.NoError(t, err)

	admin := NewBookingService(slots, bookings, zap.NewNop())
	winner, err := admin.Reserve(ctx, reserveAna())
	require.NoError(t, err)

	// Отмена победителя попадает между записью проигравшего и его условной записью слота
	racing := &flakySlotStore{
		SlotStore:       slots,
		failCreateAfter: -1,
		staleFind:       true,
		beforeReserve: func(ctx context.Context) {
			_, err := admin.UpdateStatus(ctx, winner.ID, BookingUpdate{Status: statusPtr(model.BookingStatusCancelled)})
			require.NoError(t, err)
		},
	}
	loser := NewBookingService(racing, bookings, zap.NewNop())

	req := reserveAna()
	req.ClientID = "client-bruno"
	req.ClientName = "Bruno"
	_, err = loser.Reserve(ctx, req)
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)

	active, err := bookings.List(ctx, model.BookingFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)

	slot, err := slots.FindByDateTime(ctx, winner.Date, winner.StartTime)
	require.NoError(t, err)
	assert.True(t, slot.Available, "slot without an active booking must be open")
}

func TestReserve_LostFlipCancelsBookingWhenDeleteFails(t *testing.T) {
	ctx := context.Background()
	slots := memory.NewSlotStore()
	bookings := memory.NewBookingStore()
	_, err := NewSlotService(slots, bookings, zap.NewNop()).CreateSlots(ctx, scheduleA())
	require.NoError(t, err)

	_, err = NewBookingService(slots, bookings, zap.NewNop()).Reserve(ctx, reserveAna())
	require.NoError(t, err)

	stale := &flakySlotStore{SlotStore: slots, failCreateAfter: -1, staleFind: true}
	undeletable := &flakyBookingStore{BookingStore: bookings, failDelete: true}
	svc := NewBookingService(stale, undeletable, zap.NewNop())

	req := reserveAna()
	req.ClientID = "client-bruno"
	_, err = svc.Reserve(ctx, req)
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)

	bruno, err := bookings.List(ctx, model.BookingFilter{ClientID: "client-bruno"})
	require.NoError(t, err)
	require.Len(t, bruno, 1)
	assert.Equal(t, model.BookingStatusCancelled, bruno[0].Status)

	report, err := NewReconciler(slots, bookings, zap.NewNop()).Reconcile(ctx, model.Date{})
	require.NoError(t, err)
	assert.Zero(t, report.Duplicates)

	// Не удалось ни удалить, ни отменить: наружу уходит ошибка хранилища
	broken := &flakyBookingStore{BookingStore: bookings, failDelete: true, failUpdate: true}
	req.ClientID = "client-carla"
	_, err = NewBookingService(stale, broken, zap.NewNop()).Reserve(ctx, req)
	assert.ErrorIs(t, err, model.ErrStore)
}

func TestReserve_FlipFailureLeavesBookingForReconciler(t *testing.T) {
	ctx := context.Background()
	slots := memory.NewSlotStore()
	bookings := memory.NewBookingStore()
	_, err := NewSlotService(slots, bookings, zap.NewNop()).CreateSlots(ctx, scheduleA())
	require.NoError(t, err)

	broken := &flakySlotStore{SlotStore: slots, failCreateAfter: -1, failReserve: true}
	svc := NewBookingService(broken, bookings, zap.NewNop())

	_, err = svc.Reserve(ctx, reserveAna())
	require.ErrorIs(t, err, model.ErrStore)

	left, err := bookings.List(ctx, model.BookingFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, left, 1)

	slot, err := slots.FindByDateTime(ctx, left[0].Date, left[0].StartTime)
	require.NoError(t, err)
	assert.True(t, slot.Available)

	report, err := NewReconciler(slots, bookings, zap.NewNop()).Reconcile(ctx, model.Date{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Repaired)

	slot, err = slots.FindByDateTime(ctx, left[0].Date, left[0].StartTime)
	require.NoError(t, err)
	assert.False(t, slot.Available)
}

func TestUpdateStatus_StrictTransitions(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.seedScenarioA(t)

	booking, err := e.booking.Reserve(ctx, reserveAna())
	require.NoError(t, err)

	_, err = e.booking.UpdateStatus(ctx, booking.ID, BookingUpdate{Status: statusPtr(model.BookingStatusConfirmed)})
	require.NoError(t, err)
	_, err = e.booking.UpdateStatus(ctx, booking.ID, BookingUpdate{Status: statusPtr(model.BookingStatusCompleted)})
	require.NoError(t, err)

	_, err = e.booking.UpdateStatus(ctx, booking.ID, BookingUpdate{Status: statusPtr(model.BookingStatusScheduled)})
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = e.booking.UpdateStatus(ctx, booking.ID, BookingUpdate{Status: statusPtr(model.BookingStatusCancelled)})
	assert.ErrorIs(t, err, model.ErrValidation)

	note := "cliente compareceu"
	got, err := e.booking.UpdateStatus(ctx, booking.ID, BookingUpdate{Note: &note})
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCompleted, got.Status)
	assert.Equal(t, note, got.Note)

	slot, err := e.slots.FindByDateTime(ctx, booking.Date, booking.StartTime)
	require.NoError(t, err)
	assert.False(t, slot.Available, "completed booking keeps its slot")
}

func TestUpdateStatus_PermissiveAcceptsAnyOverwrite(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, WithStrictTransitions(false))
	e.seedScenarioA(t)

	booking, err := e.booking.Reserve(ctx, reserveAna())
	require.NoError(t, err)

	_, err = e.booking.UpdateStatus(ctx, booking.ID, BookingUpdate{Status: statusPtr(model.BookingStatusCompleted)})
	require.NoError(t, err)
	got, err := e.booking.UpdateStatus(ctx, booking.ID, BookingUpdate{Status: statusPtr(model.BookingStatusScheduled)})
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusScheduled, got.Status)
}

func TestUpdateStatus_UnknownIDAndStatus(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.seedScenarioA(t)

	_, err := e.booking.UpdateStatus(ctx, uuid.New(), BookingUpdate{Status: statusPtr(model.BookingStatusConfirmed)})
	assert.ErrorIs(t, err, model.ErrNotFound)

	booking, err := e.booking.Reserve(ctx, reserveAna())
	require.NoError(t, err)
	_, err = e.booking.UpdateStatus(ctx, booking.ID, BookingUpdate{Status: statusPtr("postponed")})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestRelease(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.seedScenarioA(t)

	t.Run("missing slot is a no-op", func(t *testing.T) {
		assert.NoError(t, e.booking.Release(ctx, model.NewDate(2030, 1, 1), model.NewClock(9, 0)))
	})

	t.Run("round trip", func(t *testing.T) {
		booking, err := e.booking.Reserve(ctx, reserveAna())
		require.NoError(t, err)

		// Запись ещё активна, слот не освобождается
		require.NoError(t, e.booking.Release(ctx, booking.Date, booking.StartTime))
		slot, err := e.slots.FindByDateTime(ctx, booking.Date, booking.StartTime)
		require.NoError(t, err)
		assert.False(t, slot.Available)

		_, err = e.booking.UpdateStatus(ctx, booking.ID, BookingUpdate{Status: statusPtr(model.BookingStatusCancelled)})
		require.NoError(t, err)
		slot, err = e.slots.FindByDateTime(ctx, booking.Date, booking.StartTime)
		require.NoError(t, err)
		assert.True(t, slot.Available)
	})
}

func TestReserve_NotifiesAndPublishes(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.seedScenarioA(t)

	req := reserveAna()
	req.CaseNumber = "0001234-56.2024.8.26.0100"
	booking, err := e.booking.Reserve(ctx, req)
	require.NoError(t, err)

	sent := e.notifier.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "(11) 98888-7777", sent[0].recipient)
	assert.Contains(t, sent[0].message, "REUNIÃO AGENDADA")
	assert.Contains(t, sent[0].message, "04/03/2024")
	assert.Contains(t, sent[0].message, "09:00")
	assert.Contains(t, sent[0].message, "Processo: 0001234-56.2024.8.26.0100")

	_, err = e.booking.UpdateStatus(ctx, booking.ID, BookingUpdate{Status: statusPtr(model.BookingStatusCancelled)})
	require.NoError(t, err)

	assert.Len(t, e.notifier.messages(), 2)
	assert.Equal(t, []model.BookingEventType{model.EventBookingCreated, model.EventBookingCancelled}, e.events.types())
}

func TestReserve_NotificationFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.notifier.fail = true
	e.seedScenarioA(t)

	booking, err := e.booking.Reserve(ctx, reserveAna())
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusScheduled, booking.Status)
}

func TestListBookings_ByClientNewestFirst(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.seedScenarioA(t)

	first := reserveAna()
	second := reserveAna()
	second.Date = model.NewDate(2024, 3, 5)
	other := reserveAna()
	other.StartTime = model.NewClock(10, 0)
	other.ClientID = "client-bruno"

	for _, req := range []ReserveRequest{first, second, other} {
		_, err := e.booking.Reserve(ctx, req)
		require.NoError(t, err)
	}

	mine, err := e.booking.ListBookings(ctx, "client-ana")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "2024-03-05", mine[0].Date.String())
	assert.Equal(t, "2024-03-04", mine[1].Date.String())

	all, err := e.booking.ListBookings(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
