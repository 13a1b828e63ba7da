package service

import (
	"context"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"go.uber.org/zap"
)

// Reconciler сверяет записи и слоты: чинит слоты, оставшиеся свободными
// после сбоя занятия, и сообщает о двойных записях на одно время
type Reconciler struct {
	slots    SlotStore
	bookings BookingStore
	opts     options
	logger   *zap.Logger
}

func NewReconciler(slots SlotStore, bookings BookingStore, logger *zap.Logger, opts ...Option) *Reconciler {
	return &Reconciler{
		slots:    slots,
		bookings: bookings,
		opts:     applyOptions(opts),
		logger:   logger,
	}
}

// ReconcileReport итог одного прохода сверки
type ReconcileReport struct {
	Checked    int `json:"checked"`    // активных записей просмотрено
	Repaired   int `json:"repaired"`   // слотов переведено в занятые
	Duplicates int `json:"duplicates"` // пар (дата, начало) с несколькими активными записями
	Orphaned   int `json:"orphaned"`   // активных записей без слота
}

// Reconcile проходит по активным записям начиная с from (нулевая дата: все)
func (r *Reconciler) Reconcile(ctx context.Context, from model.Date) (ReconcileReport, error) {
	var report ReconcileReport

	active, err := r.bookings.List(ctx, model.BookingFilter{From: from, ActiveOnly: true})
	if err != nil {
		return report, storeError("list active bookings", err)
	}
	report.Checked = len(active)

	type key struct {
		date  model.Date
		start model.Clock
	}
	groups := make(map[key][]*model.Booking)
	var order []key
	for _, b := range active {
		k := key{b.Date, b.StartTime}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], b)
	}

	for _, k := range order {
		group := groups[k]

		if len(group) > 1 {
			report.Duplicates++
			ids := make([]string, 0, len(group))
			for _, b := range group {
				ids = append(ids, b.ID.String())
			}
			r.logger.Warn("Double booking detected",
				zap.String("date", k.date.String()),
				zap.String("start", k.start.String()),
				zap.Strings("booking_ids", ids),
			)
		}

		slot, err := r.slots.FindByDateTime(ctx, k.date, k.start)
		if err != nil {
			return report, storeError("find slot", err)
		}

		if slot == nil {
			report.Orphaned++
			r.logger.Warn("Active booking without slot",
				zap.String("booking_id", group[0].ID.String()),
				zap.String("date", k.date.String()),
				zap.String("start", k.start.String()),
			)
			continue
		}

		if !slot.Available {
			continue
		}

		if err := r.slots.SetAvailability(ctx, slot.ID, false); err != nil {
			return report, storeError("occupy slot", err)
		}
		report.Repaired++

		r.logger.Info("Slot occupied by reconciliation",
			zap.String("slot_id", slot.ID.String()),
			zap.String("booking_id", group[0].ID.String()),
		)
	}

	if report.Repaired > 0 {
		r.opts.cache.Invalidate(ctx)
	}
	r.opts.metrics.SlotsRepaired(report.Repaired)

	r.logger.Info("Reconciliation finished",
		zap.Int("checked", report.Checked),
		zap.Int("repaired", report.Repaired),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("orphaned", report.Orphaned),
	)

	return report, nil
}
