package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/Freeeeeet/office_scheduler/internal/service"
	"go.uber.org/zap"
)

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	reconciler *service.Reconciler
	interval   time.Duration
	now        func() time.Time
	logger     *zap.Logger
	stopChan   chan struct{}
}

// NewScheduler создаёт новый планировщик сверки слотов и записей
func NewScheduler(reconciler *service.Reconciler, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		reconciler: reconciler,
		interval:   interval,
		now:        time.Now,
		logger:     logger,
		stopChan:   make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	go s.runReconcileTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runReconcileTask периодически чинит слоты, оставшиеся свободными при активной записи
func (s *Scheduler) runReconcileTask(ctx context.Context) {
	// Первый запуск сразу при старте
	s.reconcile(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reconcile(ctx)
		case <-s.stopChan:
			s.logger.Info("Reconcile task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Reconcile task cancelled")
			return
		}
	}
}

// reconcile проверяет записи начиная с сегодняшнего дня
func (s *Scheduler) reconcile(ctx context.Context) {
	report, err := s.reconciler.Reconcile(ctx, model.DateOf(s.now()))
	if err != nil {
		s.logger.Error("Failed to reconcile slots", zap.Error(err))
		return
	}

	if report.Repaired > 0 || report.Duplicates > 0 {
		s.logger.Warn("Reconcile found inconsistencies",
			zap.Int("repaired", report.Repaired),
			zap.Int("duplicates", report.Duplicates),
			zap.Int("orphaned", report.Orphaned),
		)
	}
}
