package service

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/office_scheduler/internal/model"
)

// BatchPolicy режим пакетного создания слотов
type BatchPolicy string

const (
	// BatchBestEffort каждый слот сохраняется отдельно, дубликаты пропускаются
	BatchBestEffort BatchPolicy = "best-effort"
	// BatchAtomic все слоты сохраняются одной транзакцией или ни одного
	BatchAtomic BatchPolicy = "atomic"
)

func ParseBatchPolicy(s string) (BatchPolicy, error) {
	switch p := BatchPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return BatchBestEffort, nil
	case BatchBestEffort, BatchAtomic:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown batch policy %q", model.ErrValidation, s)
	}
}

type options struct {
	strictTransitions bool
	batchPolicy       BatchPolicy
	notifier          Notifier
	publisher         EventPublisher
	cache             AvailabilityCache
	metrics           Metrics
}

func defaultOptions() options {
	return options{
		strictTransitions: true,
		batchPolicy:       BatchBestEffort,
		notifier:          nopNotifier{},
		publisher:         nopPublisher{},
		cache:             nopCache{},
		metrics:           nopMetrics{},
	}
}

// Option настраивает сервисы движка записи
type Option func(*options)

// WithStrictTransitions включает или выключает проверку переходов статуса по таблице
func WithStrictTransitions(strict bool) Option {
	return func(o *options) { o.strictTransitions = strict }
}

func WithBatchPolicy(p BatchPolicy) Option {
	return func(o *options) { o.batchPolicy = p }
}

func WithNotifier(n Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notifier = n
		}
	}
}

func WithPublisher(p EventPublisher) Option {
	return func(o *options) {
		if p != nil {
			o.publisher = p
		}
	}
}

func WithCache(c AvailabilityCache) Option {
	return func(o *options) {
		if c != nil {
			o.cache = c
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// storeError помечает сбой хранилища, сохраняя исходную ошибку в цепочке
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStore, err)
}
