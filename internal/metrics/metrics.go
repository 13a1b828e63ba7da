// Package metrics provides Prometheus metrics for the booking engine and HTTP layer.
package metrics

import (
	"strconv"
	"time"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "office_scheduler"

// Metrics holds every collector of the service. Collectors are registered
// on the registerer passed to New, so tests can use a private registry.
type Metrics struct {
	// SlotsCreatedTotal counts slots persisted by batch or single creation.
	SlotsCreatedTotal prometheus.Counter

	// SlotsSkippedTotal counts duplicate slots skipped by best-effort batches.
	SlotsSkippedTotal prometheus.Counter

	// BookingsTotal counts successful reservations.
	// Labels: origin (self-service, messaging-channel, manual)
	BookingsTotal *prometheus.CounterVec

	// ReserveConflictsTotal counts reservations that lost the slot to a concurrent one.
	ReserveConflictsTotal prometheus.Counter

	// StatusTransitionsTotal counts booking status changes.
	// Labels: from, to
	StatusTransitionsTotal *prometheus.CounterVec

	// NotificationsTotal counts notification attempts.
	// Labels: result (sent, failed)
	NotificationsTotal *prometheus.CounterVec

	// SlotsRepairedTotal counts slots occupied by the reconciler.
	SlotsRepairedTotal prometheus.Counter

	// HTTPRequestDuration tracks request latency.
	// Labels: method, route, status
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SlotsCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "slots",
			Name:      "created_total",
			Help:      "Total number of slots created",
		}),
		SlotsSkippedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "slots",
			Name:      "skipped_total",
			Help:      "Total number of duplicate slots skipped during batch creation",
		}),
		BookingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "reserved_total",
			Help:      "Total number of successful reservations by origin",
		}, []string{"origin"}),
		ReserveConflictsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "reserve_conflicts_total",
			Help:      "Total number of reservations that lost the compare-and-set on the slot",
		}),
		StatusTransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "status_transitions_total",
			Help:      "Total number of booking status transitions",
		}, []string{"from", "to"}),
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Total number of notification attempts by result",
		}, []string{"result"}),
		SlotsRepairedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "slots_repaired_total",
			Help:      "Total number of available slots occupied because an active booking referenced them",
		}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) SlotsCreated(n int) {
	if n > 0 {
		m.SlotsCreatedTotal.Add(float64(n))
	}
}

func (m *Metrics) SlotsSkipped(n int) {
	if n > 0 {
		m.SlotsSkippedTotal.Add(float64(n))
	}
}

func (m *Metrics) BookingReserved(origin model.BookingOrigin) {
	m.BookingsTotal.WithLabelValues(string(origin)).Inc()
}

func (m *Metrics) ReserveConflict() {
	m.ReserveConflictsTotal.Inc()
}

func (m *Metrics) BookingStatusChanged(from, to model.BookingStatus) {
	m.StatusTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) NotificationSent(ok bool) {
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.NotificationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) SlotsRepaired(n int) {
	if n > 0 {
		m.SlotsRepairedTotal.Add(float64(n))
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
