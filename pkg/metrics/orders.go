package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records order creation and lifecycle activity.
type OrderMetrics struct {
	created       *prometheus.CounterVec
	groupFailures *prometheus.CounterVec
	groupDuration *prometheus.HistogramVec
	statusChanges *prometheus.CounterVec
	notifyFailed  *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer. A
// nil registerer yields a no-op recorder.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders committed, by creation path.",
	}, []string{"path"})
	groupFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_group_failures_total",
		Help: "Seller groups rolled back during order creation.",
	}, []string{"path"})
	groupDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_group_duration_seconds",
		Help:    "Time spent persisting one seller group.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})
	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_changes_total",
		Help: "Order status updates, by target status.",
	}, []string{"status"})
	notifyFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_notifications_failed_total",
		Help: "Notifications that could not be delivered after an order write.",
	}, []string{"kind"})
	reg.MustRegister(created, groupFailures, groupDuration, statusChanges, notifyFailed)
	return &OrderMetrics{
		created:       created,
		groupFailures: groupFailures,
		groupDuration: groupDuration,
		statusChanges: statusChanges,
		notifyFailed:  notifyFailed,
	}
}

// ObserveGroup records the outcome and duration of one seller group.
func (m *OrderMetrics) ObserveGroup(path string, duration time.Duration, err error) {
	if m == nil || m.created == nil {
		return
	}
	path = normalizeLabel(path)
	m.groupDuration.WithLabelValues(path).Observe(duration.Seconds())
	if err != nil {
		m.groupFailures.WithLabelValues(path).Inc()
		return
	}
	m.created.WithLabelValues(path).Inc()
}

func (m *OrderMetrics) IncStatusChange(status string) {
	if m == nil || m.statusChanges == nil {
		return
	}
	m.statusChanges.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *OrderMetrics) IncNotificationFailure(kind string) {
	if m == nil || m.notifyFailed == nil {
		return
	}
	m.notifyFailed.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
