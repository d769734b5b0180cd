package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the bot. Each instance
// owns its registry so tests can build as many as they like.
type Metrics struct {
	Updates       *prometheus.CounterVec
	Actions       *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	StorageErrors *prometheus.CounterVec
	TasksSaved    prometheus.Counter

	registry *prometheus.Registry
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Updates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Telegram updates by kind and outcome.",
		}, []string{"kind", "outcome"}),
		Actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "day_actions_total",
			Help:      "Day state machine actions by action and result.",
		}, []string{"action", "result"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Outbound notifications by kind and result.",
		}, []string{"kind", "result"}),
		StorageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      "Task store failures by operation.",
		}, []string{"op"}),
		TasksSaved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_saved_total",
			Help:      "Tasks written by full-day replaces.",
		}),
		registry: reg,
	}
}

// ObserveNotification counts one delivery attempt.
func (m *Metrics) ObserveNotification(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Notifications.WithLabelValues(kind, result).Inc()
}

// ObserveAction counts one state machine transition.
func (m *Metrics) ObserveAction(action, result string) {
	m.Actions.WithLabelValues(action, result).Inc()
}

func (m *Metrics) ObserveStorageError(op string) {
	m.StorageErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) ObserveUpdate(kind, outcome string) {
	m.Updates.WithLabelValues(kind, outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
