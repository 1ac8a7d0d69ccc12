package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const outcomeOK = "ok"

// Metrics - счётчики исходящих вызовов. nil-значение безопасно.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics регистрирует коллекторы в reg. reg == nil - коллекторы
// создаются, но нигде не регистрируются.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slides",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Outbound API calls by method and outcome kind.",
		}, []string{"method", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "slides",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Outbound API call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}

	return m
}

func (m *Metrics) observe(method, kind string, d time.Duration) {
	if m == nil {
		return
	}

	m.requests.WithLabelValues(method, kind).Inc()
	m.duration.WithLabelValues(method).Observe(d.Seconds())
}
