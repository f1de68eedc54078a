// Package metrics holds the Prometheus collectors for the storefront service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for effect runs.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the custom collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ActionsDispatched *prometheus.CounterVec
	EffectRuns        *prometheus.CounterVec
	EffectLatency     *prometheus.HistogramVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// Actions by type (counter - only goes up)
		ActionsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_actions_dispatched_total",
			Help: "Total number of actions dispatched by type",
		}, []string{"type"}),

		EffectRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_effect_runs_total",
			Help: "Total number of side-effect runs by effect and outcome",
		}, []string{"effect", "outcome"}),

		// Upstream calls usually finish well under a second
		EffectLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_effect_duration_seconds",
			Help:    "Side-effect latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"effect"}),
	}
}

// RegisterSessionGauge exposes the number of open sessions through count.
func RegisterSessionGauge(reg prometheus.Registerer, count func() int) {
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "storefront_sessions_open",
		Help: "Current number of open sessions",
	}, func() float64 {
		return float64(count())
	})
}

// RecordAction records a dispatched action type.
func (m *Metrics) RecordAction(actionType string) {
	if m == nil {
		return
	}
	m.ActionsDispatched.WithLabelValues(actionType).Inc()
}

// RecordEffect records the outcome and latency of a side-effect run.
func (m *Metrics) RecordEffect(effect string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.EffectRuns.WithLabelValues(effect, outcome).Inc()
	m.EffectLatency.WithLabelValues(effect).Observe(time.Since(started).Seconds())
}
