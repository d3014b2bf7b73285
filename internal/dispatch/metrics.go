package dispatch

import "github.com/prometheus/client_golang/prometheus"

const (
	resultSuccess = "success"
	resultFailure = "failure"
	resultPanic   = "panic"
)

// Metrics holds the dispatcher collectors. A nil *Metrics records nothing.
type Metrics struct {
	actionsTotal          *prometheus.CounterVec
	actionDuration        *prometheus.HistogramVec
	requirementRejections prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "appinstaller",
				Subsystem: "dispatch",
				Name:      "actions_total",
				Help:      "Total number of dispatched actions by result",
			},
			[]string{"action", "result"},
		),
		actionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "appinstaller",
				Subsystem: "dispatch",
				Name:      "action_duration_seconds",
				Help:      "Duration of dispatched actions in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 15), // 10ms to ~5min
			},
			[]string{"action"},
		),
		requirementRejections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "appinstaller",
				Subsystem: "dispatch",
				Name:      "requirements_rejections_total",
				Help:      "Total number of requests rejected by the requirement gate",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.actionsTotal, m.actionDuration, m.requirementRejections)
	}
	return m
}

func (m *Metrics) recordAction(action, result string, seconds float64) {
	if m == nil {
		return
	}
	m.actionsTotal.WithLabelValues(action, result).Inc()
	if result != resultPanic && seconds > 0 {
		m.actionDuration.WithLabelValues(action).Observe(seconds)
	}
}

func (m *Metrics) recordRejection() {
	if m == nil {
		return
	}
	m.requirementRejections.Inc()
}
