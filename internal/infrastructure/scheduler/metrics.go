package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors updated after every run
type Metrics struct {
	runs        *prometheus.CounterVec
	items       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
}

// NewMetrics creates the scheduler collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "focco_sync",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by final status.",
		}, []string{"job", "status"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "focco_sync",
			Name:      "batch_items_total",
			Help:      "Entities processed by batch jobs by outcome.",
		}, []string{"job", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "focco_sync",
			Name:      "job_duration_seconds",
			Help:      "Wall time of scheduled job runs.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "focco_sync",
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last run that did not fail.",
		}, []string{"job"}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.items, m.duration, m.lastSuccess)
	}
	return m
}

func (m *Metrics) observe(r Run) {
	m.runs.WithLabelValues(r.Job, string(r.Status)).Inc()
	for outcome, n := range r.Outcomes {
		if n > 0 {
			m.items.WithLabelValues(r.Job, outcome).Add(float64(n))
		}
	}
	m.duration.WithLabelValues(r.Job).Observe(r.Duration().Seconds())
	if r.Status != RunStatusFailed {
		m.lastSuccess.WithLabelValues(r.Job).Set(float64(r.FinishedAt.Unix()))
	}
}
