package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
	outcomeTimeout = "timeout"
	outcomeSkipped = "skipped"
)

// Metrics captures scheduler health signals.
type Metrics struct {
	jobRuns     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	jobItems    *prometheus.CounterVec
}

// NewMetrics creates the scheduler collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workshop",
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduler job runs by job and outcome.",
		}, []string{"job", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "workshop",
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Scheduler job duration.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"job"}),
		jobItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workshop",
			Subsystem: "scheduler",
			Name:      "job_items_total",
			Help:      "Rows changed by scheduler jobs.",
		}, []string{"job", "kind"}),
	}
	reg.MustRegister(m.jobRuns, m.jobDuration, m.jobItems)
	return m
}

func (m *Metrics) observeRun(job, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, outcome).Inc()
	if outcome != outcomeSkipped {
		m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
	}
}

func (m *Metrics) addItems(job, kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.jobItems.WithLabelValues(job, kind).Add(float64(n))
}
