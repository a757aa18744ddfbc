package schedule

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects driver statistics. Create one per process with
// NewMetrics and pass it to drivers with WithMetrics.
type Metrics struct {
	attempts *prometheus.CounterVec
	runs     *prometheus.CounterVec
	delays   *prometheus.HistogramVec
}

// Run outcomes reported in the "result" label.
const (
	ResultSuccess   = "success"
	ResultExhausted = "exhausted"
	ResultFailed    = "failed"
	ResultCancelled = "cancelled"
)

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "attempts_total",
			Help:      "Action invocations made by schedule drivers.",
		}, []string{"driver", "outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "runs_total",
			Help:      "Completed driver calls by result.",
		}, []string{"driver", "result"}),
		delays: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "delay_seconds",
			Help:      "Delays requested between attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"driver"}),
	}
	if reg != nil {
		reg.MustRegister(m.attempts, m.runs, m.delays)
	}
	return m
}

// Attempts returns the attempt counter for driver and outcome ("success" or
// "failure").
func (m *Metrics) Attempts(driver, outcome string) prometheus.Counter {
	return m.attempts.WithLabelValues(driver, outcome)
}

// Runs returns the run counter for driver and result.
func (m *Metrics) Runs(driver, result string) prometheus.Counter {
	return m.runs.WithLabelValues(driver, result)
}

func (m *Metrics) attempt(driver string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.attempts.WithLabelValues(driver, outcome).Inc()
}

func (m *Metrics) run(driver, result string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(driver, result).Inc()
}

func (m *Metrics) delay(driver string, d time.Duration) {
	if m == nil || d == Infinite {
		return
	}
	m.delays.WithLabelValues(driver).Observe(d.Seconds())
}
