// Package metrics exposes Prometheus counters for roster lifecycle activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks state transitions, termination sweeps and enrollment
// reconciliation. A nil *Metrics records nothing.
type Metrics struct {
	Transitions         *prometheus.CounterVec
	RejectedTransitions *prometheus.CounterVec
	SweepProcessed      prometheus.Counter
	SweepFailed         prometheus.Counter
	SweepDuration       prometheus.Histogram
	EnrollmentsChanged  *prometheus.CounterVec
}

// New registers the census metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "census_employee_transitions_total",
			Help: "Census employee state transitions by event and resulting state",
		}, []string{"event", "to"}),
		RejectedTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "census_employee_rejected_transitions_total",
			Help: "Census employee events refused by the state machine or a guard",
		}, []string{"event"}),
		SweepProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "census_termination_sweep_processed_total",
			Help: "Scheduled terminations completed by the daily sweep",
		}),
		SweepFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "census_termination_sweep_failed_total",
			Help: "Scheduled terminations the daily sweep could not complete",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "census_termination_sweep_duration_seconds",
			Help:    "Duration of a termination sweep run",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}),
		EnrollmentsChanged: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "census_enrollments_reconciled_total",
			Help: "Enrollments changed by termination reconciliation, by outcome",
		}, []string{"outcome"}),
	}
}

// TransitionApplied records a successful state change.
func (m *Metrics) TransitionApplied(event, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(event, to).Inc()
}

// TransitionRejected records a refused event.
func (m *Metrics) TransitionRejected(event string) {
	if m == nil {
		return
	}
	m.RejectedTransitions.WithLabelValues(event).Inc()
}

// EnrollmentReconciled records one enrollment change.
func (m *Metrics) EnrollmentReconciled(outcome string) {
	if m == nil {
		return
	}
	m.EnrollmentsChanged.WithLabelValues(outcome).Inc()
}

// ObserveSweep records the result of a sweep started at start.
func (m *Metrics) ObserveSweep(start time.Time, processed, failed int) {
	if m == nil {
		return
	}
	m.SweepProcessed.Add(float64(processed))
	m.SweepFailed.Add(float64(failed))
	m.SweepDuration.Observe(time.Since(start).Seconds())
}
