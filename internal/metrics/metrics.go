// Package metrics exposes prometheus instruments for the generation
// pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Attempt outcomes. Failed calls are labelled with their llm failure
// class instead, e.g. "rate_limit" or "unavailable".
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
	OutcomeTimeout  = "timeout"
)

// Metrics groups the pipeline's counters and histograms.
type Metrics struct {
	Attempts       *prometheus.CounterVec
	AttemptLatency *prometheus.HistogramVec
	Recoveries     *prometheus.CounterVec
	Fallbacks      *prometheus.CounterVec
	RateLimited    prometheus.Counter
	Evaluations    *prometheus.CounterVec
}

// New creates the instruments and registers them with reg. A nil reg
// leaves them unregistered, which tests use for isolation.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pathforge",
				Name:      "cascade_attempts_total",
				Help:      "Model attempts made by the fallback cascade",
			},
			[]string{"model", "outcome"},
		),
		AttemptLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pathforge",
				Name:      "cascade_attempt_duration_seconds",
				Help:      "Duration of a single model attempt",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"model"},
		),
		Recoveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pathforge",
				Name:      "recovery_total",
				Help:      "Structured output recoveries by the stage that produced a value",
			},
			[]string{"purpose", "stage"},
		),
		Fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pathforge",
				Name:      "synthetic_fallbacks_total",
				Help:      "Results substituted by a deterministic generator",
			},
			[]string{"purpose", "reason"},
		),
		RateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "pathforge",
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the rate limiter",
			},
		),
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pathforge",
				Name:      "evaluations_total",
				Help:      "Assessment evaluations by next-module difficulty",
			},
			[]string{"difficulty"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Attempts, m.AttemptLatency, m.Recoveries, m.Fallbacks, m.RateLimited, m.Evaluations)
	}
	return m
}

// ObserveAttempt records one model attempt.
func (m *Metrics) ObserveAttempt(model, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(model, outcome).Inc()
	m.AttemptLatency.WithLabelValues(model).Observe(d.Seconds())
}

// ObserveRecovery records the recovery stage that produced a value, or
// "failed".
func (m *Metrics) ObserveRecovery(purpose, stage string) {
	if m == nil {
		return
	}
	m.Recoveries.WithLabelValues(purpose, stage).Inc()
}

// ObserveFallback records a synthetic substitution.
func (m *Metrics) ObserveFallback(purpose, reason string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(purpose, reason).Inc()
}

// ObserveRateLimited records a rejected request.
func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

// ObserveEvaluation records an evaluation outcome.
func (m *Metrics) ObserveEvaluation(difficulty string) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(difficulty).Inc()
}
