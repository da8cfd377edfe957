package riskauth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the adaptive authentication engine.
type Metrics struct {
	Assessments       *prometheus.CounterVec
	Scores            prometheus.Histogram
	EvaluatorFailures *prometheus.CounterVec
	Challenges        *prometheus.CounterVec
}

// NewMetrics registers risk assessment metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Assessments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simply_risk_assessments_total",
			Help: "Risk assessments by required action",
		}, []string{"action"}),

		Scores: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "simply_risk_scores",
			Help:    "Distribution of computed risk scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),

		EvaluatorFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simply_risk_evaluator_failures_total",
			Help: "Evaluator runs that contributed nothing due to an error",
		}, []string{"evaluator"}),

		Challenges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simply_risk_challenges_total",
			Help: "Challenge verifications by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncAssessment(action Action) {
	if m != nil {
		m.Assessments.WithLabelValues(string(action)).Inc()
	}
}

func (m *Metrics) ObserveScore(score int) {
	if m != nil {
		m.Scores.Observe(float64(score))
	}
}

func (m *Metrics) IncEvaluatorFailure(name string) {
	if m != nil {
		m.EvaluatorFailures.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) IncChallenge(outcome string) {
	if m != nil {
		m.Challenges.WithLabelValues(outcome).Inc()
	}
}
