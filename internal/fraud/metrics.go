package fraud

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the fraud ensemble.
type Metrics struct {
	Evaluations    *prometheus.CounterVec
	Scores         prometheus.Histogram
	ProcessingTime prometheus.Histogram
	AlertsRaised   prometheus.Counter
}

// NewMetrics registers fraud ensemble metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simply_fraud_evaluations_total",
			Help: "Fraud evaluations by final decision",
		}, []string{"decision"}),

		Scores: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "simply_fraud_scores",
			Help:    "Distribution of composite fraud scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),

		ProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "simply_fraud_processing_seconds",
			Help:    "Wall time spent per evaluation",
			Buckets: prometheus.DefBuckets,
		}),

		AlertsRaised: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simply_fraud_companion_alerts_total",
			Help: "Companion alerts created for evaluations scoring 60 or above",
		}),
	}
}

func (m *Metrics) IncEvaluation(decision Decision) {
	if m != nil {
		m.Evaluations.WithLabelValues(string(decision)).Inc()
	}
}

func (m *Metrics) ObserveScore(score int) {
	if m != nil {
		m.Scores.Observe(float64(score))
	}
}

func (m *Metrics) ObserveProcessing(elapsed time.Duration) {
	if m != nil {
		m.ProcessingTime.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) IncAlertRaised() {
	if m != nil {
		m.AlertsRaised.Inc()
	}
}
