package behavior

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the profile builder.
type Metrics struct {
	Rebuilds  *prometheus.CounterVec
	Anomalies *prometheus.CounterVec
}

// NewMetrics registers behavior metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Rebuilds: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simply_behavior_profiles_rebuilt_total",
			Help: "Profile rebuilds by resulting segment",
		}, []string{"segment"}),

		Anomalies: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simply_behavior_anomalies_total",
			Help: "Profile deviations detected by type",
		}, []string{"type"}),
	}
}

func (m *Metrics) IncRebuild(segment Segment) {
	if m != nil {
		m.Rebuilds.WithLabelValues(string(segment)).Inc()
	}
}

func (m *Metrics) IncAnomaly(kind AnomalyType) {
	if m != nil {
		m.Anomalies.WithLabelValues(string(kind)).Inc()
	}
}
