package killswitch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the kill switch.
type Metrics struct {
	Denials      *prometheus.CounterVec
	Activations  *prometheus.CounterVec
	AutoTriggers *prometheus.CounterVec
	CacheHits    *prometheus.CounterVec
}

// NewMetrics registers kill-switch metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Denials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simply_killswitch_denials_total",
			Help: "Operations denied by the kill switch, by reason",
		}, []string{"reason"}),

		Activations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simply_killswitch_activations_total",
			Help: "Manual and automatic switch activations by scope",
		}, []string{"scope"}),

		AutoTriggers: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simply_killswitch_auto_triggers_total",
			Help: "Auto-trigger firings by trigger reason",
		}, []string{"trigger"}),

		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simply_killswitch_cache_reads_total",
			Help: "State reads served from the in-process cache vs the store",
		}, []string{"source"}),
	}
}

func (m *Metrics) IncDenial(reason string) {
	if m != nil {
		m.Denials.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncActivation(scope Scope) {
	if m != nil {
		m.Activations.WithLabelValues(string(scope)).Inc()
	}
}

func (m *Metrics) IncAutoTrigger(trigger string) {
	if m != nil {
		m.AutoTriggers.WithLabelValues(trigger).Inc()
	}
}

func (m *Metrics) IncCacheRead(source string) {
	if m != nil {
		m.CacheHits.WithLabelValues(source).Inc()
	}
}
