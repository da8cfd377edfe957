package device

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the device registry.
type Metrics struct {
	Registered *prometheus.CounterVec
	Degraded   prometheus.Counter
	Denied     *prometheus.CounterVec
}

// NewMetrics registers device registry metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Registered: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simply_devices_registered_total",
			Help: "Device registrations by outcome (new or seen)",
		}, []string{"outcome"}),

		Degraded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simply_devices_degraded_total",
			Help: "Automatic TRUSTED to KNOWN downgrades",
		}),

		Denied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simply_devices_denied_total",
			Help: "IsDeviceAllowed denials by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) IncRegistered(outcome string) {
	if m != nil {
		m.Registered.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncDegraded() {
	if m != nil {
		m.Degraded.Inc()
	}
}

func (m *Metrics) IncDenied(reason string) {
	if m != nil {
		m.Denied.WithLabelValues(reason).Inc()
	}
}
