package alerting

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the alerting module.
type Metrics struct {
	Created      *prometheus.CounterVec
	Deduplicated prometheus.Counter
	Sent         *prometheus.CounterVec
	SendFailures *prometheus.CounterVec
	Escalated    *prometheus.CounterVec
}

// NewMetrics registers alerting metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Created: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simply_alerts_created_total",
			Help: "Alerts created by category and priority",
		}, []string{"category", "priority"}),

		Deduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simply_alerts_deduplicated_total",
			Help: "Alert creations suppressed by the dedup window",
		}),

		Sent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simply_alerts_sent_total",
			Help: "Channel deliveries attempted successfully",
		}, []string{"channel"}),

		SendFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simply_alerts_send_failures_total",
			Help: "Channel deliveries that failed after retries",
		}, []string{"channel"}),

		Escalated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simply_alerts_escalated_total",
			Help: "Alert escalations by level",
		}, []string{"level"}),
	}
}

func (m *Metrics) IncCreated(category, priority string) {
	if m != nil {
		m.Created.WithLabelValues(category, priority).Inc()
	}
}

func (m *Metrics) IncDeduplicated() {
	if m != nil {
		m.Deduplicated.Inc()
	}
}

func (m *Metrics) IncSent(channel string) {
	if m != nil {
		m.Sent.WithLabelValues(channel).Inc()
	}
}

func (m *Metrics) IncSendFailure(channel string) {
	if m != nil {
		m.SendFailures.WithLabelValues(channel).Inc()
	}
}

func (m *Metrics) IncEscalated(level string) {
	if m != nil {
		m.Escalated.WithLabelValues(level).Inc()
	}
}
