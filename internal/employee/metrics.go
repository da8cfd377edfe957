package employee

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the employee anomaly detector.
type Metrics struct {
	Anomalies        *prometheus.CounterVec
	BaselineRebuilds prometheus.Counter
	SessionsKilled   prometheus.Counter
	DualApprovals    prometheus.Counter
}

// NewMetrics registers employee monitoring metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Anomalies: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simply_employee_anomalies_total",
			Help: "Detected employee anomalies by type and severity",
		}, []string{"type", "severity"}),

		BaselineRebuilds: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simply_employee_baseline_rebuilds_total",
			Help: "Employee baseline recomputations",
		}),

		SessionsKilled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simply_employee_sessions_terminated_total",
			Help: "Sessions force-ended by the critical anomaly response",
		}),

		DualApprovals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simply_employee_dual_approval_flags_total",
			Help: "Employees flagged for mandatory dual approval",
		}),
	}
}

func (m *Metrics) IncAnomaly(anomalyType AnomalyType, severity Severity) {
	if m != nil {
		m.Anomalies.WithLabelValues(string(anomalyType), string(severity)).Inc()
	}
}

func (m *Metrics) IncBaselineRebuild() {
	if m != nil {
		m.BaselineRebuilds.Inc()
	}
}

func (m *Metrics) IncSessionKilled() {
	if m != nil {
		m.SessionsKilled.Inc()
	}
}

func (m *Metrics) IncDualApproval() {
	if m != nil {
		m.DualApprovals.Inc()
	}
}
