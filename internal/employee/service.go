package employee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gabrielgmza/simply-backend-sub000/internal/alerting"
	"github.com/gabrielgmza/simply-backend-sub000/internal/platform/config"
	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/audit"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// recentWindow is how far back the per-action counters look.
const recentWindow = 24 * time.Hour

// Alerter is the slice of the alerting service the detector needs.
type Alerter interface {
	Create(ctx context.Context, params alerting.CreateParams) (*alerting.Alert, error)
}

// Service analyzes back-office actions against per-employee baselines and
// reacts to anomalies by severity.
type Service struct {
	store      Store
	directory  ports.EmployeeDirectory
	terminator ports.SessionTerminator
	alerter    Alerter
	audit      ports.AuditPublisher
	logger     *slog.Logger
	metrics    *Metrics
	tracer     trace.Tracer
	cfg        *config.EmployeeConfig
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAlerter(alerter Alerter) Option {
	return func(s *Service) { s.alerter = alerter }
}

func WithConfig(cfg *config.EmployeeConfig) Option {
	return func(s *Service) { s.cfg = cfg }
}

// New constructs the detector. The directory and terminator are required;
// the alerter is optional but severity responses degrade to logs without it.
func New(store Store, directory ports.EmployeeDirectory, terminator ports.SessionTerminator, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("employee store is required")
	}
	if directory == nil || terminator == nil {
		return nil, errors.New("employee directory and session terminator are required")
	}
	defaultCfg := config.Default().Employee
	svc := &Service{
		store:      store,
		directory:  directory,
		terminator: terminator,
		tracer:     otel.Tracer("employee"),
		cfg:        &defaultCfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// AnalyzeEmployeeAction records one action, refreshes the baseline when it
// is stale, runs every check, and reacts to whatever they emit. All
// anomalies found are persisted and returned.
func (s *Service) AnalyzeEmployeeAction(ctx context.Context, action ActionContext) ([]*Anomaly, error) {
	if action.EmployeeID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "employee id is required")
	}
	if action.Action == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "action is required")
	}

	ctx, span := s.tracer.Start(ctx, "employee.AnalyzeEmployeeAction",
		trace.WithAttributes(attribute.String("action", action.Action)))
	defer span.End()

	employee, err := s.directory.GetEmployee(ctx, action.EmployeeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "employee not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "resolve employee")
	}

	now := requestcontext.Now(ctx)
	record := ActionRecord{
		EmployeeID: action.EmployeeID,
		Action:     action.Action,
		Resource:   action.Resource,
		ClientID:   action.ClientID,
		IP:         action.IP,
		Amount:     action.Amount,
		At:         now,
	}
	if err := s.store.RecordAction(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "record employee action")
	}

	baseline, err := s.ensureBaseline(ctx, employee, now)
	if err != nil {
		return nil, err
	}

	recent, err := s.store.ListActions(ctx, action.EmployeeID, now.Add(-recentWindow))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load recent actions")
	}

	input := checkInput{
		baseline:  baseline,
		window:    buildWindow(recent, now),
		action:    action,
		role:      employee.Role,
		now:       now,
		highValue: s.cfg.HighValueApprovalThreshold,
	}

	var anomalies []*Anomaly
	for _, run := range anomalyChecks() {
		anomaly := run(input)
		if anomaly == nil {
			continue
		}
		anomaly.ID = id.NewAnomalyID()
		anomaly.EmployeeID = action.EmployeeID
		anomaly.Status = StatusDetected
		anomaly.DetectedAt = now

		s.respond(ctx, employee, anomaly)

		if err := s.store.CreateAnomaly(ctx, anomaly); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist anomaly")
		}
		s.metrics.IncAnomaly(anomaly.Type, anomaly.Severity)
		span.AddEvent("anomaly", trace.WithAttributes(
			attribute.String("type", string(anomaly.Type)),
			attribute.String("severity", string(anomaly.Severity)),
		))
		ports.LogAudit(ctx, s.logger, s.audit, audit.EventEmployeeAnomalyDetected,
			"employee/"+action.EmployeeID.String(),
			fmt.Sprintf("%s detected: %s", anomaly.Type, anomaly.Description),
			auditSeverity(anomaly.Severity),
			"anomaly_id", anomaly.ID.String(),
			"severity", string(anomaly.Severity),
		)
		anomalies = append(anomalies, anomaly)
	}
	return anomalies, nil
}

// ensureBaseline returns the stored baseline, rebuilding it from the
// rolling window when missing or older than the rebuild interval.
func (s *Service) ensureBaseline(ctx context.Context, employee *ports.Employee, now time.Time) (*Baseline, error) {
	baseline, err := s.store.GetBaseline(ctx, employee.ID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load baseline")
	}
	if baseline != nil && now.Sub(baseline.UpdatedAt) < s.cfg.BaselineMinAge {
		return baseline, nil
	}

	history, err := s.store.ListActions(ctx, employee.ID, now.Add(-s.cfg.BaselineWindow))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load baseline window")
	}
	baseline = BuildBaseline(employee.ID, history, employee.AssignedClientIDs, now)
	if err := s.store.ReplaceBaseline(ctx, baseline); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "replace baseline")
	}
	s.metrics.IncBaselineRebuild()
	if s.logger != nil {
		s.logger.DebugContext(ctx, "employee baseline rebuilt",
			"employee_id", employee.ID.String(),
			"data_points", baseline.DataPoints,
		)
	}
	return baseline, nil
}

// respond applies the severity-graded automatic response and records what
// was done on the anomaly itself.
func (s *Service) respond(ctx context.Context, employee *ports.Employee, anomaly *Anomaly) {
	switch anomaly.Severity {
	case SeverityCritical:
		reason := fmt.Sprintf("critical anomaly %s", anomaly.Type)
		if err := s.terminator.TerminateActiveSessions(ctx, employee.ID, reason); err != nil {
			s.logWarn(ctx, "session termination failed", "employee_id", employee.ID.String(), "error", err)
		} else {
			anomaly.ActionsTaken = append(anomaly.ActionsTaken, "sessions_terminated")
			s.metrics.IncSessionKilled()
			ports.LogAudit(ctx, s.logger, s.audit, audit.EventEmployeeSessionKilled,
				"employee/"+employee.ID.String(),
				fmt.Sprintf("active sessions terminated: %s", anomaly.Description),
				audit.SeverityCritical,
				"anomaly_id", anomaly.ID.String(),
			)
		}
		if s.notifySupervisor(ctx, employee, anomaly) {
			anomaly.ActionsTaken = append(anomaly.ActionsTaken, "supervisor_notified")
		}
		if s.notify(ctx, employee, anomaly, alerting.Target{Type: alerting.TargetAllAdmins}) {
			anomaly.ActionsTaken = append(anomaly.ActionsTaken, "admins_notified")
		}

	case SeverityHigh:
		now := requestcontext.Now(ctx)
		if err := s.store.RequireDualApproval(ctx, employee.ID, string(anomaly.Type), now); err != nil {
			s.logWarn(ctx, "dual approval flag failed", "employee_id", employee.ID.String(), "error", err)
		} else {
			anomaly.ActionsTaken = append(anomaly.ActionsTaken, "dual_approval_required")
			s.metrics.IncDualApproval()
		}
		if s.notifySupervisor(ctx, employee, anomaly) {
			anomaly.ActionsTaken = append(anomaly.ActionsTaken, "supervisor_notified")
		}

	default:
		if s.notifySupervisor(ctx, employee, anomaly) {
			anomaly.ActionsTaken = append(anomaly.ActionsTaken, "supervisor_notified")
		}
	}
}

// notifySupervisor alerts the employee's supervisor when the directory
// knows one.
func (s *Service) notifySupervisor(ctx context.Context, employee *ports.Employee, anomaly *Anomaly) bool {
	if employee.SupervisorID.IsNil() {
		return false
	}
	return s.notify(ctx, employee, anomaly, alerting.Target{Type: alerting.TargetEmployee, ID: employee.SupervisorID.String()})
}

// notify raises one alert for the anomaly. Failures never abort the
// analysis; the detection stands on its own.
func (s *Service) notify(ctx context.Context, employee *ports.Employee, anomaly *Anomaly, target alerting.Target) bool {
	if s.alerter == nil {
		return false
	}
	_, err := s.alerter.Create(ctx, alerting.CreateParams{
		Category: "employee_anomaly",
		Priority: alertPriority(anomaly.Severity),
		Title:    fmt.Sprintf("Employee anomaly: %s", anomaly.Type),
		Message:  anomaly.Description,
		Target:   target,
		Source:   "employee_monitor",
		SourceID: anomaly.ID.String(),
	})
	if err != nil {
		s.logWarn(ctx, "anomaly alert failed", "employee_id", employee.ID.String(), "error", err)
		return false
	}
	return true
}

// ReviewAnomaly moves an anomaly through its review lifecycle. Only
// transitions the state machine allows go through; anything else is
// rejected before touching the store.
func (s *Service) ReviewAnomaly(ctx context.Context, anomalyID id.AnomalyID, to Status, reviewer id.EmployeeID, note string) (*Anomaly, error) {
	if anomalyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "anomaly id is required")
	}
	if reviewer.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "reviewer is required")
	}
	switch to {
	case StatusInvestigating, StatusFalsePositive, StatusConfirmed, StatusResolved:
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown status %q", to)
	}

	anomaly, err := s.store.GetAnomaly(ctx, anomalyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "anomaly not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load anomaly")
	}
	if !CanTransition(anomaly.Status, to) {
		return nil, dErrors.Newf(dErrors.CodeConflict, "cannot move anomaly from %s to %s", anomaly.Status, to)
	}

	entry := fmt.Sprintf("%s by %s", to, reviewer)
	if note != "" {
		entry += ": " + note
	}
	updated, err := s.store.TransitionAnomaly(ctx, anomalyID, anomaly.Status, to, entry)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "anomaly status changed concurrently")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "transition anomaly")
	}

	ports.LogAudit(ctx, s.logger, s.audit, audit.EventEmployeeAnomalyReviewed,
		"anomaly/"+anomalyID.String(),
		fmt.Sprintf("anomaly moved to %s", to),
		audit.SeverityInfo,
		"reviewer", reviewer.String(),
		"status", string(to),
	)
	return updated, nil
}

// Anomalies lists the employee's newest anomalies.
func (s *Service) Anomalies(ctx context.Context, employeeID id.EmployeeID, limit int) ([]*Anomaly, error) {
	if employeeID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "employee id is required")
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	anomalies, err := s.store.ListAnomalies(ctx, employeeID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list anomalies")
	}
	return anomalies, nil
}

// DualApprovalRequired reports whether the employee is flagged for
// mandatory dual approval on sensitive operations.
func (s *Service) DualApprovalRequired(ctx context.Context, employeeID id.EmployeeID) (bool, error) {
	if employeeID.IsNil() {
		return false, dErrors.New(dErrors.CodeInvalidInput, "employee id is required")
	}
	required, err := s.store.DualApprovalRequired(ctx, employeeID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "check dual approval flag")
	}
	return required, nil
}

func alertPriority(severity Severity) alerting.Priority {
	switch severity {
	case SeverityCritical:
		return alerting.PriorityCritical
	case SeverityHigh:
		return alerting.PriorityHigh
	case SeverityMedium:
		return alerting.PriorityMedium
	default:
		return alerting.PriorityLow
	}
}

func auditSeverity(severity Severity) audit.Severity {
	switch severity {
	case SeverityCritical:
		return audit.SeverityCritical
	case SeverityHigh:
		return audit.SeverityWarning
	default:
		return audit.SeverityInfo
	}
}

func (s *Service) logWarn(ctx context.Context, msg string, attrs ...any) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, attrs...)
	}
}
