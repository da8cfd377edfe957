// Package device is the trust registry for user devices.
//
// Each device is identified by a stable fingerprint hash and tracked per
// user. The registry never pre-aggregates trust: it records raw counters
// and flags, computes signed trust factors on read, and leaves weighing to
// the risk assessor and fraud ensemble.
package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gabrielgmza/simply-backend-sub000/internal/alerting"
	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/audit"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// Denial reason codes surfaced to callers on PolicyDenied errors.
const (
	ReasonDeviceBlocked     = "device_blocked"
	ReasonDeviceEnvironment = "device_environment"
)

// Alerter is the slice of the alerting service the registry needs for
// new-device and degradation notifications.
type Alerter interface {
	Create(ctx context.Context, params alerting.CreateParams) (*alerting.Alert, error)
}

// Service is the device trust registry.
type Service struct {
	store   Store
	alerts  Alerter
	audit   ports.AuditPublisher
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAlerter(alerter Alerter) Option {
	return func(s *Service) { s.alerts = alerter }
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the device registry service.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("device store is required")
	}
	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Register upserts the device identified by the signal set. An existing
// record gets its counters bumped; an unknown fingerprint creates a NEW
// record and raises a new-device notification for the user. Returns the
// record and whether it was newly created.
func (s *Service) Register(ctx context.Context, userID id.UserID, signals Signals, ip string) (*Record, bool, error) {
	if userID.IsNil() {
		return nil, false, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}

	fingerprint := Fingerprint(signals)
	now := requestcontext.Now(ctx)

	record, err := s.store.Touch(ctx, userID, fingerprint, ip, now)
	if err == nil {
		s.metrics.IncRegistered("seen")
		return record, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "touch device")
	}

	record = &Record{
		ID:          id.NewDeviceID(),
		UserID:      userID,
		Fingerprint: fingerprint,
		TrustLevel:  TrustNew,
		Platform:    normalizedPlatform(signals),
		DisplayName: DisplayName(signals),
		FirstSeenAt: now,
		LastSeenAt:  now,
		LastSeenIP:  ip,
		LoginCount:  1,
		IsEmulator:  signals.IsEmulator,
		IsRooted:    signals.IsRooted,
	}
	if err := s.store.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a registration race; the other writer created the
			// record, so this sighting becomes a touch.
			record, err = s.store.Touch(ctx, userID, fingerprint, ip, now)
			if err != nil {
				return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "touch device after conflict")
			}
			s.metrics.IncRegistered("seen")
			return record, false, nil
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "create device")
	}

	s.metrics.IncRegistered("new")
	ports.LogAudit(ctx, s.logger, s.audit, audit.EventDeviceRegistered,
		"device/"+record.ID.String(),
		fmt.Sprintf("new device %q registered for user %s", record.DisplayName, userID),
		audit.SeverityInfo,
		"platform", record.Platform,
	)
	s.notifyNewDevice(ctx, record)

	return record, true, nil
}

// Get returns the record for (userID, fingerprint).
func (s *Service) Get(ctx context.Context, userID id.UserID, fingerprint string) (*Record, error) {
	record, err := s.store.Get(ctx, userID, fingerprint)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "device not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get device")
	}
	return record, nil
}

// RecordOperation records a success or failure against the device. The
// fifth cumulative failure downgrades a TRUSTED device to KNOWN; nothing
// ever auto-upgrades.
func (s *Service) RecordOperation(ctx context.Context, userID id.UserID, fingerprint string, success bool) (*Record, error) {
	record, err := s.store.RecordOperation(ctx, userID, fingerprint, success)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "device not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "record device operation")
	}

	if !success && record.TrustLevel == TrustTrusted && record.FailedOps >= failureDegradeThreshold {
		record, err = s.store.SetTrustLevel(ctx, userID, fingerprint, TrustKnown)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "degrade device trust")
		}
		s.metrics.IncDegraded()
		ports.LogAudit(ctx, s.logger, s.audit, audit.EventDeviceDegraded,
			"device/"+record.ID.String(),
			fmt.Sprintf("device degraded TRUSTED to KNOWN after %d failed operations", record.FailedOps),
			audit.SeverityWarning,
			"failed_ops", record.FailedOps,
		)
		s.notifyDegraded(ctx, record)
	}

	return record, nil
}

// IsDeviceAllowed returns the record when the device may proceed, or a
// PolicyDenied error with a machine reason code. Blocked wins over
// everything; an emulator or rooted device passes only when explicitly
// TRUSTED.
func (s *Service) IsDeviceAllowed(ctx context.Context, userID id.UserID, fingerprint string) (*Record, error) {
	record, err := s.Get(ctx, userID, fingerprint)
	if err != nil {
		return nil, err
	}

	if record.IsBlocked {
		s.metrics.IncDenied(ReasonDeviceBlocked)
		return nil, dErrors.Denied(ReasonDeviceBlocked, "device is blocked")
	}
	if (record.IsEmulator || record.IsRooted) && record.TrustLevel != TrustTrusted {
		s.metrics.IncDenied(ReasonDeviceEnvironment)
		return nil, dErrors.Denied(ReasonDeviceEnvironment, "emulator or rooted device is not trusted")
	}
	return record, nil
}

// Trust explicitly marks the device TRUSTED. A blocked device must be
// unblocked first.
func (s *Service) Trust(ctx context.Context, userID id.UserID, fingerprint string) (*Record, error) {
	record, err := s.Get(ctx, userID, fingerprint)
	if err != nil {
		return nil, err
	}
	if record.IsBlocked {
		return nil, dErrors.New(dErrors.CodeConflict, "cannot trust a blocked device")
	}

	record, err = s.store.SetTrustLevel(ctx, userID, fingerprint, TrustTrusted)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "trust device")
	}
	ports.LogAudit(ctx, s.logger, s.audit, audit.EventDeviceTrusted,
		"device/"+record.ID.String(),
		fmt.Sprintf("device explicitly trusted by %s", requestcontext.Actor(ctx)),
		audit.SeverityInfo,
	)
	return record, nil
}

// Block blocks the device and demotes it to UNTRUSTED.
func (s *Service) Block(ctx context.Context, userID id.UserID, fingerprint string) (*Record, error) {
	if _, err := s.Get(ctx, userID, fingerprint); err != nil {
		return nil, err
	}

	if _, err := s.store.SetTrustLevel(ctx, userID, fingerprint, TrustUntrusted); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "untrust device")
	}
	record, err := s.store.SetBlocked(ctx, userID, fingerprint, true)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "block device")
	}
	ports.LogAudit(ctx, s.logger, s.audit, audit.EventDeviceBlocked,
		"device/"+record.ID.String(),
		fmt.Sprintf("device blocked by %s", requestcontext.Actor(ctx)),
		audit.SeverityWarning,
	)
	return record, nil
}

// Unblock clears the blocked flag. Trust level stays UNTRUSTED until an
// explicit trust action.
func (s *Service) Unblock(ctx context.Context, userID id.UserID, fingerprint string) (*Record, error) {
	record, err := s.store.SetBlocked(ctx, userID, fingerprint, false)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "device not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "unblock device")
	}
	return record, nil
}

// Factors computes the signed trust factor list for the device as of the
// request time.
func (s *Service) Factors(ctx context.Context, userID id.UserID, fingerprint string) ([]TrustFactor, error) {
	record, err := s.Get(ctx, userID, fingerprint)
	if err != nil {
		return nil, err
	}
	return record.TrustFactors(requestcontext.Now(ctx)), nil
}

// ListByUser returns all devices for a user, most recently seen first.
func (s *Service) ListByUser(ctx context.Context, userID id.UserID) ([]*Record, error) {
	records, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list devices")
	}
	return records, nil
}

func (s *Service) notifyNewDevice(ctx context.Context, record *Record) {
	if s.alerts == nil {
		return
	}
	_, err := s.alerts.Create(ctx, alerting.CreateParams{
		Category: "security",
		Priority: alerting.PriorityMedium,
		Title:    "New device sign-in",
		Message:  fmt.Sprintf("Your account was accessed from a new device: %s.", record.DisplayName),
		Target:   alerting.Target{Type: alerting.TargetUser, ID: record.UserID.String()},
		Source:   "device_registry",
		SourceID: record.ID.String(),
	})
	if err != nil {
		s.logWarn(ctx, "new device alert failed", "error", err, "device_id", record.ID)
	}
}

func (s *Service) notifyDegraded(ctx context.Context, record *Record) {
	if s.alerts == nil {
		return
	}
	_, err := s.alerts.Create(ctx, alerting.CreateParams{
		Category: "security",
		Priority: alerting.PriorityHigh,
		Title:    "Device trust downgraded",
		Message:  fmt.Sprintf("Device %s lost trusted status after repeated failed operations.", record.DisplayName),
		Target:   alerting.Target{Type: alerting.TargetUser, ID: record.UserID.String()},
		Source:   "device_registry",
		SourceID: record.ID.String(),
	})
	if err != nil {
		s.logWarn(ctx, "degradation alert failed", "error", err, "device_id", record.ID)
	}
}

func (s *Service) logWarn(ctx context.Context, msg string, attrs ...any) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, attrs...)
	}
}
