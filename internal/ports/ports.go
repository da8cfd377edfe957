// Package ports defines the interfaces the risk modules consume from the
// rest of the backend. The engine never talks to banking/KYC/payment
// providers directly; it reads facts these collaborators already persisted.
//
//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/gabrielgmza/simply-backend-sub000/internal/ports IdentityReader,LedgerReader,SessionReader,EmployeeDirectory,SessionTerminator,WatchlistReader,TrafficStatsReader
package ports

import (
	"context"
	"log/slog"
	"time"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/audit"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// -----------------------------------------------------------------------------
// Identity store
// -----------------------------------------------------------------------------

// KYCStatus mirrors the identity provider's verification state.
type KYCStatus string

const (
	KYCApproved KYCStatus = "approved"
	KYCPending  KYCStatus = "pending"
	KYCRejected KYCStatus = "rejected"
	KYCNone     KYCStatus = "none"
)

// IdentityRecord is the identity-store view of a user the scoring
// components read. Fields the store cannot provide stay at zero values and
// contribute nothing to scores.
type IdentityRecord struct {
	UserID           id.UserID
	KYCStatus        KYCStatus
	PhoneVerified    bool
	EmailVerified    bool
	BiometricsActive bool
	AccountCreatedAt time.Time
	Level            string // product level, e.g. "PLATA", "ORO", "BLACK"
	TotalInvested    float64
	ActiveDefaults   int
	SettledDefaults  int
	ReferralCount    int
	ReferredBy       bool
	ProfileComplete  bool
}

// AccountAgeDays returns whole days since account creation at the given time.
func (r *IdentityRecord) AccountAgeDays(now time.Time) int {
	if r.AccountCreatedAt.IsZero() {
		return 0
	}
	return int(now.Sub(r.AccountCreatedAt).Hours() / 24)
}

// IdentityReader loads identity facts.
type IdentityReader interface {
	GetIdentity(ctx context.Context, userID id.UserID) (*IdentityRecord, error)
}

// -----------------------------------------------------------------------------
// Transaction ledger
// -----------------------------------------------------------------------------

// Transaction is the ledger's read model for risk purposes.
type Transaction struct {
	ID            id.TransactionID
	UserID        id.UserID
	Type          string // "transfer_out", "transfer_in", "investment", "withdrawal"
	Amount        float64
	Currency      string
	RecipientID   string
	International bool
	Status        string // "completed", "failed", "reversed"
	CreatedAt     time.Time
}

// LedgerReader loads transaction history. Since bounds the window; stores
// return newest-first.
type LedgerReader interface {
	ListTransactions(ctx context.Context, userID id.UserID, since time.Time) ([]Transaction, error)
	CountRecentOperations(ctx context.Context, userID id.UserID, window time.Duration) (int, error)
	RecipientTransferCount(ctx context.Context, userID id.UserID, recipientID string) (int, error)
}

// -----------------------------------------------------------------------------
// Session / login store
// -----------------------------------------------------------------------------

// Session is a historical login session.
type Session struct {
	ID        id.SessionID
	UserID    id.UserID
	IP        string
	Platform  string // "ios", "android", "web"
	DeviceFP  string
	Country   string
	Latitude  float64
	Longitude float64
	StartedAt time.Time
	EndedAt   time.Time
}

// Duration returns the session length, zero for still-open sessions.
func (s *Session) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// SessionReader loads session history and login failure counts.
type SessionReader interface {
	ListSessions(ctx context.Context, userID id.UserID, since time.Time) ([]Session, error)
	LastSession(ctx context.Context, userID id.UserID) (*Session, error)
	CountFailedLogins(ctx context.Context, userID id.UserID, window time.Duration) (int, error)
}

// -----------------------------------------------------------------------------
// Employee directory
// -----------------------------------------------------------------------------

// Employee is the directory's view of a back-office user.
type Employee struct {
	ID           id.EmployeeID
	Role         string // "support", "ops", "admin", "super_admin"
	Status       string // "active", "suspended"
	SupervisorID id.EmployeeID
	// AssignedClientIDs is populated by a CRM integration that has not
	// shipped; the directory currently returns it empty, which leaves the
	// unassigned-client check inert. Known gap.
	AssignedClientIDs []string
}

// EmployeeDirectory resolves employees and role membership.
type EmployeeDirectory interface {
	GetEmployee(ctx context.Context, employeeID id.EmployeeID) (*Employee, error)
	ListByRole(ctx context.Context, role string) ([]Employee, error)
}

// SessionTerminator force-ends an employee's active session. Used by the
// CRITICAL anomaly response.
type SessionTerminator interface {
	TerminateActiveSessions(ctx context.Context, employeeID id.EmployeeID, reason string) error
}

// -----------------------------------------------------------------------------
// Watchlists
// -----------------------------------------------------------------------------

// WatchlistReader answers blacklist membership questions the location and
// rules evaluators depend on.
type WatchlistReader interface {
	IsIPBlacklisted(ctx context.Context, ip string) (bool, error)
	IsRecipientWatchlisted(ctx context.Context, recipientID string) (bool, error)
	HasOpenFraudAlert(ctx context.Context, userID id.UserID) (bool, error)
}

// -----------------------------------------------------------------------------
// Traffic stats (kill-switch auto triggers)
// -----------------------------------------------------------------------------

// TrafficStats summarizes the trailing hour against the 7-day baseline.
type TrafficStats struct {
	FraudRate     float64 // declined+blocked / evaluated, trailing 1h
	ErrorRate     float64 // failed / attempted operations, trailing 1h
	HourVolume    float64 // transfer volume, trailing 1h
	WeekHourlyAvg float64 // average hourly volume over trailing 7 days
	SampledAt     time.Time
}

// TrafficStatsReader feeds the kill-switch auto-trigger sweep.
type TrafficStatsReader interface {
	TrailingStats(ctx context.Context) (*TrafficStats, error)
}

// -----------------------------------------------------------------------------
// Audit helper
// -----------------------------------------------------------------------------

// AuditPublisher is an alias to the shared audit interface.
type AuditPublisher = audit.Publisher

// LogAudit logs a security-relevant event to both the structured logger and
// the audit publisher. Modules call this on every mutation.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, event audit.AuditEvent, resource, description string, severity audit.Severity, attrs ...any) {
	args := append(attrs,
		"event", string(event),
		"resource", resource,
		"log_type", "audit",
	)
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}

	if logger != nil {
		logger.InfoContext(ctx, string(event), args...)
	}

	if publisher == nil {
		return
	}
	err := publisher.Emit(ctx, audit.Event{
		Category:    event.Category(),
		Timestamp:   requestcontext.Now(ctx),
		Actor:       requestcontext.Actor(ctx),
		Action:      string(event),
		Resource:    resource,
		Description: description,
		Severity:    severity,
		RequestID:   requestcontext.RequestID(ctx),
	})
	if err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
