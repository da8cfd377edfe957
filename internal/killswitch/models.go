// Package killswitch gates operations on a single shared configuration
// document checked on every sensitive call path.
package killswitch

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/gabrielgmza/simply-backend-sub000/internal/behavior"
)

// Scope is the axis a switch acts on.
type Scope string

const (
	ScopeGlobal          Scope = "GLOBAL"
	ScopeMaintenance     Scope = "MAINTENANCE"
	ScopeProduct         Scope = "PRODUCT"
	ScopeRegion          Scope = "REGION"
	ScopeSegment         Scope = "USER_SEGMENT"
	ScopeTransactionType Scope = "TRANSACTION_TYPE"
)

// WildcardAll matches every product or segment on its axis.
const WildcardAll = "all"

// KnownProducts are the product lines a switch can target.
var KnownProducts = []string{
	"accounts", "cards", "crypto", "investments", "loans",
	"onboarding", "payments", "rewards", "transfers",
}

// KnownTransactionTypes are the transaction kinds a switch can target.
var KnownTransactionTypes = []string{
	"payment", "transfer_internal", "transfer_out", "withdrawal",
}

// KnownSegments are the behavioral segments plus the wildcard.
var KnownSegments = []string{
	string(behavior.SegmentNewUser), string(behavior.SegmentDormant),
	string(behavior.SegmentAtRisk), string(behavior.SegmentHighValue),
	string(behavior.SegmentPowerUser), string(behavior.SegmentPassive),
	string(behavior.SegmentRegular), WildcardAll,
}

// ValidTarget reports whether the target is acceptable for the scope.
// Regions are free-form ISO-ish codes; the other axes have fixed sets.
func ValidTarget(scope Scope, target string) bool {
	switch scope {
	case ScopeGlobal, ScopeMaintenance:
		return target == ""
	case ScopeProduct:
		return target == WildcardAll || slices.Contains(KnownProducts, target)
	case ScopeRegion:
		return target != ""
	case ScopeSegment:
		return slices.Contains(KnownSegments, target)
	case ScopeTransactionType:
		return slices.Contains(KnownTransactionTypes, target)
	default:
		return false
	}
}

// Switch is one active kill entry.
type Switch struct {
	ID          string    `json:"id"`
	Scope       Scope     `json:"scope"`
	Target      string    `json:"target,omitzero"`
	Reason      string    `json:"reason"`
	ActivatedBy string    `json:"activated_by"`
	ActivatedAt time.Time `json:"activated_at"`
	// ExpiresAt zero means the switch stays until deactivated.
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Expired reports whether the switch has a deadline in the past.
func (sw Switch) Expired(now time.Time) bool {
	return !sw.ExpiresAt.IsZero() && !sw.ExpiresAt.After(now)
}

// State is the whole kill-switch configuration. It is read as one document
// and replaced as one document; no caller ever sees a partial update. The
// axis maps are derived from ActiveSwitches on every mutation.
type State struct {
	Version             int64           `json:"version"`
	GlobalKill          bool            `json:"global_kill"`
	MaintenanceMode     bool            `json:"maintenance_mode"`
	Products            map[string]bool `json:"products"`
	Regions             map[string]bool `json:"regions"`
	UserSegments        map[string]bool `json:"user_segments"`
	TransactionTypes    map[string]bool `json:"transaction_types"`
	AutoTriggersEnabled bool            `json:"auto_triggers_enabled"`
	ActiveSwitches      []Switch        `json:"active_switches"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// NewState is the everything-allowed starting document.
func NewState() *State {
	return &State{
		Products:            make(map[string]bool),
		Regions:             make(map[string]bool),
		UserSegments:        make(map[string]bool),
		TransactionTypes:    make(map[string]bool),
		AutoTriggersEnabled: true,
	}
}

// Clone deep-copies the document.
func (s *State) Clone() *State {
	copied := *s
	copied.Products = cloneSet(s.Products)
	copied.Regions = cloneSet(s.Regions)
	copied.UserSegments = cloneSet(s.UserSegments)
	copied.TransactionTypes = cloneSet(s.TransactionTypes)
	copied.ActiveSwitches = append([]Switch(nil), s.ActiveSwitches...)
	return &copied
}

// find returns the active entry matching scope, target, and reason.
func (s *State) find(scope Scope, target, reason string) *Switch {
	for i := range s.ActiveSwitches {
		sw := &s.ActiveSwitches[i]
		if sw.Scope == scope && sw.Target == target && sw.Reason == reason {
			return sw
		}
	}
	return nil
}

// activate appends an entry and recomputes the axis flags. Re-activating
// the same scope, target, and reason is a no-op.
func (s *State) activate(scope Scope, target, reason, actor string, now, expiresAt time.Time) bool {
	if s.find(scope, target, reason) != nil {
		return false
	}
	s.ActiveSwitches = append(s.ActiveSwitches, Switch{
		ID:          uuid.NewString(),
		Scope:       scope,
		Target:      target,
		Reason:      reason,
		ActivatedBy: actor,
		ActivatedAt: now,
		ExpiresAt:   expiresAt,
	})
	s.rebuildAxes()
	s.UpdatedAt = now
	return true
}

// deactivate removes every entry on the scope and target and recomputes
// the axis flags. Deactivating something inactive is a no-op.
func (s *State) deactivate(scope Scope, target string, now time.Time) bool {
	kept := s.ActiveSwitches[:0]
	removed := false
	for _, sw := range s.ActiveSwitches {
		if sw.Scope == scope && sw.Target == target {
			removed = true
			continue
		}
		kept = append(kept, sw)
	}
	if !removed {
		return false
	}
	s.ActiveSwitches = kept
	s.rebuildAxes()
	s.UpdatedAt = now
	return true
}

// dropExpired removes past-deadline entries and recomputes the axis flags.
func (s *State) dropExpired(now time.Time) []Switch {
	var expired []Switch
	kept := s.ActiveSwitches[:0]
	for _, sw := range s.ActiveSwitches {
		if sw.Expired(now) {
			expired = append(expired, sw)
			continue
		}
		kept = append(kept, sw)
	}
	if len(expired) == 0 {
		return nil
	}
	s.ActiveSwitches = kept
	s.rebuildAxes()
	s.UpdatedAt = now
	return expired
}

// rebuildAxes derives the per-axis flags from the active entries, so the
// entries stay the single source of truth.
func (s *State) rebuildAxes() {
	s.GlobalKill = false
	s.MaintenanceMode = false
	s.Products = make(map[string]bool)
	s.Regions = make(map[string]bool)
	s.UserSegments = make(map[string]bool)
	s.TransactionTypes = make(map[string]bool)

	for _, sw := range s.ActiveSwitches {
		switch sw.Scope {
		case ScopeGlobal:
			s.GlobalKill = true
		case ScopeMaintenance:
			s.MaintenanceMode = true
		case ScopeProduct:
			s.Products[sw.Target] = true
		case ScopeRegion:
			s.Regions[sw.Target] = true
		case ScopeSegment:
			s.UserSegments[sw.Target] = true
		case ScopeTransactionType:
			s.TransactionTypes[sw.Target] = true
		}
	}
}

func cloneSet(set map[string]bool) map[string]bool {
	copied := make(map[string]bool, len(set))
	for key, value := range set {
		copied[key] = value
	}
	return copied
}
