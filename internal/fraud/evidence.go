package fraud

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gabrielgmza/simply-backend-sub000/internal/behavior"
	"github.com/gabrielgmza/simply-backend-sub000/internal/device"
	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
	"github.com/gabrielgmza/simply-backend-sub000/internal/trustscore"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

const (
	historyWindow      = 180 * 24 * time.Hour
	failureWindow      = 24 * time.Hour
	velocityWindow     = time.Hour
	newAccountAge      = 7
	establishedAgeDays = 365
)

// evidence is everything the five models read. It is gathered once,
// concurrently, so the model functions stay pure and their combination
// deterministic.
type evidence struct {
	identity  *ports.IdentityRecord
	profile   *behavior.Profile
	anomalies []behavior.Anomaly
	device    *device.Record
	tier      trustscore.Tier

	blacklistedIP        bool
	watchlistedRecipient bool
	recentFailures       int
	recipientTransfers   int
	opsLastHour          int
	priorInternational   bool
}

// gatherEvidence loads the shared read set. Identity and the behavior
// profile are required: no profile means no baseline to judge against, so
// the evaluation fails closed. Everything else degrades to its zero value.
func (s *Service) gatherEvidence(ctx context.Context, tx TransactionContext) (*evidence, error) {
	ev := &evidence{tier: trustscore.TierMedium}
	now := requestcontext.Now(ctx)

	if s.cfg.DependencyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.DependencyTimeout)
		defer cancel()
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		identity, err := s.identity.GetIdentity(gctx, tx.UserID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "user not found")
			}
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "identity store unreachable")
		}
		ev.identity = identity
		return nil
	})

	g.Go(func() error {
		profile, err := s.profiles.GetOrBuild(gctx, tx.UserID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "behavior profile unavailable")
		}
		ev.profile = profile
		return nil
	})

	g.Go(func() error {
		snapshot, err := s.trust.GetScore(gctx, tx.UserID)
		if err != nil {
			s.logWarn(gctx, "trust score unavailable, multiplier stays neutral", "error", err)
			return nil
		}
		ev.tier = snapshot.Tier
		return nil
	})

	g.Go(func() error {
		if tx.DeviceFingerprint == "" {
			return nil
		}
		record, err := s.devices.Get(gctx, tx.UserID, tx.DeviceFingerprint)
		if err != nil {
			if !dErrors.HasCode(err, dErrors.CodeNotFound) {
				s.logWarn(gctx, "device lookup failed", "error", err)
			}
			return nil
		}
		ev.device = record
		return nil
	})

	g.Go(func() error {
		if tx.IP == "" {
			return nil
		}
		blacklisted, err := s.watchlist.IsIPBlacklisted(gctx, tx.IP)
		if err != nil {
			s.logWarn(gctx, "ip blacklist check failed", "error", err)
			return nil
		}
		ev.blacklistedIP = blacklisted
		return nil
	})

	g.Go(func() error {
		if tx.RecipientID == "" {
			return nil
		}
		watchlisted, err := s.watchlist.IsRecipientWatchlisted(gctx, tx.RecipientID)
		if err != nil {
			s.logWarn(gctx, "recipient watchlist check failed", "error", err)
			return nil
		}
		ev.watchlistedRecipient = watchlisted

		count, err := s.ledger.RecipientTransferCount(gctx, tx.UserID, tx.RecipientID)
		if err != nil {
			s.logWarn(gctx, "recipient transfer count failed", "error", err)
			return nil
		}
		ev.recipientTransfers = count
		return nil
	})

	g.Go(func() error {
		failures, err := s.sessions.CountFailedLogins(gctx, tx.UserID, failureWindow)
		if err != nil {
			s.logWarn(gctx, "failed login count failed", "error", err)
			return nil
		}
		ev.recentFailures = failures
		return nil
	})

	g.Go(func() error {
		ops, err := s.ledger.CountRecentOperations(gctx, tx.UserID, velocityWindow)
		if err != nil {
			s.logWarn(gctx, "recent operation count failed", "error", err)
			return nil
		}
		ev.opsLastHour = ops
		return nil
	})

	g.Go(func() error {
		if !tx.International {
			return nil
		}
		history, err := s.ledger.ListTransactions(gctx, tx.UserID, now.Add(-historyWindow))
		if err != nil {
			s.logWarn(gctx, "transaction history read failed", "error", err)
			return nil
		}
		for _, prior := range history {
			if prior.International && prior.Status == "completed" {
				ev.priorInternational = true
				return nil
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Anomaly comparison needs the gathered operation count, so it runs
	// after the fan-in.
	ev.anomalies = behavior.CompareToProfile(ev.profile, behavior.LiveEvent{
		Type:        tx.Type,
		Amount:      tx.Amount,
		At:          now,
		OpsLastHour: ev.opsLastHour,
	})
	return ev, nil
}
