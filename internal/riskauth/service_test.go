package riskauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gabrielgmza/simply-backend-sub000/internal/device"
	"github.com/gabrielgmza/simply-backend-sub000/internal/ports/mocks"
	"github.com/gabrielgmza/simply-backend-sub000/internal/trustscore"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/testutil"
)

type fakeDeviceReader struct {
	records   map[string]*device.Record
	recordErr error
	successes int
	failures  int
}

func (f *fakeDeviceReader) Get(_ context.Context, _ id.UserID, fingerprint string) (*device.Record, error) {
	record, ok := f.records[fingerprint]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "device not found")
	}
	return record, nil
}

func (f *fakeDeviceReader) RecordOperation(_ context.Context, _ id.UserID, fingerprint string, success bool) (*device.Record, error) {
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	if success {
		f.successes++
	} else {
		f.failures++
	}
	return f.records[fingerprint], nil
}

type fakeTrustReader struct {
	snapshot *trustscore.Snapshot
}

func (f *fakeTrustReader) GetScore(context.Context, id.UserID) (*trustscore.Snapshot, error) {
	if f.snapshot == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "no snapshot")
	}
	return f.snapshot, nil
}

type assessFixture struct {
	store     *InMemoryStore
	devices   *fakeDeviceReader
	trust     *fakeTrustReader
	ledger    *mocks.MockLedgerReader
	sessions  *mocks.MockSessionReader
	watchlist *mocks.MockWatchlistReader
	service   *Service
}

func newAssessFixture(t *testing.T) *assessFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &assessFixture{
		store:     NewInMemoryStore(),
		devices:   &fakeDeviceReader{records: make(map[string]*device.Record)},
		trust:     &fakeTrustReader{},
		ledger:    mocks.NewMockLedgerReader(ctrl),
		sessions:  mocks.NewMockSessionReader(ctrl),
		watchlist: mocks.NewMockWatchlistReader(ctrl),
	}
	var err error
	f.service, err = New(f.store, f.devices, f.trust, f.ledger, f.sessions, f.watchlist)
	require.NoError(t, err)
	return f
}

// quietHistory stubs every evidence read to the unremarkable case.
func (f *assessFixture) quietHistory() {
	f.watchlist.EXPECT().IsIPBlacklisted(gomock.Any(), gomock.Any()).Return(false, nil).AnyTimes()
	f.watchlist.EXPECT().HasOpenFraudAlert(gomock.Any(), gomock.Any()).Return(false, nil).AnyTimes()
	f.ledger.EXPECT().ListTransactions(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	f.ledger.EXPECT().CountRecentOperations(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil).AnyTimes()
	f.ledger.EXPECT().RecipientTransferCount(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil).AnyTimes()
	f.sessions.EXPECT().LastSession(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	f.sessions.EXPECT().CountFailedLogins(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil).AnyTimes()
}

var middayTime = time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)

func TestAssessRisk_EliteUserOnTrustedDeviceLogsInFreely(t *testing.T) {
	f := newAssessFixture(t)
	userID := id.NewUserID()
	ctx := testutil.Ctx(t, userID, middayTime, "203.0.113.9")

	f.devices.records["fp-trusted"] = &device.Record{
		UserID:      userID,
		Fingerprint: "fp-trusted",
		TrustLevel:  device.TrustTrusted,
	}
	f.trust.snapshot = &trustscore.Snapshot{UserID: userID, GlobalScore: 850, Tier: "ELITE"}
	f.quietHistory()

	assessment, err := f.service.AssessRisk(ctx, OperationContext{
		UserID:            userID,
		SessionID:         id.NewSessionID(),
		Operation:         "login",
		IP:                "203.0.113.9",
		DeviceFingerprint: "fp-trusted",
	})
	require.NoError(t, err)

	// base 5, trusted device -10, elite -20, clamped to 0
	assert.Equal(t, 0, assessment.RiskScore)
	assert.Equal(t, ActionAllow, assessment.RequiredAction)
	assert.Equal(t, RiskLow, assessment.RiskLevel)
	assert.Zero(t, assessment.CooldownMinutes)
}

func TestAssessRisk_SensitiveOperationsNeverScoreBelowFifty(t *testing.T) {
	f := newAssessFixture(t)
	userID := id.NewUserID()
	ctx := testutil.Ctx(t, userID, middayTime, "203.0.113.9")

	f.devices.records["fp-trusted"] = &device.Record{
		UserID:      userID,
		Fingerprint: "fp-trusted",
		TrustLevel:  device.TrustTrusted,
	}
	f.trust.snapshot = &trustscore.Snapshot{UserID: userID, Tier: "ELITE"}
	f.quietHistory()

	for _, operation := range []string{"change_password", "change_email", "change_phone", "close_account"} {
		assessment, err := f.service.AssessRisk(ctx, OperationContext{
			UserID:            userID,
			SessionID:         id.NewSessionID(),
			Operation:         operation,
			IP:                "203.0.113.9",
			DeviceFingerprint: "fp-trusted",
		})
		require.NoError(t, err, operation)
		assert.GreaterOrEqual(t, assessment.RiskScore, 50, operation)
	}
}

func TestAssessRisk_BlacklistedIPShortCircuitsLocation(t *testing.T) {
	f := newAssessFixture(t)
	userID := id.NewUserID()
	ctx := testutil.Ctx(t, userID, middayTime, "198.51.100.66")

	f.devices.records["fp"] = &device.Record{UserID: userID, Fingerprint: "fp", TrustLevel: device.TrustKnown}
	f.watchlist.EXPECT().IsIPBlacklisted(gomock.Any(), "198.51.100.66").Return(true, nil)
	f.watchlist.EXPECT().HasOpenFraudAlert(gomock.Any(), gomock.Any()).Return(false, nil)
	f.ledger.EXPECT().ListTransactions(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	f.ledger.EXPECT().CountRecentOperations(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)
	f.sessions.EXPECT().CountFailedLogins(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)

	assessment, err := f.service.AssessRisk(ctx, OperationContext{
		UserID:            userID,
		SessionID:         id.NewSessionID(),
		Operation:         "transfer_out",
		IP:                "198.51.100.66",
		DeviceFingerprint: "fp",
	})
	require.NoError(t, err)

	// base 35 + blacklist 50 = 85
	assert.Equal(t, 85, assessment.RiskScore)
	assert.Contains(t, factorNames(assessment), "blacklisted_ip")
	assert.Equal(t, ActionManualReview, assessment.RequiredAction)
}

func TestAssessRisk_FailedEvaluatorContributesNothing(t *testing.T) {
	f := newAssessFixture(t)
	userID := id.NewUserID()
	ctx := testutil.Ctx(t, userID, middayTime, "203.0.113.9")

	f.devices.records["fp"] = &device.Record{UserID: userID, Fingerprint: "fp", TrustLevel: device.TrustKnown}
	f.watchlist.EXPECT().IsIPBlacklisted(gomock.Any(), gomock.Any()).Return(false, dErrors.New(dErrors.CodeUnavailable, "watchlist down"))
	f.watchlist.EXPECT().HasOpenFraudAlert(gomock.Any(), gomock.Any()).Return(false, nil)
	f.ledger.EXPECT().ListTransactions(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	f.ledger.EXPECT().CountRecentOperations(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)
	f.sessions.EXPECT().CountFailedLogins(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)

	assessment, err := f.service.AssessRisk(ctx, OperationContext{
		UserID:            userID,
		SessionID:         id.NewSessionID(),
		Operation:         "login",
		IP:                "203.0.113.9",
		DeviceFingerprint: "fp",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, assessment.RiskScore)
}

func TestAssessRisk_LadderEscalatesWithSignals(t *testing.T) {
	f := newAssessFixture(t)
	userID := id.NewUserID()
	// 03:00 falls in the late-night band.
	nightCtx := testutil.Ctx(t, userID, time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC), "203.0.113.9")

	f.trust.snapshot = &trustscore.Snapshot{UserID: userID, Tier: "LOW"}
	f.quietHistory()

	assessment, err := f.service.AssessRisk(nightCtx, OperationContext{
		UserID:    userID,
		SessionID: id.NewSessionID(),
		Operation: "withdrawal",
		IP:        "203.0.113.9",
	})
	require.NoError(t, err)

	// base 40 + unknown device 20 + late night 10 + LOW tier 15 = 85
	assert.Equal(t, 85, assessment.RiskScore)
	assert.Equal(t, ActionManualReview, assessment.RequiredAction)
	assert.Equal(t, 60, assessment.CooldownMinutes)
	assert.Equal(t, RiskHigh, assessment.RiskLevel)
}

func TestAssessRisk_PersistsBeforeReturn(t *testing.T) {
	f := newAssessFixture(t)
	userID := id.NewUserID()
	sessionID := id.NewSessionID()
	ctx := testutil.Ctx(t, userID, middayTime, "203.0.113.9")
	f.quietHistory()

	assessment, err := f.service.AssessRisk(ctx, OperationContext{
		UserID:    userID,
		SessionID: sessionID,
		Operation: "investment",
		IP:        "203.0.113.9",
	})
	require.NoError(t, err)

	stored, err := f.store.LatestForSession(ctx, userID, sessionID)
	require.NoError(t, err)
	assert.Equal(t, assessment.ID, stored.ID)
	assert.Equal(t, assessment.RiskScore, stored.RiskScore)
	assert.False(t, stored.ChallengeCompleted)
	assert.Equal(t, middayTime, stored.AssessedAt)
}

func TestVerifyChallenge(t *testing.T) {
	newChallenge := func(t *testing.T) (*assessFixture, context.Context, id.UserID, id.SessionID, *Assessment) {
		f := newAssessFixture(t)
		userID := id.NewUserID()
		sessionID := id.NewSessionID()
		ctx := testutil.Ctx(t, userID, middayTime, "203.0.113.9")
		f.trust.snapshot = &trustscore.Snapshot{UserID: userID, Tier: "LOW"}
		f.quietHistory()

		// base 35 + unknown device 20 + LOW 15 = 70, STEP_UP
		assessment, err := f.service.AssessRisk(ctx, OperationContext{
			UserID:    userID,
			SessionID: sessionID,
			Operation: "transfer_out",
			IP:        "203.0.113.9",
		})
		require.NoError(t, err)
		require.Equal(t, ActionStepUp, assessment.RequiredAction)
		return f, ctx, userID, sessionID, assessment
	}

	t.Run("completes once", func(t *testing.T) {
		f, ctx, userID, sessionID, _ := newChallenge(t)

		updated, err := f.service.VerifyChallenge(ctx, userID, sessionID, "STEP_UP", "otp-123456")
		require.NoError(t, err)
		assert.True(t, updated.ChallengeCompleted)

		_, err = f.service.VerifyChallenge(ctx, userID, sessionID, "STEP_UP", "otp-123456")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("rejects type mismatch", func(t *testing.T) {
		f, ctx, userID, sessionID, _ := newChallenge(t)

		_, err := f.service.VerifyChallenge(ctx, userID, sessionID, "BIOMETRY", "sig")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects empty response", func(t *testing.T) {
		f, ctx, userID, sessionID, _ := newChallenge(t)

		_, err := f.service.VerifyChallenge(ctx, userID, sessionID, "STEP_UP", "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("unknown session", func(t *testing.T) {
		f, ctx, userID, _, _ := newChallenge(t)

		_, err := f.service.VerifyChallenge(ctx, userID, id.NewSessionID(), "STEP_UP", "otp")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("feeds device counters", func(t *testing.T) {
		f := newAssessFixture(t)
		userID := id.NewUserID()
		sessionID := id.NewSessionID()
		ctx := testutil.Ctx(t, userID, middayTime, "203.0.113.9")
		f.trust.snapshot = &trustscore.Snapshot{UserID: userID, Tier: "LOW"}
		f.quietHistory()

		assessment, err := f.service.AssessRisk(ctx, OperationContext{
			UserID:            userID,
			SessionID:         sessionID,
			Operation:         "transfer_out",
			IP:                "203.0.113.9",
			DeviceFingerprint: "fp-1",
		})
		require.NoError(t, err)
		require.Equal(t, "fp-1", assessment.DeviceFingerprint)

		_, err = f.service.VerifyChallenge(ctx, userID, sessionID, "BIOMETRY", "sig")
		require.Error(t, err)
		assert.Equal(t, 1, f.devices.failures)

		_, err = f.service.VerifyChallenge(ctx, userID, sessionID, "STEP_UP", "otp-123456")
		require.NoError(t, err)
		assert.Equal(t, 1, f.devices.successes)
	})

	t.Run("recording failure never blocks verification", func(t *testing.T) {
		f := newAssessFixture(t)
		f.devices.recordErr = errors.New("device store down")
		userID := id.NewUserID()
		sessionID := id.NewSessionID()
		ctx := testutil.Ctx(t, userID, middayTime, "203.0.113.9")
		f.trust.snapshot = &trustscore.Snapshot{UserID: userID, Tier: "LOW"}
		f.quietHistory()

		_, err := f.service.AssessRisk(ctx, OperationContext{
			UserID:            userID,
			SessionID:         sessionID,
			Operation:         "transfer_out",
			IP:                "203.0.113.9",
			DeviceFingerprint: "fp-1",
		})
		require.NoError(t, err)

		// The service has no logger; a recording error must still come
		// back as the challenge outcome, not a crash.
		_, err = f.service.VerifyChallenge(ctx, userID, sessionID, "BIOMETRY", "sig")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		updated, err := f.service.VerifyChallenge(ctx, userID, sessionID, "STEP_UP", "otp-123456")
		require.NoError(t, err)
		assert.True(t, updated.ChallengeCompleted)
	})
}

func factorNames(assessment *Assessment) []string {
	names := make([]string, 0, len(assessment.RiskFactors))
	for _, factor := range assessment.RiskFactors {
		names = append(names, factor.Name)
	}
	return names
}
