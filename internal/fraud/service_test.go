package fraud

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gabrielgmza/simply-backend-sub000/internal/alerting"
	"github.com/gabrielgmza/simply-backend-sub000/internal/behavior"
	"github.com/gabrielgmza/simply-backend-sub000/internal/device"
	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
	"github.com/gabrielgmza/simply-backend-sub000/internal/ports/mocks"
	"github.com/gabrielgmza/simply-backend-sub000/internal/trustscore"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/testutil"
)

type fakeProfiles struct {
	profile *behavior.Profile
}

func (f *fakeProfiles) GetOrBuild(context.Context, id.UserID) (*behavior.Profile, error) {
	if f.profile == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "profile store down")
	}
	return f.profile, nil
}

type fakeTrust struct {
	snapshot *trustscore.Snapshot
}

func (f *fakeTrust) GetScore(context.Context, id.UserID) (*trustscore.Snapshot, error) {
	if f.snapshot == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "no snapshot")
	}
	return f.snapshot, nil
}

type fakeDevices struct {
	records map[string]*device.Record
}

func (f *fakeDevices) Get(_ context.Context, _ id.UserID, fingerprint string) (*device.Record, error) {
	record, ok := f.records[fingerprint]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "device not found")
	}
	return record, nil
}

type recordingAlerter struct {
	created []alerting.CreateParams
}

func (r *recordingAlerter) Create(_ context.Context, params alerting.CreateParams) (*alerting.Alert, error) {
	r.created = append(r.created, params)
	return &alerting.Alert{ID: id.NewAlertID()}, nil
}

type ensembleFixture struct {
	store     *InMemoryStore
	identity  *mocks.MockIdentityReader
	ledger    *mocks.MockLedgerReader
	sessions  *mocks.MockSessionReader
	watchlist *mocks.MockWatchlistReader
	profiles  *fakeProfiles
	trust     *fakeTrust
	devices   *fakeDevices
	alerter   *recordingAlerter
	service   *Service
}

func newEnsembleFixture(t *testing.T) *ensembleFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &ensembleFixture{
		store:     NewInMemoryStore(),
		identity:  mocks.NewMockIdentityReader(ctrl),
		ledger:    mocks.NewMockLedgerReader(ctrl),
		sessions:  mocks.NewMockSessionReader(ctrl),
		watchlist: mocks.NewMockWatchlistReader(ctrl),
		profiles:  &fakeProfiles{profile: routineProfile()},
		trust:     &fakeTrust{},
		devices:   &fakeDevices{records: make(map[string]*device.Record)},
		alerter:   &recordingAlerter{},
	}
	var err error
	f.service, err = New(f.store, f.identity, f.ledger, f.sessions, f.watchlist,
		f.profiles, f.trust, f.devices, WithAlerter(f.alerter))
	require.NoError(t, err)
	return f
}

var afternoonTime = time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)

func (f *ensembleFixture) establishedIdentity() {
	f.identity.EXPECT().GetIdentity(gomock.Any(), gomock.Any()).Return(&ports.IdentityRecord{
		KYCStatus:        ports.KYCApproved,
		AccountCreatedAt: afternoonTime.AddDate(-2, 0, 0),
	}, nil).AnyTimes()
}

func (f *ensembleFixture) quietSignals() {
	f.watchlist.EXPECT().IsIPBlacklisted(gomock.Any(), gomock.Any()).Return(false, nil).AnyTimes()
	f.watchlist.EXPECT().IsRecipientWatchlisted(gomock.Any(), gomock.Any()).Return(false, nil).AnyTimes()
	f.sessions.EXPECT().CountFailedLogins(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil).AnyTimes()
	f.ledger.EXPECT().CountRecentOperations(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil).AnyTimes()
	f.ledger.EXPECT().RecipientTransferCount(gomock.Any(), gomock.Any(), gomock.Any()).Return(5, nil).AnyTimes()
	f.ledger.EXPECT().ListTransactions(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
}

func TestEvaluateTransaction_RoutineTransferApproves(t *testing.T) {
	f := newEnsembleFixture(t)
	userID := id.NewUserID()
	ctx := testutil.Ctx(t, userID, afternoonTime, "203.0.113.9")

	f.establishedIdentity()
	f.quietSignals()
	f.devices.records["fp"] = &device.Record{TrustLevel: device.TrustTrusted}

	evaluation, err := f.service.EvaluateTransaction(ctx, TransactionContext{
		UserID:            userID,
		Type:              "transfer_out",
		Amount:            110,
		RecipientID:       "alice",
		IP:                "203.0.113.9",
		DeviceFingerprint: "fp",
	})
	require.NoError(t, err)

	assert.Equal(t, DecisionApprove, evaluation.Decision)
	assert.Less(t, evaluation.FraudScore, 20)
	assert.Empty(t, f.alerter.created)
	assert.Zero(t, evaluation.ModelScores.Anomaly)
	assert.Zero(t, evaluation.ModelScores.Pattern)
}

func TestEvaluateTransaction_BlacklistedIPForcesDecline(t *testing.T) {
	f := newEnsembleFixture(t)
	userID := id.NewUserID()
	ctx := testutil.Ctx(t, userID, afternoonTime, "198.51.100.66")

	f.establishedIdentity()
	f.watchlist.EXPECT().IsIPBlacklisted(gomock.Any(), "198.51.100.66").Return(true, nil)
	f.watchlist.EXPECT().IsRecipientWatchlisted(gomock.Any(), gomock.Any()).Return(false, nil).AnyTimes()
	f.sessions.EXPECT().CountFailedLogins(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)
	f.ledger.EXPECT().CountRecentOperations(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)
	f.ledger.EXPECT().RecipientTransferCount(gomock.Any(), gomock.Any(), gomock.Any()).Return(5, nil).AnyTimes()
	f.ledger.EXPECT().ListTransactions(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	// Everything else about the transaction is unremarkable.
	evaluation, err := f.service.EvaluateTransaction(ctx, TransactionContext{
		UserID:      userID,
		Type:        "transfer_out",
		Amount:      110,
		RecipientID: "alice",
		IP:          "198.51.100.66",
	})
	require.NoError(t, err)

	assert.Equal(t, DecisionDecline, evaluation.Decision)
	assert.Less(t, evaluation.FraudScore, 80, "the decline comes from the critical factor, not the score")
	assert.Contains(t, evaluation.RiskFactors, Factor{Name: "blacklisted_ip", Delta: 50, Critical: true})
}

func TestEvaluateTransaction_HighScoreRaisesCompanionAlert(t *testing.T) {
	f := newEnsembleFixture(t)
	userID := id.NewUserID()
	// 03:00, far outside the profile's preferred hours.
	ctx := testutil.Ctx(t, userID, time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC), "203.0.113.9")

	f.establishedIdentity()
	f.watchlist.EXPECT().IsIPBlacklisted(gomock.Any(), gomock.Any()).Return(false, nil)
	f.watchlist.EXPECT().IsRecipientWatchlisted(gomock.Any(), "mallory").Return(true, nil)
	f.sessions.EXPECT().CountFailedLogins(gomock.Any(), gomock.Any(), gomock.Any()).Return(3, nil)
	f.ledger.EXPECT().CountRecentOperations(gomock.Any(), gomock.Any(), gomock.Any()).Return(10, nil)
	f.ledger.EXPECT().RecipientTransferCount(gomock.Any(), gomock.Any(), "mallory").Return(0, nil)
	f.ledger.EXPECT().ListTransactions(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	evaluation, err := f.service.EvaluateTransaction(ctx, TransactionContext{
		UserID:      userID,
		Type:        "transfer_out",
		Amount:      1000,
		RecipientID: "mallory",
		IP:          "203.0.113.9",
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, evaluation.FraudScore, alertScoreThreshold)
	assert.Equal(t, DecisionDecline, evaluation.Decision)

	require.Len(t, f.alerter.created, 1)
	created := f.alerter.created[0]
	assert.Equal(t, "fraud", created.Category)
	assert.Equal(t, alerting.PriorityCritical, created.Priority)
	assert.Equal(t, alerting.Target{Type: alerting.TargetTeam, ID: "fraud_ops"}, created.Target)
	assert.Equal(t, evaluation.ID.String(), created.SourceID)
}

func TestEvaluateTransaction_TrustTierScalesTheScore(t *testing.T) {
	run := func(t *testing.T, tier trustscore.Tier) *Evaluation {
		f := newEnsembleFixture(t)
		userID := id.NewUserID()
		ctx := testutil.Ctx(t, userID, afternoonTime, "203.0.113.9")

		f.establishedIdentity()
		f.quietSignals()
		if tier != "" {
			f.trust.snapshot = &trustscore.Snapshot{UserID: userID, Tier: tier}
		}

		// Twice the average amount trips the mild pattern signal.
		evaluation, err := f.service.EvaluateTransaction(ctx, TransactionContext{
			UserID:      userID,
			Type:        "card_create",
			Amount:      250,
			RecipientID: "mallory",
			IP:          "203.0.113.9",
		})
		require.NoError(t, err)
		return evaluation
	}

	elite := run(t, trustscore.TierElite)
	neutral := run(t, "")
	critical := run(t, trustscore.TierCritical)

	assert.Less(t, elite.FraudScore, neutral.FraudScore)
	assert.Greater(t, critical.FraudScore, neutral.FraudScore)
	assert.Equal(t, elite.ModelScores, critical.ModelScores, "sub-scores are tier-independent")
}

func TestEvaluateTransaction_UnknownUserIsNotFound(t *testing.T) {
	f := newEnsembleFixture(t)
	userID := id.NewUserID()
	ctx := testutil.Ctx(t, userID, afternoonTime, "203.0.113.9")

	f.identity.EXPECT().GetIdentity(gomock.Any(), userID).Return(nil, sentinel.ErrNotFound)
	f.quietSignals()

	_, err := f.service.EvaluateTransaction(ctx, TransactionContext{
		UserID: userID,
		Type:   "transfer_out",
		Amount: 100,
		IP:     "203.0.113.9",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestEvaluateTransaction_NoProfileFailsClosed(t *testing.T) {
	f := newEnsembleFixture(t)
	f.profiles.profile = nil
	userID := id.NewUserID()
	ctx := testutil.Ctx(t, userID, afternoonTime, "203.0.113.9")

	f.establishedIdentity()
	f.quietSignals()

	_, err := f.service.EvaluateTransaction(ctx, TransactionContext{
		UserID: userID,
		Type:   "transfer_out",
		Amount: 100,
		IP:     "203.0.113.9",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestEvaluateTransaction_PersistsBeforeReturn(t *testing.T) {
	f := newEnsembleFixture(t)
	userID := id.NewUserID()
	ctx := testutil.Ctx(t, userID, afternoonTime, "203.0.113.9")

	f.establishedIdentity()
	f.quietSignals()

	evaluation, err := f.service.EvaluateTransaction(ctx, TransactionContext{
		UserID:      userID,
		Type:        "transfer_out",
		Amount:      110,
		RecipientID: "alice",
		IP:          "203.0.113.9",
	})
	require.NoError(t, err)

	stored, err := f.store.Get(ctx, evaluation.ID)
	require.NoError(t, err)
	assert.Equal(t, evaluation.FraudScore, stored.FraudScore)
	assert.Equal(t, evaluation.Decision, stored.Decision)
	assert.Equal(t, afternoonTime, stored.EvaluatedAt)
	assert.NotEmpty(t, stored.ModelVersion)
}
