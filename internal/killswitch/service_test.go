package killswitch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gabrielgmza/simply-backend-sub000/internal/alerting"
	"github.com/gabrielgmza/simply-backend-sub000/internal/behavior"
	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
	"github.com/gabrielgmza/simply-backend-sub000/internal/ports/mocks"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/testutil"
)

var noonTime = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

type segmentStub struct {
	segment behavior.Segment
}

func (s *segmentStub) GetOrBuild(context.Context, id.UserID) (*behavior.Profile, error) {
	return &behavior.Profile{Segment: s.segment}, nil
}

type noticingAlerter struct {
	created []alerting.CreateParams
}

func (n *noticingAlerter) Create(_ context.Context, params alerting.CreateParams) (*alerting.Alert, error) {
	n.created = append(n.created, params)
	return &alerting.Alert{ID: id.NewAlertID()}, nil
}

func newSwitchService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	svc, err := New(NewInMemoryStore(), opts...)
	require.NoError(t, err)
	return svc
}

func TestCheckOperationAllowed_DefaultStateAllows(t *testing.T) {
	svc := newSwitchService(t)
	userID := id.NewUserID()
	ctx := testutil.Ctx(t, userID, noonTime, "203.0.113.9")

	assert.NoError(t, svc.CheckOperationAllowed(ctx, userID, "transfers", "AR", "transfer_out"))
}

func TestGlobalKillDeniesEverything(t *testing.T) {
	svc := newSwitchService(t)
	userID := id.NewUserID()
	ctx := testutil.Ctx(t, userID, noonTime, "203.0.113.9")

	_, err := svc.Activate(ctx, ScopeGlobal, "", "incident response", "employee:ops-1", time.Time{})
	require.NoError(t, err)

	err = svc.CheckOperationAllowed(ctx, userID, "accounts", "", "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePolicyDenied))
	assert.Equal(t, "global_kill", dErrors.GetReason(err))

	_, err = svc.Deactivate(ctx, ScopeGlobal, "", "incident resolved", "employee:ops-1")
	require.NoError(t, err)
	assert.NoError(t, svc.CheckOperationAllowed(ctx, userID, "accounts", "", ""))
}

func TestProductWildcardCoversEveryProduct(t *testing.T) {
	svc := newSwitchService(t)
	userID := id.NewUserID()
	ctx := testutil.Ctx(t, userID, noonTime, "203.0.113.9")

	_, err := svc.Activate(ctx, ScopeProduct, WildcardAll, "full stop", "employee:ops-1", time.Time{})
	require.NoError(t, err)

	for _, product := range KnownProducts {
		err := svc.CheckOperationAllowed(ctx, userID, product, "", "")
		require.Error(t, err, product)
		assert.Equal(t, "product_disabled", dErrors.GetReason(err))
	}
}

func TestTransactionTypeAxis(t *testing.T) {
	svc := newSwitchService(t)
	userID := id.NewUserID()
	ctx := testutil.Ctx(t, userID, noonTime, "203.0.113.9")

	_, err := svc.Activate(ctx, ScopeTransactionType, "transfer_out", "fraud wave", "employee:ops-1", time.Time{})
	require.NoError(t, err)

	err = svc.CheckOperationAllowed(ctx, userID, "transfers", "", "transfer_out")
	require.Error(t, err)
	assert.Equal(t, "transaction_type_disabled", dErrors.GetReason(err))

	assert.NoError(t, svc.CheckOperationAllowed(ctx, userID, "transfers", "", "transfer_internal"))
}

func TestSegmentAxisNeedsProfileLookup(t *testing.T) {
	resolver := &segmentStub{segment: behavior.SegmentAtRisk}
	svc := newSwitchService(t, WithProfileReader(resolver))
	userID := id.NewUserID()
	ctx := testutil.Ctx(t, userID, noonTime, "203.0.113.9")

	_, err := svc.Activate(ctx, ScopeSegment, string(behavior.SegmentAtRisk), "fraud review", "employee:ops-1", time.Time{})
	require.NoError(t, err)

	err = svc.CheckOperationAllowed(ctx, userID, "transfers", "", "")
	require.Error(t, err)
	assert.Equal(t, "segment_disabled", dErrors.GetReason(err))

	resolver.segment = behavior.SegmentRegular
	assert.NoError(t, svc.CheckOperationAllowed(ctx, userID, "transfers", "", ""))
}

func TestActivateIsIdempotent(t *testing.T) {
	svc := newSwitchService(t)
	ctx := testutil.Ctx(t, id.NewUserID(), noonTime, "203.0.113.9")

	first, err := svc.Activate(ctx, ScopeProduct, "crypto", "volatility halt", "employee:ops-1", time.Time{})
	require.NoError(t, err)
	second, err := svc.Activate(ctx, ScopeProduct, "crypto", "volatility halt", "employee:ops-2", time.Time{})
	require.NoError(t, err)

	assert.Equal(t, first.Version, second.Version)
	assert.Len(t, second.ActiveSwitches, 1)
	assert.Equal(t, "employee:ops-1", second.ActiveSwitches[0].ActivatedBy)
}

func TestActivate_RejectsUnknownTargets(t *testing.T) {
	svc := newSwitchService(t)
	ctx := testutil.Ctx(t, id.NewUserID(), noonTime, "203.0.113.9")

	_, err := svc.Activate(ctx, ScopeProduct, "time_travel", "nope", "employee:ops-1", time.Time{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = svc.Activate(ctx, ScopeGlobal, "", "", "employee:ops-1", time.Time{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestAutoTriggerSweep(t *testing.T) {
	ctrl := gomock.NewController(t)
	traffic := mocks.NewMockTrafficStatsReader(ctrl)
	alerter := &noticingAlerter{}
	svc := newSwitchService(t, WithTrafficStats(traffic), WithAlerter(alerter))
	userID := id.NewUserID()
	ctx := testutil.Ctx(t, userID, noonTime, "203.0.113.9")

	traffic.EXPECT().TrailingStats(gomock.Any()).Return(&ports.TrafficStats{
		FraudRate:     0.07,
		ErrorRate:     0.01,
		HourVolume:    1000,
		WeekHourlyAvg: 900,
	}, nil).Times(2)

	require.NoError(t, svc.RunAutoTriggerSweep(ctx))

	err := svc.CheckOperationAllowed(ctx, userID, "transfers", "", "transfer_out")
	require.Error(t, err)
	assert.Equal(t, "transaction_type_disabled", dErrors.GetReason(err))

	state, err := svc.CurrentState(ctx)
	require.NoError(t, err)
	require.Len(t, state.ActiveSwitches, 1)
	sw := state.ActiveSwitches[0]
	assert.Equal(t, "fraud_rate_spike", sw.Reason)
	assert.Equal(t, "auto_trigger", sw.ActivatedBy)
	assert.Equal(t, noonTime.Add(30*time.Minute), sw.ExpiresAt)

	require.Len(t, alerter.created, 1)
	assert.Equal(t, alerting.Target{Type: alerting.TargetAllAdmins}, alerter.created[0].Target)

	// A second sweep with the same spike finds the switch already active.
	require.NoError(t, svc.RunAutoTriggerSweep(ctx))
	state, err = svc.CurrentState(ctx)
	require.NoError(t, err)
	assert.Len(t, state.ActiveSwitches, 1)
	assert.Len(t, alerter.created, 1)
}

func TestExpirySweepDeactivatesPastDeadline(t *testing.T) {
	svc := newSwitchService(t)
	userID := id.NewUserID()
	ctx := testutil.Ctx(t, userID, noonTime, "203.0.113.9")

	_, err := svc.Activate(ctx, ScopeTransactionType, "withdrawal", "cash crunch", "employee:ops-1", noonTime.Add(30*time.Minute))
	require.NoError(t, err)
	require.Error(t, svc.CheckOperationAllowed(ctx, userID, "", "", "withdrawal"))

	// Nothing is due yet.
	require.NoError(t, svc.RunExpirySweep(ctx))
	state, err := svc.CurrentState(ctx)
	require.NoError(t, err)
	assert.Len(t, state.ActiveSwitches, 1)

	later := testutil.Ctx(t, userID, noonTime.Add(31*time.Minute), "203.0.113.9")
	require.NoError(t, svc.RunExpirySweep(later))

	state, err = svc.CurrentState(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.ActiveSwitches)
	assert.NoError(t, svc.CheckOperationAllowed(later, userID, "", "", "withdrawal"))
}
