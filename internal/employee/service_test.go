package employee

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gabrielgmza/simply-backend-sub000/internal/alerting"
	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
	"github.com/gabrielgmza/simply-backend-sub000/internal/ports/mocks"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/testutil"
)

type capturingAlerter struct {
	created []alerting.CreateParams
}

func (c *capturingAlerter) Create(_ context.Context, params alerting.CreateParams) (*alerting.Alert, error) {
	c.created = append(c.created, params)
	return &alerting.Alert{ID: id.NewAlertID()}, nil
}

type detectorFixture struct {
	store      *InMemoryStore
	directory  *mocks.MockEmployeeDirectory
	terminator *mocks.MockSessionTerminator
	alerter    *capturingAlerter
	service    *Service
}

func newDetectorFixture(t *testing.T) *detectorFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &detectorFixture{
		store:      NewInMemoryStore(),
		directory:  mocks.NewMockEmployeeDirectory(ctrl),
		terminator: mocks.NewMockSessionTerminator(ctrl),
		alerter:    &capturingAlerter{},
	}
	var err error
	f.service, err = New(f.store, f.directory, f.terminator, WithAlerter(f.alerter))
	require.NoError(t, err)
	return f
}

func (f *detectorFixture) knownEmployee(employeeID, supervisorID id.EmployeeID, role string) {
	f.directory.EXPECT().GetEmployee(gomock.Any(), employeeID).Return(&ports.Employee{
		ID:           employeeID,
		Role:         role,
		Status:       "active",
		SupervisorID: supervisorID,
	}, nil).AnyTimes()
}

// seedBaseline installs a fresh office-hours baseline so the analysis does
// not rebuild one from the action under test.
func (f *detectorFixture) seedBaseline(t *testing.T, employeeID id.EmployeeID, at time.Time) {
	t.Helper()
	baseline := officeBaseline()
	baseline.EmployeeID = employeeID
	baseline.UpdatedAt = at
	require.NoError(t, f.store.ReplaceBaseline(context.Background(), baseline))
}

func TestAnalyzeEmployeeAction_SundayNightIsOneMediumAnomaly(t *testing.T) {
	f := newDetectorFixture(t)
	employeeID := id.NewEmployeeID()
	supervisorID := id.NewEmployeeID()
	sundayNight := time.Date(2025, 6, 8, 3, 0, 0, 0, time.UTC)
	ctx := testutil.EmployeeCtx(t, employeeID, sundayNight, "10.0.0.1")

	f.knownEmployee(employeeID, supervisorID, "support")
	f.seedBaseline(t, employeeID, sundayNight)

	anomalies, err := f.service.AnalyzeEmployeeAction(ctx, ActionContext{
		EmployeeID: employeeID,
		Action:     "view_account",
		Resource:   "account/123",
		IP:         "10.0.0.1",
	})
	require.NoError(t, err)

	require.Len(t, anomalies, 1)
	anomaly := anomalies[0]
	assert.Equal(t, AnomalyOffHours, anomaly.Type)
	assert.Equal(t, SeverityMedium, anomaly.Severity)
	assert.Equal(t, StatusDetected, anomaly.Status)
	assert.Equal(t, []string{"supervisor_notified"}, anomaly.ActionsTaken)

	require.Len(t, f.alerter.created, 1)
	assert.Equal(t, alerting.PriorityMedium, f.alerter.created[0].Priority)
	assert.Equal(t, alerting.Target{Type: alerting.TargetEmployee, ID: supervisorID.String()}, f.alerter.created[0].Target)
}

func TestAnalyzeEmployeeAction_CriticalBurstKillsSessions(t *testing.T) {
	f := newDetectorFixture(t)
	employeeID := id.NewEmployeeID()
	supervisorID := id.NewEmployeeID()
	tuesdayNoon := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	ctx := testutil.EmployeeCtx(t, employeeID, tuesdayNoon, "10.0.0.1")

	f.knownEmployee(employeeID, supervisorID, "ops")
	f.seedBaseline(t, employeeID, tuesdayNoon)
	f.terminator.EXPECT().TerminateActiveSessions(gomock.Any(), employeeID, gomock.Any()).Return(nil)

	for range 4 {
		require.NoError(t, f.store.RecordAction(ctx, ActionRecord{
			EmployeeID: employeeID,
			Action:     "approve_refund",
			IP:         "10.0.0.1",
			Amount:     150_000,
			At:         tuesdayNoon.Add(-10 * time.Minute),
		}))
	}

	anomalies, err := f.service.AnalyzeEmployeeAction(ctx, ActionContext{
		EmployeeID: employeeID,
		Action:     "approve_refund",
		Resource:   "refund/99",
		IP:         "10.0.0.1",
		Amount:     150_000,
	})
	require.NoError(t, err)

	require.Len(t, anomalies, 1)
	anomaly := anomalies[0]
	assert.Equal(t, AnomalyHighValueApproval, anomaly.Type)
	assert.Equal(t, SeverityCritical, anomaly.Severity)
	assert.Contains(t, anomaly.ActionsTaken, "sessions_terminated")
	assert.Contains(t, anomaly.ActionsTaken, "admins_notified")

	// Supervisor and the admin pool both hear about it.
	require.Len(t, f.alerter.created, 2)
	assert.Equal(t, alerting.PriorityCritical, f.alerter.created[0].Priority)
}

func TestAnalyzeEmployeeAction_HighSeverityFlagsDualApproval(t *testing.T) {
	f := newDetectorFixture(t)
	employeeID := id.NewEmployeeID()
	tuesdayNoon := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	ctx := testutil.EmployeeCtx(t, employeeID, tuesdayNoon, "10.0.0.1")

	f.knownEmployee(employeeID, id.NewEmployeeID(), "ops")
	f.seedBaseline(t, employeeID, tuesdayNoon)

	for range 4 {
		require.NoError(t, f.store.RecordAction(ctx, ActionRecord{
			EmployeeID: employeeID,
			Action:     "approve_refund",
			IP:         "10.0.0.1",
			Amount:     400,
			At:         tuesdayNoon.Add(-10 * time.Minute),
		}))
	}

	anomalies, err := f.service.AnalyzeEmployeeAction(ctx, ActionContext{
		EmployeeID: employeeID,
		Action:     "approve_refund",
		Resource:   "refund/100",
		IP:         "10.0.0.1",
		Amount:     400,
	})
	require.NoError(t, err)

	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyApprovalBurst, anomalies[0].Type)
	assert.Equal(t, SeverityHigh, anomalies[0].Severity)
	assert.Contains(t, anomalies[0].ActionsTaken, "dual_approval_required")

	flagged, err := f.service.DualApprovalRequired(ctx, employeeID)
	require.NoError(t, err)
	assert.True(t, flagged)
}

func TestAnalyzeEmployeeAction_StaleBaselineIsRebuilt(t *testing.T) {
	f := newDetectorFixture(t)
	employeeID := id.NewEmployeeID()
	tuesdayNoon := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	ctx := testutil.EmployeeCtx(t, employeeID, tuesdayNoon, "10.0.0.1")

	f.knownEmployee(employeeID, id.NewEmployeeID(), "support")
	stale := officeBaseline()
	stale.EmployeeID = employeeID
	stale.UpdatedAt = tuesdayNoon.Add(-25 * time.Hour)
	require.NoError(t, f.store.ReplaceBaseline(ctx, stale))

	_, err := f.service.AnalyzeEmployeeAction(ctx, ActionContext{
		EmployeeID: employeeID,
		Action:     "view_account",
		IP:         "10.0.0.1",
	})
	require.NoError(t, err)

	rebuilt, err := f.store.GetBaseline(ctx, employeeID)
	require.NoError(t, err)
	assert.Equal(t, tuesdayNoon, rebuilt.UpdatedAt)
	assert.Equal(t, 1, rebuilt.DataPoints)
}

func TestReviewAnomaly(t *testing.T) {
	seed := func(t *testing.T) (*detectorFixture, *Anomaly, context.Context) {
		f := newDetectorFixture(t)
		tuesdayNoon := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
		reviewer := id.NewEmployeeID()
		ctx := testutil.EmployeeCtx(t, reviewer, tuesdayNoon, "10.0.0.1")

		anomaly := &Anomaly{
			ID:         id.NewAnomalyID(),
			EmployeeID: id.NewEmployeeID(),
			Type:       AnomalyOffHours,
			Severity:   SeverityMedium,
			Status:     StatusDetected,
			DetectedAt: tuesdayNoon,
		}
		require.NoError(t, f.store.CreateAnomaly(ctx, anomaly))
		return f, anomaly, ctx
	}

	t.Run("detected to investigating to resolved", func(t *testing.T) {
		f, anomaly, ctx := seed(t)
		reviewer := id.NewEmployeeID()

		updated, err := f.service.ReviewAnomaly(ctx, anomaly.ID, StatusInvestigating, reviewer, "looking into it")
		require.NoError(t, err)
		assert.Equal(t, StatusInvestigating, updated.Status)

		updated, err = f.service.ReviewAnomaly(ctx, anomaly.ID, StatusResolved, reviewer, "shift change, cleared")
		require.NoError(t, err)
		assert.Equal(t, StatusResolved, updated.Status)
		assert.Len(t, updated.ActionsTaken, 2)
	})

	t.Run("detected cannot resolve directly", func(t *testing.T) {
		f, anomaly, ctx := seed(t)

		_, err := f.service.ReviewAnomaly(ctx, anomaly.ID, StatusResolved, id.NewEmployeeID(), "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("unknown target status rejected", func(t *testing.T) {
		f, anomaly, ctx := seed(t)

		_, err := f.service.ReviewAnomaly(ctx, anomaly.ID, StatusDetected, id.NewEmployeeID(), "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("missing anomaly is not found", func(t *testing.T) {
		f, _, ctx := seed(t)

		_, err := f.service.ReviewAnomaly(ctx, id.NewAnomalyID(), StatusInvestigating, id.NewEmployeeID(), "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
