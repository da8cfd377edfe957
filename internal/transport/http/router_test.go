package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielgmza/simply-backend-sub000/internal/device"
	"github.com/gabrielgmza/simply-backend-sub000/internal/fraud"
	"github.com/gabrielgmza/simply-backend-sub000/internal/killswitch"
	"github.com/gabrielgmza/simply-backend-sub000/internal/trustscore"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	dErrors "github.com/gabrielgmza/simply-backend-sub000/pkg/domain-errors"
)

type trustScoreStub struct {
	snapshot *trustscore.Snapshot
}

func (s *trustScoreStub) GetScore(_ context.Context, userID id.UserID) (*trustscore.Snapshot, error) {
	snapshot := *s.snapshot
	snapshot.UserID = userID
	return &snapshot, nil
}

func (s *trustScoreStub) Recalculate(ctx context.Context, userID id.UserID) (*trustscore.Snapshot, error) {
	return s.GetScore(ctx, userID)
}

type fraudStub struct {
	lastTx fraud.TransactionContext
}

func (s *fraudStub) EvaluateTransaction(_ context.Context, tx fraud.TransactionContext) (*fraud.Evaluation, error) {
	s.lastTx = tx
	return &fraud.Evaluation{UserID: tx.UserID, Decision: fraud.DecisionApprove}, nil
}

func (s *fraudStub) History(context.Context, id.UserID, int) ([]*fraud.Evaluation, error) {
	return nil, nil
}

// deviceStub satisfies DeviceService so the router can mount the device
// admin routes, which resolve service methods at mount time.
type deviceStub struct{}

func (deviceStub) Register(context.Context, id.UserID, device.Signals, string) (*device.Record, bool, error) {
	return nil, false, nil
}

func (deviceStub) ListByUser(context.Context, id.UserID) ([]*device.Record, error) {
	return nil, nil
}

func (deviceStub) IsDeviceAllowed(context.Context, id.UserID, string) (*device.Record, error) {
	return nil, nil
}

func (deviceStub) Factors(context.Context, id.UserID, string) ([]device.TrustFactor, error) {
	return nil, nil
}

func (deviceStub) Trust(context.Context, id.UserID, string) (*device.Record, error) {
	return nil, nil
}

func (deviceStub) Block(context.Context, id.UserID, string) (*device.Record, error) {
	return nil, nil
}

func (deviceStub) Unblock(context.Context, id.UserID, string) (*device.Record, error) {
	return nil, nil
}

type gateStub struct {
	denyReason string
}

func (s *gateStub) CheckOperationAllowed(context.Context, id.UserID, string, string, string) error {
	if s.denyReason != "" {
		return dErrors.Denied(s.denyReason, "operation denied")
	}
	return nil
}

func (s *gateStub) Activate(context.Context, killswitch.Scope, string, string, string, time.Time) (*killswitch.State, error) {
	return killswitch.NewState(), nil
}

func (s *gateStub) Deactivate(context.Context, killswitch.Scope, string, string, string) (*killswitch.State, error) {
	return killswitch.NewState(), nil
}

func (s *gateStub) CurrentState(context.Context) (*killswitch.State, error) {
	return killswitch.NewState(), nil
}

type routerFixture struct {
	handler    http.Handler
	jwt        *JWTService
	trustScore *trustScoreStub
	fraud      *fraudStub
	gate       *gateStub
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{
		jwt:        NewJWTService("router-test-key", "simply"),
		trustScore: &trustScoreStub{snapshot: &trustscore.Snapshot{GlobalScore: 72, Tier: trustscore.TierHigh}},
		fraud:      &fraudStub{},
		gate:       &gateStub{},
	}
	f.handler = NewRouter(Services{
		TrustScore: f.trustScore,
		Device:     deviceStub{},
		Fraud:      f.fraud,
		KillSwitch: f.gate,
	}, f.jwt, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func (f *routerFixture) userToken(t *testing.T, userID id.UserID) string {
	t.Helper()
	token, err := f.jwt.GenerateUserToken(userID, id.NewSessionID(), time.Hour)
	require.NoError(t, err)
	return token
}

func (f *routerFixture) employeeToken(t *testing.T, employeeID id.EmployeeID) string {
	t.Helper()
	token, err := f.jwt.GenerateEmployeeToken(employeeID, id.NewSessionID(), time.Hour)
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthIsOpen(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserRoutesRequireUserToken(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/v1/trust-score", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "missing token")

	req := httptest.NewRequest(http.MethodGet, "/v1/trust-score", nil)
	req.Header.Set("Authorization", "Bearer "+f.employeeToken(t, id.NewEmployeeID()))
	rec = f.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code, "employee token on user route")
}

func TestAdminRoutesRequireEmployeeToken(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/killswitch", nil)
	req.Header.Set("Authorization", "Bearer "+f.userToken(t, id.NewUserID()))
	rec := f.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/admin/killswitch", nil)
	req.Header.Set("Authorization", "Bearer "+f.employeeToken(t, id.NewEmployeeID()))
	rec = f.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTrustScoreReturnsCallerSnapshot(t *testing.T) {
	f := newRouterFixture(t)
	userID := id.NewUserID()

	req := httptest.NewRequest(http.MethodGet, "/v1/trust-score", nil)
	req.Header.Set("Authorization", "Bearer "+f.userToken(t, userID))
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot trustscore.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snapshot))
	assert.Equal(t, userID, snapshot.UserID)
	assert.Equal(t, 72, snapshot.GlobalScore)
}

func TestFraudEvaluateFillsIdentityAndClientMetadata(t *testing.T) {
	f := newRouterFixture(t)
	userID := id.NewUserID()

	body, err := json.Marshal(map[string]any{
		"type":     "transfer_out",
		"amount":   1200.0,
		"currency": "USD",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/fraud/evaluations", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+f.userToken(t, userID))
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("X-Device-Fingerprint", "fp-123")
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, userID, f.fraud.lastTx.UserID)
	assert.Equal(t, "203.0.113.9", f.fraud.lastTx.IP)
	assert.Equal(t, "fp-123", f.fraud.lastTx.DeviceFingerprint)
	assert.Equal(t, "transfer_out", f.fraud.lastTx.Type)
}

func TestGateDenialCarriesReason(t *testing.T) {
	f := newRouterFixture(t)
	f.gate.denyReason = "global_kill"

	req := httptest.NewRequest(http.MethodGet, "/v1/gate?product=transfers", nil)
	req.Header.Set("Authorization", "Bearer "+f.userToken(t, id.NewUserID()))
	rec := f.do(req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp struct {
		Reason string `json:"reason"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "global_kill", resp.Reason)

	f.gate.denyReason = ""
	req = httptest.NewRequest(http.MethodGet, "/v1/gate?product=transfers", nil)
	req.Header.Set("Authorization", "Bearer "+f.userToken(t, id.NewUserID()))
	rec = f.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
