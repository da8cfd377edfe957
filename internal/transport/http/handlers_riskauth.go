package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gabrielgmza/simply-backend-sub000/internal/riskauth"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/httputil"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// RiskAuthService defines the risk assessment operations the handler needs.
type RiskAuthService interface {
	AssessRisk(ctx context.Context, op riskauth.OperationContext) (*riskauth.Assessment, error)
	VerifyChallenge(ctx context.Context, userID id.UserID, sessionID id.SessionID, challengeType, response string) (*riskauth.Assessment, error)
	History(ctx context.Context, userID id.UserID, limit int) ([]*riskauth.Assessment, error)
}

// RiskAuthHandler exposes risk-based authentication for the caller's session.
type RiskAuthHandler struct {
	service RiskAuthService
	logger  *slog.Logger
}

func NewRiskAuthHandler(service RiskAuthService, logger *slog.Logger) *RiskAuthHandler {
	return &RiskAuthHandler{service: service, logger: logger}
}

// Register mounts risk endpoints on an authenticated user router.
func (h *RiskAuthHandler) Register(r chi.Router) {
	r.Post("/risk/assessments", h.handleAssess)
	r.Get("/risk/assessments", h.handleHistory)
	r.Post("/risk/challenges/verify", h.handleVerifyChallenge)
}

// assessRequest is the wire shape for an assessment. Identity and client
// metadata come from the authenticated context, never from the body.
type assessRequest struct {
	Operation   string  `json:"operation"`
	Amount      float64 `json:"amount,omitempty"`
	RecipientID string  `json:"recipient_id,omitempty"`
}

func (h *RiskAuthHandler) handleAssess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[assessRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}

	assessment, err := h.service.AssessRisk(ctx, riskauth.OperationContext{
		UserID:            requestcontext.UserID(ctx),
		SessionID:         requestcontext.SessionID(ctx),
		Operation:         req.Operation,
		Amount:            req.Amount,
		RecipientID:       req.RecipientID,
		IP:                requestcontext.ClientIP(ctx),
		DeviceFingerprint: r.Header.Get("X-Device-Fingerprint"),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "risk assessment failed",
			"request_id", requestcontext.RequestID(ctx),
			"operation", req.Operation,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, assessment)
}

type verifyChallengeRequest struct {
	ChallengeType string `json:"challenge_type"`
	Response      string `json:"response"`
}

func (h *RiskAuthHandler) handleVerifyChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[verifyChallengeRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}

	assessment, err := h.service.VerifyChallenge(ctx,
		requestcontext.UserID(ctx),
		requestcontext.SessionID(ctx),
		req.ChallengeType,
		req.Response,
	)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, assessment)
}

func (h *RiskAuthHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assessments, err := h.service.History(ctx, requestcontext.UserID(ctx), queryLimit(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, assessments)
}

// queryLimit parses the optional ?limit= parameter; 0 lets the service
// apply its default.
func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
