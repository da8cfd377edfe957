package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gabrielgmza/simply-backend-sub000/internal/fraud"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/httputil"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// FraudService defines the fraud evaluation operations the handler needs.
type FraudService interface {
	EvaluateTransaction(ctx context.Context, tx fraud.TransactionContext) (*fraud.Evaluation, error)
	History(ctx context.Context, userID id.UserID, limit int) ([]*fraud.Evaluation, error)
}

// FraudHandler exposes transaction fraud evaluation for the caller.
type FraudHandler struct {
	service FraudService
	logger  *slog.Logger
}

func NewFraudHandler(service FraudService, logger *slog.Logger) *FraudHandler {
	return &FraudHandler{service: service, logger: logger}
}

// Register mounts fraud endpoints on an authenticated user router.
func (h *FraudHandler) Register(r chi.Router) {
	r.Post("/fraud/evaluations", h.handleEvaluate)
	r.Get("/fraud/evaluations", h.handleHistory)
}

// evaluateRequest is the wire shape for a fraud evaluation. Identity and
// client metadata come from the authenticated context.
type evaluateRequest struct {
	TransactionID id.TransactionID `json:"transaction_id,omitzero"`
	Type          string           `json:"type"`
	Amount        float64          `json:"amount"`
	Currency      string           `json:"currency"`
	RecipientID   string           `json:"recipient_id,omitempty"`
	International bool             `json:"international"`
}

func (h *FraudHandler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[evaluateRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}

	evaluation, err := h.service.EvaluateTransaction(ctx, fraud.TransactionContext{
		UserID:            requestcontext.UserID(ctx),
		TransactionID:     req.TransactionID,
		SessionID:         requestcontext.SessionID(ctx),
		Type:              req.Type,
		Amount:            req.Amount,
		Currency:          req.Currency,
		RecipientID:       req.RecipientID,
		International:     req.International,
		IP:                requestcontext.ClientIP(ctx),
		DeviceFingerprint: r.Header.Get("X-Device-Fingerprint"),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "fraud evaluation failed",
			"request_id", requestcontext.RequestID(ctx),
			"transaction_type", req.Type,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, evaluation)
}

func (h *FraudHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	evaluations, err := h.service.History(ctx, requestcontext.UserID(ctx), queryLimit(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, evaluations)
}
