package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gabrielgmza/simply-backend-sub000/internal/trustscore"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/httputil"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// TrustScoreService defines the trust score operations the handler needs.
type TrustScoreService interface {
	GetScore(ctx context.Context, userID id.UserID) (*trustscore.Snapshot, error)
	Recalculate(ctx context.Context, userID id.UserID) (*trustscore.Snapshot, error)
}

// TrustScoreHandler exposes the caller's own trust score.
type TrustScoreHandler struct {
	service TrustScoreService
	logger  *slog.Logger
}

func NewTrustScoreHandler(service TrustScoreService, logger *slog.Logger) *TrustScoreHandler {
	return &TrustScoreHandler{service: service, logger: logger}
}

// Register mounts trust score endpoints on an authenticated user router.
func (h *TrustScoreHandler) Register(r chi.Router) {
	r.Get("/trust-score", h.handleGet)
	r.Post("/trust-score/recalculate", h.handleRecalculate)
}

func (h *TrustScoreHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snapshot, err := h.service.GetScore(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snapshot)
}

func (h *TrustScoreHandler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	snapshot, err := h.service.Recalculate(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "trust score recalculation failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snapshot)
}
