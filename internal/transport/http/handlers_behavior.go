package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gabrielgmza/simply-backend-sub000/internal/behavior"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/httputil"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// BehaviorService defines the behavioral profile operations the handler needs.
type BehaviorService interface {
	GetOrBuild(ctx context.Context, userID id.UserID) (*behavior.Profile, error)
	Rebuild(ctx context.Context, userID id.UserID) (*behavior.Profile, error)
	DetectAnomalies(ctx context.Context, userID id.UserID, event behavior.LiveEvent) ([]behavior.Anomaly, error)
}

// BehaviorHandler exposes the caller's behavioral profile.
type BehaviorHandler struct {
	service BehaviorService
	logger  *slog.Logger
}

func NewBehaviorHandler(service BehaviorService, logger *slog.Logger) *BehaviorHandler {
	return &BehaviorHandler{service: service, logger: logger}
}

// Register mounts behavior endpoints on an authenticated user router.
func (h *BehaviorHandler) Register(r chi.Router) {
	r.Get("/behavior/profile", h.handleProfile)
	r.Post("/behavior/profile/rebuild", h.handleRebuild)
	r.Post("/behavior/anomalies", h.handleDetect)
}

func (h *BehaviorHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := h.service.GetOrBuild(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

func (h *BehaviorHandler) handleRebuild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	profile, err := h.service.Rebuild(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "behavior profile rebuild failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

func (h *BehaviorHandler) handleDetect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	event, ok := httputil.Decode[behavior.LiveEvent](w, r, h.logger, ctx)
	if !ok {
		return
	}
	if event.At.IsZero() {
		event.At = requestcontext.Now(ctx)
	}

	anomalies, err := h.service.DetectAnomalies(ctx, requestcontext.UserID(ctx), event)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, anomalies)
}
