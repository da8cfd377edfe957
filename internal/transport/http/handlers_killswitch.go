package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gabrielgmza/simply-backend-sub000/internal/killswitch"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/httputil"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// KillSwitchService defines the kill switch operations the handlers need.
type KillSwitchService interface {
	CheckOperationAllowed(ctx context.Context, userID id.UserID, product, region, txType string) error
	Activate(ctx context.Context, scope killswitch.Scope, target, reason, actor string, expiresAt time.Time) (*killswitch.State, error)
	Deactivate(ctx context.Context, scope killswitch.Scope, target, reason, actor string) (*killswitch.State, error)
	CurrentState(ctx context.Context) (*killswitch.State, error)
}

// KillSwitchHandler exposes the operation gate to user traffic and the
// switch controls to back-office tools.
type KillSwitchHandler struct {
	service KillSwitchService
	logger  *slog.Logger
}

func NewKillSwitchHandler(service KillSwitchService, logger *slog.Logger) *KillSwitchHandler {
	return &KillSwitchHandler{service: service, logger: logger}
}

// Register mounts the gate check on an authenticated user router.
func (h *KillSwitchHandler) Register(r chi.Router) {
	r.Get("/gate", h.handleCheck)
}

// RegisterAdmin mounts switch management on the employee router.
func (h *KillSwitchHandler) RegisterAdmin(r chi.Router) {
	r.Get("/killswitch", h.handleState)
	r.Post("/killswitch/activate", h.handleActivate)
	r.Post("/killswitch/deactivate", h.handleDeactivate)
}

type gateResponse struct {
	Allowed bool `json:"allowed"`
}

func (h *KillSwitchHandler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	err := h.service.CheckOperationAllowed(ctx,
		requestcontext.UserID(ctx),
		query.Get("product"),
		query.Get("region"),
		query.Get("transaction_type"),
	)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, gateResponse{Allowed: true})
}

type activateSwitchRequest struct {
	Scope     killswitch.Scope `json:"scope"`
	Target    string           `json:"target,omitempty"`
	Reason    string           `json:"reason"`
	ExpiresAt time.Time        `json:"expires_at,omitzero"`
}

func (h *KillSwitchHandler) handleActivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[activateSwitchRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}

	state, err := h.service.Activate(ctx, req.Scope, req.Target, req.Reason, requestcontext.Actor(ctx), req.ExpiresAt)
	if err != nil {
		h.logger.ErrorContext(ctx, "kill switch activation failed",
			"request_id", requestcontext.RequestID(ctx),
			"scope", req.Scope,
			"target", req.Target,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, state)
}

type deactivateSwitchRequest struct {
	Scope  killswitch.Scope `json:"scope"`
	Target string           `json:"target,omitempty"`
	Reason string           `json:"reason,omitempty"`
}

func (h *KillSwitchHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[deactivateSwitchRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}

	state, err := h.service.Deactivate(ctx, req.Scope, req.Target, req.Reason, requestcontext.Actor(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, state)
}

func (h *KillSwitchHandler) handleState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state, err := h.service.CurrentState(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, state)
}
