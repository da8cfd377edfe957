package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gabrielgmza/simply-backend-sub000/internal/alerting"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/httputil"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// AlertService defines the alerting operations the handler needs.
type AlertService interface {
	Create(ctx context.Context, params alerting.CreateParams) (*alerting.Alert, error)
	Get(ctx context.Context, alertID id.AlertID) (*alerting.Alert, error)
	ListForTarget(ctx context.Context, target alerting.Target, unreadOnly bool) ([]*alerting.Alert, error)
	MarkRead(ctx context.Context, alertID id.AlertID) (*alerting.Alert, error)
	MarkActioned(ctx context.Context, alertID id.AlertID, actor string) (*alerting.Alert, error)
}

// AlertHandler exposes the alert inbox to back-office tools.
type AlertHandler struct {
	service AlertService
	logger  *slog.Logger
}

func NewAlertHandler(service AlertService, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{service: service, logger: logger}
}

// Register mounts alert endpoints on the admin router.
func (h *AlertHandler) Register(r chi.Router) {
	r.Post("/alerts", h.handleCreate)
	r.Get("/alerts", h.handleInbox)
	r.Get("/alerts/{alertID}", h.handleGet)
	r.Post("/alerts/{alertID}/read", h.handleMarkRead)
	r.Post("/alerts/{alertID}/action", h.handleMarkActioned)
}

type createAlertRequest struct {
	Category string             `json:"category"`
	Priority alerting.Priority  `json:"priority"`
	Title    string             `json:"title"`
	Message  string             `json:"message"`
	Target   alerting.Target    `json:"target"`
	Source   string             `json:"source,omitempty"`
	SourceID string             `json:"source_id,omitempty"`
	Channels []alerting.Channel `json:"channels,omitempty"`
}

func (h *AlertHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[createAlertRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}
	source := req.Source
	if source == "" {
		source = requestcontext.Actor(ctx)
	}

	alert, err := h.service.Create(ctx, alerting.CreateParams{
		Category: req.Category,
		Priority: req.Priority,
		Title:    req.Title,
		Message:  req.Message,
		Target:   req.Target,
		Source:   source,
		SourceID: req.SourceID,
		Channels: req.Channels,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "alert creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"category", req.Category,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, alert)
}

// handleInbox lists alerts addressed to the calling employee.
func (h *AlertHandler) handleInbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target := alerting.Target{
		Type: alerting.TargetEmployee,
		ID:   requestcontext.EmployeeID(ctx).String(),
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"

	alerts, err := h.service.ListForTarget(ctx, target, unreadOnly)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, alerts)
}

func (h *AlertHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	h.withAlertID(w, r, h.service.Get)
}

func (h *AlertHandler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	h.withAlertID(w, r, h.service.MarkRead)
}

func (h *AlertHandler) handleMarkActioned(w http.ResponseWriter, r *http.Request) {
	h.withAlertID(w, r, func(ctx context.Context, alertID id.AlertID) (*alerting.Alert, error) {
		return h.service.MarkActioned(ctx, alertID, requestcontext.Actor(ctx))
	})
}

func (h *AlertHandler) withAlertID(w http.ResponseWriter, r *http.Request, call func(context.Context, id.AlertID) (*alerting.Alert, error)) {
	ctx := r.Context()
	alertID, err := id.ParseAlertID(chi.URLParam(r, "alertID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	alert, err := call(ctx, alertID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, alert)
}
