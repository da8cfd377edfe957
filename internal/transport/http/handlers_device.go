package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gabrielgmza/simply-backend-sub000/internal/device"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/httputil"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// DeviceService defines the device registry operations the handlers need.
type DeviceService interface {
	Register(ctx context.Context, userID id.UserID, signals device.Signals, ip string) (*device.Record, bool, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*device.Record, error)
	IsDeviceAllowed(ctx context.Context, userID id.UserID, fingerprint string) (*device.Record, error)
	Factors(ctx context.Context, userID id.UserID, fingerprint string) ([]device.TrustFactor, error)
	Trust(ctx context.Context, userID id.UserID, fingerprint string) (*device.Record, error)
	Block(ctx context.Context, userID id.UserID, fingerprint string) (*device.Record, error)
	Unblock(ctx context.Context, userID id.UserID, fingerprint string) (*device.Record, error)
}

// DeviceHandler exposes the caller's device registry.
type DeviceHandler struct {
	service DeviceService
	logger  *slog.Logger
}

func NewDeviceHandler(service DeviceService, logger *slog.Logger) *DeviceHandler {
	return &DeviceHandler{service: service, logger: logger}
}

// Register mounts device endpoints on an authenticated user router.
func (h *DeviceHandler) Register(r chi.Router) {
	r.Post("/devices", h.handleRegister)
	r.Get("/devices", h.handleList)
	r.Get("/devices/{fingerprint}/allowed", h.handleAllowed)
	r.Get("/devices/{fingerprint}/factors", h.handleFactors)
}

// RegisterAdmin mounts moderation endpoints on the employee router.
// Trust and block decisions are back-office actions, not self-service.
func (h *DeviceHandler) RegisterAdmin(r chi.Router) {
	r.Post("/users/{userID}/devices/{fingerprint}/trust", h.adminAction(h.service.Trust))
	r.Post("/users/{userID}/devices/{fingerprint}/block", h.adminAction(h.service.Block))
	r.Post("/users/{userID}/devices/{fingerprint}/unblock", h.adminAction(h.service.Unblock))
}

type registerDeviceResponse struct {
	Device *device.Record `json:"device"`
	New    bool           `json:"new"`
}

func (h *DeviceHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	signals, ok := httputil.Decode[device.Signals](w, r, h.logger, ctx)
	if !ok {
		return
	}

	record, isNew, err := h.service.Register(ctx, requestcontext.UserID(ctx), signals, requestcontext.ClientIP(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "device registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, registerDeviceResponse{Device: record, New: isNew})
}

func (h *DeviceHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.service.ListByUser(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (h *DeviceHandler) handleAllowed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	record, err := h.service.IsDeviceAllowed(ctx, requestcontext.UserID(ctx), chi.URLParam(r, "fingerprint"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *DeviceHandler) handleFactors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	factors, err := h.service.Factors(ctx, requestcontext.UserID(ctx), chi.URLParam(r, "fingerprint"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, factors)
}

// adminAction adapts the trust/block/unblock service calls, which share a
// signature, into a handler acting on a path-addressed user and device.
func (h *DeviceHandler) adminAction(call func(context.Context, id.UserID, string) (*device.Record, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		record, err := call(ctx, userID, chi.URLParam(r, "fingerprint"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, record)
	}
}
