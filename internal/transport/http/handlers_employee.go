package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gabrielgmza/simply-backend-sub000/internal/employee"
	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/httputil"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

// EmployeeService defines the insider-monitoring operations the handler needs.
type EmployeeService interface {
	AnalyzeEmployeeAction(ctx context.Context, action employee.ActionContext) ([]*employee.Anomaly, error)
	ReviewAnomaly(ctx context.Context, anomalyID id.AnomalyID, to employee.Status, reviewer id.EmployeeID, note string) (*employee.Anomaly, error)
	Anomalies(ctx context.Context, employeeID id.EmployeeID, limit int) ([]*employee.Anomaly, error)
	DualApprovalRequired(ctx context.Context, employeeID id.EmployeeID) (bool, error)
}

// EmployeeHandler exposes insider-monitoring endpoints to back-office tools.
type EmployeeHandler struct {
	service EmployeeService
	logger  *slog.Logger
}

func NewEmployeeHandler(service EmployeeService, logger *slog.Logger) *EmployeeHandler {
	return &EmployeeHandler{service: service, logger: logger}
}

// Register mounts employee monitoring endpoints on the admin router.
func (h *EmployeeHandler) Register(r chi.Router) {
	r.Post("/employee-actions", h.handleAnalyze)
	r.Get("/employees/{employeeID}/anomalies", h.handleAnomalies)
	r.Get("/employees/{employeeID}/dual-approval", h.handleDualApproval)
	r.Post("/anomalies/{anomalyID}/review", h.handleReview)
}

// analyzeActionRequest reports one back-office action for analysis. The
// employee ID is explicit: internal services report actions on behalf of
// whichever employee performed them, not the calling identity.
type analyzeActionRequest struct {
	EmployeeID id.EmployeeID `json:"employee_id"`
	Action     string        `json:"action"`
	Resource   string        `json:"resource,omitempty"`
	ClientID   string        `json:"client_id,omitempty"`
	IP         string        `json:"ip,omitempty"`
	Amount     float64       `json:"amount,omitempty"`
}

func (h *EmployeeHandler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[analyzeActionRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}
	if req.IP == "" {
		req.IP = requestcontext.ClientIP(ctx)
	}

	anomalies, err := h.service.AnalyzeEmployeeAction(ctx, employee.ActionContext{
		EmployeeID: req.EmployeeID,
		Action:     req.Action,
		Resource:   req.Resource,
		ClientID:   req.ClientID,
		IP:         req.IP,
		Amount:     req.Amount,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "employee action analysis failed",
			"request_id", requestcontext.RequestID(ctx),
			"employee_id", req.EmployeeID,
			"action", req.Action,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, anomalies)
}

type reviewAnomalyRequest struct {
	Status employee.Status `json:"status"`
	Note   string          `json:"note,omitempty"`
}

func (h *EmployeeHandler) handleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	anomalyID, err := id.ParseAnomalyID(chi.URLParam(r, "anomalyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[reviewAnomalyRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}

	anomaly, err := h.service.ReviewAnomaly(ctx, anomalyID, req.Status, requestcontext.EmployeeID(ctx), req.Note)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, anomaly)
}

func (h *EmployeeHandler) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, err := id.ParseEmployeeID(chi.URLParam(r, "employeeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	anomalies, err := h.service.Anomalies(ctx, employeeID, queryLimit(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, anomalies)
}

type dualApprovalResponse struct {
	EmployeeID id.EmployeeID `json:"employee_id"`
	Required   bool          `json:"required"`
}

func (h *EmployeeHandler) handleDualApproval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, err := id.ParseEmployeeID(chi.URLParam(r, "employeeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	required, err := h.service.DualApprovalRequired(ctx, employeeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dualApprovalResponse{EmployeeID: employeeID, Required: required})
}
