// Package httptransport is the thin HTTP layer over the decision services.
// Handlers delegate to domain services and never embed business logic;
// identity and client metadata travel via the request context.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/httputil"
)

// Services carries every domain service the router exposes.
type Services struct {
	TrustScore TrustScoreService
	RiskAuth   RiskAuthService
	Device     DeviceService
	Fraud      FraudService
	Behavior   BehaviorService
	Employee   EmployeeService
	KillSwitch KillSwitchService
	Alerts     AlertService
}

// NewRouter wires the full API surface. User routes require a user token,
// /v1/admin routes require an employee token; health and metrics are open.
func NewRouter(services Services, validator TokenValidator, logger *slog.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(Recovery(logger))
	router.Use(RequestID)
	router.Use(RequestTime)
	router.Use(ClientMetadata)
	router.Use(RequestLogger(logger))

	router.Get("/healthz", handleHealth)
	router.Handle("/metrics", promhttp.Handler())

	trustScore := NewTrustScoreHandler(services.TrustScore, logger)
	riskAuth := NewRiskAuthHandler(services.RiskAuth, logger)
	device := NewDeviceHandler(services.Device, logger)
	fraud := NewFraudHandler(services.Fraud, logger)
	behavior := NewBehaviorHandler(services.Behavior, logger)
	employee := NewEmployeeHandler(services.Employee, logger)
	killSwitch := NewKillSwitchHandler(services.KillSwitch, logger)
	alerts := NewAlertHandler(services.Alerts, logger)

	router.Route("/v1", func(r chi.Router) {
		r.Group(func(user chi.Router) {
			user.Use(RequireUser(validator, logger))
			trustScore.Register(user)
			riskAuth.Register(user)
			device.Register(user)
			fraud.Register(user)
			behavior.Register(user)
			killSwitch.Register(user)
		})

		r.Route("/admin", func(admin chi.Router) {
			admin.Use(RequireEmployee(validator, logger))
			employee.Register(admin)
			killSwitch.RegisterAdmin(admin)
			alerts.Register(admin)
			device.RegisterAdmin(admin)
		})
	})

	return router
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
