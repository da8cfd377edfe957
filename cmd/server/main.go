// Command server runs the risk decision engine: trust scoring, device
// registry, risk-based authentication, fraud evaluation, behavioral
// profiling, employee monitoring, kill switch, and alerting behind one
// HTTP surface.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gabrielgmza/simply-backend-sub000/internal/alerting"
	"github.com/gabrielgmza/simply-backend-sub000/internal/behavior"
	"github.com/gabrielgmza/simply-backend-sub000/internal/device"
	"github.com/gabrielgmza/simply-backend-sub000/internal/employee"
	"github.com/gabrielgmza/simply-backend-sub000/internal/fraud"
	"github.com/gabrielgmza/simply-backend-sub000/internal/killswitch"
	"github.com/gabrielgmza/simply-backend-sub000/internal/platform/config"
	"github.com/gabrielgmza/simply-backend-sub000/internal/platform/httpserver"
	"github.com/gabrielgmza/simply-backend-sub000/internal/platform/logger"
	"github.com/gabrielgmza/simply-backend-sub000/internal/platform/postgres"
	"github.com/gabrielgmza/simply-backend-sub000/internal/platform/redis"
	"github.com/gabrielgmza/simply-backend-sub000/internal/ports"
	portspg "github.com/gabrielgmza/simply-backend-sub000/internal/ports/postgres"
	"github.com/gabrielgmza/simply-backend-sub000/internal/riskauth"
	httptransport "github.com/gabrielgmza/simply-backend-sub000/internal/transport/http"
	"github.com/gabrielgmza/simply-backend-sub000/internal/trustscore"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/audit"
	auditkafka "github.com/gabrielgmza/simply-backend-sub000/pkg/platform/audit/kafka"
	auditmemory "github.com/gabrielgmza/simply-backend-sub000/pkg/platform/audit/store/memory"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/requestcontext"
)

const dependencyTimeout = 2 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New()

	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		return err
	}
	if db == nil {
		// The collaborator ports read the shared backend tables; there is
		// no in-memory stand-in for another team's data.
		return errors.New("postgres dsn is required")
	}
	defer db.Close()

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	auditPublisher, closeAudit, err := buildAuditPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	readers := portspg.New(db)
	identity := ports.NewDegradingIdentityReader(readers, dependencyTimeout, log)

	alertSvc, err := alerting.New(alerting.NewPostgresStore(db),
		alerting.WithLogger(log),
		alerting.WithSender(alerting.NewLogSender(log)),
		alerting.WithAuditPublisher(auditPublisher),
		alerting.WithMetrics(alerting.NewMetrics()),
		alerting.WithConfig(&cfg.Alerting),
	)
	if err != nil {
		return err
	}

	trustSvc, err := trustscore.New(trustscore.NewPostgresStore(db), identity, readers, readers,
		trustscore.WithLogger(log),
		trustscore.WithAuditPublisher(auditPublisher),
		trustscore.WithMetrics(trustscore.NewMetrics()),
		trustscore.WithConfig(&cfg.TrustScore),
	)
	if err != nil {
		return err
	}

	deviceSvc, err := device.New(device.NewPostgresStore(db),
		device.WithLogger(log),
		device.WithAlerter(alertSvc),
		device.WithAuditPublisher(auditPublisher),
		device.WithMetrics(device.NewMetrics()),
	)
	if err != nil {
		return err
	}

	behaviorSvc, err := behavior.New(behavior.NewPostgresStore(db), readers, readers,
		behavior.WithLogger(log),
		behavior.WithAuditPublisher(auditPublisher),
		behavior.WithMetrics(behavior.NewMetrics()),
	)
	if err != nil {
		return err
	}

	riskOpts := []riskauth.Option{
		riskauth.WithLogger(log),
		riskauth.WithAuditPublisher(auditPublisher),
		riskauth.WithMetrics(riskauth.NewMetrics()),
		riskauth.WithConfig(&cfg.RiskAuth),
	}
	if cfg.GeoIP.CityPath != "" {
		geo, err := riskauth.NewMaxMindResolver(cfg.GeoIP.CityPath)
		if err != nil {
			return err
		}
		riskOpts = append(riskOpts, riskauth.WithGeoResolver(geo))
	}
	riskSvc, err := riskauth.New(riskauth.NewPostgresStore(db), deviceSvc, trustSvc, readers, readers, readers, riskOpts...)
	if err != nil {
		return err
	}

	fraudSvc, err := fraud.New(fraud.NewPostgresStore(db), identity, readers, readers, readers,
		behaviorSvc, trustSvc, deviceSvc,
		fraud.WithLogger(log),
		fraud.WithAuditPublisher(auditPublisher),
		fraud.WithMetrics(fraud.NewMetrics()),
		fraud.WithConfig(&cfg.Fraud),
		fraud.WithAlerter(alertSvc),
	)
	if err != nil {
		return err
	}

	employeeSvc, err := employee.New(employee.NewPostgresStore(db), readers, readers,
		employee.WithLogger(log),
		employee.WithAuditPublisher(auditPublisher),
		employee.WithMetrics(employee.NewMetrics()),
		employee.WithAlerter(alertSvc),
		employee.WithConfig(&cfg.Employee),
	)
	if err != nil {
		return err
	}

	var killStore killswitch.Store = killswitch.NewInMemoryStore()
	if redisClient != nil {
		killStore = killswitch.NewRedisStore(redisClient.Client)
	}
	killSvc, err := killswitch.New(killStore,
		killswitch.WithLogger(log),
		killswitch.WithAuditPublisher(auditPublisher),
		killswitch.WithMetrics(killswitch.NewMetrics()),
		killswitch.WithConfig(&cfg.KillSwitch),
		killswitch.WithProfileReader(behaviorSvc),
		killswitch.WithTrafficStats(readers),
		killswitch.WithAlerter(alertSvc),
	)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Services{
		TrustScore: trustSvc,
		RiskAuth:   riskSvc,
		Device:     deviceSvc,
		Fraud:      fraudSvc,
		Behavior:   behaviorSvc,
		Employee:   employeeSvc,
		KillSwitch: killSvc,
		Alerts:     alertSvc,
	}, httptransport.NewJWTService(cfg.Server.JWTSigningKey, "simply"), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go alertSvc.StartEscalationLoop(ctx)
	go runKillSwitchSweeps(ctx, killSvc, cfg.KillSwitch.SweepInterval, log)

	srv := httpserver.New(cfg.Server.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runKillSwitchSweeps drives the auto-trigger and expiry sweeps on a shared
// ticker. Auto triggers react to trailing traffic; the expiry sweep clears
// switches past their deadline.
func runKillSwitchSweeps(ctx context.Context, svc *killswitch.Service, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx := requestcontext.WithActor(
				requestcontext.WithTime(ctx, time.Now()), "system:auto-trigger")
			if err := svc.RunAutoTriggerSweep(sweepCtx); err != nil {
				log.WarnContext(ctx, "auto-trigger sweep failed", "error", err)
			}
			if err := svc.RunExpirySweep(sweepCtx); err != nil {
				log.WarnContext(ctx, "expiry sweep failed", "error", err)
			}
		}
	}
}

// buildAuditPublisher selects Kafka when brokers are configured, otherwise
// a synchronous in-process store so audit events are never dropped in
// single-node deployments.
func buildAuditPublisher(cfg *config.Config, log *slog.Logger) (ports.AuditPublisher, func(), error) {
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := auditkafka.New(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, auditkafka.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		return publisher, func() { _ = publisher.Close() }, nil
	}
	return audit.NewStorePublisher(auditmemory.New()), func() {}, nil
}
