package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pratik-mahalle/sentrydesk/internal/api/handlers"
	"github.com/pratik-mahalle/sentrydesk/internal/api/router"
	"github.com/pratik-mahalle/sentrydesk/internal/assign"
	"github.com/pratik-mahalle/sentrydesk/internal/classifier"
	"github.com/pratik-mahalle/sentrydesk/internal/config"
	"github.com/pratik-mahalle/sentrydesk/internal/connector"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/alert"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/incident"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/playbook"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/user"
	"github.com/pratik-mahalle/sentrydesk/internal/escalation"
	"github.com/pratik-mahalle/sentrydesk/internal/pipeline"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/logger"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/validator"
	"github.com/pratik-mahalle/sentrydesk/internal/repository/postgres"
	"github.com/pratik-mahalle/sentrydesk/internal/worker"
	"github.com/pratik-mahalle/sentrydesk/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	db, err := postgres.New(cfg.Database)
	if err != nil {
		log.ErrorWithErr(err, "Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db, migrations.GetFS()); err != nil {
		log.ErrorWithErr(err, "Failed to run migrations")
		os.Exit(1)
	}

	// Repositories
	alertRepo := postgres.NewAlertRepository(db)
	incidentRepo := postgres.NewIncidentRepository(db)
	userRepo := postgres.NewUserRepository(db)
	playbookRepo := postgres.NewPlaybookRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	// Domain services
	alertService := alert.NewService(alertRepo)
	incidentService := incident.NewService(incidentRepo, userRepo)
	playbookService := playbook.NewService(playbookRepo)
	userService := user.NewService(userRepo, user.TokenConfig{
		Secret:     cfg.Auth.JWTSecret,
		AccessTTL:  cfg.Auth.AccessTokenExpiry,
		RefreshTTL: cfg.Auth.RefreshTokenExpiry,
	})

	// Triage pipeline
	scheduler := assign.NewScheduler(userRepo, log)
	clf := classifier.New(classifier.Config{ExtraCriticalKeywords: cfg.Triage.CriticalKeywords})
	ingestor := pipeline.NewIngestor(clf, alertRepo, scheduler, cfg.Triage.CorrelationWindow, log)
	correlator := pipeline.NewCorrelator(alertRepo, cfg.Triage.ClusterWindow, log)
	machine := escalation.NewMachine(alertRepo, incidentRepo, auditRepo, scheduler, cfg.Triage.MinResolutionNotes, log)

	// Background workers
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := worker.NewSweeper(correlator, alertRepo, cfg.Triage.ClusterWindow, cfg.Triage.SweepSchedule, log)
	if err := sweeper.Start(ctx); err != nil {
		log.ErrorWithErr(err, "Failed to start correlation sweeper")
		os.Exit(1)
	}
	defer sweeper.Stop()

	supervisor := connector.NewSupervisor(ingestor, cfg.Triage.PollInterval, cfg.Triage.PollTimeout, log)
	registerConnectors(supervisor, log)
	supervisor.Start(ctx)
	defer supervisor.Stop()

	// HTTP layer
	val := validator.New()
	h := &router.Handlers{
		Health:   handlers.NewHealthHandler(db, log),
		Auth:     handlers.NewAuthHandler(userService, cfg, log, val),
		Alert:    handlers.NewAlertHandler(alertService, playbookService, ingestor, machine, log, val),
		Cluster:  handlers.NewClusterHandler(correlator, alertService, log),
		Incident: handlers.NewIncidentHandler(incidentService, log, val),
		Playbook: handlers.NewPlaybookHandler(playbookService, log, val),
		Category: handlers.NewCategoryHandler(),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.ErrorWithErr(err, "Server failed")
		os.Exit(1)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorWithErr(err, "Server shutdown failed")
	}
}

// registerConnectors wires every source whose endpoint is configured in the
// environment, e.g. CONNECTOR_EDR_ENDPOINT / CONNECTOR_EDR_TENANT_ID /
// CONNECTOR_EDR_API_KEY.
func registerConnectors(s *connector.Supervisor, log *logger.Logger) {
	sources := map[string]connector.Connector{
		"email":    connector.NewEmailConnector(),
		"edr":      connector.NewEDRConnector(),
		"firewall": connector.NewFirewallConnector(),
		"siem":     connector.NewSIEMConnector(),
	}

	for name, c := range sources {
		prefix := "CONNECTOR_" + strings.ToUpper(name) + "_"
		endpoint := os.Getenv(prefix + "ENDPOINT")
		if endpoint == "" {
			continue
		}

		settings := map[string]string{
			"endpoint":  endpoint,
			"tenant_id": os.Getenv(prefix + "TENANT_ID"),
			"api_key":   os.Getenv(prefix + "API_KEY"),
		}
		if err := c.Initialize(settings); err != nil {
			log.ErrorWithErr(err, "Skipping connector with invalid settings: "+name)
			continue
		}

		s.Register(c)
		log.Infof("Registered %s connector", name)
	}
}
