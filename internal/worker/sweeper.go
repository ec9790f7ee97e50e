// Package worker runs the background jobs of the triage service.
package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pratik-mahalle/sentrydesk/internal/domain/alert"
	"github.com/pratik-mahalle/sentrydesk/internal/pipeline"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/logger"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/metrics"
)

// Sweeper periodically runs the correlation sweep across every tenant with
// open alerts.
type Sweeper struct {
	correlator *pipeline.Correlator
	alerts     alert.Repository
	window     time.Duration
	schedule   string
	logger     *logger.Logger
	cron       *cron.Cron
}

// NewSweeper creates a Sweeper. schedule uses cron syntax, including the
// @every form.
func NewSweeper(correlator *pipeline.Correlator, alerts alert.Repository, window time.Duration, schedule string, log *logger.Logger) *Sweeper {
	return &Sweeper{
		correlator: correlator,
		alerts:     alerts,
		window:     window,
		schedule:   schedule,
		logger:     log,
	}
}

// Start registers the sweep job and starts the scheduler.
func (s *Sweeper) Start(ctx context.Context) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.With("schedule", s.schedule).Info("Correlation sweeper started")
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// RunOnce sweeps every tenant with open alerts in the window. A failing
// tenant is logged and skipped so one tenant's trouble does not starve the
// rest.
func (s *Sweeper) RunOnce(ctx context.Context) {
	now := time.Now().UTC()
	tenants, err := s.alerts.DistinctOpenTenants(ctx, now.Add(-s.window))
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to list tenants for correlation sweep")
		return
	}

	totals := make(map[string]int)
	for _, tenantID := range tenants {
		if _, err := s.correlator.Sweep(ctx, tenantID, now); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"tenant_id": tenantID,
			}).WithError(err).Error("Correlation sweep failed for tenant")
		}

		counts, err := s.alerts.CountByStatus(ctx, tenantID)
		if err != nil {
			s.logger.WithFields(map[string]interface{}{
				"tenant_id": tenantID,
			}).WithError(err).Error("Failed to count alerts for metrics")
			continue
		}
		for status, n := range counts {
			totals[status] += n
		}
	}

	for status, n := range totals {
		metrics.SetOpenAlerts(status, float64(n))
	}
}
