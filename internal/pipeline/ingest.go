// Package pipeline implements the dedup-or-create step and the correlation
// sweep that sit between classification and escalation.
package pipeline

import (
	"context"
	"time"

	"github.com/pratik-mahalle/sentrydesk/internal/assign"
	"github.com/pratik-mahalle/sentrydesk/internal/classifier"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/alert"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/intake"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/keylock"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/logger"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/metrics"
	"github.com/pratik-mahalle/sentrydesk/internal/rbac"
)

// Result describes the outcome of ingesting one intake record.
type Result struct {
	AlertID string
	// Created is true when a new alert record was stored; false when the
	// record merged into an existing open alert.
	Created   bool
	SeenCount int
}

// Ingestor runs classify then dedup-or-create for raw intake records.
// Concurrent deliveries of the same underlying event serialize on a
// per-fingerprint lock so exactly one alert record is created.
type Ingestor struct {
	classifier *classifier.Classifier
	alerts     alert.Repository
	scheduler  *assign.Scheduler
	window     time.Duration
	locks      *keylock.KeyLock
	logger     *logger.Logger
}

// NewIngestor creates an Ingestor. window bounds how far back dedup looks
// for an open alert with the same fingerprint. scheduler may be nil, in
// which case new alerts stay unassigned.
func NewIngestor(c *classifier.Classifier, alerts alert.Repository, scheduler *assign.Scheduler, window time.Duration, log *logger.Logger) *Ingestor {
	return &Ingestor{
		classifier: c,
		alerts:     alerts,
		scheduler:  scheduler,
		window:     window,
		locks:      keylock.New(),
		logger:     log,
	}
}

// Process classifies a raw intake record and either merges it into an
// existing open alert or creates a new one. It never rejects a record for
// unmatched classification; such records land as generic alerts.
func (p *Ingestor) Process(ctx context.Context, rec *intake.Record) (*Result, error) {
	cand := p.classifier.Classify(rec)

	metrics.RecordIntake(cand.SourceSystem, cand.Severity)
	if cand.AlertType == classifier.FallbackEmailType || cand.AlertType == classifier.FallbackGenericType {
		metrics.RecordIntakeFallback(cand.SourceSystem)
	}

	fp := cand.Fingerprint()
	p.locks.Lock(fp)
	defer p.locks.Unlock(fp)

	since := rec.ReceivedAt.Add(-p.window)
	existing, err := p.alerts.FindOpenByFingerprint(ctx, cand.TenantID, fp, since)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.SeenCount++
		existing.LastSeenAt = rec.ReceivedAt
		mergeMetadata(existing, cand)
		mergeIndicators(existing, cand)
		if err := p.alerts.Update(ctx, existing); err != nil {
			return nil, err
		}

		metrics.RecordDedup("merged")
		p.logger.WithFields(map[string]interface{}{
			"alert_id":   existing.ID,
			"tenant_id":  existing.TenantID,
			"seen_count": existing.SeenCount,
		}).Debug("Merged duplicate alert delivery")

		return &Result{AlertID: existing.ID, Created: false, SeenCount: existing.SeenCount}, nil
	}

	if p.scheduler != nil {
		p.assignNew(ctx, cand)
	}

	if err := p.alerts.Create(ctx, cand); err != nil {
		return nil, err
	}

	metrics.RecordDedup("created")
	p.logger.WithFields(map[string]interface{}{
		"alert_id":  cand.ID,
		"tenant_id": cand.TenantID,
		"type":      cand.AlertType,
		"severity":  cand.Severity,
		"source":    cand.SourceSystem,
	}).Info("Alert created")

	return &Result{AlertID: cand.ID, Created: true, SeenCount: 1}, nil
}

// assignNew routes a fresh alert to the analyst with the least open work in
// its category. Assignment trouble never blocks intake; the alert just
// stays in the new state.
func (p *Ingestor) assignNew(ctx context.Context, cand *alert.Alert) {
	counts, err := p.alerts.CountOpenByAssignee(ctx, cand.TenantID)
	if err != nil {
		p.logger.ErrorWithErr(err, "Failed to load open alert counts for assignment")
		return
	}

	category := rbac.CategoryForClassification(cand.Classification)
	assignee, err := p.scheduler.Pick(ctx, cand.TenantID, category, counts)
	if err != nil {
		p.logger.ErrorWithErr(err, "Failed to pick assignee for alert")
		return
	}
	if assignee != 0 {
		cand.AssignedTo = assignee
		cand.Status = alert.StatusAssigned
	}
}

// mergeMetadata copies candidate metadata keys the existing alert does not
// already carry. Conflicting keys keep the original value.
func mergeMetadata(existing, cand *alert.Alert) {
	if existing.Metadata == nil {
		existing.Metadata = map[string]interface{}{}
	}
	for k, v := range cand.Metadata {
		if _, ok := existing.Metadata[k]; !ok {
			existing.Metadata[k] = v
		}
	}
}

func mergeIndicators(existing, cand *alert.Alert) {
	seen := make(map[string]bool, len(existing.Indicators))
	for _, in := range existing.Indicators {
		seen[in] = true
	}
	for _, in := range cand.Indicators {
		if !seen[in] {
			existing.Indicators = append(existing.Indicators, in)
		}
	}
}
