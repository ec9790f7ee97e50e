// Package escalation implements the alert lifecycle state machine and the
// one-way promotion of alerts into incidents.
package escalation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pratik-mahalle/sentrydesk/internal/assign"
	"github.com/pratik-mahalle/sentrydesk/internal/auth"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/alert"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/audit"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/incident"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/user"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/keylock"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/logger"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/metrics"
	"github.com/pratik-mahalle/sentrydesk/internal/rbac"
)

// transitions lists the allowed next statuses per current status. Terminal
// statuses have no entry: once resolved or escalated an alert never moves.
var transitions = map[string][]string{
	alert.StatusNew: {
		alert.StatusAssigned,
		alert.StatusInvestigating,
		alert.StatusResolvedBenign,
		alert.StatusResolvedFalsePositive,
		alert.StatusEscalated,
	},
	alert.StatusAssigned: {
		alert.StatusInvestigating,
		alert.StatusResolvedBenign,
		alert.StatusResolvedFalsePositive,
		alert.StatusEscalated,
	},
	alert.StatusInvestigating: {
		alert.StatusResolvedBenign,
		alert.StatusResolvedFalsePositive,
		alert.StatusEscalated,
	},
}

func allowed(from, to string) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Machine drives alert status transitions. Transitions on the same alert
// serialize on a per-id lock so concurrent operator actions cannot race.
type Machine struct {
	alerts    alert.Repository
	incidents incident.Repository
	audits    audit.Repository
	scheduler *assign.Scheduler
	minNotes  int
	locks     *keylock.KeyLock
	logger    *logger.Logger
}

// NewMachine creates a Machine. minNotes is the minimum resolution note
// length accepted by Resolve. scheduler may be nil, in which case escalated
// incidents start unassigned.
func NewMachine(alerts alert.Repository, incidents incident.Repository, audits audit.Repository, scheduler *assign.Scheduler, minNotes int, log *logger.Logger) *Machine {
	return &Machine{
		alerts:    alerts,
		incidents: incidents,
		audits:    audits,
		scheduler: scheduler,
		minNotes:  minNotes,
		locks:     keylock.New(),
		logger:    log,
	}
}

// StartInvestigation moves an alert into investigating.
func (m *Machine) StartInvestigation(ctx context.Context, actor auth.Actor, tenantID, alertID string) (*alert.Alert, error) {
	return m.transition(ctx, actor, tenantID, alertID, alert.StatusInvestigating, "", "")
}

// Resolve closes an alert with a benign or false positive outcome. Notes
// shorter than the configured minimum are rejected.
func (m *Machine) Resolve(ctx context.Context, actor auth.Actor, tenantID, alertID, outcome, notes string) (*alert.Alert, error) {
	var to string
	switch outcome {
	case alert.OutcomeBenign:
		to = alert.StatusResolvedBenign
	case alert.OutcomeFalsePositive:
		to = alert.StatusResolvedFalsePositive
	default:
		return nil, errors.ValidationError("Invalid resolution outcome", map[string]string{
			"outcome": fmt.Sprintf("must be %q or %q", alert.OutcomeBenign, alert.OutcomeFalsePositive),
		})
	}

	if len(strings.TrimSpace(notes)) < m.minNotes {
		return nil, errors.ValidationError("Resolution notes too short", map[string]string{
			"notes": fmt.Sprintf("at least %d characters required", m.minNotes),
		})
	}

	return m.transition(ctx, actor, tenantID, alertID, to, outcome, notes)
}

// EscalateOptions carries optional overrides for the created incident. Empty
// fields fall back to the alert's own title and description.
type EscalateOptions struct {
	Title       string
	Description string
	Note        string
}

// Escalate promotes an alert into exactly one incident and marks the alert
// escalated. A failed alert update after incident creation rolls the
// incident back so no orphan tickets survive.
func (m *Machine) Escalate(ctx context.Context, actor auth.Actor, tenantID, alertID string, opts EscalateOptions) (*incident.Incident, error) {
	m.locks.Lock(alertID)
	defer m.locks.Unlock(alertID)

	a, err := m.load(ctx, actor, tenantID, alertID)
	if err != nil {
		return nil, err
	}

	if alert.IsTerminal(a.Status) {
		return nil, errors.Conflict(fmt.Sprintf("Alert is already %s", a.Status))
	}

	// An incident may already exist if a prior attempt failed between the
	// incident insert and the alert update.
	if existing, err := m.incidents.GetBySourceAlert(ctx, tenantID, alertID); err == nil && existing != nil {
		return nil, errors.Conflict("Alert already has an incident")
	}

	title := opts.Title
	if title == "" {
		title = a.Title
	}
	description := opts.Description
	if description == "" {
		description = a.Description
	}

	now := time.Now().UTC()
	in := &incident.Incident{
		ID:            uuid.NewString(),
		TenantID:      tenantID,
		Title:         title,
		Description:   description,
		Severity:      a.Severity,
		Priority:      incident.PriorityForSeverity(a.Severity),
		Category:      rbac.CategoryForClassification(a.Classification),
		SourceAlertID: a.ID,
		Status:        incident.StatusOpen,
		CreatedAt:     now,
	}
	if err := m.incidents.Create(ctx, in); err != nil {
		return nil, err
	}

	from := a.Status
	a.Status = alert.StatusEscalated
	a.IncidentID = in.ID
	a.UpdatedAt = now
	if err := m.alerts.Update(ctx, a); err != nil {
		if delErr := m.incidents.Delete(ctx, tenantID, in.ID); delErr != nil {
			m.logger.ErrorWithErr(delErr, "Failed to roll back incident after alert update failure")
		}
		return nil, err
	}

	m.record(ctx, actor, a, from, alert.StatusEscalated, opts.Note)
	metrics.RecordTransition(alert.StatusEscalated)
	m.assignIncident(ctx, in)
	m.logger.WithFields(map[string]interface{}{
		"alert_id":    a.ID,
		"incident_id": in.ID,
		"tenant_id":   tenantID,
		"priority":    in.Priority,
	}).Info("Alert escalated to incident")

	return in, nil
}

// assignIncident routes a fresh incident to the analyst with the least open
// work in its category. A failure leaves the incident unassigned; it still
// exists and shows up in the queue.
func (m *Machine) assignIncident(ctx context.Context, in *incident.Incident) {
	if m.scheduler == nil {
		return
	}

	counts, err := m.incidents.CountOpenByAssignee(ctx, in.TenantID)
	if err != nil {
		m.logger.ErrorWithErr(err, "Failed to load open incident counts for assignment")
		return
	}

	assignee, err := m.scheduler.Pick(ctx, in.TenantID, in.Category, counts)
	if err != nil || assignee == 0 {
		if err != nil {
			m.logger.ErrorWithErr(err, "Failed to pick assignee for incident")
		}
		return
	}

	in.AssignedTo = assignee
	if err := m.incidents.Update(ctx, in); err != nil {
		m.logger.ErrorWithErr(err, "Failed to record incident assignment")
	}
}

// History returns the append-only transition trail for an alert.
func (m *Machine) History(ctx context.Context, actor auth.Actor, tenantID, alertID string) ([]*audit.Entry, error) {
	if _, err := m.load(ctx, actor, tenantID, alertID); err != nil {
		return nil, err
	}
	return m.audits.ListByAlert(ctx, tenantID, alertID)
}

func (m *Machine) transition(ctx context.Context, actor auth.Actor, tenantID, alertID, to, outcome, notes string) (*alert.Alert, error) {
	m.locks.Lock(alertID)
	defer m.locks.Unlock(alertID)

	a, err := m.load(ctx, actor, tenantID, alertID)
	if err != nil {
		return nil, err
	}

	if alert.IsTerminal(a.Status) {
		return nil, errors.Conflict(fmt.Sprintf("Alert is already %s", a.Status))
	}
	if !allowed(a.Status, to) {
		return nil, errors.Conflict(fmt.Sprintf("Cannot move alert from %s to %s", a.Status, to))
	}

	from := a.Status
	a.Status = to
	a.Resolution = outcome
	a.ResolutionNotes = notes
	a.UpdatedAt = time.Now().UTC()
	if err := m.alerts.Update(ctx, a); err != nil {
		return nil, err
	}

	m.record(ctx, actor, a, from, to, notes)
	metrics.RecordTransition(to)
	return a, nil
}

// load fetches the alert and enforces tenant and category access for the
// acting user.
func (m *Machine) load(ctx context.Context, actor auth.Actor, tenantID, alertID string) (*alert.Alert, error) {
	if actor.Role != user.RoleSuperAdmin && actor.TenantID != tenantID {
		return nil, errors.Permission("Cannot act on another tenant's alerts")
	}

	a, err := m.alerts.GetByID(ctx, tenantID, alertID)
	if err != nil {
		return nil, err
	}

	category := rbac.CategoryForClassification(a.Classification)
	if !rbac.CanAccess(actor.Role, category) {
		return nil, errors.Permission(fmt.Sprintf("Role %s cannot act on %s alerts", actor.Role, category))
	}
	return a, nil
}

// record appends the transition to the audit trail. Audit failures are
// logged, not surfaced: the transition itself already committed.
func (m *Machine) record(ctx context.Context, actor auth.Actor, a *alert.Alert, from, to, note string) {
	err := m.audits.Append(ctx, &audit.Entry{
		TenantID:   a.TenantID,
		AlertID:    a.ID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.UserID,
		Note:       note,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		m.logger.ErrorWithErr(err, "Failed to append audit entry")
	}
}
