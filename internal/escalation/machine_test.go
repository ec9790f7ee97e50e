package escalation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pratik-mahalle/sentrydesk/internal/assign"
	"github.com/pratik-mahalle/sentrydesk/internal/auth"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/alert"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/incident"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/user"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/logger"
	"github.com/pratik-mahalle/sentrydesk/internal/testutil"
)

const minNotes = 10

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func securityActor() auth.Actor {
	return auth.Actor{UserID: 7, Role: user.RoleSecurityAnalyst, TenantID: "tenant-1"}
}

type fixture struct {
	alerts    *testutil.MockAlertRepository
	incidents *testutil.MockIncidentRepository
	audits    *testutil.MockAuditRepository
	machine   *Machine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		alerts:    testutil.NewMockAlertRepository(),
		incidents: testutil.NewMockIncidentRepository(),
		audits:    testutil.NewMockAuditRepository(),
	}
	f.machine = NewMachine(f.alerts, f.incidents, f.audits, nil, minNotes, testLogger())
	return f
}

func (f *fixture) seedAlert(t *testing.T, id, status string) *alert.Alert {
	t.Helper()
	a := &alert.Alert{
		ID:             id,
		TenantID:       "tenant-1",
		SourceSystem:   alert.SourceEDR,
		AlertType:      "malware",
		Classification: "malware",
		Severity:       alert.SeverityCritical,
		Title:          "Malware on WS-0231",
		Status:         status,
		SeenCount:      1,
		FirstSeenAt:    time.Now().UTC(),
		LastSeenAt:     time.Now().UTC(),
	}
	if err := f.alerts.Create(context.Background(), a); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return a
}

func TestMachine_StartInvestigation(t *testing.T) {
	f := newFixture(t)
	f.seedAlert(t, "a1", alert.StatusNew)

	a, err := f.machine.StartInvestigation(context.Background(), securityActor(), "tenant-1", "a1")
	if err != nil {
		t.Fatalf("StartInvestigation() error = %v", err)
	}
	if a.Status != alert.StatusInvestigating {
		t.Errorf("Status = %q, want investigating", a.Status)
	}

	trail, _ := f.audits.ListByAlert(context.Background(), "tenant-1", "a1")
	if len(trail) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(trail))
	}
	if trail[0].FromStatus != alert.StatusNew || trail[0].ToStatus != alert.StatusInvestigating {
		t.Errorf("audit transition = %s->%s, want new->investigating", trail[0].FromStatus, trail[0].ToStatus)
	}
	if trail[0].ActorID != 7 {
		t.Errorf("audit ActorID = %d, want 7", trail[0].ActorID)
	}
}

func TestMachine_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		from       string
		outcome    string
		notes      string
		wantStatus string
		wantCode   string
	}{
		{
			name:       "benign from investigating",
			from:       alert.StatusInvestigating,
			outcome:    alert.OutcomeBenign,
			notes:      "confirmed scheduled maintenance window",
			wantStatus: alert.StatusResolvedBenign,
		},
		{
			name:       "false positive from new",
			from:       alert.StatusNew,
			outcome:    alert.OutcomeFalsePositive,
			notes:      "signature misfired on internal tooling",
			wantStatus: alert.StatusResolvedFalsePositive,
		},
		{
			name:     "unknown outcome rejected",
			from:     alert.StatusNew,
			outcome:  "wontfix",
			notes:    "long enough resolution notes",
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "notes too short",
			from:     alert.StatusNew,
			outcome:  alert.OutcomeBenign,
			notes:    "ok",
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "whitespace padding does not satisfy minimum",
			from:     alert.StatusNew,
			outcome:  alert.OutcomeBenign,
			notes:    "   ok                ",
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "terminal alert conflicts",
			from:     alert.StatusResolvedBenign,
			outcome:  alert.OutcomeBenign,
			notes:    "trying to resolve again anyway",
			wantCode: "CONFLICT",
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			id := fmt.Sprintf("a%d", i)
			f.seedAlert(t, id, tt.from)

			a, err := f.machine.Resolve(context.Background(), securityActor(), "tenant-1", id, tt.outcome, tt.notes)

			if tt.wantCode != "" {
				if err == nil {
					t.Fatalf("Resolve() = %v, want error code %s", a.Status, tt.wantCode)
				}
				if errors.Code(err) != tt.wantCode {
					t.Errorf("error code = %s, want %s", errors.Code(err), tt.wantCode)
				}
				return
			}

			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if a.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", a.Status, tt.wantStatus)
			}
			if a.Resolution != tt.outcome {
				t.Errorf("Resolution = %q, want %q", a.Resolution, tt.outcome)
			}
			if a.ResolutionNotes != tt.notes {
				t.Errorf("ResolutionNotes = %q, want preserved", a.ResolutionNotes)
			}
		})
	}
}

func TestMachine_TenantAndCategoryGating(t *testing.T) {
	f := newFixture(t)
	f.seedAlert(t, "a1", alert.StatusNew)

	// Wrong tenant.
	otherTenant := auth.Actor{UserID: 9, Role: user.RoleSecurityAnalyst, TenantID: "tenant-2"}
	if _, err := f.machine.StartInvestigation(context.Background(), otherTenant, "tenant-1", "a1"); !errors.IsPermission(err) {
		t.Errorf("cross-tenant access error = %v, want permission denied", err)
	}

	// Helpdesk analysts cannot act on security alerts.
	helpdesk := auth.Actor{UserID: 9, Role: user.RoleITHelpdeskAnalyst, TenantID: "tenant-1"}
	if _, err := f.machine.StartInvestigation(context.Background(), helpdesk, "tenant-1", "a1"); !errors.IsPermission(err) {
		t.Errorf("cross-category access error = %v, want permission denied", err)
	}

	// Super admins may act across tenants.
	super := auth.Actor{UserID: 1, Role: user.RoleSuperAdmin, TenantID: "tenant-9"}
	if _, err := f.machine.StartInvestigation(context.Background(), super, "tenant-1", "a1"); err != nil {
		t.Errorf("super admin access error = %v, want nil", err)
	}
}

func TestMachine_Escalate(t *testing.T) {
	f := newFixture(t)
	f.seedAlert(t, "a1", alert.StatusInvestigating)
	ctx := context.Background()

	in, err := f.machine.Escalate(ctx, securityActor(), "tenant-1", "a1", EscalateOptions{Note: "confirmed lateral movement"})
	if err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}

	if in.SourceAlertID != "a1" {
		t.Errorf("SourceAlertID = %q, want a1", in.SourceAlertID)
	}
	if in.Priority != incident.PriorityUrgent {
		t.Errorf("Priority = %q, want urgent for critical severity", in.Priority)
	}
	if in.Category != "malware" {
		t.Errorf("Category = %q, want malware", in.Category)
	}
	if in.Status != incident.StatusOpen {
		t.Errorf("Status = %q, want open", in.Status)
	}

	a, _ := f.alerts.GetByID(ctx, "tenant-1", "a1")
	if a.Status != alert.StatusEscalated {
		t.Errorf("alert Status = %q, want escalated", a.Status)
	}
	if a.IncidentID != in.ID {
		t.Errorf("alert IncidentID = %q, want %q", a.IncidentID, in.ID)
	}

	// Escalating again conflicts; still exactly one incident.
	if _, err := f.machine.Escalate(ctx, securityActor(), "tenant-1", "a1", EscalateOptions{}); !errors.IsConflict(err) {
		t.Errorf("second escalation error = %v, want conflict", err)
	}
	if len(f.incidents.Incidents) != 1 {
		t.Errorf("incidents = %d, want exactly 1", len(f.incidents.Incidents))
	}
}

func TestMachine_EscalateTitleOverride(t *testing.T) {
	f := newFixture(t)
	f.seedAlert(t, "a1", alert.StatusNew)

	in, err := f.machine.Escalate(context.Background(), securityActor(), "tenant-1", "a1", EscalateOptions{
		Title:       "Ransomware outbreak, building B",
		Description: "Three endpoints encrypting shares",
	})
	if err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}
	if in.Title != "Ransomware outbreak, building B" {
		t.Errorf("Title = %q, want the override", in.Title)
	}
	if in.Description != "Three endpoints encrypting shares" {
		t.Errorf("Description = %q, want the override", in.Description)
	}
}

func TestMachine_EscalateRollsBackOnAlertUpdateFailure(t *testing.T) {
	f := newFixture(t)
	f.seedAlert(t, "a1", alert.StatusNew)
	f.alerts.UpdateError = errors.DatabaseError("update alert", nil)

	_, err := f.machine.Escalate(context.Background(), securityActor(), "tenant-1", "a1", EscalateOptions{})
	if err == nil {
		t.Fatal("Escalate() should surface the alert update failure")
	}

	// The compensating delete removed the orphan incident, so a retry can
	// succeed once the fault clears.
	if len(f.incidents.Incidents) != 0 {
		t.Fatalf("incidents = %d, want 0 after rollback", len(f.incidents.Incidents))
	}

	f.alerts.UpdateError = nil
	if _, err := f.machine.Escalate(context.Background(), securityActor(), "tenant-1", "a1", EscalateOptions{}); err != nil {
		t.Errorf("retry after rollback error = %v, want nil", err)
	}
}

func TestMachine_EscalateDetectsOrphanIncident(t *testing.T) {
	f := newFixture(t)
	f.seedAlert(t, "a1", alert.StatusNew)
	ctx := context.Background()

	// Simulate a previous attempt that created the incident but never
	// updated the alert (and whose rollback also failed).
	err := f.incidents.Create(ctx, &incident.Incident{
		ID:            "orphan",
		TenantID:      "tenant-1",
		SourceAlertID: "a1",
		Status:        incident.StatusOpen,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := f.machine.Escalate(ctx, securityActor(), "tenant-1", "a1", EscalateOptions{}); !errors.IsConflict(err) {
		t.Errorf("Escalate() error = %v, want conflict on existing incident", err)
	}
	if len(f.incidents.Incidents) != 1 {
		t.Errorf("incidents = %d, want 1", len(f.incidents.Incidents))
	}
}

func TestMachine_EscalateAssignsIncident(t *testing.T) {
	f := newFixture(t)
	f.seedAlert(t, "a1", alert.StatusNew)
	ctx := context.Background()

	users := testutil.NewMockUserRepository()
	analyst := &user.User{Email: "ana@corp.test", Role: user.RoleSecurityAnalyst, TenantID: "tenant-1"}
	if err := users.Create(ctx, analyst); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	f.machine = NewMachine(f.alerts, f.incidents, f.audits, assign.NewScheduler(users, testLogger()), minNotes, testLogger())

	in, err := f.machine.Escalate(ctx, securityActor(), "tenant-1", "a1", EscalateOptions{})
	if err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}

	stored, _ := f.incidents.GetByID(ctx, "tenant-1", in.ID)
	if stored.AssignedTo != analyst.ID {
		t.Errorf("AssignedTo = %d, want %d", stored.AssignedTo, analyst.ID)
	}
}

func TestMachine_History(t *testing.T) {
	f := newFixture(t)
	f.seedAlert(t, "a1", alert.StatusNew)
	ctx := context.Background()
	actor := securityActor()

	if _, err := f.machine.StartInvestigation(ctx, actor, "tenant-1", "a1"); err != nil {
		t.Fatalf("StartInvestigation() error = %v", err)
	}
	if _, err := f.machine.Resolve(ctx, actor, "tenant-1", "a1", alert.OutcomeBenign, "verified with endpoint owner"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	trail, err := f.machine.History(ctx, actor, "tenant-1", "a1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(trail))
	}
	if trail[1].ToStatus != alert.StatusResolvedBenign {
		t.Errorf("last transition = %q, want resolved_benign", trail[1].ToStatus)
	}
	if trail[1].Note != "verified with endpoint owner" {
		t.Errorf("last note = %q, want the resolution notes", trail[1].Note)
	}
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{alert.StatusNew, alert.StatusInvestigating, true},
		{alert.StatusNew, alert.StatusEscalated, true},
		{alert.StatusAssigned, alert.StatusInvestigating, true},
		{alert.StatusInvestigating, alert.StatusResolvedBenign, true},
		{alert.StatusInvestigating, alert.StatusAssigned, false},
		{alert.StatusResolvedBenign, alert.StatusInvestigating, false},
		{alert.StatusEscalated, alert.StatusResolvedBenign, false},
		{alert.StatusResolvedFalsePositive, alert.StatusEscalated, false},
	}

	for _, tt := range tests {
		if got := allowed(tt.from, tt.to); got != tt.want {
			t.Errorf("allowed(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
