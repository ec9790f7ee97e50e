package incident_test

import (
	"context"
	"testing"
	"time"

	"github.com/pratik-mahalle/sentrydesk/internal/auth"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/incident"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/user"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
	"github.com/pratik-mahalle/sentrydesk/internal/rbac"
	"github.com/pratik-mahalle/sentrydesk/internal/testutil"
)

type fixture struct {
	svc       incident.Service
	incidents *testutil.MockIncidentRepository
	users     *testutil.MockUserRepository
}

func newFixture() *fixture {
	incidents := testutil.NewMockIncidentRepository()
	users := testutil.NewMockUserRepository()
	return &fixture{
		svc:       incident.NewService(incidents, users),
		incidents: incidents,
		users:     users,
	}
}

func (f *fixture) seed(t *testing.T, id, category, status string) *incident.Incident {
	t.Helper()
	in := &incident.Incident{
		ID:            id,
		TenantID:      "tenant-1",
		Title:         "Escalated alert",
		Severity:      "high",
		Priority:      incident.PriorityHigh,
		Category:      category,
		SourceAlertID: "a-" + id,
		Status:        status,
		CreatedAt:     time.Now().UTC(),
	}
	if err := f.incidents.Create(context.Background(), in); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return in
}

func secAnalyst() auth.Actor {
	return auth.Actor{UserID: 4, Role: user.RoleSecurityAnalyst, TenantID: "tenant-1"}
}

func TestService_UpdateStatus(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		wantErr  bool
	}{
		{name: "open to in_progress", from: incident.StatusOpen, to: incident.StatusInProgress},
		{name: "open to closed", from: incident.StatusOpen, to: incident.StatusClosed},
		{name: "in_progress back to open", from: incident.StatusInProgress, to: incident.StatusOpen},
		{name: "in_progress to closed", from: incident.StatusInProgress, to: incident.StatusClosed},
		{name: "closed is terminal", from: incident.StatusClosed, to: incident.StatusOpen, wantErr: true},
		{name: "open to open rejected", from: incident.StatusOpen, to: incident.StatusOpen, wantErr: true},
		{name: "unknown status rejected", from: incident.StatusOpen, to: "paused", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.seed(t, "i1", rbac.CategoryMalware, tt.from)

			in, err := f.svc.UpdateStatus(context.Background(), secAnalyst(), "tenant-1", "i1", tt.to)
			if tt.wantErr {
				if !errors.IsConflict(err) {
					t.Errorf("UpdateStatus() error = %v, want conflict", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateStatus() error = %v", err)
			}
			if in.Status != tt.to {
				t.Errorf("Status = %q, want %q", in.Status, tt.to)
			}
		})
	}
}

func TestService_CategoryVisibility(t *testing.T) {
	f := newFixture()
	f.seed(t, "i1", rbac.CategoryMalware, incident.StatusOpen)
	f.seed(t, "i2", rbac.CategoryHardware, incident.StatusOpen)
	ctx := context.Background()

	helpdesk := auth.Actor{UserID: 5, Role: user.RoleITHelpdeskAnalyst, TenantID: "tenant-1"}

	if _, err := f.svc.GetByID(ctx, helpdesk, "tenant-1", "i1"); !errors.IsPermission(err) {
		t.Errorf("GetByID(security incident) error = %v, want permission denied", err)
	}
	if _, err := f.svc.GetByID(ctx, helpdesk, "tenant-1", "i2"); err != nil {
		t.Errorf("GetByID(helpdesk incident) error = %v, want nil", err)
	}

	items, total, err := f.svc.List(ctx, helpdesk, "tenant-1", incident.Filter{}, 50, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "i2" {
		t.Errorf("List() = %d items, want only the hardware incident", len(items))
	}
	if total != 1 {
		t.Errorf("total = %d, want 1 after visibility filtering", total)
	}

	// Explicitly filtering an off-limits category is a permission error,
	// not an empty page.
	if _, _, err := f.svc.List(ctx, helpdesk, "tenant-1", incident.Filter{Category: rbac.CategoryMalware}, 50, 0); !errors.IsPermission(err) {
		t.Errorf("List(malware filter) error = %v, want permission denied", err)
	}

	// Plain users see nothing at all.
	plain := auth.Actor{UserID: 6, Role: user.RoleUser, TenantID: "tenant-1"}
	items, total, err = f.svc.List(ctx, plain, "tenant-1", incident.Filter{}, 50, 0)
	if err != nil {
		t.Fatalf("List(user) error = %v", err)
	}
	if len(items) != 0 || total != 0 {
		t.Errorf("List(user) = %d items, total %d, want none", len(items), total)
	}
}

func TestService_Reassign(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	analyst := &user.User{Email: "sec@corp.test", Role: user.RoleSecurityAnalyst, TenantID: "tenant-1"}
	helpdesk := &user.User{Email: "desk@corp.test", Role: user.RoleITHelpdeskAnalyst, TenantID: "tenant-1"}
	outsider := &user.User{Email: "sec@other.test", Role: user.RoleSecurityAnalyst, TenantID: "tenant-2"}
	for _, u := range []*user.User{analyst, helpdesk, outsider} {
		if err := f.users.Create(ctx, u); err != nil {
			t.Fatalf("Create(%s) error = %v", u.Email, err)
		}
	}

	f.seed(t, "i1", rbac.CategoryIntrusion, incident.StatusOpen)

	in, err := f.svc.Reassign(ctx, secAnalyst(), "tenant-1", "i1", analyst.ID)
	if err != nil {
		t.Fatalf("Reassign() error = %v", err)
	}
	if in.AssignedTo != analyst.ID {
		t.Errorf("AssignedTo = %d, want %d", in.AssignedTo, analyst.ID)
	}

	if _, err := f.svc.Reassign(ctx, secAnalyst(), "tenant-1", "i1", outsider.ID); !errors.IsValidation(err) {
		t.Errorf("Reassign(cross tenant) error = %v, want validation error", err)
	}
	if _, err := f.svc.Reassign(ctx, secAnalyst(), "tenant-1", "i1", helpdesk.ID); !errors.IsValidation(err) {
		t.Errorf("Reassign(wrong category role) error = %v, want validation error", err)
	}
}

func TestService_ReassignClosedRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	analyst := &user.User{Email: "sec@corp.test", Role: user.RoleSecurityAnalyst, TenantID: "tenant-1"}
	if err := f.users.Create(ctx, analyst); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	f.seed(t, "i1", rbac.CategoryMalware, incident.StatusClosed)

	if _, err := f.svc.Reassign(ctx, secAnalyst(), "tenant-1", "i1", analyst.ID); !errors.IsConflict(err) {
		t.Errorf("Reassign(closed) error = %v, want conflict", err)
	}
}
