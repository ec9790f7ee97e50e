package playbook_test

import (
	"context"
	"testing"

	"github.com/pratik-mahalle/sentrydesk/internal/auth"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/playbook"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/user"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
	"github.com/pratik-mahalle/sentrydesk/internal/testutil"
)

func superAdmin() auth.Actor {
	return auth.Actor{UserID: 1, Role: user.RoleSuperAdmin, TenantID: "tenant-1"}
}

func newService() (playbook.Service, *testutil.MockPlaybookRepository) {
	repo := testutil.NewMockPlaybookRepository()
	return playbook.NewService(repo), repo
}

func createPlaybook(t *testing.T, svc playbook.Service, name string, links []*playbook.ClassificationLink) string {
	t.Helper()
	id, err := svc.Create(context.Background(), superAdmin(), &playbook.Playbook{
		Name:     name,
		TenantID: "tenant-1",
		Purpose:  "triage guidance",
		Guidance: playbook.Guidance{
			ResolveBenign:      "confirm with the asset owner before closing",
			EscalateToIncident: "page the on-call responder",
		},
	}, links)
	if err != nil {
		t.Fatalf("Create(%s) error = %v", name, err)
	}
	return id
}

func TestService_CreateDefaults(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	id := createPlaybook(t, svc, "Malware triage", []*playbook.ClassificationLink{
		{Classification: "malware", IsPrimary: true},
		{Classification: "ransomware"},
	})

	p, links, err := svc.Get(ctx, "tenant-1", id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.Version != 1 {
		t.Errorf("Version = %d, want 1", p.Version)
	}
	if p.Status != playbook.StatusDraft {
		t.Errorf("Status = %q, want draft", p.Status)
	}
	if p.CreatedBy != 1 {
		t.Errorf("CreatedBy = %d, want actor id", p.CreatedBy)
	}
	if len(links) != 2 {
		t.Fatalf("links = %d, want 2", len(links))
	}
	for _, l := range links {
		if l.PlaybookID != id {
			t.Errorf("link PlaybookID = %q, want %q", l.PlaybookID, id)
		}
	}
}

func TestService_NonSuperAdminRejected(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	admin := auth.Actor{UserID: 2, Role: user.RoleTenantAdmin, TenantID: "tenant-1"}

	if _, err := svc.Create(ctx, admin, &playbook.Playbook{Name: "x", TenantID: "tenant-1"}, nil); !errors.IsPermission(err) {
		t.Errorf("Create() error = %v, want permission denied", err)
	}
	if err := svc.Activate(ctx, admin, "tenant-1", "p1"); !errors.IsPermission(err) {
		t.Errorf("Activate() error = %v, want permission denied", err)
	}
	if err := svc.Delete(ctx, admin, "tenant-1", "p1"); !errors.IsPermission(err) {
		t.Errorf("Delete() error = %v, want permission denied", err)
	}
}

func TestService_ActivateEnforcesSinglePrimary(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	actor := superAdmin()

	first := createPlaybook(t, svc, "Phishing v1", []*playbook.ClassificationLink{
		{Classification: "phishing", IsPrimary: true},
	})
	if err := svc.Activate(ctx, actor, "tenant-1", first); err != nil {
		t.Fatalf("Activate(first) error = %v", err)
	}

	second := createPlaybook(t, svc, "Phishing v2", []*playbook.ClassificationLink{
		{Classification: "phishing", IsPrimary: true},
	})
	if err := svc.Activate(ctx, actor, "tenant-1", second); !errors.IsConflict(err) {
		t.Fatalf("Activate(second) error = %v, want conflict", err)
	}

	// A non-primary link to the same classification is fine.
	secondary := createPlaybook(t, svc, "Phishing supplement", []*playbook.ClassificationLink{
		{Classification: "phishing"},
	})
	if err := svc.Activate(ctx, actor, "tenant-1", secondary); err != nil {
		t.Errorf("Activate(secondary) error = %v, want nil", err)
	}

	// Re-activating the current primary is a no-op, not a conflict.
	if err := svc.Activate(ctx, actor, "tenant-1", first); err != nil {
		t.Errorf("Activate(first again) error = %v, want nil", err)
	}
}

func TestService_UpdateBumpsVersion(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	actor := superAdmin()

	id := createPlaybook(t, svc, "Original", nil)

	err := svc.Update(ctx, actor, &playbook.Playbook{
		ID:       id,
		TenantID: "tenant-1",
		Name:     "Revised",
		Purpose:  "sharper guidance",
	}, nil)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	p, _, err := svc.Get(ctx, "tenant-1", id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.Version != 2 {
		t.Errorf("Version = %d, want 2", p.Version)
	}
	if p.Name != "Revised" {
		t.Errorf("Name = %q, want Revised", p.Name)
	}
}

func TestService_RetiredPlaybookIsFrozen(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	actor := superAdmin()

	id := createPlaybook(t, svc, "Old runbook", nil)
	if err := svc.Retire(ctx, actor, "tenant-1", id); err != nil {
		t.Fatalf("Retire() error = %v", err)
	}

	err := svc.Update(ctx, actor, &playbook.Playbook{ID: id, TenantID: "tenant-1", Name: "New name"}, nil)
	if !errors.IsConflict(err) {
		t.Errorf("Update() error = %v, want conflict", err)
	}
	if err := svc.Activate(ctx, actor, "tenant-1", id); !errors.IsConflict(err) {
		t.Errorf("Activate() error = %v, want conflict", err)
	}

	// Retiring twice is idempotent.
	if err := svc.Retire(ctx, actor, "tenant-1", id); err != nil {
		t.Errorf("Retire() again error = %v, want nil", err)
	}
}

func TestService_DeleteActiveRejected(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	actor := superAdmin()

	id := createPlaybook(t, svc, "Live", nil)
	if err := svc.Activate(ctx, actor, "tenant-1", id); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	if err := svc.Delete(ctx, actor, "tenant-1", id); !errors.IsConflict(err) {
		t.Errorf("Delete(active) error = %v, want conflict", err)
	}

	if err := svc.Retire(ctx, actor, "tenant-1", id); err != nil {
		t.Fatalf("Retire() error = %v", err)
	}
	if err := svc.Delete(ctx, actor, "tenant-1", id); err != nil {
		t.Errorf("Delete(retired) error = %v, want nil", err)
	}
	if _, _, err := svc.Get(ctx, "tenant-1", id); !errors.IsNotFound(err) {
		t.Errorf("Get() after delete error = %v, want not found", err)
	}
}

func TestService_Resolve(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	actor := superAdmin()

	id := createPlaybook(t, svc, "Exfil response", []*playbook.ClassificationLink{
		{Classification: "data_exfiltration", IsPrimary: true},
	})

	// Drafts never resolve.
	if p, err := svc.Resolve(ctx, "tenant-1", "data_exfiltration"); err != nil || p != nil {
		t.Errorf("Resolve(draft) = %v, %v, want nil, nil", p, err)
	}

	if err := svc.Activate(ctx, actor, "tenant-1", id); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	p, err := svc.Resolve(ctx, "tenant-1", "data_exfiltration")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p == nil || p.ID != id {
		t.Fatalf("Resolve() = %v, want the active primary playbook", p)
	}

	// Unlinked classifications resolve to nothing.
	if p, err := svc.Resolve(ctx, "tenant-1", "port_scan"); err != nil || p != nil {
		t.Errorf("Resolve(unlinked) = %v, %v, want nil, nil", p, err)
	}
}
