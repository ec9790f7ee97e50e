package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/pratik-mahalle/sentrydesk/internal/auth"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/user"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
	"github.com/pratik-mahalle/sentrydesk/internal/testutil"
)

const testSecret = "test-signing-secret"

func newService() (user.Service, *testutil.MockUserRepository) {
	repo := testutil.NewMockUserRepository()
	svc := user.NewService(repo, user.TokenConfig{
		Secret:     testSecret,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
	return svc, repo
}

func TestService_RegisterRoleGating(t *testing.T) {
	superAdmin := auth.Actor{UserID: 1, Role: user.RoleSuperAdmin, TenantID: "tenant-0"}
	tenantAdmin := auth.Actor{UserID: 2, Role: user.RoleTenantAdmin, TenantID: "tenant-1"}
	plain := auth.Actor{UserID: 3, Role: user.RoleUser, TenantID: "tenant-1"}

	tests := []struct {
		name     string
		actor    auth.Actor
		role     string
		tenant   string
		wantCode string
	}{
		{name: "anyone can self register a plain user", actor: plain, role: user.RoleUser, tenant: "tenant-1"},
		{name: "plain user cannot create analysts", actor: plain, role: user.RoleSecurityAnalyst, tenant: "tenant-1", wantCode: errors.ErrCodeForbidden},
		{name: "tenant admin creates analyst in own tenant", actor: tenantAdmin, role: user.RoleSecurityAnalyst, tenant: "tenant-1"},
		{name: "tenant admin cannot reach other tenants", actor: tenantAdmin, role: user.RoleITHelpdeskAnalyst, tenant: "tenant-2", wantCode: errors.ErrCodeForbidden},
		{name: "tenant admin cannot mint super admins", actor: tenantAdmin, role: user.RoleSuperAdmin, tenant: "tenant-1", wantCode: errors.ErrCodeForbidden},
		{name: "super admin creates admins anywhere", actor: superAdmin, role: user.RoleTenantAdmin, tenant: "tenant-2"},
		{name: "unknown role rejected", actor: superAdmin, role: "wizard", tenant: "tenant-1", wantCode: errors.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService()
			id, err := svc.Register(context.Background(), tt.actor, &user.User{
				Email:    "new@corp.test",
				FullName: "New Account",
				Role:     tt.role,
				TenantID: tt.tenant,
			}, "long enough password")

			if tt.wantCode != "" {
				if errors.Code(err) != tt.wantCode {
					t.Errorf("Register() error = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Register() error = %v", err)
			}
			if id == 0 {
				t.Error("Register() returned zero id")
			}
		})
	}
}

func TestService_RegisterValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	actor := auth.Actor{UserID: 1, Role: user.RoleSuperAdmin, TenantID: "tenant-0"}

	// Short passwords are rejected before any account is touched.
	_, err := svc.Register(ctx, actor, &user.User{Email: "a@corp.test", Role: user.RoleUser, TenantID: "tenant-1"}, "tiny")
	if !errors.IsValidation(err) {
		t.Errorf("Register(short password) error = %v, want validation error", err)
	}

	// Email addresses are stored lowercased and deduplicated
	// case-insensitively.
	if _, err := svc.Register(ctx, actor, &user.User{Email: "Ana@Corp.Test", Role: user.RoleUser, TenantID: "tenant-1"}, "long enough password"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_, err = svc.Register(ctx, actor, &user.User{Email: "ANA@CORP.TEST", Role: user.RoleUser, TenantID: "tenant-1"}, "long enough password")
	if !errors.IsConflict(err) {
		t.Errorf("Register(duplicate email) error = %v, want conflict", err)
	}

	u, _, err := svc.Login(ctx, "ana@corp.test", "long enough password")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if u.Email != "ana@corp.test" {
		t.Errorf("stored email = %q, want lowercased", u.Email)
	}
}

func TestService_Login(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	actor := auth.Actor{UserID: 1, Role: user.RoleSuperAdmin, TenantID: "tenant-0"}

	id, err := svc.Register(ctx, actor, &user.User{
		Email:    "sec@corp.test",
		Role:     user.RoleSecurityAnalyst,
		TenantID: "tenant-1",
	}, "correct horse battery")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	u, pair, err := svc.Login(ctx, "sec@corp.test", "correct horse battery")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if u.ID != id {
		t.Errorf("user ID = %d, want %d", u.ID, id)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("Login() returned an incomplete token pair")
	}

	claims, err := auth.ParseClaims(pair.AccessToken, testSecret)
	if err != nil {
		t.Fatalf("ParseClaims() error = %v", err)
	}
	if claims.UserID != id || claims.Role != user.RoleSecurityAnalyst || claims.TenantID != "tenant-1" {
		t.Errorf("claims = %+v, want the registered identity", claims)
	}

	if _, _, err := svc.Login(ctx, "sec@corp.test", "wrong password"); errors.Code(err) != errors.ErrCodeUnauthorized {
		t.Errorf("Login(wrong password) error = %v, want unauthorized", err)
	}
	if _, _, err := svc.Login(ctx, "ghost@corp.test", "correct horse battery"); errors.Code(err) != errors.ErrCodeUnauthorized {
		t.Errorf("Login(unknown email) error = %v, want unauthorized", err)
	}
}

func TestService_Refresh(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	actor := auth.Actor{UserID: 1, Role: user.RoleSuperAdmin, TenantID: "tenant-0"}

	id, err := svc.Register(ctx, actor, &user.User{
		Email:    "sec@corp.test",
		Role:     user.RoleSecurityAnalyst,
		TenantID: "tenant-1",
	}, "correct horse battery")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_, pair, err := svc.Login(ctx, "sec@corp.test", "correct horse battery")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// Promote the account; the refreshed token must carry the new role.
	stored, _ := repo.GetByID(ctx, id)
	stored.Role = user.RoleTenantAdmin
	if err := repo.Update(ctx, stored); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	fresh, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	claims, err := auth.ParseClaims(fresh.AccessToken, testSecret)
	if err != nil {
		t.Fatalf("ParseClaims() error = %v", err)
	}
	if claims.Role != user.RoleTenantAdmin {
		t.Errorf("refreshed role = %q, want tenant_admin", claims.Role)
	}

	if _, err := svc.Refresh(ctx, "not-a-token"); errors.Code(err) != errors.ErrCodeUnauthorized {
		t.Errorf("Refresh(garbage) error = %v, want unauthorized", err)
	}
}
