package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/sentrydesk/internal/domain/user"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
	"github.com/pratik-mahalle/sentrydesk/internal/repository/postgres"
	"github.com/pratik-mahalle/sentrydesk/internal/testutil"
)

func seedUser(t *testing.T, repo user.Repository, email, role, tenant string) *user.User {
	t.Helper()
	u := &user.User{
		Email:        email,
		FullName:     "Test Analyst",
		PasswordHash: "$2a$10$notarealhash",
		Role:         role,
		TenantID:     tenant,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	u := seedUser(t, repo, "ana@corp.test", user.RoleSecurityAnalyst, "tenant-1")
	require.NotZero(t, u.ID)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "ana@corp.test", got.Email)
	require.Nil(t, got.LastAssignedAt)

	got, err = repo.GetByEmail(ctx, "ana@corp.test")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = repo.GetByEmail(ctx, "ghost@corp.test")
	require.True(t, errors.IsNotFound(err))
}

func TestUserRepository_ListByRoles(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	sec := seedUser(t, repo, "sec@corp.test", user.RoleSecurityAnalyst, "tenant-1")
	desk := seedUser(t, repo, "desk@corp.test", user.RoleITHelpdeskAnalyst, "tenant-1")
	seedUser(t, repo, "other@corp.test", user.RoleSecurityAnalyst, "tenant-2")

	got, err := repo.ListByRoles(ctx, "tenant-1", []string{user.RoleSecurityAnalyst, user.RoleITHelpdeskAnalyst})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, sec.ID, got[0].ID)
	require.Equal(t, desk.ID, got[1].ID)

	got, err = repo.ListByRoles(ctx, "tenant-1", nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestUserRepository_TouchAssignment(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	u := seedUser(t, repo, "sec@corp.test", user.RoleSecurityAnalyst, "tenant-1")
	first := time.Now().UTC().Truncate(time.Second)

	// First claim on a never-assigned analyst wins.
	ok, err := repo.TouchAssignment(ctx, u.ID, nil, first)
	require.NoError(t, err)
	require.True(t, ok)

	// A racing claim that still believes the analyst was never assigned
	// loses.
	ok, err = repo.TouchAssignment(ctx, u.ID, nil, first.Add(time.Second))
	require.NoError(t, err)
	require.False(t, ok)

	// Claiming against the current timestamp wins.
	ok, err = repo.TouchAssignment(ctx, u.ID, &first, first.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, ok)

	// The old timestamp is stale now.
	ok, err = repo.TouchAssignment(ctx, u.ID, &first, first.Add(2*time.Minute))
	require.NoError(t, err)
	require.False(t, ok)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastAssignedAt)
	require.True(t, got.LastAssignedAt.Equal(first.Add(time.Minute)))
}
