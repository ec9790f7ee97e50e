package user

import (
	"context"
	"time"
)

// Repository defines the interface for user data access
type Repository interface {
	// Create persists a new user
	Create(ctx context.Context, u *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update persists changes to a user
	Update(ctx context.Context, u *User) error

	// ListByRoles retrieves users in a tenant holding any of the given roles
	ListByRoles(ctx context.Context, tenantID string, roles []string) ([]*User, error)

	// TouchAssignment records when a user last received an assignment. The
	// update only wins when the stored timestamp still matches prev, so two
	// concurrent assignment decisions cannot both claim the same analyst
	// slot; the loser reports false and must re-select.
	TouchAssignment(ctx context.Context, id int64, prev *time.Time, at time.Time) (bool, error)
}
