package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pratik-mahalle/sentrydesk/internal/domain/user"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
)

type UserRepository struct {
	db *exec
}

func NewUserRepository(db *sql.DB) user.Repository {
	return &UserRepository{db: newExec(db)}
}

const userColumns = `id, email, full_name, password_hash, role, tenant_id,
	last_assigned_at, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	query := `
		INSERT INTO users (email, full_name, password_hash, role, tenant_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		u.Email, u.FullName, u.PasswordHash, u.Role, u.TenantID,
		u.CreatedAt.Format(time.RFC3339), u.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.DatabaseError("Failed to get user ID", err)
	}
	u.ID = id
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user by email", err)
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users SET email = ?, full_name = ?, password_hash = ?, role = ?,
			tenant_id = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		u.Email, u.FullName, u.PasswordHash, u.Role, u.TenantID,
		u.UpdatedAt.Format(time.RFC3339), u.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("User")
	}
	return nil
}

func (r *UserRepository) ListByRoles(ctx context.Context, tenantID string, roles []string) ([]*user.User, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(roles)-1) + "?"
	args := []interface{}{tenantID}
	for _, role := range roles {
		args = append(args, role)
	}

	query := `SELECT ` + userColumns + ` FROM users
		WHERE tenant_id = ? AND role IN (` + placeholders + `) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list users by role", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan user", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) TouchAssignment(ctx context.Context, id int64, prev *time.Time, at time.Time) (bool, error) {
	var result sql.Result
	var err error

	// The stored timestamp must still match prev for the update to win.
	if prev == nil {
		result, err = r.db.ExecContext(ctx,
			"UPDATE users SET last_assigned_at = ? WHERE id = ? AND last_assigned_at IS NULL",
			at.UTC().Format(time.RFC3339), id)
	} else {
		result, err = r.db.ExecContext(ctx,
			"UPDATE users SET last_assigned_at = ? WHERE id = ? AND last_assigned_at = ?",
			at.UTC().Format(time.RFC3339), id, prev.UTC().Format(time.RFC3339))
	}
	if err != nil {
		return false, errors.DatabaseError("Failed to record assignment", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.DatabaseError("Failed to get affected rows", err)
	}
	return rows == 1, nil
}

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	var lastAssigned sql.NullString
	var created, updated string

	err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Role, &u.TenantID,
		&lastAssigned, &created, &updated,
	)
	if err != nil {
		return nil, err
	}

	if lastAssigned.Valid && lastAssigned.String != "" {
		if t, err := time.Parse(time.RFC3339, lastAssigned.String); err == nil {
			u.LastAssignedAt = &t
		}
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	u.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &u, nil
}
