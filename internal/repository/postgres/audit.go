package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pratik-mahalle/sentrydesk/internal/domain/audit"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
)

type AuditRepository struct {
	db *exec
}

func NewAuditRepository(db *sql.DB) audit.Repository {
	return &AuditRepository{db: newExec(db)}
}

func (r *AuditRepository) Append(ctx context.Context, e *audit.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_log (tenant_id, alert_id, from_status, to_status, actor_id, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		e.TenantID, e.AlertID, e.FromStatus, e.ToStatus, e.ActorID, e.Note,
		e.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return errors.DatabaseError("Failed to append audit entry", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

func (r *AuditRepository) ListByAlert(ctx context.Context, tenantID, alertID string) ([]*audit.Entry, error) {
	query := `
		SELECT id, tenant_id, alert_id, from_status, to_status, actor_id, note, created_at
		FROM audit_log WHERE tenant_id = ? AND alert_id = ?
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID, alertID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list audit entries", err)
	}
	defer rows.Close()

	var entries []*audit.Entry
	for rows.Next() {
		var e audit.Entry
		var created string
		if err := rows.Scan(&e.ID, &e.TenantID, &e.AlertID, &e.FromStatus, &e.ToStatus,
			&e.ActorID, &e.Note, &created); err != nil {
			return nil, errors.DatabaseError("Failed to scan audit entry", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, created)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
