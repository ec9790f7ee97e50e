package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pratik-mahalle/sentrydesk/internal/domain/incident"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
)

type IncidentRepository struct {
	db *exec
}

func NewIncidentRepository(db *sql.DB) incident.Repository {
	return &IncidentRepository{db: newExec(db)}
}

const incidentColumns = `id, tenant_id, title, description, severity, priority, category,
	source_alert_id, assigned_to, status, created_at, updated_at`

func (r *IncidentRepository) Create(ctx context.Context, in *incident.Incident) error {
	now := time.Now().UTC()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	in.UpdatedAt = now

	query := `
		INSERT INTO incidents (` + incidentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		in.ID, in.TenantID, in.Title, in.Description, in.Severity, in.Priority, in.Category,
		in.SourceAlertID, in.AssignedTo, in.Status,
		in.CreatedAt.Format(time.RFC3339), in.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create incident", err)
	}
	return nil
}

func (r *IncidentRepository) GetByID(ctx context.Context, tenantID, id string) (*incident.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE tenant_id = ? AND id = ?`

	in, err := scanIncident(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Incident")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get incident", err)
	}
	return in, nil
}

func (r *IncidentRepository) GetBySourceAlert(ctx context.Context, tenantID, alertID string) (*incident.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE tenant_id = ? AND source_alert_id = ?`

	in, err := scanIncident(r.db.QueryRowContext(ctx, query, tenantID, alertID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get incident by source alert", err)
	}
	return in, nil
}

func (r *IncidentRepository) Update(ctx context.Context, in *incident.Incident) error {
	in.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE incidents SET title = ?, description = ?, severity = ?, priority = ?,
			assigned_to = ?, status = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		in.Title, in.Description, in.Severity, in.Priority,
		in.AssignedTo, in.Status, in.UpdatedAt.Format(time.RFC3339),
		in.TenantID, in.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update incident", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Incident")
	}
	return nil
}

func (r *IncidentRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM incidents WHERE tenant_id = ? AND id = ?", tenantID, id)
	if err != nil {
		return errors.DatabaseError("Failed to delete incident", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Incident")
	}
	return nil
}

func (r *IncidentRepository) ListWithPagination(ctx context.Context, tenantID string, filter incident.Filter, limit, offset int) ([]*incident.Incident, int64, error) {
	where := []string{"tenant_id = ?"}
	args := []interface{}{tenantID}

	if filter.Severity != "" {
		where = append(where, "severity = ?")
		args = append(args, filter.Severity)
	}
	if filter.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, filter.Priority)
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.AssignedTo != 0 {
		where = append(where, "assigned_to = ?")
		args = append(args, filter.AssignedTo)
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := "SELECT COUNT(*) FROM incidents WHERE " + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count incidents", err)
	}

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE ` + whereClause + `
		ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list incidents", err)
	}
	defer rows.Close()

	var incidents []*incident.Incident
	for rows.Next() {
		in, err := scanIncident(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan incident", err)
		}
		incidents = append(incidents, in)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to iterate incidents", err)
	}
	return incidents, total, nil
}

func (r *IncidentRepository) CountOpenByAssignee(ctx context.Context, tenantID string) (map[int64]int, error) {
	query := `
		SELECT assigned_to, COUNT(*) FROM incidents
		WHERE tenant_id = ? AND assigned_to != 0 AND status != 'closed'
		GROUP BY assigned_to
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to count open incidents by assignee", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var assignee int64
		var n int
		if err := rows.Scan(&assignee, &n); err != nil {
			return nil, errors.DatabaseError("Failed to scan assignee count", err)
		}
		counts[assignee] = n
	}
	return counts, rows.Err()
}

func scanIncident(row rowScanner) (*incident.Incident, error) {
	var in incident.Incident
	var created, updated string

	err := row.Scan(
		&in.ID, &in.TenantID, &in.Title, &in.Description, &in.Severity, &in.Priority, &in.Category,
		&in.SourceAlertID, &in.AssignedTo, &in.Status, &created, &updated,
	)
	if err != nil {
		return nil, err
	}

	in.CreatedAt, _ = time.Parse(time.RFC3339, created)
	in.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &in, nil
}
