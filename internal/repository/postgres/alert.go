package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pratik-mahalle/sentrydesk/internal/domain/alert"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
)

type AlertRepository struct {
	db *exec
}

func NewAlertRepository(db *sql.DB) alert.Repository {
	return &AlertRepository{db: newExec(db)}
}

const alertColumns = `id, tenant_id, source_system, source_id, alert_type, classification,
	severity, title, description, metadata, device_identifier, indicators,
	seen_count, correlation_id, status, assigned_to, resolution, resolution_notes,
	incident_id, first_seen_at, last_seen_at, detected_at, created_at, updated_at`

func (r *AlertRepository) Create(ctx context.Context, a *alert.Alert) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return errors.DatabaseError("Failed to encode alert metadata", err)
	}
	indicators, err := json.Marshal(a.Indicators)
	if err != nil {
		return errors.DatabaseError("Failed to encode alert indicators", err)
	}

	query := `
		INSERT INTO alerts (` + alertColumns + `, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		a.ID, a.TenantID, a.SourceSystem, a.SourceID, a.AlertType, a.Classification,
		a.Severity, a.Title, a.Description, string(metadata), a.DeviceIdentifier, string(indicators),
		a.SeenCount, a.CorrelationID, a.Status, a.AssignedTo, a.Resolution, a.ResolutionNotes,
		a.IncidentID, a.FirstSeenAt.Format(time.RFC3339), a.LastSeenAt.Format(time.RFC3339),
		a.DetectedAt.Format(time.RFC3339), a.CreatedAt.Format(time.RFC3339), a.UpdatedAt.Format(time.RFC3339),
		a.Fingerprint(),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create alert", err)
	}
	return nil
}

func (r *AlertRepository) GetByID(ctx context.Context, tenantID, id string) (*alert.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE tenant_id = ? AND id = ?`

	a, err := scanAlert(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Alert")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get alert", err)
	}
	return a, nil
}

func (r *AlertRepository) Update(ctx context.Context, a *alert.Alert) error {
	a.UpdatedAt = time.Now().UTC()

	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return errors.DatabaseError("Failed to encode alert metadata", err)
	}
	indicators, err := json.Marshal(a.Indicators)
	if err != nil {
		return errors.DatabaseError("Failed to encode alert indicators", err)
	}

	query := `
		UPDATE alerts SET severity = ?, title = ?, description = ?, metadata = ?,
			indicators = ?, seen_count = ?, correlation_id = ?, status = ?,
			assigned_to = ?, resolution = ?, resolution_notes = ?, incident_id = ?,
			last_seen_at = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		a.Severity, a.Title, a.Description, string(metadata),
		string(indicators), a.SeenCount, a.CorrelationID, a.Status,
		a.AssignedTo, a.Resolution, a.ResolutionNotes, a.IncidentID,
		a.LastSeenAt.Format(time.RFC3339), a.UpdatedAt.Format(time.RFC3339),
		a.TenantID, a.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update alert", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Alert")
	}
	return nil
}

func (r *AlertRepository) FindOpenByFingerprint(ctx context.Context, tenantID, fingerprint string, since time.Time) (*alert.Alert, error) {
	query := `
		SELECT ` + alertColumns + ` FROM alerts
		WHERE tenant_id = ? AND fingerprint = ?
			AND status NOT IN ('resolved_benign', 'resolved_false_positive', 'escalated')
			AND last_seen_at >= ?
		ORDER BY last_seen_at DESC
		LIMIT 1
	`
	a, err := scanAlert(r.db.QueryRowContext(ctx, query, tenantID, fingerprint, since.UTC().Format(time.RFC3339)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to find alert by fingerprint", err)
	}
	return a, nil
}

func (r *AlertRepository) ListWithPagination(ctx context.Context, tenantID string, filter alert.Filter, limit, offset int) ([]*alert.Alert, int64, error) {
	where := []string{"tenant_id = ?"}
	args := []interface{}{tenantID}

	if filter.SourceSystem != "" {
		where = append(where, "source_system = ?")
		args = append(args, filter.SourceSystem)
	}
	if filter.AlertType != "" {
		where = append(where, "alert_type = ?")
		args = append(args, filter.AlertType)
	}
	if filter.Classification != "" {
		where = append(where, "classification = ?")
		args = append(args, filter.Classification)
	}
	if filter.Severity != "" {
		where = append(where, "severity = ?")
		args = append(args, filter.Severity)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.AssignedTo != 0 {
		where = append(where, "assigned_to = ?")
		args = append(args, filter.AssignedTo)
	}
	if filter.CorrelationID != "" {
		where = append(where, "correlation_id = ?")
		args = append(args, filter.CorrelationID)
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := "SELECT COUNT(*) FROM alerts WHERE " + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count alerts", err)
	}

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE ` + whereClause + `
		ORDER BY last_seen_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list alerts", err)
	}
	defer rows.Close()

	alerts, err := collectAlerts(rows)
	if err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

func (r *AlertRepository) ListOpenSince(ctx context.Context, tenantID string, since time.Time) ([]*alert.Alert, error) {
	query := `
		SELECT ` + alertColumns + ` FROM alerts
		WHERE tenant_id = ?
			AND status NOT IN ('resolved_benign', 'resolved_false_positive', 'escalated')
			AND last_seen_at >= ?
		ORDER BY last_seen_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, errors.DatabaseError("Failed to list open alerts", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

func (r *AlertRepository) CountOpenByAssignee(ctx context.Context, tenantID string) (map[int64]int, error) {
	query := `
		SELECT assigned_to, COUNT(*) FROM alerts
		WHERE tenant_id = ? AND assigned_to != 0
			AND status NOT IN ('resolved_benign', 'resolved_false_positive', 'escalated')
		GROUP BY assigned_to
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to count open alerts by assignee", err)
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

func (r *AlertRepository) CountByStatus(ctx context.Context, tenantID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM alerts WHERE tenant_id = ? GROUP BY status", tenantID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to count alerts by status", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.DatabaseError("Failed to scan status count", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *AlertRepository) SetCorrelation(ctx context.Context, tenantID, correlationID string, alertIDs []string) error {
	if len(alertIDs) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?, ", len(alertIDs)-1) + "?"
	args := []interface{}{correlationID, time.Now().UTC().Format(time.RFC3339), tenantID}
	for _, id := range alertIDs {
		args = append(args, id)
	}

	query := `UPDATE alerts SET correlation_id = ?, updated_at = ?
		WHERE tenant_id = ? AND id IN (` + placeholders + `)`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return errors.DatabaseError("Failed to set correlation id", err)
	}
	return nil
}

func (r *AlertRepository) DistinctOpenTenants(ctx context.Context, since time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT tenant_id FROM alerts
		WHERE status NOT IN ('resolved_benign', 'resolved_false_positive', 'escalated')
			AND last_seen_at >= ?
	`
	rows, err := r.db.QueryContext(ctx, query, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, errors.DatabaseError("Failed to list alert tenants", err)
	}
	defer rows.Close()

	var tenants []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, errors.DatabaseError("Failed to scan tenant id", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlert(row rowScanner) (*alert.Alert, error) {
	var a alert.Alert
	var metadata, indicators string
	var firstSeen, lastSeen, detected, created, updated string

	err := row.Scan(
		&a.ID, &a.TenantID, &a.SourceSystem, &a.SourceID, &a.AlertType, &a.Classification,
		&a.Severity, &a.Title, &a.Description, &metadata, &a.DeviceIdentifier, &indicators,
		&a.SeenCount, &a.CorrelationID, &a.Status, &a.AssignedTo, &a.Resolution, &a.ResolutionNotes,
		&a.IncidentID, &firstSeen, &lastSeen, &detected, &created, &updated,
	)
	if err != nil {
		return nil, err
	}

	if metadata != "" && metadata != "null" {
		_ = json.Unmarshal([]byte(metadata), &a.Metadata)
	}
	if indicators != "" && indicators != "null" {
		_ = json.Unmarshal([]byte(indicators), &a.Indicators)
	}
	a.FirstSeenAt, _ = time.Parse(time.RFC3339, firstSeen)
	a.LastSeenAt, _ = time.Parse(time.RFC3339, lastSeen)
	a.DetectedAt, _ = time.Parse(time.RFC3339, detected)
	a.CreatedAt, _ = time.Parse(time.RFC3339, created)
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &a, nil
}

func collectAlerts(rows *sql.Rows) ([]*alert.Alert, error) {
	var alerts []*alert.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan alert", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate alerts", err)
	}
	return alerts, nil
}
