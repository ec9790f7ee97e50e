package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pratik-mahalle/sentrydesk/internal/domain/playbook"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
)

type PlaybookRepository struct {
	db *exec
}

func NewPlaybookRepository(db *sql.DB) playbook.Repository {
	return &PlaybookRepository{db: newExec(db)}
}

const playbookColumns = `id, name, version, status, purpose, guidance, created_by, tenant_id,
	created_at, updated_at`

func (r *PlaybookRepository) Create(ctx context.Context, p *playbook.Playbook) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	guidance, err := json.Marshal(p.Guidance)
	if err != nil {
		return errors.DatabaseError("Failed to encode playbook guidance", err)
	}

	query := `
		INSERT INTO playbooks (` + playbookColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Version, p.Status, p.Purpose, string(guidance), p.CreatedBy, p.TenantID,
		p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create playbook", err)
	}
	return nil
}

func (r *PlaybookRepository) GetByID(ctx context.Context, tenantID, id string) (*playbook.Playbook, error) {
	query := `SELECT ` + playbookColumns + ` FROM playbooks WHERE tenant_id = ? AND id = ?`

	p, err := scanPlaybook(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Playbook")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get playbook", err)
	}
	return p, nil
}

func (r *PlaybookRepository) Update(ctx context.Context, p *playbook.Playbook) error {
	p.UpdatedAt = time.Now().UTC()

	guidance, err := json.Marshal(p.Guidance)
	if err != nil {
		return errors.DatabaseError("Failed to encode playbook guidance", err)
	}

	query := `
		UPDATE playbooks SET name = ?, version = ?, status = ?, purpose = ?,
			guidance = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		p.Name, p.Version, p.Status, p.Purpose, string(guidance),
		p.UpdatedAt.Format(time.RFC3339), p.TenantID, p.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update playbook", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Playbook")
	}
	return nil
}

func (r *PlaybookRepository) Delete(ctx context.Context, tenantID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to begin transaction", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM playbook_classifications WHERE playbook_id = ?", id); err != nil {
		tx.Rollback()
		return errors.DatabaseError("Failed to delete playbook links", err)
	}

	result, err := tx.ExecContext(ctx,
		"DELETE FROM playbooks WHERE tenant_id = ? AND id = ?", tenantID, id)
	if err != nil {
		tx.Rollback()
		return errors.DatabaseError("Failed to delete playbook", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		tx.Rollback()
		return errors.NotFound("Playbook")
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit playbook delete", err)
	}
	return nil
}

func (r *PlaybookRepository) List(ctx context.Context, tenantID string) ([]*playbook.Playbook, error) {
	query := `SELECT ` + playbookColumns + ` FROM playbooks WHERE tenant_id = ? ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list playbooks", err)
	}
	defer rows.Close()

	var playbooks []*playbook.Playbook
	for rows.Next() {
		p, err := scanPlaybook(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan playbook", err)
		}
		playbooks = append(playbooks, p)
	}
	return playbooks, rows.Err()
}

func (r *PlaybookRepository) LinksForPlaybook(ctx context.Context, playbookID string) ([]*playbook.ClassificationLink, error) {
	query := `SELECT playbook_id, classification, is_primary
		FROM playbook_classifications WHERE playbook_id = ?`

	rows, err := r.db.QueryContext(ctx, query, playbookID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list playbook links", err)
	}
	defer rows.Close()

	var links []*playbook.ClassificationLink
	for rows.Next() {
		var l playbook.ClassificationLink
		if err := rows.Scan(&l.PlaybookID, &l.Classification, &l.IsPrimary); err != nil {
			return nil, errors.DatabaseError("Failed to scan playbook link", err)
		}
		links = append(links, &l)
	}
	return links, rows.Err()
}

func (r *PlaybookRepository) ReplaceLinks(ctx context.Context, playbookID string, links []*playbook.ClassificationLink) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to begin transaction", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM playbook_classifications WHERE playbook_id = ?", playbookID); err != nil {
		tx.Rollback()
		return errors.DatabaseError("Failed to clear playbook links", err)
	}

	for _, l := range links {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO playbook_classifications (playbook_id, classification, is_primary) VALUES (?, ?, ?)",
			playbookID, l.Classification, l.IsPrimary); err != nil {
			tx.Rollback()
			return errors.DatabaseError("Failed to insert playbook link", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit playbook links", err)
	}
	return nil
}

func (r *PlaybookRepository) ActivePrimary(ctx context.Context, tenantID, classification string) (*playbook.Playbook, error) {
	query := `
		SELECT p.id, p.name, p.version, p.status, p.purpose, p.guidance, p.created_by, p.tenant_id,
			p.created_at, p.updated_at
		FROM playbooks p
		JOIN playbook_classifications pc ON pc.playbook_id = p.id
		WHERE p.tenant_id = ? AND pc.classification = ? AND pc.is_primary = ? AND p.status = ?
		LIMIT 1
	`
	p, err := scanPlaybook(r.db.QueryRowContext(ctx, query, tenantID, classification, true, playbook.StatusActive))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to resolve active primary playbook", err)
	}
	return p, nil
}

func scanPlaybook(row rowScanner) (*playbook.Playbook, error) {
	var p playbook.Playbook
	var guidance string
	var created, updated string

	err := row.Scan(
		&p.ID, &p.Name, &p.Version, &p.Status, &p.Purpose, &guidance, &p.CreatedBy, &p.TenantID,
		&created, &updated,
	)
	if err != nil {
		return nil, err
	}

	if guidance != "" && guidance != "null" {
		_ = json.Unmarshal([]byte(guidance), &p.Guidance)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, created)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &p, nil
}
