package audit

import "time"

// Entry records a single alert lifecycle transition. Entries are append-only
// and never updated or deleted.
type Entry struct {
	ID         int64     `json:"id" db:"id"`
	TenantID   string    `json:"tenant_id" db:"tenant_id"`
	AlertID    string    `json:"alert_id" db:"alert_id"`
	FromStatus string    `json:"from_status" db:"from_status"`
	ToStatus   string    `json:"to_status" db:"to_status"`
	ActorID    int64     `json:"actor_id" db:"actor_id"`
	Note       string    `json:"note,omitempty" db:"note"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
