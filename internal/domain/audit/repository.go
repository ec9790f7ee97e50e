package audit

import "context"

// Repository persists transition entries. There is intentionally no update
// or delete: the trail is append-only.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	ListByAlert(ctx context.Context, tenantID, alertID string) ([]*Entry, error)
}
