package incident

import "context"

// Repository defines the interface for incident data access
type Repository interface {
	// Create persists a new incident
	Create(ctx context.Context, in *Incident) error

	// GetByID retrieves an incident by ID within a tenant
	GetByID(ctx context.Context, tenantID, id string) (*Incident, error)

	// GetBySourceAlert retrieves the incident created for an alert, if any
	GetBySourceAlert(ctx context.Context, tenantID, alertID string) (*Incident, error)

	// Update persists changes to an incident
	Update(ctx context.Context, in *Incident) error

	// Delete removes an incident; used only to compensate a failed
	// escalation transition
	Delete(ctx context.Context, tenantID, id string) error

	// ListWithPagination retrieves incidents with filters and pagination
	ListWithPagination(ctx context.Context, tenantID string, filter Filter, limit, offset int) ([]*Incident, int64, error)

	// CountOpenByAssignee counts non-closed incidents per assignee in a tenant
	CountOpenByAssignee(ctx context.Context, tenantID string) (map[int64]int, error)
}
