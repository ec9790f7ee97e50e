package alert

import (
	"context"
	"time"
)

// Repository defines the interface for alert data access
type Repository interface {
	// Create persists a new alert
	Create(ctx context.Context, a *Alert) error

	// GetByID retrieves an alert by ID within a tenant
	GetByID(ctx context.Context, tenantID, id string) (*Alert, error)

	// Update persists changes to an alert
	Update(ctx context.Context, a *Alert) error

	// FindOpenByFingerprint finds a non-terminal alert with the given
	// fingerprint whose last_seen_at is no older than since
	FindOpenByFingerprint(ctx context.Context, tenantID, fingerprint string, since time.Time) (*Alert, error)

	// ListWithPagination retrieves alerts with filters and pagination
	ListWithPagination(ctx context.Context, tenantID string, filter Filter, limit, offset int) ([]*Alert, int64, error)

	// ListOpenSince retrieves non-terminal alerts seen since the given time,
	// used by the correlation sweep
	ListOpenSince(ctx context.Context, tenantID string, since time.Time) ([]*Alert, error)

	// CountOpenByAssignee counts non-terminal alerts per assignee in a tenant
	CountOpenByAssignee(ctx context.Context, tenantID string) (map[int64]int, error)

	// CountByStatus counts alerts by status in a tenant
	CountByStatus(ctx context.Context, tenantID string) (map[string]int, error)

	// SetCorrelation stamps a correlation id onto a set of alerts
	SetCorrelation(ctx context.Context, tenantID, correlationID string, alertIDs []string) error

	// DistinctOpenTenants lists tenants holding non-terminal alerts seen
	// since the given time
	DistinctOpenTenants(ctx context.Context, since time.Time) ([]string, error)
}
