package alert

import "context"

// Service defines the read-side business logic for alerts. Alerts are created
// only by the ingest pipeline and mutated only by the escalation state machine
// and the assignment scheduler.
type Service interface {
	// GetByID retrieves an alert by ID
	GetByID(ctx context.Context, tenantID, id string) (*Alert, error)

	// List retrieves alerts with filters and pagination
	List(ctx context.Context, tenantID string, filter Filter, limit, offset int) ([]*Alert, int64, error)

	// GetSummary gets alert counts by status
	GetSummary(ctx context.Context, tenantID string) (map[string]int, error)
}

type service struct {
	repo Repository
}

// NewService creates a new alert service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, tenantID, id string) (*Alert, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *service) List(ctx context.Context, tenantID string, filter Filter, limit, offset int) ([]*Alert, int64, error) {
	return s.repo.ListWithPagination(ctx, tenantID, filter, limit, offset)
}

func (s *service) GetSummary(ctx context.Context, tenantID string) (map[string]int, error) {
	return s.repo.CountByStatus(ctx, tenantID)
}
