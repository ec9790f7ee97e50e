package incident

import (
	"context"
	"fmt"
	"time"

	"github.com/pratik-mahalle/sentrydesk/internal/auth"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/user"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
	"github.com/pratik-mahalle/sentrydesk/internal/rbac"
)

// Service defines the business logic for incidents. Incidents are created
// only by alert escalation; the service covers working them afterwards.
type Service interface {
	// GetByID retrieves an incident by ID
	GetByID(ctx context.Context, actor auth.Actor, tenantID, id string) (*Incident, error)

	// List retrieves incidents with filters and pagination, restricted to
	// the categories the actor's role may see
	List(ctx context.Context, actor auth.Actor, tenantID string, filter Filter, limit, offset int) ([]*Incident, int64, error)

	// UpdateStatus moves an incident between open, in_progress and closed
	UpdateStatus(ctx context.Context, actor auth.Actor, tenantID, id, status string) (*Incident, error)

	// Reassign hands an incident to another user in the same tenant
	Reassign(ctx context.Context, actor auth.Actor, tenantID, id string, assigneeID int64) (*Incident, error)
}

type service struct {
	repo  Repository
	users user.Repository
}

// NewService creates a new incident service
func NewService(repo Repository, users user.Repository) Service {
	return &service{repo: repo, users: users}
}

func (s *service) GetByID(ctx context.Context, actor auth.Actor, tenantID, id string) (*Incident, error) {
	in, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !rbac.CanAccess(actor.Role, in.Category) {
		return nil, errors.Permission(fmt.Sprintf("Role %s cannot view %s incidents", actor.Role, in.Category))
	}
	return in, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, tenantID string, filter Filter, limit, offset int) ([]*Incident, int64, error) {
	visible := rbac.VisibleCategories(actor.Role)
	if len(visible) == 0 {
		return []*Incident{}, 0, nil
	}
	if filter.Category != "" {
		if !rbac.CanAccess(actor.Role, filter.Category) {
			return nil, 0, errors.Permission(fmt.Sprintf("Role %s cannot view %s incidents", actor.Role, filter.Category))
		}
		return s.repo.ListWithPagination(ctx, tenantID, filter, limit, offset)
	}

	items, total, err := s.repo.ListWithPagination(ctx, tenantID, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	allowed := make(map[string]bool, len(visible))
	for _, c := range visible {
		allowed[c] = true
	}
	filtered := items[:0]
	for _, in := range items {
		if allowed[in.Category] {
			filtered = append(filtered, in)
		} else {
			total--
		}
	}
	return filtered, total, nil
}

var statusOrder = map[string][]string{
	StatusOpen:       {StatusInProgress, StatusClosed},
	StatusInProgress: {StatusClosed, StatusOpen},
}

func (s *service) UpdateStatus(ctx context.Context, actor auth.Actor, tenantID, id, status string) (*Incident, error) {
	in, err := s.GetByID(ctx, actor, tenantID, id)
	if err != nil {
		return nil, err
	}

	ok := false
	for _, next := range statusOrder[in.Status] {
		if next == status {
			ok = true
			break
		}
	}
	if !ok {
		return nil, errors.Conflict(fmt.Sprintf("Cannot move incident from %s to %s", in.Status, status))
	}

	in.Status = status
	in.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *service) Reassign(ctx context.Context, actor auth.Actor, tenantID, id string, assigneeID int64) (*Incident, error) {
	in, err := s.GetByID(ctx, actor, tenantID, id)
	if err != nil {
		return nil, err
	}
	if in.Status == StatusClosed {
		return nil, errors.Conflict("Closed incidents cannot be reassigned")
	}

	target, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	if target.TenantID != tenantID {
		return nil, errors.ValidationError("Assignee belongs to another tenant", nil)
	}
	if !rbac.CanAccess(target.Role, in.Category) {
		return nil, errors.ValidationError(
			fmt.Sprintf("Role %s cannot work %s incidents", target.Role, in.Category), nil)
	}

	in.AssignedTo = assigneeID
	in.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}
