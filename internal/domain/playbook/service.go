package playbook

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pratik-mahalle/sentrydesk/internal/auth"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/user"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
)

// Service defines the business logic for playbooks. Create, update, activate
// and delete are gated to super_admin; reads are open to any authenticated
// role.
type Service interface {
	// Create creates a new playbook with its classification links
	Create(ctx context.Context, actor auth.Actor, p *Playbook, links []*ClassificationLink) (string, error)

	// Update updates a playbook's guidance and links
	Update(ctx context.Context, actor auth.Actor, p *Playbook, links []*ClassificationLink) error

	// Activate transitions a playbook from draft to active, enforcing the
	// one-active-primary-per-classification invariant
	Activate(ctx context.Context, actor auth.Actor, tenantID, id string) error

	// Retire transitions a playbook to retired
	Retire(ctx context.Context, actor auth.Actor, tenantID, id string) error

	// Delete removes a playbook
	Delete(ctx context.Context, actor auth.Actor, tenantID, id string) error

	// Get retrieves a playbook with its links
	Get(ctx context.Context, tenantID, id string) (*Playbook, []*ClassificationLink, error)

	// List retrieves all playbooks in a tenant
	List(ctx context.Context, tenantID string) ([]*Playbook, error)

	// Resolve returns the guidance of the active primary playbook for a
	// classification, or nil when none is linked
	Resolve(ctx context.Context, tenantID, classification string) (*Playbook, error)
}

type service struct {
	repo Repository
}

// NewService creates a new playbook service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, actor auth.Actor, p *Playbook, links []*ClassificationLink) (string, error) {
	if err := requireAuthor(actor); err != nil {
		return "", err
	}

	p.ID = uuid.NewString()
	p.Version = 1
	p.Status = StatusDraft
	p.CreatedBy = actor.UserID
	p.CreatedAt = time.Now().UTC()

	if err := s.repo.Create(ctx, p); err != nil {
		return "", err
	}
	if len(links) > 0 {
		for _, l := range links {
			l.PlaybookID = p.ID
		}
		if err := s.repo.ReplaceLinks(ctx, p.ID, links); err != nil {
			return "", err
		}
	}
	return p.ID, nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, p *Playbook, links []*ClassificationLink) error {
	if err := requireAuthor(actor); err != nil {
		return err
	}

	existing, err := s.repo.GetByID(ctx, p.TenantID, p.ID)
	if err != nil {
		return err
	}
	if existing.Status == StatusRetired {
		return errors.Conflict("Retired playbooks cannot be edited")
	}

	existing.Name = p.Name
	existing.Purpose = p.Purpose
	existing.Guidance = p.Guidance
	existing.Version++
	existing.UpdatedAt = time.Now().UTC()

	if links != nil {
		for _, l := range links {
			l.PlaybookID = existing.ID
		}
		if existing.Status == StatusActive {
			if err := s.checkPrimaryUnique(ctx, existing, links); err != nil {
				return err
			}
		}
		if err := s.repo.ReplaceLinks(ctx, existing.ID, links); err != nil {
			return err
		}
	}
	return s.repo.Update(ctx, existing)
}

func (s *service) Activate(ctx context.Context, actor auth.Actor, tenantID, id string) error {
	if err := requireAuthor(actor); err != nil {
		return err
	}

	p, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if p.Status == StatusActive {
		return nil
	}
	if p.Status == StatusRetired {
		return errors.Conflict("Retired playbooks cannot be reactivated")
	}

	links, err := s.repo.LinksForPlaybook(ctx, p.ID)
	if err != nil {
		return err
	}
	if err := s.checkPrimaryUnique(ctx, p, links); err != nil {
		return err
	}

	p.Status = StatusActive
	p.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, p)
}

func (s *service) Retire(ctx context.Context, actor auth.Actor, tenantID, id string) error {
	if err := requireAuthor(actor); err != nil {
		return err
	}

	p, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if p.Status == StatusRetired {
		return nil
	}

	p.Status = StatusRetired
	p.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, p)
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, tenantID, id string) error {
	if err := requireAuthor(actor); err != nil {
		return err
	}

	p, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if p.Status == StatusActive {
		return errors.Conflict("Active playbooks must be retired before deletion")
	}
	return s.repo.Delete(ctx, tenantID, id)
}

func (s *service) Get(ctx context.Context, tenantID, id string) (*Playbook, []*ClassificationLink, error) {
	p, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	links, err := s.repo.LinksForPlaybook(ctx, p.ID)
	if err != nil {
		return nil, nil, err
	}
	return p, links, nil
}

func (s *service) List(ctx context.Context, tenantID string) ([]*Playbook, error) {
	return s.repo.List(ctx, tenantID)
}

func (s *service) Resolve(ctx context.Context, tenantID, classification string) (*Playbook, error) {
	return s.repo.ActivePrimary(ctx, tenantID, classification)
}

// checkPrimaryUnique rejects links that would give a classification a second
// active primary playbook.
func (s *service) checkPrimaryUnique(ctx context.Context, p *Playbook, links []*ClassificationLink) error {
	for _, l := range links {
		if !l.IsPrimary {
			continue
		}
		current, err := s.repo.ActivePrimary(ctx, p.TenantID, l.Classification)
		if err != nil {
			return err
		}
		if current != nil && current.ID != p.ID {
			return errors.Conflict(fmt.Sprintf(
				"Classification %s already has an active primary playbook (%s)",
				l.Classification, current.Name))
		}
	}
	return nil
}

func requireAuthor(actor auth.Actor) error {
	if actor.Role != user.RoleSuperAdmin {
		return errors.Permission("Only super administrators can manage playbooks")
	}
	return nil
}
