package playbook

import "context"

// Repository defines the interface for playbook data access
type Repository interface {
	// Create persists a new playbook
	Create(ctx context.Context, p *Playbook) error

	// GetByID retrieves a playbook by ID within a tenant
	GetByID(ctx context.Context, tenantID, id string) (*Playbook, error)

	// Update persists changes to a playbook
	Update(ctx context.Context, p *Playbook) error

	// Delete removes a playbook and its classification links
	Delete(ctx context.Context, tenantID, id string) error

	// List retrieves all playbooks in a tenant
	List(ctx context.Context, tenantID string) ([]*Playbook, error)

	// LinksForPlaybook returns the classification links of a playbook
	LinksForPlaybook(ctx context.Context, playbookID string) ([]*ClassificationLink, error)

	// ReplaceLinks replaces the classification links of a playbook
	ReplaceLinks(ctx context.Context, playbookID string, links []*ClassificationLink) error

	// ActivePrimary finds the active playbook linked as primary for a
	// classification, or nil when none exists
	ActivePrimary(ctx context.Context, tenantID, classification string) (*Playbook, error)
}
