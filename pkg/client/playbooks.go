package client

import (
	"context"
	"fmt"
)

// PlaybookService handles playbook management API calls
type PlaybookService struct {
	client *Client
}

// CreatePlaybookRequest represents a playbook creation request
type CreatePlaybookRequest struct {
	Name     string               `json:"name"`
	Purpose  string               `json:"purpose,omitempty"`
	Guidance PlaybookGuidance     `json:"decisionGuidance"`
	Links    []ClassificationLink `json:"classifications,omitempty"`
}

// UpdatePlaybookRequest represents a playbook update request
type UpdatePlaybookRequest struct {
	Name     string               `json:"name"`
	Purpose  string               `json:"purpose,omitempty"`
	Guidance PlaybookGuidance     `json:"decisionGuidance"`
	Links    []ClassificationLink `json:"classifications,omitempty"`
}

// List retrieves all playbooks in the tenant
func (s *PlaybookService) List(ctx context.Context) ([]Playbook, error) {
	var playbooks []Playbook
	if err := s.client.doRequest(ctx, "GET", "/api/v1/playbooks", nil, &playbooks); err != nil {
		return nil, err
	}
	return playbooks, nil
}

// Get retrieves a single playbook with its classification links
func (s *PlaybookService) Get(ctx context.Context, id string) (*Playbook, error) {
	path := fmt.Sprintf("/api/v1/playbooks/%s", id)

	var playbook Playbook
	if err := s.client.doRequest(ctx, "GET", path, nil, &playbook); err != nil {
		return nil, err
	}

	return &playbook, nil
}

// Create creates a new draft playbook and returns its id
func (s *PlaybookService) Create(ctx context.Context, req CreatePlaybookRequest) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := s.client.doRequest(ctx, "POST", "/api/v1/playbooks", req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Update revises a playbook, bumping its version
func (s *PlaybookService) Update(ctx context.Context, id string, req UpdatePlaybookRequest) error {
	path := fmt.Sprintf("/api/v1/playbooks/%s", id)
	return s.client.doRequest(ctx, "PUT", path, req, nil)
}

// Activate makes a playbook live
func (s *PlaybookService) Activate(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/v1/playbooks/%s/activate", id)
	return s.client.doRequest(ctx, "POST", path, nil, nil)
}

// Retire takes a playbook out of service
func (s *PlaybookService) Retire(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/v1/playbooks/%s/retire", id)
	return s.client.doRequest(ctx, "POST", path, nil, nil)
}

// Delete removes a non-active playbook
func (s *PlaybookService) Delete(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/v1/playbooks/%s", id)
	return s.client.doRequest(ctx, "DELETE", path, nil, nil)
}
