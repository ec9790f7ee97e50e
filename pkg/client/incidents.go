package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// IncidentService handles incident management API calls
type IncidentService struct {
	client *Client
}

// IncidentListOptions contains options for listing incidents
type IncidentListOptions struct {
	ListOptions
	Severity string
	Priority string
	Category string
	Status   string
}

// List retrieves a page of incidents
func (s *IncidentService) List(ctx context.Context, opts *IncidentListOptions) (*Page[Incident], error) {
	query := url.Values{}

	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.Severity != "" {
			query.Set("severity", opts.Severity)
		}
		if opts.Priority != "" {
			query.Set("priority", opts.Priority)
		}
		if opts.Category != "" {
			query.Set("category", opts.Category)
		}
		if opts.Status != "" {
			query.Set("status", opts.Status)
		}
	}

	path := "/api/v1/incidents"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page Page[Incident]
	if err := s.client.doRequest(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// Get retrieves a single incident by ID
func (s *IncidentService) Get(ctx context.Context, id string) (*Incident, error) {
	path := fmt.Sprintf("/api/v1/incidents/%s", id)

	var incident Incident
	if err := s.client.doRequest(ctx, "GET", path, nil, &incident); err != nil {
		return nil, err
	}

	return &incident, nil
}

// UpdateStatus moves an incident to a new status
func (s *IncidentService) UpdateStatus(ctx context.Context, id, status string) (*Incident, error) {
	path := fmt.Sprintf("/api/v1/incidents/%s/status", id)
	req := map[string]string{"status": status}

	var incident Incident
	if err := s.client.doRequest(ctx, "PUT", path, req, &incident); err != nil {
		return nil, err
	}

	return &incident, nil
}

// Reassign hands an incident to another analyst
func (s *IncidentService) Reassign(ctx context.Context, id string, assigneeID int64) (*Incident, error) {
	path := fmt.Sprintf("/api/v1/incidents/%s/assignee", id)
	req := map[string]int64{"assigneeId": assigneeID}

	var incident Incident
	if err := s.client.doRequest(ctx, "PUT", path, req, &incident); err != nil {
		return nil, err
	}

	return &incident, nil
}
