package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// AlertService handles alert triage API calls
type AlertService struct {
	client *Client
}

// AlertListOptions contains options for listing alerts
type AlertListOptions struct {
	ListOptions
	Source         string
	Type           string
	Classification string
	Severity       string
	Status         string
}

// IngestRecordRequest submits a raw source event for classification. The
// payload field matching SourceSystem must be set.
type IngestRecordRequest struct {
	SourceSystem string                 `json:"sourceSystem"`
	SourceID     string                 `json:"sourceId,omitempty"`
	DetectedAt   *time.Time             `json:"detectedAt,omitempty"`
	Email        map[string]interface{} `json:"email,omitempty"`
	EDR          map[string]interface{} `json:"edr,omitempty"`
	Firewall     map[string]interface{} `json:"firewall,omitempty"`
	SIEM         map[string]interface{} `json:"siem,omitempty"`
}

// IngestResult reports what ingestion did with a record
type IngestResult struct {
	AlertID   string `json:"alertId"`
	Created   bool   `json:"created"`
	SeenCount int    `json:"seenCount"`
}

// ResolveAlertRequest closes an alert with an outcome
type ResolveAlertRequest struct {
	Outcome string `json:"outcome"` // benign, false_positive
	Notes   string `json:"notes"`
}

// List retrieves a page of alerts
func (s *AlertService) List(ctx context.Context, opts *AlertListOptions) (*Page[Alert], error) {
	query := url.Values{}

	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.Source != "" {
			query.Set("source", opts.Source)
		}
		if opts.Type != "" {
			query.Set("type", opts.Type)
		}
		if opts.Classification != "" {
			query.Set("classification", opts.Classification)
		}
		if opts.Severity != "" {
			query.Set("severity", opts.Severity)
		}
		if opts.Status != "" {
			query.Set("status", opts.Status)
		}
	}

	path := "/api/v1/alerts"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page Page[Alert]
	if err := s.client.doRequest(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// Get retrieves a single alert with its playbook guidance
func (s *AlertService) Get(ctx context.Context, id string) (*Alert, error) {
	path := fmt.Sprintf("/api/v1/alerts/%s", id)

	var alert Alert
	if err := s.client.doRequest(ctx, "GET", path, nil, &alert); err != nil {
		return nil, err
	}

	return &alert, nil
}

// Summary retrieves alert counts by status
func (s *AlertService) Summary(ctx context.Context) (map[string]int, error) {
	var summary map[string]int
	if err := s.client.doRequest(ctx, "GET", "/api/v1/alerts/summary", nil, &summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// History retrieves the audit trail of an alert
func (s *AlertService) History(ctx context.Context, id string) ([]Transition, error) {
	path := fmt.Sprintf("/api/v1/alerts/%s/history", id)

	var history []Transition
	if err := s.client.doRequest(ctx, "GET", path, nil, &history); err != nil {
		return nil, err
	}

	return history, nil
}

// Ingest submits a raw source event into the triage pipeline
func (s *AlertService) Ingest(ctx context.Context, req IngestRecordRequest) (*IngestResult, error) {
	var result IngestResult
	if err := s.client.doRequest(ctx, "POST", "/api/v1/alerts/ingest", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Investigate moves an alert to the investigating state
func (s *AlertService) Investigate(ctx context.Context, id string) (*Alert, error) {
	path := fmt.Sprintf("/api/v1/alerts/%s/investigate", id)

	var alert Alert
	if err := s.client.doRequest(ctx, "POST", path, nil, &alert); err != nil {
		return nil, err
	}

	return &alert, nil
}

// Resolve closes an alert with an outcome and analyst notes
func (s *AlertService) Resolve(ctx context.Context, id string, req ResolveAlertRequest) (*Alert, error) {
	path := fmt.Sprintf("/api/v1/alerts/%s/resolve", id)

	var alert Alert
	if err := s.client.doRequest(ctx, "POST", path, req, &alert); err != nil {
		return nil, err
	}

	return &alert, nil
}

// EscalateAlertRequest promotes an alert to an incident. Title and
// description override the alert's own when set.
type EscalateAlertRequest struct {
	IncidentTitle       string `json:"incidentTitle,omitempty"`
	IncidentDescription string `json:"incidentDescription,omitempty"`
	Note                string `json:"note,omitempty"`
}

// Escalate promotes an alert to an incident
func (s *AlertService) Escalate(ctx context.Context, id string, req EscalateAlertRequest) (*Incident, error) {
	path := fmt.Sprintf("/api/v1/alerts/%s/escalate", id)

	var body interface{}
	if req != (EscalateAlertRequest{}) {
		body = req
	}

	var incident Incident
	if err := s.client.doRequest(ctx, "POST", path, body, &incident); err != nil {
		return nil, err
	}

	return &incident, nil
}
