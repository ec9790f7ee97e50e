package client

import "time"

// Alert represents a triaged alert
type Alert struct {
	ID               string                 `json:"id"`
	SourceSystem     string                 `json:"sourceSystem"`
	AlertType        string                 `json:"alertType"`
	Classification   string                 `json:"classification"`
	Category         string                 `json:"category"`
	Severity         string                 `json:"severity"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	DeviceIdentifier string                 `json:"deviceIdentifier,omitempty"`
	Indicators       []string               `json:"indicators,omitempty"`
	SeenCount        int                    `json:"seenCount"`
	CorrelationID    string                 `json:"correlationId,omitempty"`
	Status           string                 `json:"status"`
	AssignedTo       int64                  `json:"assignedTo,omitempty"`
	Resolution       string                 `json:"resolution,omitempty"`
	ResolutionNotes  string                 `json:"resolutionNotes,omitempty"`
	IncidentID       string                 `json:"incidentId,omitempty"`
	FirstSeenAt      time.Time              `json:"firstSeenAt"`
	LastSeenAt       time.Time              `json:"lastSeenAt"`
	Guidance         *Guidance              `json:"guidance,omitempty"`
}

// Guidance carries advisory playbook text attached to an alert view
type Guidance struct {
	PlaybookID           string `json:"playbookId"`
	PlaybookName         string `json:"playbookName"`
	EscalateToIncident   string `json:"escalateToIncident,omitempty"`
	ResolveBenign        string `json:"resolveBenign,omitempty"`
	ResolveFalsePositive string `json:"resolveFalsePositive,omitempty"`
}

// Transition represents one audit trail entry of an alert
type Transition struct {
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	ActorID    int64     `json:"actorId"`
	Note       string    `json:"note,omitempty"`
	At         time.Time `json:"at"`
}

// Incident represents an escalated incident
type Incident struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Severity      string    `json:"severity"`
	Priority      string    `json:"priority"`
	Category      string    `json:"category"`
	SourceAlertID string    `json:"sourceAlertId"`
	AssignedTo    int64     `json:"assignedTo,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

// Playbook represents a resolution playbook
type Playbook struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Version   int                  `json:"version"`
	Status    string               `json:"status"`
	Purpose   string               `json:"purpose,omitempty"`
	Guidance  PlaybookGuidance     `json:"decisionGuidance"`
	Links     []ClassificationLink `json:"classifications,omitempty"`
	CreatedBy int64                `json:"createdBy"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt,omitempty"`
}

// PlaybookGuidance carries advisory text per resolution outcome
type PlaybookGuidance struct {
	EscalateToIncident   string `json:"escalateToIncident,omitempty"`
	ResolveBenign        string `json:"resolveBenign,omitempty"`
	ResolveFalsePositive string `json:"resolveFalsePositive,omitempty"`
}

// ClassificationLink ties a playbook to an alert classification
type ClassificationLink struct {
	Classification string `json:"classification"`
	IsPrimary      bool   `json:"isPrimary"`
}

// Cluster represents a correlation cluster
type Cluster struct {
	CorrelationID    string    `json:"correlationId"`
	AlertIDs         []string  `json:"alertIds"`
	SharedIndicators []string  `json:"sharedIndicators"`
	Confidence       float64   `json:"confidence"`
	WindowStart      time.Time `json:"windowStart"`
	WindowEnd        time.Time `json:"windowEnd"`
}

// Page is the pagination wrapper list endpoints return
type Page[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// ListOptions contains common pagination options
type ListOptions struct {
	Page     int
	PageSize int
}
