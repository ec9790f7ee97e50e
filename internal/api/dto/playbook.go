package dto

import "time"

// PlaybookDTO represents a playbook in API responses
type PlaybookDTO struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Version   int                     `json:"version"`
	Status    string                  `json:"status"`
	Purpose   string                  `json:"purpose,omitempty"`
	Guidance  PlaybookGuidanceDTO     `json:"decisionGuidance"`
	Links     []ClassificationLinkDTO `json:"classifications,omitempty"`
	CreatedBy int64                   `json:"createdBy"`
	CreatedAt time.Time               `json:"createdAt"`
	UpdatedAt time.Time               `json:"updatedAt,omitempty"`
}

// PlaybookGuidanceDTO carries advisory text per resolution outcome
type PlaybookGuidanceDTO struct {
	EscalateToIncident   string `json:"escalateToIncident,omitempty"`
	ResolveBenign        string `json:"resolveBenign,omitempty"`
	ResolveFalsePositive string `json:"resolveFalsePositive,omitempty"`
}

// ClassificationLinkDTO ties a playbook to an alert classification
type ClassificationLinkDTO struct {
	Classification string `json:"classification" validate:"required"`
	IsPrimary      bool   `json:"isPrimary"`
}

// CreatePlaybookRequest represents a playbook creation request
type CreatePlaybookRequest struct {
	Name     string                  `json:"name" validate:"required,min=3,max=120"`
	Purpose  string                  `json:"purpose,omitempty"`
	Guidance PlaybookGuidanceDTO     `json:"decisionGuidance"`
	Links    []ClassificationLinkDTO `json:"classifications,omitempty" validate:"dive"`
}

// UpdatePlaybookRequest represents a playbook update request
type UpdatePlaybookRequest struct {
	Name     string                  `json:"name" validate:"required,min=3,max=120"`
	Purpose  string                  `json:"purpose,omitempty"`
	Guidance PlaybookGuidanceDTO     `json:"decisionGuidance"`
	Links    []ClassificationLinkDTO `json:"classifications,omitempty" validate:"dive"`
}
