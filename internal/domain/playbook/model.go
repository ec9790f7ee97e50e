package playbook

import "time"

// Playbook is a named, versioned set of resolution guidance for analysts.
type Playbook struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	Status    string    `json:"status"`
	Purpose   string    `json:"purpose,omitempty"`
	Guidance  Guidance  `json:"decision_guidance"`
	CreatedBy int64     `json:"created_by"`
	TenantID  string    `json:"tenant_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Guidance carries advisory text per resolution outcome. It never constrains
// which outcome an analyst may choose.
type Guidance struct {
	EscalateToIncident   string `json:"escalate_to_incident,omitempty"`
	ResolveBenign        string `json:"resolve_benign,omitempty"`
	ResolveFalsePositive string `json:"resolve_false_positive,omitempty"`
}

// Playbook status
const (
	StatusDraft   = "draft"
	StatusActive  = "active"
	StatusRetired = "retired"
)

// ClassificationLink ties a playbook to an alert classification. For any
// classification at most one primary link may reference an active playbook.
type ClassificationLink struct {
	PlaybookID     string `json:"playbook_id"`
	Classification string `json:"classification"`
	IsPrimary      bool   `json:"is_primary"`
}
