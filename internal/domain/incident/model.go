package incident

import "time"

// Incident is a tracked ticket created exclusively by alert escalation.
type Incident struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Severity      string    `json:"severity"`
	Priority      string    `json:"priority"`
	Category      string    `json:"category"`
	SourceAlertID string    `json:"source_alert_id"`
	AssignedTo    int64     `json:"assigned_to,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// Priority levels
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Incident status
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusClosed     = "closed"
)

// PriorityForSeverity maps an alert severity to an incident priority.
// Critical maps to urgent; info has no dedicated tier and maps to low.
func PriorityForSeverity(severity string) string {
	switch severity {
	case "critical":
		return PriorityUrgent
	case "high":
		return PriorityHigh
	case "medium":
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Filter contains incident filtering options
type Filter struct {
	Severity   string
	Priority   string
	Category   string
	Status     string
	AssignedTo int64
}
