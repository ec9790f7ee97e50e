package alert

import (
	"fmt"
	"time"
)

// Alert is the canonical normalized record every source feeds into.
type Alert struct {
	ID               string                 `json:"id"`
	TenantID         string                 `json:"tenant_id"`
	SourceSystem     string                 `json:"source_system"`
	SourceID         string                 `json:"source_id,omitempty"`
	AlertType        string                 `json:"alert_type"`
	Classification   string                 `json:"classification"`
	Severity         string                 `json:"severity"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	DeviceIdentifier string                 `json:"device_identifier,omitempty"`
	Indicators       []string               `json:"indicators,omitempty"`
	SeenCount        int                    `json:"seen_count"`
	CorrelationID    string                 `json:"correlation_id,omitempty"`
	Status           string                 `json:"status"`
	AssignedTo       int64                  `json:"assigned_to,omitempty"`
	Resolution       string                 `json:"resolution,omitempty"`
	ResolutionNotes  string                 `json:"resolution_notes,omitempty"`
	IncidentID       string                 `json:"incident_id,omitempty"`
	FirstSeenAt      time.Time              `json:"first_seen_at"`
	LastSeenAt       time.Time              `json:"last_seen_at"`
	DetectedAt       time.Time              `json:"detected_at"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at,omitempty"`
}

// Source systems
const (
	SourceEmail    = "email"
	SourceEDR      = "edr"
	SourceFirewall = "firewall"
	SourceSIEM     = "siem"
)

// Severity levels
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"
)

// Lifecycle states. NEW is initial; the three resolved/escalated states are
// terminal and an alert never leaves them.
const (
	StatusNew                   = "new"
	StatusAssigned              = "assigned"
	StatusInvestigating         = "investigating"
	StatusResolvedBenign        = "resolved_benign"
	StatusResolvedFalsePositive = "resolved_false_positive"
	StatusEscalated             = "escalated"
)

// Resolution outcomes
const (
	OutcomeBenign        = "benign"
	OutcomeFalsePositive = "false_positive"
)

// IsTerminal reports whether the status is a terminal lifecycle state.
func IsTerminal(status string) bool {
	switch status {
	case StatusResolvedBenign, StatusResolvedFalsePositive, StatusEscalated:
		return true
	}
	return false
}

// Fingerprint identifies repeated deliveries of the same underlying event.
// SourceID is folded in only when the source supplies a stable native id.
func (a *Alert) Fingerprint() string {
	return Fingerprint(a.TenantID, a.DeviceIdentifier, a.AlertType, a.SourceID)
}

// Fingerprint builds the dedup key for a (tenant, device, type) tuple.
func Fingerprint(tenantID, deviceIdentifier, alertType, sourceID string) string {
	key := fmt.Sprintf("%s|%s|%s", tenantID, deviceIdentifier, alertType)
	if sourceID != "" {
		key += "|" + sourceID
	}
	return key
}

// Filter contains alert filtering options
type Filter struct {
	SourceSystem   string
	AlertType      string
	Classification string
	Severity       string
	Status         string
	AssignedTo     int64
	CorrelationID  string
}
