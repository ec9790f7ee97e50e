package dto

import "time"

// AlertDTO represents an alert in API responses
type AlertDTO struct {
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
	Guidance         *GuidanceDTO           `json:"guidance,omitempty"`
}

// GuidanceDTO carries the advisory playbook text attached to an alert view.
type GuidanceDTO struct {
	PlaybookID           string `json:"playbookId"`
	PlaybookName         string `json:"playbookName"`
	EscalateToIncident   string `json:"escalateToIncident,omitempty"`
	ResolveBenign        string `json:"resolveBenign,omitempty"`
	ResolveFalsePositive string `json:"resolveFalsePositive,omitempty"`
}

// ResolveAlertRequest represents an alert resolution request
type ResolveAlertRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=benign false_positive"`
	Notes   string `json:"notes" validate:"required"`
}

// EscalateAlertRequest represents an alert escalation request. Title and
// description override the alert's own when set.
type EscalateAlertRequest struct {
	IncidentTitle       string `json:"incidentTitle,omitempty"`
	IncidentDescription string `json:"incidentDescription,omitempty"`
	Note                string `json:"note,omitempty"`
}

// TransitionDTO represents one audit trail entry
type TransitionDTO struct {
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	ActorID    int64     `json:"actorId"`
	Note       string    `json:"note,omitempty"`
	At         time.Time `json:"at"`
}

// ClusterDTO represents a correlation cluster in API responses
type ClusterDTO struct {
	CorrelationID    string    `json:"correlationId"`
	AlertIDs         []string  `json:"alertIds"`
	SharedIndicators []string  `json:"sharedIndicators"`
	Confidence       float64   `json:"confidence"`
	WindowStart      time.Time `json:"windowStart"`
	WindowEnd        time.Time `json:"windowEnd"`
}

// IngestRecordRequest is a manually submitted intake record. The payload
// field matching sourceSystem must be present.
type IngestRecordRequest struct {
	SourceSystem string              `json:"sourceSystem" validate:"required,oneof=email edr firewall siem"`
	SourceID     string              `json:"sourceId,omitempty"`
	DetectedAt   *time.Time          `json:"detectedAt,omitempty"`
	Email        *EmailPayloadDTO    `json:"email,omitempty"`
	EDR          *EDRPayloadDTO      `json:"edr,omitempty"`
	Firewall     *FirewallPayloadDTO `json:"firewall,omitempty"`
	SIEM         *SIEMPayloadDTO     `json:"siem,omitempty"`
}

// EmailPayloadDTO mirrors an inbound alert email
type EmailPayloadDTO struct {
	From    string `json:"from"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body"`
}

// EDRPayloadDTO mirrors a structured EDR event
type EDRPayloadDTO struct {
	EventType string            `json:"eventType" validate:"required"`
	Severity  string            `json:"severity,omitempty"`
	Hostname  string            `json:"hostname,omitempty"`
	Serial    string            `json:"serial,omitempty"`
	Process   string            `json:"process,omitempty"`
	FileHash  string            `json:"fileHash,omitempty"`
	Username  string            `json:"username,omitempty"`
	Detail    string            `json:"detail,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// FirewallPayloadDTO mirrors a structured firewall event
type FirewallPayloadDTO struct {
	EventType string            `json:"eventType" validate:"required"`
	Severity  int               `json:"severity,omitempty"`
	DeviceIP  string            `json:"deviceIp,omitempty"`
	SourceIP  string            `json:"sourceIp,omitempty"`
	DestIP    string            `json:"destIp,omitempty"`
	Rule      string            `json:"rule,omitempty"`
	Message   string            `json:"message,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// SIEMPayloadDTO mirrors a normalized SIEM finding
type SIEMPayloadDTO struct {
	RuleName  string            `json:"ruleName" validate:"required"`
	Severity  string            `json:"severity,omitempty"`
	Entity    string            `json:"entity,omitempty"`
	SourceIPs []string          `json:"sourceIps,omitempty"`
	Users     []string          `json:"users,omitempty"`
	Domains   []string          `json:"domains,omitempty"`
	Hashes    []string          `json:"hashes,omitempty"`
	Summary   string            `json:"summary,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// IngestResultDTO reports what ingestion did with a record
type IngestResultDTO struct {
	AlertID   string `json:"alertId"`
	Created   bool   `json:"created"`
	SeenCount int    `json:"seenCount"`
}
