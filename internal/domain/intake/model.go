// Package intake defines the raw records source connectors deliver to the
// triage pipeline. Each source system carries its own strongly-typed payload;
// the SourceSystem field is the discriminator.
package intake

import "time"

// Source systems
const (
	SourceEmail    = "email"
	SourceEDR      = "edr"
	SourceFirewall = "firewall"
	SourceSIEM     = "siem"
)

// Record is one raw intake record from a source connector.
// Exactly one of the payload fields matching SourceSystem is set.
type Record struct {
	TenantID     string
	SourceSystem string
	// SourceID is the source's stable native id for the event, when the
	// source provides one.
	SourceID   string
	ReceivedAt time.Time
	DetectedAt time.Time

	Email    *EmailPayload
	EDR      *EDRPayload
	Firewall *FirewallPayload
	SIEM     *SIEMPayload
}

// EmailPayload is an inbound alert email.
type EmailPayload struct {
	From    string
	Subject string
	Body    string
}

// EDRPayload is a structured event from an endpoint agent.
type EDRPayload struct {
	EventType string
	Severity  string
	Hostname  string
	Serial    string
	Process   string
	FileHash  string
	Username  string
	Detail    string
	Fields    map[string]string
}

// FirewallPayload is a structured event from a firewall.
type FirewallPayload struct {
	EventType string
	Severity  int // vendor numeric severity, 0 when absent
	DeviceIP  string
	SourceIP  string
	DestIP    string
	Rule      string
	Message   string
	Fields    map[string]string
}

// SIEMPayload is a normalized finding from a SIEM feed.
type SIEMPayload struct {
	RuleName  string
	Severity  string
	Entity    string
	SourceIPs []string
	Users     []string
	Domains   []string
	Hashes    []string
	Summary   string
	Fields    map[string]string
}
