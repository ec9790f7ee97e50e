package connector

import (
	"context"
	"time"

	"github.com/pratik-mahalle/sentrydesk/internal/domain/intake"
)

// EmailConnector polls a mailbox gateway that exposes alert emails as JSON.
type EmailConnector struct {
	feed
}

// NewEmailConnector creates an unconfigured email connector.
func NewEmailConnector() *EmailConnector { return &EmailConnector{} }

func (c *EmailConnector) Name() string { return intake.SourceEmail }

func (c *EmailConnector) Initialize(settings map[string]string) error {
	return c.init(intake.SourceEmail, settings)
}

func (c *EmailConnector) TestConnection(ctx context.Context) error {
	return c.testConnection(ctx)
}

type emailWire struct {
	MessageID  string `json:"message_id"`
	From       string `json:"from"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	ReceivedAt string `json:"received_at"`
}

func (c *EmailConnector) Poll(ctx context.Context, since time.Time) ([]*intake.Record, error) {
	var wire []emailWire
	if err := c.fetch(ctx, since, &wire); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	records := make([]*intake.Record, 0, len(wire))
	for _, w := range wire {
		records = append(records, &intake.Record{
			TenantID:     c.tenantID,
			SourceSystem: intake.SourceEmail,
			SourceID:     w.MessageID,
			ReceivedAt:   now,
			DetectedAt:   eventTime(w.ReceivedAt, now),
			Email: &intake.EmailPayload{
				From:    w.From,
				Subject: w.Subject,
				Body:    w.Body,
			},
		})
	}
	return records, nil
}

// EDRConnector polls an endpoint detection agent fleet API.
type EDRConnector struct {
	feed
}

// NewEDRConnector creates an unconfigured EDR connector.
func NewEDRConnector() *EDRConnector { return &EDRConnector{} }

func (c *EDRConnector) Name() string { return intake.SourceEDR }

func (c *EDRConnector) Initialize(settings map[string]string) error {
	return c.init(intake.SourceEDR, settings)
}

func (c *EDRConnector) TestConnection(ctx context.Context) error {
	return c.testConnection(ctx)
}

type edrWire struct {
	EventID    string            `json:"event_id"`
	EventType  string            `json:"event_type"`
	Severity   string            `json:"severity"`
	Hostname   string            `json:"hostname"`
	Serial     string            `json:"serial"`
	Process    string            `json:"process"`
	FileHash   string            `json:"file_hash"`
	Username   string            `json:"username"`
	Detail     string            `json:"detail"`
	Fields     map[string]string `json:"fields"`
	DetectedAt string            `json:"detected_at"`
}

func (c *EDRConnector) Poll(ctx context.Context, since time.Time) ([]*intake.Record, error) {
	var wire []edrWire
	if err := c.fetch(ctx, since, &wire); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	records := make([]*intake.Record, 0, len(wire))
	for _, w := range wire {
		records = append(records, &intake.Record{
			TenantID:     c.tenantID,
			SourceSystem: intake.SourceEDR,
			SourceID:     w.EventID,
			ReceivedAt:   now,
			DetectedAt:   eventTime(w.DetectedAt, now),
			EDR: &intake.EDRPayload{
				EventType: w.EventType,
				Severity:  w.Severity,
				Hostname:  w.Hostname,
				Serial:    w.Serial,
				Process:   w.Process,
				FileHash:  w.FileHash,
				Username:  w.Username,
				Detail:    w.Detail,
				Fields:    w.Fields,
			},
		})
	}
	return records, nil
}

// FirewallConnector polls a firewall management API for log events.
type FirewallConnector struct {
	feed
}

// NewFirewallConnector creates an unconfigured firewall connector.
func NewFirewallConnector() *FirewallConnector { return &FirewallConnector{} }

func (c *FirewallConnector) Name() string { return intake.SourceFirewall }

func (c *FirewallConnector) Initialize(settings map[string]string) error {
	return c.init(intake.SourceFirewall, settings)
}

func (c *FirewallConnector) TestConnection(ctx context.Context) error {
	return c.testConnection(ctx)
}

type firewallWire struct {
	LogID     string            `json:"log_id"`
	EventType string            `json:"event_type"`
	Severity  int               `json:"severity"`
	DeviceIP  string            `json:"device_ip"`
	SourceIP  string            `json:"source_ip"`
	DestIP    string            `json:"dest_ip"`
	Rule      string            `json:"rule"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields"`
	LoggedAt  string            `json:"logged_at"`
}

func (c *FirewallConnector) Poll(ctx context.Context, since time.Time) ([]*intake.Record, error) {
	var wire []firewallWire
	if err := c.fetch(ctx, since, &wire); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	records := make([]*intake.Record, 0, len(wire))
	for _, w := range wire {
		records = append(records, &intake.Record{
			TenantID:     c.tenantID,
			SourceSystem: intake.SourceFirewall,
			SourceID:     w.LogID,
			ReceivedAt:   now,
			DetectedAt:   eventTime(w.LoggedAt, now),
			Firewall: &intake.FirewallPayload{
				EventType: w.EventType,
				Severity:  w.Severity,
				DeviceIP:  w.DeviceIP,
				SourceIP:  w.SourceIP,
				DestIP:    w.DestIP,
				Rule:      w.Rule,
				Message:   w.Message,
				Fields:    w.Fields,
			},
		})
	}
	return records, nil
}

// SIEMConnector polls a SIEM findings export API.
type SIEMConnector struct {
	feed
}

// NewSIEMConnector creates an unconfigured SIEM connector.
func NewSIEMConnector() *SIEMConnector { return &SIEMConnector{} }

func (c *SIEMConnector) Name() string { return intake.SourceSIEM }

func (c *SIEMConnector) Initialize(settings map[string]string) error {
	return c.init(intake.SourceSIEM, settings)
}

func (c *SIEMConnector) TestConnection(ctx context.Context) error {
	return c.testConnection(ctx)
}

type siemWire struct {
	FindingID  string            `json:"finding_id"`
	RuleName   string            `json:"rule_name"`
	Severity   string            `json:"severity"`
	Entity     string            `json:"entity"`
	SourceIPs  []string          `json:"source_ips"`
	Users      []string          `json:"users"`
	Domains    []string          `json:"domains"`
	Hashes     []string          `json:"hashes"`
	Summary    string            `json:"summary"`
	Fields     map[string]string `json:"fields"`
	DetectedAt string            `json:"detected_at"`
}

func (c *SIEMConnector) Poll(ctx context.Context, since time.Time) ([]*intake.Record, error) {
	var wire []siemWire
	if err := c.fetch(ctx, since, &wire); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	records := make([]*intake.Record, 0, len(wire))
	for _, w := range wire {
		records = append(records, &intake.Record{
			TenantID:     c.tenantID,
			SourceSystem: intake.SourceSIEM,
			SourceID:     w.FindingID,
			ReceivedAt:   now,
			DetectedAt:   eventTime(w.DetectedAt, now),
			SIEM: &intake.SIEMPayload{
				RuleName:  w.RuleName,
				Severity:  w.Severity,
				Entity:    w.Entity,
				SourceIPs: w.SourceIPs,
				Users:     w.Users,
				Domains:   w.Domains,
				Hashes:    w.Hashes,
				Summary:   w.Summary,
				Fields:    w.Fields,
			},
		})
	}
	return records, nil
}
