// Package classifier converts raw intake records into candidate normalized
// alerts using ordered pattern tables per source system.
package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/alert"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/intake"
	"github.com/pratik-mahalle/sentrydesk/internal/rbac"
)

// Fallback alert types for content no rule matches. Classification never
// rejects an intake record; unmatched content lands here at severity info.
const (
	FallbackEmailType   = "email_alert"
	FallbackGenericType = "generic_alert"
)

// Config tunes the classifier's severity tables.
type Config struct {
	// ExtraCriticalKeywords adds per-source tokens that classify as
	// critical, on top of the built-in tier tables.
	ExtraCriticalKeywords map[string][]string
}

// Classifier turns intake records into candidate alerts.
type Classifier struct {
	extraCritical map[string]*regexp.Regexp
}

// New creates a Classifier.
func New(cfg Config) *Classifier {
	c := &Classifier{extraCritical: make(map[string]*regexp.Regexp)}
	for source, tokens := range cfg.ExtraCriticalKeywords {
		if len(tokens) == 0 {
			continue
		}
		for i, t := range tokens {
			tokens[i] = regexp.QuoteMeta(strings.ToLower(t))
		}
		c.extraCritical[source] = regexp.MustCompile(`(?i)\b(` + strings.Join(tokens, "|") + `)\b`)
	}
	return c
}

// Classify converts a raw intake record into a candidate alert. The result
// is unpersisted; the dedup step decides whether it becomes a new record.
func (c *Classifier) Classify(rec *intake.Record) *alert.Alert {
	a := &alert.Alert{
		ID:           uuid.NewString(),
		TenantID:     rec.TenantID,
		SourceSystem: rec.SourceSystem,
		SourceID:     rec.SourceID,
		SeenCount:    1,
		Status:       alert.StatusNew,
		DetectedAt:   rec.DetectedAt,
		FirstSeenAt:  rec.ReceivedAt,
		LastSeenAt:   rec.ReceivedAt,
		Metadata:     map[string]interface{}{},
	}
	if a.DetectedAt.IsZero() {
		a.DetectedAt = rec.ReceivedAt
	}

	switch rec.SourceSystem {
	case intake.SourceEmail:
		c.classifyEmail(rec.Email, a)
	case intake.SourceEDR:
		c.classifyEDR(rec.EDR, a)
	case intake.SourceFirewall:
		c.classifyFirewall(rec.Firewall, a)
	case intake.SourceSIEM:
		c.classifySIEM(rec.SIEM, a)
	default:
		a.AlertType = FallbackGenericType
		a.Severity = alert.SeverityInfo
		a.Title = "Unrecognized alert"
	}

	a.Classification = a.AlertType
	if a.DeviceIdentifier == "" {
		a.DeviceIdentifier = "unknown"
	}
	return a
}

func (c *Classifier) classifyEmail(p *intake.EmailPayload, a *alert.Alert) {
	if p == nil {
		a.AlertType = FallbackEmailType
		a.Severity = alert.SeverityInfo
		a.Title = "Malformed email alert"
		return
	}

	text := p.Subject + "\n" + p.Body
	lower := strings.ToLower(text)

	matched := matchRules(emailRules, lower)
	if matched == nil {
		a.AlertType = FallbackEmailType
	} else {
		a.AlertType = matched.alertType
	}

	a.Severity = c.resolveSeverity(intake.SourceEmail, "", lower, matched)
	a.Title = strings.TrimSpace(p.Subject)
	if a.Title == "" {
		a.Title = a.AlertType
	}
	a.Description = trimBody(p.Body)
	a.DeviceIdentifier = ExtractDevice(text)
	a.Metadata["from"] = p.From
	a.Indicators = extractIndicators(text)
}

func (c *Classifier) classifyEDR(p *intake.EDRPayload, a *alert.Alert) {
	if p == nil {
		a.AlertType = FallbackGenericType
		a.Severity = alert.SeverityInfo
		a.Title = "Malformed EDR event"
		return
	}

	var matched *rule
	if r, ok := edrEventTypes[strings.ToLower(p.EventType)]; ok {
		matched = &r
		a.AlertType = r.alertType
	} else {
		a.AlertType = FallbackGenericType
	}

	a.Severity = c.resolveSeverity(intake.SourceEDR, p.Severity, strings.ToLower(p.Detail), matched)
	a.Title = fmt.Sprintf("EDR: %s on %s", p.EventType, p.Hostname)
	a.Description = p.Detail

	switch {
	case p.Serial != "":
		a.DeviceIdentifier = p.Serial
	case p.Hostname != "":
		a.DeviceIdentifier = p.Hostname
	}

	if p.Process != "" {
		a.Metadata["process"] = p.Process
	}
	for k, v := range p.Fields {
		a.Metadata[k] = v
	}
	if p.FileHash != "" {
		a.Indicators = append(a.Indicators, "hash:"+strings.ToLower(p.FileHash))
	}
	if p.Username != "" {
		a.Indicators = append(a.Indicators, "user:"+strings.ToLower(p.Username))
	}
}

func (c *Classifier) classifyFirewall(p *intake.FirewallPayload, a *alert.Alert) {
	if p == nil {
		a.AlertType = FallbackGenericType
		a.Severity = alert.SeverityInfo
		a.Title = "Malformed firewall event"
		return
	}

	lower := strings.ToLower(p.EventType + " " + p.Message)
	matched := matchRules(firewallRules, lower)
	if matched == nil {
		a.AlertType = FallbackGenericType
	} else {
		a.AlertType = matched.alertType
	}

	explicit := severityFromNumeric(p.Severity)
	a.Severity = c.resolveSeverity(intake.SourceFirewall, explicit, lower, matched)
	a.Title = fmt.Sprintf("Firewall: %s", firstNonEmpty(p.EventType, a.AlertType))
	a.Description = p.Message
	a.DeviceIdentifier = firstNonEmpty(p.DeviceIP, ExtractDevice(p.Message))

	if p.Rule != "" {
		a.Metadata["rule"] = p.Rule
	}
	for k, v := range p.Fields {
		a.Metadata[k] = v
	}
	for _, ip := range []string{p.SourceIP, p.DestIP} {
		if ip != "" {
			a.Indicators = append(a.Indicators, "ip:"+ip)
		}
	}
}

func (c *Classifier) classifySIEM(p *intake.SIEMPayload, a *alert.Alert) {
	if p == nil {
		a.AlertType = FallbackGenericType
		a.Severity = alert.SeverityInfo
		a.Title = "Malformed SIEM finding"
		return
	}

	lower := strings.ToLower(p.RuleName + " " + p.Summary)
	matched := matchRules(siemRules, lower)
	if matched == nil {
		a.AlertType = FallbackGenericType
	} else {
		a.AlertType = matched.alertType
	}

	a.Severity = c.resolveSeverity(intake.SourceSIEM, p.Severity, lower, matched)
	a.Title = firstNonEmpty(p.RuleName, a.AlertType)
	a.Description = p.Summary
	a.DeviceIdentifier = firstNonEmpty(p.Entity, ExtractDevice(p.Summary))

	for k, v := range p.Fields {
		a.Metadata[k] = v
	}
	for _, ip := range p.SourceIPs {
		a.Indicators = append(a.Indicators, "ip:"+ip)
	}
	for _, u := range p.Users {
		a.Indicators = append(a.Indicators, "user:"+strings.ToLower(u))
	}
	for _, d := range p.Domains {
		a.Indicators = append(a.Indicators, "domain:"+strings.ToLower(d))
	}
	for _, h := range p.Hashes {
		a.Indicators = append(a.Indicators, "hash:"+strings.ToLower(h))
	}
}

// Category returns the ticket category the alert's classification routes to.
func Category(a *alert.Alert) string {
	return rbac.CategoryForClassification(a.Classification)
}

// matchRules returns the first matching rule, or nil.
func matchRules(rules []rule, lower string) *rule {
	for i := range rules {
		r := &rules[i]
		ok := true
		for _, sub := range r.contains {
			if !strings.Contains(lower, sub) {
				ok = false
				break
			}
		}
		if ok && r.re != nil {
			ok = r.re.MatchString(lower)
		}
		if ok {
			return r
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func trimBody(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > 2000 {
		return body[:2000]
	}
	return body
}
