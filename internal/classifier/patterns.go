package classifier

import "regexp"

// rule matches email subject/body text (lower-cased) and yields an alert
// type plus a severity hint used when no stronger severity signal exists.
// Rules are evaluated in order; the first match wins.
type rule struct {
	// all listed substrings must be present
	contains []string
	// optional regex applied when contains matched (or alone)
	re           *regexp.Regexp
	alertType    string
	severityHint string
}

// emailRules classify free-form alert email subject+body.
var emailRules = []rule{
	{contains: []string{"vpn", "down"}, alertType: "vpn_down", severityHint: "high"},
	{contains: []string{"license", "expir"}, alertType: "license_expiring", severityHint: "medium"},
	{contains: []string{"intrusion"}, alertType: "ips_alert", severityHint: "high"},
	{contains: []string{"ransomware"}, alertType: "ransomware", severityHint: "critical"},
	{contains: []string{"malware"}, alertType: "malware", severityHint: "high"},
	{contains: []string{"virus"}, alertType: "malware", severityHint: "high"},
	{contains: []string{"phish"}, alertType: "phishing", severityHint: "medium"},
	{contains: []string{"disk"}, re: regexp.MustCompile(`fail(ed|ure|ing)`), alertType: "disk_failure", severityHint: "high"},
	{contains: []string{"interface", "down"}, alertType: "interface_down", severityHint: "high"},
	{contains: []string{"service"}, re: regexp.MustCompile(`(down|stopped|unavailable)`), alertType: "service_down", severityHint: "high"},
	{contains: []string{"locked out"}, alertType: "account_lockout", severityHint: "low"},
	{re: utilizationRe, alertType: "high_utilization"},
}

// firewallRules classify firewall event type or message text.
var firewallRules = []rule{
	{contains: []string{"intrusion"}, alertType: "ips_alert", severityHint: "high"},
	{contains: []string{"ips"}, alertType: "ips_alert", severityHint: "high"},
	{contains: []string{"port scan"}, alertType: "port_scan", severityHint: "medium"},
	{contains: []string{"brute"}, alertType: "brute_force", severityHint: "high"},
	{contains: []string{"vpn", "down"}, alertType: "vpn_down", severityHint: "high"},
	{contains: []string{"interface", "down"}, alertType: "interface_down", severityHint: "high"},
}

// siemRules classify SIEM rule names and summaries.
var siemRules = []rule{
	{contains: []string{"exfil"}, alertType: "data_exfiltration", severityHint: "critical"},
	{contains: []string{"brute"}, alertType: "brute_force", severityHint: "high"},
	{contains: []string{"ransomware"}, alertType: "ransomware", severityHint: "critical"},
	{contains: []string{"malware"}, alertType: "malware", severityHint: "high"},
	{contains: []string{"phish"}, alertType: "phishing", severityHint: "medium"},
	{contains: []string{"policy"}, alertType: "policy_violation", severityHint: "low"},
	{contains: []string{"impossible travel"}, alertType: "suspicious_login", severityHint: "high"},
}

// edrEventTypes map the agent's event type field straight to an alert type.
var edrEventTypes = map[string]rule{
	"malware_detected":  {alertType: "malware", severityHint: "high"},
	"ransomware":        {alertType: "ransomware", severityHint: "critical"},
	"process_injection": {alertType: "intrusion_detected", severityHint: "high"},
	"suspicious_login":  {alertType: "suspicious_login", severityHint: "medium"},
	"usb_blocked":       {alertType: "policy_violation", severityHint: "low"},
}

// Device identifier extraction patterns. Serial candidates must also contain
// a digit (checked in code) so plain words never qualify.
var (
	serialRe = regexp.MustCompile(`\b[A-Z0-9]{10,16}\b`)
	macRe    = regexp.MustCompile(`\b(?:[0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}\b`)
	ipv4Re   = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
)

// utilizationRe finds a resource keyword and a percentage reading on the
// same line, in either order ("memory usage at 92%", "87% CPU utilization").
var utilizationRe = regexp.MustCompile(`(?i)\b(cpu|memory|disk|storage|utilization|usage)\b[^%\n]{0,40}?\d{1,3}(?:\.\d+)?\s?%|\b\d{1,3}(?:\.\d+)?\s?%[^\n]{0,40}?\b(cpu|memory|disk|storage|utilization|usage)\b`)

// percentRe extracts the numeric reading out of a utilization match.
var percentRe = regexp.MustCompile(`\b(\d{1,3}(?:\.\d+)?)\s?%`)

// Severity keyword tiers, checked strongest first so "critical warning"
// reads as critical. A bare "high" maps to high, never critical; only the
// critical tier tokens escalate to critical.
var (
	criticalTokensRe = regexp.MustCompile(`(?i)\b(critical|fatal|emergency)\b`)
	highTokensRe     = regexp.MustCompile(`(?i)\b(high|severe|error)\b`)
	mediumTokensRe   = regexp.MustCompile(`(?i)\b(warning|warn|medium)\b`)
	lowTokensRe      = regexp.MustCompile(`(?i)\b(low|notice)\b`)
)
