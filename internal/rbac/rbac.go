// Package rbac maps roles to the alert/ticket categories they may see and
// act on.
package rbac

import (
	"github.com/pratik-mahalle/sentrydesk/internal/domain/user"
)

// Security categories handled by security analysts.
const (
	CategoryMalware         = "malware"
	CategoryIntrusion       = "intrusion"
	CategoryPhishing        = "phishing"
	CategoryDataExfil       = "data_exfiltration"
	CategoryPolicyViolation = "policy_violation"
	CategoryVulnerability   = "vulnerability"
)

// Helpdesk categories handled by IT analysts.
const (
	CategoryHardware = "hardware"
	CategorySoftware = "software"
	CategoryNetwork  = "network"
	CategoryAccess   = "access"
	CategoryGeneral  = "general"
)

var securityCategories = []string{
	CategoryMalware,
	CategoryIntrusion,
	CategoryPhishing,
	CategoryDataExfil,
	CategoryPolicyViolation,
	CategoryVulnerability,
}

var helpdeskCategories = []string{
	CategoryHardware,
	CategorySoftware,
	CategoryNetwork,
	CategoryAccess,
	CategoryGeneral,
}

// VisibleCategories returns the categories a role may see. Admin roles see
// both domains; plain users see nothing (they raise tickets, they do not
// work them).
func VisibleCategories(role string) []string {
	switch role {
	case user.RoleSecurityAnalyst:
		return append([]string(nil), securityCategories...)
	case user.RoleITHelpdeskAnalyst:
		return append([]string(nil), helpdeskCategories...)
	case user.RoleTenantAdmin, user.RoleSuperAdmin:
		out := append([]string(nil), securityCategories...)
		return append(out, helpdeskCategories...)
	default:
		return nil
	}
}

// CanAccess reports whether a role may see the given category.
func CanAccess(role, category string) bool {
	for _, c := range VisibleCategories(role) {
		if c == category {
			return true
		}
	}
	return false
}

// IsSecurityCategory reports whether the category belongs to the security
// domain.
func IsSecurityCategory(category string) bool {
	for _, c := range securityCategories {
		if c == category {
			return true
		}
	}
	return false
}

// classificationCategories maps alert classifications to categories.
// Classifications without an entry fall back to general.
var classificationCategories = map[string]string{
	"malware":            CategoryMalware,
	"ransomware":         CategoryMalware,
	"ips_alert":          CategoryIntrusion,
	"intrusion_detected": CategoryIntrusion,
	"port_scan":          CategoryIntrusion,
	"brute_force":        CategoryIntrusion,
	"phishing":           CategoryPhishing,
	"data_exfiltration":  CategoryDataExfil,
	"policy_violation":   CategoryPolicyViolation,
	"vulnerability":      CategoryVulnerability,
	"suspicious_login":   CategoryAccess,
	"account_lockout":    CategoryAccess,
	"vpn_down":           CategoryNetwork,
	"interface_down":     CategoryNetwork,
	"high_utilization":   CategoryHardware,
	"disk_failure":       CategoryHardware,
	"license_expiring":   CategorySoftware,
	"service_down":       CategorySoftware,
}

// CategoryForClassification returns the ticket category an alert
// classification routes to.
func CategoryForClassification(classification string) string {
	if c, ok := classificationCategories[classification]; ok {
		return c
	}
	return CategoryGeneral
}
