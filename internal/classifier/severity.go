package classifier

import (
	"strconv"
	"strings"

	"github.com/pratik-mahalle/sentrydesk/internal/domain/alert"
)

// resolveSeverity applies the severity precedence: an explicit severity from
// a structured source wins; then resource-utilization thresholds; then
// keyword tokens in the text; then the matched rule's hint; then info.
func (c *Classifier) resolveSeverity(source, explicit, lower string, matched *rule) string {
	if s := normalizeSeverity(explicit); s != "" {
		return s
	}

	if s := utilizationSeverity(lower); s != "" {
		return s
	}

	if s := c.tokenSeverity(source, lower); s != "" {
		return s
	}

	if matched != nil && matched.severityHint != "" {
		return matched.severityHint
	}

	return alert.SeverityInfo
}

// normalizeSeverity maps an explicit source-provided severity string onto
// the canonical tiers. Unknown values are ignored rather than guessed.
func normalizeSeverity(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case alert.SeverityCritical:
		return alert.SeverityCritical
	case alert.SeverityHigh:
		return alert.SeverityHigh
	case alert.SeverityMedium, "moderate":
		return alert.SeverityMedium
	case alert.SeverityLow:
		return alert.SeverityLow
	case alert.SeverityInfo, "informational":
		return alert.SeverityInfo
	}
	return ""
}

// severityFromNumeric maps a vendor 1..10 numeric severity to a tier.
// Zero means the source supplied no severity.
func severityFromNumeric(n int) string {
	switch {
	case n <= 0:
		return ""
	case n >= 9:
		return alert.SeverityCritical
	case n >= 7:
		return alert.SeverityHigh
	case n >= 4:
		return alert.SeverityMedium
	case n >= 2:
		return alert.SeverityLow
	default:
		return alert.SeverityInfo
	}
}

// utilizationSeverity classifies resource-utilization text by threshold:
// above 90% is critical, above 75% high, any other reading medium.
func utilizationSeverity(lower string) string {
	span := utilizationRe.FindString(lower)
	if span == "" {
		return ""
	}
	m := percentRe.FindStringSubmatch(span)
	if m == nil {
		return ""
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil || pct > 100 {
		return ""
	}
	switch {
	case pct > 90:
		return alert.SeverityCritical
	case pct > 75:
		return alert.SeverityHigh
	default:
		return alert.SeverityMedium
	}
}

// tokenSeverity scans text for severity keyword tokens, strongest tier
// first.
func (c *Classifier) tokenSeverity(source, lower string) string {
	if re, ok := c.extraCritical[source]; ok && re.MatchString(lower) {
		return alert.SeverityCritical
	}
	switch {
	case criticalTokensRe.MatchString(lower):
		return alert.SeverityCritical
	case highTokensRe.MatchString(lower):
		return alert.SeverityHigh
	case mediumTokensRe.MatchString(lower):
		return alert.SeverityMedium
	case lowTokensRe.MatchString(lower):
		return alert.SeverityLow
	}
	return ""
}
