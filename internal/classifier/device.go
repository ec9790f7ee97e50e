package classifier

import "strings"

// ExtractDevice pulls a device identifier out of free-form text: a serial
// or MAC address first, then any embedded IPv4 address, then "unknown".
// An identifier is always returned so every alert can be fingerprinted.
func ExtractDevice(text string) string {
	upper := strings.ToUpper(text)

	for _, m := range serialRe.FindAllString(upper, -1) {
		if strings.ContainsAny(m, "0123456789") {
			return m
		}
	}

	if m := macRe.FindString(text); m != "" {
		return strings.ToUpper(strings.ReplaceAll(m, "-", ":"))
	}

	if m := ipv4Re.FindString(text); m != "" && validIPv4(m) {
		return m
	}

	return "unknown"
}

// extractIndicators collects threat indicators (IPs for now) present in
// free-form text, prefixed by kind for correlation matching.
func extractIndicators(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, ip := range ipv4Re.FindAllString(text, -1) {
		if !validIPv4(ip) {
			continue
		}
		key := "ip:" + ip
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

// validIPv4 rejects regex matches with out-of-range octets.
func validIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if len(p) > 1 && p[0] == '0' {
			return false
		}
		n := 0
		for _, ch := range p {
			n = n*10 + int(ch-'0')
		}
		if n > 255 {
			return false
		}
	}
	return true
}
