package security

import (
	"regexp"
	"strings"
)

var (
	bearerPattern = regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9\-._~+/]+=*`)
	tokenPattern  = regexp.MustCompile(`(?i)("?(?:access_token|refresh_token|authorization)"?\s*[:=]\s*"?)[^",\s]+`)
	digitsPattern = regexp.MustCompile(`\b\d{8,}\b`)
)

// MaskSensitive scrubs tokens and long digit runs (account numbers) from
// a string before it reaches a log or an error message.
func MaskSensitive(s string) string {
	s = bearerPattern.ReplaceAllString(s, "${1}[REDACTED]")
	s = tokenPattern.ReplaceAllString(s, "${1}[REDACTED]")
	s = digitsPattern.ReplaceAllStringFunc(s, func(m string) string {
		return strings.Repeat("*", len(m)-4) + m[len(m)-4:]
	})
	return s
}

// MaskToken keeps only a short prefix of a credential for debug output.
func MaskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + strings.Repeat("*", 8)
}
