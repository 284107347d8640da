// Package logging holds helpers that make user input and connection details safe to log.
package logging

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxQueryLogLength is the maximum number of runes of a question to log
	MaxQueryLogLength = 100
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Matches password=xxx, pwd=xxx, pass=xxx up to the next delimiter
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Matches user:pass@host in URL-style DSNs
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s?]+`)

	controlPattern = regexp.MustCompile(`[\r\n\t]+`)
)

// SanitizeConnectionString removes credentials from a DSN.
// Use this before logging any connection string.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	return connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
}

// SanitizeError returns the error text with credentials removed.
// Driver errors sometimes echo the DSN back.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeConnectionString(err.Error())
}

// TruncateForLog flattens a free-text question onto one line and caps it at
// MaxQueryLogLength runes.
func TruncateForLog(s string) string {
	s = strings.TrimSpace(controlPattern.ReplaceAllString(s, " "))
	if utf8.RuneCountInString(s) <= MaxQueryLogLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxQueryLogLength]) + "..."
}
