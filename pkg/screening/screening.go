// Package screening flags free-text input that carries SQL injection patterns.
//
// Questions are never executed as SQL, so a finding does not block the
// request. It feeds the security audit log and the screened-query metric.
package screening

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// Finding describes a flagged input.
type Finding struct {
	Field       string // Name of the request field that was checked
	Fingerprint string // libinjection fingerprint of the detected pattern
}

// Check runs libinjection over value and returns a finding when it looks like SQL injection.
func Check(field, value string) (Finding, bool) {
	if value == "" {
		return Finding{}, false
	}
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if !isSQLi {
		return Finding{}, false
	}
	return Finding{Field: field, Fingerprint: string(fingerprint)}, true
}
