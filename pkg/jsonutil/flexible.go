// Package jsonutil decodes loosely typed JSON request fields.
package jsonutil

import (
	"encoding/json"
	"strconv"
)

// FlexibleString converts a raw JSON value to a string. Callers sometimes send
// numbers or booleans where a string is expected; those come back in their
// plain form. A missing value or null gives "".
func FlexibleString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}

	// Objects and arrays are returned verbatim.
	return string(raw)
}
