package analytics

import (
	"fmt"
	"slices"

	"github.com/ekaya-inc/ekaya-insights/pkg/config"
)

// WarningKey is added to a result that failed validation.
const WarningKey = "validation_warning"

// Validator checks a result for implausible figures. A non-empty return is a
// warning to attach; it never blocks the response.
type Validator interface {
	Validate(r Result) string
}

// RangeValidator flags the first top-level number outside [Min, Max].
type RangeValidator struct {
	Min float64
	Max float64
}

// NewValidator builds the configured validator, or nil when disabled.
func NewValidator(cfg config.ValidationConfig) Validator {
	if !cfg.Enabled {
		return nil
	}
	return RangeValidator{Min: cfg.Min, Max: cfg.Max}
}

// Validate inspects top-level int and float values in key order.
func (v RangeValidator) Validate(r Result) string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		var n float64
		switch val := r[k].(type) {
		case int:
			n = float64(val)
		case float64:
			n = val
		default:
			continue
		}
		if n < v.Min || n > v.Max {
			return fmt.Sprintf("Value %v for %s seems unrealistic", r[k], k)
		}
	}
	return ""
}

// Annotate runs v over r and records a warning in place. A nil validator is a no-op.
func Annotate(v Validator, r Result) Result {
	if v == nil || r == nil {
		return r
	}
	if warning := v.Validate(r); warning != "" {
		r[WarningKey] = warning
	}
	return r
}
