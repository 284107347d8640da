package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlexibleString(t *testing.T) {
	tests := []struct {
		name string
		raw  json.RawMessage
		want string
	}{
		{"missing", nil, ""},
		{"null", json.RawMessage(`null`), ""},
		{"string", json.RawMessage(`"total revenue"`), "total revenue"},
		{"empty string", json.RawMessage(`""`), ""},
		{"integer", json.RawMessage(`42`), "42"},
		{"float", json.RawMessage(`3.25`), "3.25"},
		{"large integer", json.RawMessage(`1000000`), "1000000"},
		{"boolean", json.RawMessage(`true`), "true"},
		{"object", json.RawMessage(`{"a":1}`), `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlexibleString(tt.raw))
		})
	}
}
