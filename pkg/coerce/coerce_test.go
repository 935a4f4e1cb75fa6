package coerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{name: "integer", input: "42", want: int64(42)},
		{name: "negative integer", input: "-7", want: int64(-7)},
		{name: "float", input: "3.14", want: float64(3.14)},
		{name: "bool true python", input: "True", want: true},
		{name: "bool false python", input: "False", want: false},
		{name: "bool true yaml", input: "true", want: true},
		{name: "none", input: "None", want: nil},
		{name: "null", input: "null", want: nil},
		{name: "tilde", input: "~", want: nil},
		{name: "plain word stays string", input: "hello", want: "hello"},
		{name: "single quoted", input: "'8080'", want: "8080"},
		{name: "double quoted", input: `"True"`, want: "True"},
		{name: "flow list", input: "[1, 2, 3]", want: []any{int64(1), int64(2), int64(3)}},
		{name: "flow mapping", input: "{a: 1, b: two}", want: map[string]any{"a": int64(1), "b": "two"}},
		{name: "nested flow", input: "{a: [1, {b: 2}]}", want: map[string]any{"a": []any{int64(1), map[string]any{"b": int64(2)}}}},
		{name: "surrounding whitespace trimmed before parse", input: "  12  ", want: int64(12)},
		{name: "empty stays empty", input: "", want: ""},
		{name: "path stays string", input: "/usr/local/bin", want: "/usr/local/bin"},
		{name: "version-like stays string", input: "1.2.3", want: "1.2.3"},
		{name: "timestamp not leaked as time value", input: "2023-01-02", want: "2023-01-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coerce(tt.input))
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("integer widths collapse to int64", func(t *testing.T) {
		assert.Equal(t, int64(5), Normalize(int(5)))
		assert.Equal(t, int64(5), Normalize(uint32(5)))
		assert.Equal(t, int64(5), Normalize(int32(5)))
	})

	t.Run("nested structures normalized recursively", func(t *testing.T) {
		in := map[string]any{"list": []any{int(1), float32(2)}}
		want := map[string]any{"list": []any{int64(1), float64(2)}}
		assert.Equal(t, want, Normalize(in))
	})

	t.Run("interface-keyed mappings become string-keyed", func(t *testing.T) {
		in := map[any]any{1: "one"}
		want := map[string]any{"1": "one"}
		assert.Equal(t, want, Normalize(in))
	})
}
