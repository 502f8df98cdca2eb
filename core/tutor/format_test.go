package tutor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"
)

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{name: "zero", value: 0, want: "0 minutes"},
		{name: "under an hour", value: 45, want: "45 minutes"},
		{name: "exactly one hour", value: 60, want: "1 hours 0 minutes"},
		{name: "hours and minutes", value: 135, want: "2 hours 15 minutes"},
		{name: "two hours", value: 120, want: "2 hours 0 minutes"},
		{name: "int64", value: int64(61), want: "1 hours 1 minutes"},
		{name: "uint8", value: uint8(59), want: "59 minutes"},
		{name: "whole float", value: 90.0, want: "1 hours 30 minutes"},
		{name: "fractional float", value: 90.5, want: "0 minutes"},
		{name: "numeric string", value: " 75 ", want: "1 hours 15 minutes"},
		{name: "text", value: "abc", want: "0 minutes"},
		{name: "empty string", value: "", want: "0 minutes"},
		{name: "negative", value: -5, want: "0 minutes"},
		{name: "nil", value: nil, want: "0 minutes"},
		{name: "bool", value: true, want: "0 minutes"},
		{name: "valid null.Int", value: null.IntFrom(200), want: "3 hours 20 minutes"},
		{name: "invalid null.Int", value: null.Int{}, want: "0 minutes"},
		{name: "nil *null.Int", value: (*null.Int)(nil), want: "0 minutes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMinutes(tt.value))
		})
	}
}

func TestFormatMinutes_pattern(t *testing.T) {
	for n := 0; n < 1000; n += 7 {
		want := fmt.Sprintf("%d minutes", n)
		if n >= 60 {
			want = fmt.Sprintf("%d hours %d minutes", n/60, n%60)
		}
		assert.Equal(t, want, FormatMinutes(n), "n = %d", n)
	}
}
