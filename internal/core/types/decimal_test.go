package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2.7", "2.7"},
		{"2.345", "2.35"},
		{"2.344", "2.34"},
		{"-2.345", "-2.35"},
		{"0.005", "0.01"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RoundMoney(MustMoney(tt.in))
			assert.True(t, MustMoney(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestMustMoney_PanicsOnGarbage(t *testing.T) {
	assert.Panics(t, func() { MustMoney("abc") })
}
