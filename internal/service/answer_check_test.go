package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAnswer(t *testing.T) {
	tests := []struct {
		name     string
		given    string
		expected string
		want     bool
	}{
		{"exact", "42", "42", true},
		{"spaces", " 42 ", "42", true},
		{"half as decimal", "0.5", "1/2", true},
		{"half without zero", ".5", "1/2", true},
		{"unreduced fraction", "2/4", "1/2", true},
		{"decimal comma", "2,5", "5/2", true},
		{"variable prefix", "x = 3", "3", true},
		{"trailing dot", "7.", "7", true},
		{"negative", "-3/4", "-0.75", true},
		{"rounded third", "0.33", "1/3", true},
		{"badly rounded third", "0.34", "1/3", false},
		{"one decimal is not enough", "0.3", "1/3", false},
		{"wrong number", "41", "42", false},
		{"empty", "", "42", false},
		{"zero denominator", "1/0", "0", false},
		{"text answer", "משולש שווה שוקיים", "משולש  שווה שוקיים", true},
		{"text mismatch", "ריבוע", "מלבן", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckAnswer(tt.given, tt.expected))
		})
	}
}
