package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateCost(t *testing.T) {
	tests := []struct {
		name   string
		model  string
		in     int
		out    int
		expect float64
	}{
		{"exact", "gpt-4o-mini", 1000, 1000, 0.00075},
		{"dated snapshot", "gpt-4o-mini-2024-07-18", 1000, 1000, 0.00075},
		{"longest prefix wins", "gpt-4.1-mini-2025-04-14", 1000, 0, 0.0004},
		{"embedding input only", "text-embedding-3-small", 5000, 0, 0.0001},
		{"unknown", "llama3", 1000, 1000, 0},
		{"prefix without separator", "gpt-4oz", 1000, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expect, CalculateCost(tt.model, tt.in, tt.out), 1e-12)
		})
	}
}
