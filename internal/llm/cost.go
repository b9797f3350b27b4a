package llm

import "strings"

// USD per 1K tokens: [input, output]. Embedding models bill input only.
var costPerToken = map[string][2]float64{
	"gpt-4o":                 {0.0025, 0.01},
	"gpt-4o-mini":            {0.00015, 0.0006},
	"gpt-4.1":                {0.002, 0.008},
	"gpt-4.1-mini":           {0.0004, 0.0016},
	"text-embedding-3-small": {0.00002, 0},
	"text-embedding-3-large": {0.00013, 0},

	"claude-sonnet-4":  {0.003, 0.015},
	"claude-3-5-haiku": {0.0008, 0.004},
}

// pricing resolves dated snapshots such as gpt-4o-mini-2024-07-18 to the
// longest known model name they start with.
func pricing(model string) ([2]float64, bool) {
	if p, ok := costPerToken[model]; ok {
		return p, true
	}
	best := ""
	for name := range costPerToken {
		if strings.HasPrefix(model, name+"-") && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return [2]float64{}, false
	}
	return costPerToken[best], true
}

// CalculateCost returns zero for unknown and local models.
func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	p, ok := pricing(model)
	if !ok {
		return 0
	}
	return float64(inputTokens)/1000.0*p[0] + float64(outputTokens)/1000.0*p[1]
}
