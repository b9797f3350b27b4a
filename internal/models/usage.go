package models

import (
	"time"

	"github.com/google/uuid"
)

// LLMUsage is one metered call to a generation or embedding provider.
// UserID is nil for calls made outside a request, such as queued ingestion.
type LLMUsage struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	Operation    string     `json:"operation" db:"operation"`
	Provider     string     `json:"provider" db:"provider"`
	Model        string     `json:"model" db:"model"`
	InputTokens  int        `json:"input_tokens" db:"input_tokens"`
	OutputTokens int        `json:"output_tokens" db:"output_tokens"`
	TotalTokens  int        `json:"total_tokens" db:"total_tokens"`
	CostUSD      float64    `json:"cost_usd" db:"cost_usd"`
	LatencyMs    int64      `json:"latency_ms" db:"latency_ms"`
	Failed       bool       `json:"failed" db:"failed"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

const (
	UsageChat  = "chat"
	UsageEmbed = "embed"
)
