// Package audit meters provider calls per user.
package audit

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/studybrain/internal/auth"
	"github.com/nikhilbhutani/studybrain/internal/llm"
	"github.com/nikhilbhutani/studybrain/internal/models"
)

type UsageSummary struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Operation    string  `json:"operation"`
	Calls        int     `json:"calls"`
	TotalTokens  int     `json:"total_tokens"`
	TotalCostUSD float64 `json:"total_cost_usd"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

type Recorder interface {
	Record(ctx context.Context, u models.LLMUsage) error
	Summary(ctx context.Context, userID uuid.UUID, since time.Time) ([]UsageSummary, error)
}

// MeteredGateway records every call that passes through it. A failed
// recording is logged and never fails the call.
type MeteredGateway struct {
	next llm.Gateway
	rec  Recorder
}

var _ llm.Gateway = (*MeteredGateway)(nil)

func NewMeteredGateway(next llm.Gateway, rec Recorder) *MeteredGateway {
	return &MeteredGateway{next: next, rec: rec}
}

func (g *MeteredGateway) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	start := time.Now()
	resp, err := g.next.Chat(ctx, req)

	u := models.LLMUsage{Operation: models.UsageChat, Provider: req.Provider, Model: req.Model, Failed: err != nil}
	if resp != nil {
		u.Provider = resp.Provider
		u.Model = resp.Model
		u.InputTokens = resp.InputTokens
		u.OutputTokens = resp.OutputTokens
		u.TotalTokens = resp.TotalTokens
		u.CostUSD = resp.CostUSD
	}
	g.record(ctx, u, start)
	return resp, err
}

func (g *MeteredGateway) Embed(ctx context.Context, req llm.EmbeddingRequest) (*llm.EmbeddingResponse, error) {
	start := time.Now()
	resp, err := g.next.Embed(ctx, req)

	u := models.LLMUsage{Operation: models.UsageEmbed, Provider: req.Provider, Model: req.Model, Failed: err != nil}
	if resp != nil {
		u.Provider = resp.Provider
		u.Model = resp.Model
		u.InputTokens = resp.Tokens
		u.TotalTokens = resp.Tokens
		u.CostUSD = resp.CostUSD
	}
	g.record(ctx, u, start)
	return resp, err
}

func (g *MeteredGateway) record(ctx context.Context, u models.LLMUsage, start time.Time) {
	u.ID = uuid.New()
	u.LatencyMs = time.Since(start).Milliseconds()
	u.CreatedAt = time.Now()
	if id := auth.UserIDFromContext(ctx); id != uuid.Nil {
		u.UserID = &id
	}
	if err := g.rec.Record(context.WithoutCancel(ctx), u); err != nil {
		slog.Warn("usage not recorded", "operation", u.Operation, "error", err)
	}
}

// MemoryRecorder keeps usage in process.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []models.LLMUsage
}

var _ Recorder = (*MemoryRecorder)(nil)

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (m *MemoryRecorder) Record(_ context.Context, u models.LLMUsage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, u)
	return nil
}

func (m *MemoryRecorder) Entries() []models.LLMUsage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.LLMUsage(nil), m.entries...)
}

func (m *MemoryRecorder) Summary(_ context.Context, userID uuid.UUID, since time.Time) ([]UsageSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type key struct{ provider, model, op string }
	byKey := map[key]*UsageSummary{}
	latency := map[key]int64{}
	for _, u := range m.entries {
		if u.UserID == nil || *u.UserID != userID || u.CreatedAt.Before(since) {
			continue
		}
		k := key{u.Provider, u.Model, u.Operation}
		s, ok := byKey[k]
		if !ok {
			s = &UsageSummary{Provider: u.Provider, Model: u.Model, Operation: u.Operation}
			byKey[k] = s
		}
		s.Calls++
		s.TotalTokens += u.TotalTokens
		s.TotalCostUSD += u.CostUSD
		latency[k] += u.LatencyMs
	}

	out := make([]UsageSummary, 0, len(byKey))
	for k, s := range byKey {
		s.AvgLatencyMs = float64(latency[k]) / float64(s.Calls)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalCostUSD > out[j].TotalCostUSD })
	return out, nil
}
