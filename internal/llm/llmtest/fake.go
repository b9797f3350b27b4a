// Package llmtest provides a scripted llm.Gateway for tests.
package llmtest

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/nikhilbhutani/studybrain/internal/llm"
)

var ErrScriptExhausted = errors.New("llmtest: no scripted reply left")

// Reply is one scripted chat outcome.
type Reply struct {
	Content string
	Err     error
}

// Gateway replays scripted chat replies in order and produces deterministic
// embeddings derived from the input text. It records every request.
type Gateway struct {
	mu sync.Mutex

	replies []Reply
	// Default is returned once the script runs out. Nil means ErrScriptExhausted.
	Default *Reply

	Dimensions int
	EmbedErr   error
	// EmbedFunc overrides the hash embedding when set.
	EmbedFunc func(text string) []float32

	ChatRequests  []llm.ChatRequest
	EmbedRequests []llm.EmbeddingRequest
}

var _ llm.Gateway = (*Gateway)(nil)

func New(dimensions int, replies ...Reply) *Gateway {
	return &Gateway{replies: replies, Dimensions: dimensions}
}

// Script appends replies to the queue.
func (g *Gateway) Script(replies ...Reply) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies = append(g.replies, replies...)
}

func (g *Gateway) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ChatRequests = append(g.ChatRequests, req)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var r Reply
	switch {
	case len(g.replies) > 0:
		r = g.replies[0]
		g.replies = g.replies[1:]
	case g.Default != nil:
		r = *g.Default
	default:
		return nil, ErrScriptExhausted
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return &llm.ChatResponse{Provider: "fake", Model: req.Model, Content: r.Content}, nil
}

func (g *Gateway) Embed(ctx context.Context, req llm.EmbeddingRequest) (*llm.EmbeddingResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.EmbedRequests = append(g.EmbedRequests, req)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.EmbedErr != nil {
		return nil, g.EmbedErr
	}

	out := make([][]float32, len(req.Input))
	for i, text := range req.Input {
		if g.EmbedFunc != nil {
			out[i] = g.EmbedFunc(text)
			continue
		}
		out[i] = HashVector(text, g.Dimensions)
	}
	return &llm.EmbeddingResponse{Provider: "fake", Model: req.Model, Embeddings: out}, nil
}

// LastChat returns the most recent chat request.
func (g *Gateway) LastChat() llm.ChatRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.ChatRequests) == 0 {
		return llm.ChatRequest{}
	}
	return g.ChatRequests[len(g.ChatRequests)-1]
}

// HashVector maps text to a fixed vector by bucketing its lowercase words.
// Texts sharing words land close together under cosine distance.
func HashVector(text string, dims int) []float32 {
	v := make([]float32, dims)
	if dims == 0 {
		return v
	}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[int(h.Sum32())%dims] += 1
	}
	// keep the zero vector out of cosine math
	v[0] += 0.01
	return v
}
