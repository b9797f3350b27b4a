package embedding

import (
	"context"
	"fmt"

	"github.com/nikhilbhutani/studybrain/internal/llm"
	"github.com/nikhilbhutani/studybrain/internal/models"
)

// ErrDimensionMismatch is returned when the provider yields a vector whose
// length differs from Config.Dimensions.
var ErrDimensionMismatch = models.ErrDimensionMismatch

const batchSize = 100

// Embedder maps text to fixed-width vectors. The same Embedder (same model,
// same width) must serve both ingestion and queries.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

type Config struct {
	Provider   string
	Model      string
	Dimensions int
}

type Service struct {
	gateway llm.Gateway
	cfg     Config
}

var _ Embedder = (*Service)(nil)

func NewService(gw llm.Gateway, cfg Config) *Service {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	return &Service{gateway: gw, cfg: cfg}
}

func (s *Service) Dimensions() int { return s.cfg.Dimensions }

func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += batchSize {
		end := min(i+batchSize, len(texts))
		batch := texts[i:end]

		resp, err := s.gateway.Embed(ctx, llm.EmbeddingRequest{
			Provider:   s.cfg.Provider,
			Model:      s.cfg.Model,
			Input:      batch,
			Dimensions: s.cfg.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("embed batch %d: %w: %w", i/batchSize, models.ErrUpstreamUnavailable, err)
		}
		if len(resp.Embeddings) != len(batch) {
			return nil, fmt.Errorf("embed batch %d: %w: got %d vectors for %d inputs",
				i/batchSize, models.ErrUpstreamUnavailable, len(resp.Embeddings), len(batch))
		}

		for j, vec := range resp.Embeddings {
			if s.cfg.Dimensions > 0 && len(vec) != s.cfg.Dimensions {
				return nil, fmt.Errorf("embed input %d: %w: got %d, want %d",
					i+j, ErrDimensionMismatch, len(vec), s.cfg.Dimensions)
			}
		}

		all = append(all, resp.Embeddings...)
	}

	return all, nil
}

func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", models.ErrUpstreamUnavailable)
	}
	return embeddings[0], nil
}
