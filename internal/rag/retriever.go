package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/studybrain/internal/embedding"
	"github.com/nikhilbhutani/studybrain/internal/models"
	"github.com/nikhilbhutani/studybrain/internal/vectorstore"
)

// ErrRetrievalEmbedding marks a retrieval that failed because the query could
// not be embedded, as opposed to one that legitimately found nothing.
var ErrRetrievalEmbedding = errors.New("embed retrieval query")

const (
	DefaultTopK       = 3
	DefaultProbeRunes = 2000
)

type RetrieverConfig struct {
	TopK       int
	ProbeRunes int
}

type Retriever struct {
	store      vectorstore.ChunkStore
	embedder   embedding.Embedder
	topK       int
	probeRunes int
}

func NewRetriever(store vectorstore.ChunkStore, embedder embedding.Embedder, cfg RetrieverConfig) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.ProbeRunes <= 0 {
		cfg.ProbeRunes = DefaultProbeRunes
	}
	return &Retriever{store: store, embedder: embedder, topK: cfg.TopK, probeRunes: cfg.ProbeRunes}
}

// ForDocument returns the chunks of one document nearest to query.
func (r *Retriever) ForDocument(ctx context.Context, docID uuid.UUID, query string) ([]vectorstore.SearchResult, error) {
	return r.search(ctx, vectorstore.DocumentScope(docID), query)
}

// Related probes the owner's other documents with the opening of doc's own
// content. doc itself is never part of the result.
func (r *Retriever) Related(ctx context.Context, doc *models.Document) ([]vectorstore.SearchResult, error) {
	probe := Prefix(doc.Content, r.probeRunes)
	if probe == "" {
		return []vectorstore.SearchResult{}, nil
	}
	return r.search(ctx, vectorstore.CorpusScope(doc.OwnerID, doc.ID), probe)
}

func (r *Retriever) search(ctx context.Context, scope vectorstore.Scope, query string) ([]vectorstore.SearchResult, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrievalEmbedding, err)
	}

	results, err := r.store.Search(ctx, scope, vec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", scope, err)
	}
	return results, nil
}

// Prefix returns the first n runes of s.
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
