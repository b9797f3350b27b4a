package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/studybrain/internal/models"
)

var ErrDimensionMismatch = models.ErrDimensionMismatch

var ErrInvalidK = errors.New("k must be positive")

// Chunk is one stored row: a fixed-width slice of a document's content and
// its embedding. Chunks are written once at ingestion and never updated.
type Chunk struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	OwnerID    uuid.UUID
	ChunkIndex int
	Content    string
	Embedding  []float32
	TokenCount int
}

// Scope restricts a search to one document, or to every document of an
// owner except (optionally) one.
type Scope struct {
	DocumentID        uuid.UUID
	OwnerID           uuid.UUID
	ExcludeDocumentID uuid.UUID
}

func DocumentScope(docID uuid.UUID) Scope {
	return Scope{DocumentID: docID}
}

func CorpusScope(ownerID, excludeDocID uuid.UUID) Scope {
	return Scope{OwnerID: ownerID, ExcludeDocumentID: excludeDocID}
}

func (s Scope) IsDocument() bool { return s.DocumentID != uuid.Nil }

func (s Scope) contains(c *Chunk) bool {
	if s.IsDocument() {
		return c.DocumentID == s.DocumentID
	}
	if c.OwnerID != s.OwnerID {
		return false
	}
	return s.ExcludeDocumentID == uuid.Nil || c.DocumentID != s.ExcludeDocumentID
}

func (s Scope) String() string {
	if s.IsDocument() {
		return "document:" + s.DocumentID.String()
	}
	return "corpus:" + s.OwnerID.String()
}

type SearchResult struct {
	ChunkID    uuid.UUID `json:"chunk_id"`
	DocumentID uuid.UUID `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	// Distance is the cosine distance to the query; lower is closer.
	Distance float64 `json:"distance"`
}

// ChunkStore persists chunk embeddings and answers nearest-neighbour queries.
// Results are ordered by ascending distance, then chunk index, then
// insertion order. An empty scope yields an empty slice and no error.
type ChunkStore interface {
	Put(ctx context.Context, chunk Chunk) error
	// PutBatch writes every chunk or none.
	PutBatch(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, scope Scope, query []float32, k int) ([]SearchResult, error)
	DeleteDocument(ctx context.Context, docID uuid.UUID) error
	CountDocument(ctx context.Context, docID uuid.UUID) (int, error)
}

func checkDims(vec []float32, dims int) error {
	if dims > 0 && len(vec) != dims {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), dims)
	}
	return nil
}
