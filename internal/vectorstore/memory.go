package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a ChunkStore held in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	dims   int
	seq    int64
	chunks []memChunk
}

type memChunk struct {
	Chunk
	seq int64
}

var _ ChunkStore = (*MemoryStore)(nil)

func NewMemoryStore(dims int) *MemoryStore {
	return &MemoryStore{dims: dims}
}

func (m *MemoryStore) Put(ctx context.Context, c Chunk) error {
	return m.PutBatch(ctx, []Chunk{c})
}

func (m *MemoryStore) PutBatch(_ context.Context, chunks []Chunk) error {
	for _, c := range chunks {
		if err := checkDims(c.Embedding, m.dims); err != nil {
			return fmt.Errorf("chunk %d: %w", c.ChunkIndex, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range chunks {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.Embedding = append([]float32(nil), c.Embedding...)
		m.seq++
		m.chunks = append(m.chunks, memChunk{Chunk: c, seq: m.seq})
	}
	return nil
}

func (m *MemoryStore) Search(_ context.Context, scope Scope, query []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if err := checkDims(query, m.dims); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		c    *memChunk
		dist float64
	}
	var hits []scored
	for i := range m.chunks {
		c := &m.chunks[i]
		if !scope.contains(&c.Chunk) {
			continue
		}
		hits = append(hits, scored{c: c, dist: CosineDistance(query, c.Embedding)})
	}

	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.dist != b.dist {
			return a.dist < b.dist
		}
		if a.c.ChunkIndex != b.c.ChunkIndex {
			return a.c.ChunkIndex < b.c.ChunkIndex
		}
		return a.c.seq < b.c.seq
	})

	if len(hits) > k {
		hits = hits[:k]
	}

	results := make([]SearchResult, len(hits))
	for i, h := range hits {
		results[i] = SearchResult{
			ChunkID:    h.c.ID,
			DocumentID: h.c.DocumentID,
			ChunkIndex: h.c.ChunkIndex,
			Content:    h.c.Content,
			Distance:   h.dist,
		}
	}
	return results, nil
}

func (m *MemoryStore) DeleteDocument(_ context.Context, docID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.chunks[:0]
	for _, c := range m.chunks {
		if c.DocumentID != docID {
			kept = append(kept, c)
		}
	}
	m.chunks = kept
	return nil
}

func (m *MemoryStore) CountDocument(_ context.Context, docID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, c := range m.chunks {
		if c.DocumentID == docID {
			n++
		}
	}
	return n, nil
}

// CosineDistance is 1 - cosine similarity. A zero vector is treated as
// maximally dissimilar from everything.
func CosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
