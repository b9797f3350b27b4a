package vectorstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vec(xs ...float32) []float32 { return xs }

func TestMemoryStoreSearchOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)
	owner, doc := uuid.New(), uuid.New()

	require.NoError(t, s.PutBatch(ctx, []Chunk{
		{DocumentID: doc, OwnerID: owner, ChunkIndex: 0, Content: "far", Embedding: vec(0, 1)},
		{DocumentID: doc, OwnerID: owner, ChunkIndex: 1, Content: "near", Embedding: vec(1, 0.1)},
		{DocumentID: doc, OwnerID: owner, ChunkIndex: 2, Content: "exact", Embedding: vec(1, 0)},
	}))

	got, err := s.Search(ctx, DocumentScope(doc), vec(1, 0), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "exact", got[0].Content)
	assert.Equal(t, "near", got[1].Content)
	assert.Equal(t, "far", got[2].Content)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Distance, got[i].Distance)
	}
}

func TestMemoryStoreTieBreak(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)
	owner, doc := uuid.New(), uuid.New()

	// identical vectors: chunk index decides, then insertion order
	require.NoError(t, s.Put(ctx, Chunk{DocumentID: doc, OwnerID: owner, ChunkIndex: 2, Content: "c2", Embedding: vec(1, 1)}))
	require.NoError(t, s.Put(ctx, Chunk{DocumentID: doc, OwnerID: owner, ChunkIndex: 0, Content: "c0-first", Embedding: vec(1, 1)}))
	require.NoError(t, s.Put(ctx, Chunk{DocumentID: doc, OwnerID: owner, ChunkIndex: 0, Content: "c0-second", Embedding: vec(1, 1)}))

	got, err := s.Search(ctx, DocumentScope(doc), vec(1, 1), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c0-first", "c0-second", "c2"}, []string{got[0].Content, got[1].Content, got[2].Content})
}

func TestMemoryStoreScopes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)
	alice, bob := uuid.New(), uuid.New()
	docA1, docA2, docB := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, s.PutBatch(ctx, []Chunk{
		{DocumentID: docA1, OwnerID: alice, ChunkIndex: 0, Content: "a1", Embedding: vec(1, 0)},
		{DocumentID: docA2, OwnerID: alice, ChunkIndex: 0, Content: "a2", Embedding: vec(1, 0)},
		{DocumentID: docB, OwnerID: bob, ChunkIndex: 0, Content: "b", Embedding: vec(1, 0)},
	}))

	t.Run("document scope", func(t *testing.T) {
		got, err := s.Search(ctx, DocumentScope(docA1), vec(1, 0), 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, docA1, got[0].DocumentID)
	})

	t.Run("corpus excludes document and other owners", func(t *testing.T) {
		got, err := s.Search(ctx, CorpusScope(alice, docA1), vec(1, 0), 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, docA2, got[0].DocumentID)
	})

	t.Run("corpus without exclusion", func(t *testing.T) {
		got, err := s.Search(ctx, CorpusScope(alice, uuid.Nil), vec(1, 0), 10)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("empty scope", func(t *testing.T) {
		got, err := s.Search(ctx, CorpusScope(uuid.New(), uuid.Nil), vec(1, 0), 3)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestMemoryStoreFewerThanK(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)
	doc := uuid.New()
	require.NoError(t, s.Put(ctx, Chunk{DocumentID: doc, Embedding: vec(1, 0)}))

	got, err := s.Search(ctx, DocumentScope(doc), vec(0, 1), 3)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMemoryStoreDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3)
	doc := uuid.New()

	err := s.PutBatch(ctx, []Chunk{
		{DocumentID: doc, ChunkIndex: 0, Embedding: vec(1, 0, 0)},
		{DocumentID: doc, ChunkIndex: 1, Embedding: vec(1, 0)},
	})
	require.ErrorIs(t, err, ErrDimensionMismatch)

	n, err := s.CountDocument(ctx, doc)
	require.NoError(t, err)
	assert.Zero(t, n, "a rejected batch writes nothing")

	_, err = s.Search(ctx, DocumentScope(doc), vec(1, 0), 3)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMemoryStoreInvalidK(t *testing.T) {
	_, err := NewMemoryStore(2).Search(context.Background(), DocumentScope(uuid.New()), vec(1, 0), 0)
	require.ErrorIs(t, err, ErrInvalidK)
}

func TestMemoryStoreDeleteDocument(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)
	keep, drop := uuid.New(), uuid.New()

	require.NoError(t, s.PutBatch(ctx, []Chunk{
		{DocumentID: keep, Embedding: vec(1, 0)},
		{DocumentID: drop, Embedding: vec(1, 0)},
		{DocumentID: drop, ChunkIndex: 1, Embedding: vec(0, 1)},
	}))

	n, err := s.CountDocument(ctx, drop)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.DeleteDocument(ctx, drop))

	n, err = s.CountDocument(ctx, drop)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := s.Search(ctx, DocumentScope(drop), vec(1, 0), 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	n, err = s.CountDocument(ctx, keep)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0, CosineDistance(vec(1, 0), vec(2, 0)), 1e-9)
	assert.InDelta(t, 1, CosineDistance(vec(1, 0), vec(0, 1)), 1e-9)
	assert.InDelta(t, 2, CosineDistance(vec(1, 0), vec(-1, 0)), 1e-9)
	assert.Equal(t, float64(1), CosineDistance(vec(0, 0), vec(1, 0)))
}

func TestScopeFilter(t *testing.T) {
	owner, doc := uuid.New(), uuid.New()

	where, args := scopeFilter(DocumentScope(doc))
	assert.Equal(t, "document_id = $3", where)
	assert.Equal(t, []any{doc}, args)

	where, args = scopeFilter(CorpusScope(owner, doc))
	assert.Equal(t, "owner_id = $3 AND document_id <> $4", where)
	assert.Equal(t, []any{owner, doc}, args)

	where, _ = scopeFilter(CorpusScope(owner, uuid.Nil))
	assert.Equal(t, "owner_id = $3", where)
}
