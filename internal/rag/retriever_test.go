package rag

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/studybrain/internal/models"
)

func TestRetrieverForDocument(t *testing.T) {
	f := newFixture(t, 20)
	owner := uuid.New()
	doc := f.ingest(t, owner, "bio.txt",
		"mitochondria energy cell osmosis water membrane photosynthesis light leaf ribosome protein build")

	results, err := f.retriever.ForDocument(context.Background(), doc.ID, "osmosis water")
	require.NoError(t, err)
	require.Len(t, results, DefaultTopK)
	for _, r := range results {
		assert.Equal(t, doc.ID, r.DocumentID)
	}
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
	}
}

func TestRetrieverForDocumentWithoutChunks(t *testing.T) {
	f := newFixture(t, 20)

	results, err := f.retriever.ForDocument(context.Background(), uuid.New(), "anything")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieverRelatedExcludesSelf(t *testing.T) {
	f := newFixture(t, 1000)
	alice, bob := uuid.New(), uuid.New()

	doc := f.ingest(t, alice, "a.txt", "photosynthesis chlorophyll light energy")
	sibling := f.ingest(t, alice, "b.txt", "photosynthesis chlorophyll")
	f.ingest(t, bob, "c.txt", "photosynthesis chlorophyll light energy")

	results, err := f.retriever.Related(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, sibling.ID, results[0].DocumentID)
}

func TestRetrieverRelatedEmptyCorpus(t *testing.T) {
	f := newFixture(t, 1000)
	doc := f.ingest(t, uuid.New(), "only.txt", "a lonely document")

	results, err := f.retriever.Related(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieverRelatedUsesPrefixProbe(t *testing.T) {
	f := newFixture(t, 1000)
	owner := uuid.New()
	doc := f.ingest(t, owner, "long.txt", repeatWords("x", 3000))
	f.gw.EmbedRequests = nil

	_, err := f.retriever.Related(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, f.gw.EmbedRequests, 1)
	assert.Len(t, []rune(f.gw.EmbedRequests[0].Input[0]), DefaultProbeRunes)
}

func TestRetrieverEmbeddingFailure(t *testing.T) {
	f := newFixture(t, 1000)
	doc := f.ingest(t, uuid.New(), "a.txt", "content")
	f.gw.EmbedErr = errProvider

	_, err := f.retriever.ForDocument(context.Background(), doc.ID, "question")
	require.ErrorIs(t, err, ErrRetrievalEmbedding)
	require.ErrorIs(t, err, models.ErrUpstreamUnavailable)

	_, err = f.retriever.Related(context.Background(), doc)
	require.ErrorIs(t, err, ErrRetrievalEmbedding)
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "héll", Prefix("héllo", 4))
	assert.Equal(t, "héllo", Prefix("héllo", 10))
	assert.Equal(t, "", Prefix("héllo", 0))
	assert.Equal(t, "", Prefix("", 3))
}
