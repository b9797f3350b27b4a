package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/studybrain/internal/models"
	"github.com/nikhilbhutani/studybrain/internal/vectorstore"
)

func TestCrossReference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	owner := uuid.New()

	f.ingest(t, owner, "genetics.txt", "dna replication enzymes")
	f.ingest(t, owner, "cells.txt", "cell membrane transport")
	doc := f.ingest(t, owner, "review.txt", "dna replication and cell membrane")

	note, err := f.linker.CrossReference(ctx, owner, doc.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(note, "Related material from your other documents:"), note)
	assert.Contains(t, note, "genetics.txt")
	assert.Contains(t, note, "cells.txt")
	assert.NotContains(t, note, "review.txt")
}

func TestCrossReferenceEmpty(t *testing.T) {
	f := newFixture(t, 1000)
	owner := uuid.New()
	doc := f.ingest(t, owner, "only.txt", "nothing else here")

	note, err := f.linker.CrossReference(context.Background(), owner, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "", note)
}

func TestCrossReferenceOtherOwner(t *testing.T) {
	f := newFixture(t, 1000)
	doc := f.ingest(t, uuid.New(), "a.txt", "text")

	_, err := f.linker.CrossReference(context.Background(), uuid.New(), doc.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestGroupBySource(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	groups := groupBySource([]vectorstore.SearchResult{
		{DocumentID: b, Content: "b1"},
		{DocumentID: a, Content: "a1"},
		{DocumentID: b, Content: "b2"},
	})

	require.Len(t, groups, 2)
	assert.Equal(t, b, groups[0].documentID)
	assert.Len(t, groups[0].results, 2)
	assert.Equal(t, a, groups[1].documentID)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "a b c", excerpt("a\n  b\tc"))
	long := strings.Repeat("x", excerptRunes+10)
	assert.Equal(t, strings.Repeat("x", excerptRunes)+"...", excerpt(long))
}
