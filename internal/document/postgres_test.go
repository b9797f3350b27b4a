package document

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/studybrain/internal/database/dbtest"
	"github.com/nikhilbhutani/studybrain/internal/models"
)

func TestPgRepository(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	repo := NewPgRepository(pool)
	owner := uuid.New()

	create := func(name string) *models.Document {
		t.Helper()
		d := &models.Document{OwnerID: owner, Filename: name, FileType: "txt", Content: "text of " + name}
		require.NoError(t, repo.Create(ctx, d))
		t.Cleanup(func() { _ = repo.Delete(context.Background(), d.ID) })
		return d
	}

	older := create("older.txt")
	assert.Equal(t, models.DocStatusPending, older.Status)
	assert.False(t, older.CreatedAt.IsZero())
	time.Sleep(5 * time.Millisecond)
	newer := create("newer.txt")

	got, err := repo.Get(ctx, owner, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "text of older.txt", got.Content)

	_, err = repo.Get(ctx, uuid.New(), older.ID)
	require.ErrorIs(t, err, models.ErrNotFound)

	list, err := repo.ListByOwner(ctx, owner, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)

	page, err := repo.ListByOwner(ctx, owner, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, older.ID, page[0].ID)

	require.NoError(t, repo.SetStatus(ctx, older.ID, models.DocStatusReady))
	require.NoError(t, repo.SetSummary(ctx, older.ID, "summary"))
	require.NoError(t, repo.SetAudioURL(ctx, older.ID, "owner/older-narration.mp3"))

	narrated, err := repo.ListNarrated(ctx, owner)
	require.NoError(t, err)
	require.Len(t, narrated, 1)
	assert.Equal(t, older.ID, narrated[0].ID)
	assert.Equal(t, models.DocStatusReady, narrated[0].Status)
	assert.Equal(t, "summary", narrated[0].Summary)

	require.ErrorIs(t, repo.SetStatus(ctx, uuid.New(), models.DocStatusReady), models.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, newer.ID))
	_, err = repo.GetByID(ctx, newer.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}
