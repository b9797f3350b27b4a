package conversation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/studybrain/internal/database/dbtest"
	"github.com/nikhilbhutani/studybrain/internal/models"
)

func TestPgLog(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	l := NewPgLog(pool)
	doc := dbtest.InsertDocument(t, pool, uuid.New())

	appendMsg(t, l, doc, models.RoleTutorAssistant, "q1")
	appendMsg(t, l, doc, models.RoleChatUser, "chat question")
	appendMsg(t, l, doc, models.RoleTutorUser, "a1")
	appendMsg(t, l, doc, models.RoleTutorAssistant, "q2")

	last2, err := l.History(ctx, doc, models.TrackTutor, 2)
	require.NoError(t, err)
	require.Len(t, last2, 2)
	assert.Equal(t, "a1", last2[0].Content)
	assert.Equal(t, models.RoleTutorUser, last2[0].Role)
	assert.Equal(t, "q2", last2[1].Content)

	all, err := l.History(ctx, doc, models.TrackTutor, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	n, err := l.Count(ctx, doc, models.TrackChat)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	final := &models.Message{DocumentID: doc, Role: models.RoleTutorAssistant, Content: "report", Final: true}
	require.NoError(t, l.Append(ctx, final))
	last, err := l.LastAssistant(ctx, doc, models.TrackTutor)
	require.NoError(t, err)
	assert.Equal(t, "report", last.Content)
	assert.True(t, last.Final)

	_, err = l.LastAssistant(ctx, doc, models.TrackChat)
	require.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, l.ClearTrack(ctx, doc, models.TrackTutor))
	n, err = l.Count(ctx, doc, models.TrackTutor)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = l.Count(ctx, doc, models.TrackChat)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "clearing the tutor track keeps chat")
}
