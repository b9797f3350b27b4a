package tutor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/studybrain/internal/conversation"
	"github.com/nikhilbhutani/studybrain/internal/document"
	"github.com/nikhilbhutani/studybrain/internal/embedding"
	"github.com/nikhilbhutani/studybrain/internal/llm"
	"github.com/nikhilbhutani/studybrain/internal/llm/llmtest"
	"github.com/nikhilbhutani/studybrain/internal/models"
	"github.com/nikhilbhutani/studybrain/internal/rag"
	"github.com/nikhilbhutani/studybrain/internal/vectorstore"
	"github.com/nikhilbhutani/studybrain/pkg/tokenizer"
)

type fixture struct {
	svc      *Service
	gw       *llmtest.Gateway
	messages *conversation.MemoryLog
	owner    uuid.UUID
	doc      *models.Document
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		gw:       llmtest.New(16),
		messages: conversation.NewMemoryLog(),
		owner:    uuid.New(),
	}
	docs := document.NewMemoryRepository()
	f.doc = &models.Document{OwnerID: f.owner, Filename: "bio.txt", Content: "Cells divide by mitosis.", Status: models.DocStatusReady}
	require.NoError(t, docs.Create(ctx, f.doc))

	embedder := embedding.NewService(f.gw, embedding.Config{Dimensions: 16})
	retriever := rag.NewRetriever(vectorstore.NewMemoryStore(16), embedder, rag.RetrieverConfig{})
	builder := rag.NewContextBuilder(6000, tokenizer.Estimate)

	f.svc = NewService(docs, f.messages, retriever, builder, f.gw, cfg)
	return f
}

func js(status Status, response string) llmtest.Reply {
	return llmtest.Reply{Content: fmt.Sprintf(`{"status":%q,"response":%q,"is_finish":false}`, status, response)}
}

func (f *fixture) tutorCount(t *testing.T) int {
	t.Helper()
	n, err := f.messages.Count(context.Background(), f.doc.ID, models.TrackTutor)
	require.NoError(t, err)
	return n
}

func TestStartIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultConfig())
	f.gw.Script(js(StatusNeutral, "What is mitosis?"))

	first, err := f.svc.Start(ctx, f.owner, f.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "What is mitosis?", first.Response)
	assert.Equal(t, StateInProgress, first.State)
	assert.False(t, first.IsFinish)

	second, err := f.svc.Start(ctx, f.owner, f.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Response, second.Response)
	assert.Equal(t, first.Message.ID, second.Message.ID)

	assert.Equal(t, 1, f.tutorCount(t), "no duplicate opening message")
	assert.Len(t, f.gw.ChatRequests, 1)
	assert.Equal(t, llm.FormatJSON, f.gw.ChatRequests[0].ResponseFormat)
}

func TestSessionConcludesAtTenMessages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultConfig())

	f.gw.Script(js(StatusNeutral, "Q1"))
	_, err := f.svc.Start(ctx, f.owner, f.doc.ID)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		f.gw.Script(js(StatusCorrect, fmt.Sprintf("R%d", i)))
		turn, err := f.svc.Continue(ctx, f.owner, f.doc.ID, fmt.Sprintf("A%d", i))
		require.NoError(t, err)

		instruction := f.gw.LastChat().Messages[0].Content
		if i < 5 {
			assert.False(t, turn.IsFinish, "answer %d", i)
			assert.Equal(t, StateInProgress, turn.State)
			assert.Equal(t, nextInstruction, instruction, "answer %d", i)
		} else {
			assert.True(t, turn.IsFinish)
			assert.Equal(t, StateConcluded, turn.State)
			assert.Equal(t, finalInstruction, instruction)
			assert.True(t, turn.Message.Final)
		}
		assert.Equal(t, StatusCorrect, turn.Status)
	}
	assert.Equal(t, 11, f.tutorCount(t))

	_, err = f.svc.Continue(ctx, f.owner, f.doc.ID, "one more")
	require.ErrorIs(t, err, ErrSessionConcluded)
	require.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, 11, f.tutorCount(t), "answers after the end are not stored")

	resumed, err := f.svc.Start(ctx, f.owner, f.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "R5", resumed.Response)
	assert.True(t, resumed.IsFinish)
	assert.Equal(t, StateConcluded, resumed.State)

	sess, err := f.svc.Session(ctx, f.owner, f.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StateConcluded, sess.State)
	assert.Len(t, sess.Messages, 11)
}

func TestShortSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{SessionLength: 4})
	f.gw.Default = &llmtest.Reply{Content: `{"status":"neutral","response":"ok","is_finish":false}`}

	_, err := f.svc.Start(ctx, f.owner, f.doc.ID)
	require.NoError(t, err)

	turn, err := f.svc.Continue(ctx, f.owner, f.doc.ID, "A1")
	require.NoError(t, err)
	assert.False(t, turn.IsFinish)

	turn, err = f.svc.Continue(ctx, f.owner, f.doc.ID, "A2")
	require.NoError(t, err)
	assert.True(t, turn.IsFinish)
}

func TestFinishIgnoresModelFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultConfig())
	f.gw.Script(js(StatusNeutral, "Q1"),
		llmtest.Reply{Content: `{"status":"correct","response":"done already","is_finish":true}`})

	_, err := f.svc.Start(ctx, f.owner, f.doc.ID)
	require.NoError(t, err)
	turn, err := f.svc.Continue(ctx, f.owner, f.doc.ID, "A1")
	require.NoError(t, err)
	assert.False(t, turn.IsFinish)
	assert.Equal(t, StateInProgress, turn.State)
}

func TestContinueBeforeStart(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	_, err := f.svc.Continue(context.Background(), f.owner, f.doc.ID, "answer")
	require.ErrorIs(t, err, ErrSessionNotStarted)
	assert.Zero(t, f.tutorCount(t))
}

func TestContinueRejectsEmptyAnswer(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	_, err := f.svc.Continue(context.Background(), f.owner, f.doc.ID, "  ")
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestContinueFallbackKeepsAnswer(t *testing.T) {
	tests := []struct {
		name  string
		reply llmtest.Reply
	}{
		{name: "generation error", reply: llmtest.Reply{Err: errors.New("timeout")}},
		{name: "not json", reply: llmtest.Reply{Content: "Great answer! Next question: ..."}},
		{name: "empty response", reply: llmtest.Reply{Content: `{"status":"correct","response":"  "}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, DefaultConfig())
			f.gw.Script(js(StatusNeutral, "Q1"), tt.reply)

			_, err := f.svc.Start(ctx, f.owner, f.doc.ID)
			require.NoError(t, err)

			turn, err := f.svc.Continue(ctx, f.owner, f.doc.ID, "my answer")
			require.NoError(t, err)
			assert.True(t, turn.Fallback)
			assert.Equal(t, StatusNeutral, turn.Status)
			assert.Equal(t, answerFallback, turn.Response)
			assert.Equal(t, StateInProgress, turn.State)
			assert.Nil(t, turn.Message)

			history, err := f.messages.History(ctx, f.doc.ID, models.TrackTutor, 0)
			require.NoError(t, err)
			require.Len(t, history, 2)
			assert.Equal(t, models.RoleTutorUser, history[1].Role)
			assert.Equal(t, "my answer", history[1].Content)

			f.gw.Script(js(StatusCorrect, "Q2"))
			turn, err = f.svc.Continue(ctx, f.owner, f.doc.ID, "my answer again")
			require.NoError(t, err)
			assert.Equal(t, "Q2", turn.Response)
		})
	}
}

func TestStartFallbackPersistsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultConfig())
	f.gw.Script(llmtest.Reply{Err: errors.New("quota")})

	turn, err := f.svc.Start(ctx, f.owner, f.doc.ID)
	require.NoError(t, err)
	assert.True(t, turn.Fallback)
	assert.Equal(t, StateNotStarted, turn.State)
	assert.Zero(t, f.tutorCount(t))
}

func TestUnknownStatusIsNeutral(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultConfig())
	f.gw.Script(js(StatusNeutral, "Q1"),
		llmtest.Reply{Content: "```json\n{\"status\":\"partially\",\"response\":\"Close.\"}\n```"})

	_, err := f.svc.Start(ctx, f.owner, f.doc.ID)
	require.NoError(t, err)
	turn, err := f.svc.Continue(ctx, f.owner, f.doc.ID, "A1")
	require.NoError(t, err)
	assert.Equal(t, StatusNeutral, turn.Status)
	assert.Equal(t, "Close.", turn.Response)
}

func TestResetClearsTutorTrackOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultConfig())
	f.gw.Script(js(StatusNeutral, "Q1"), js(StatusNeutral, "Q1 again"))

	_, err := f.svc.Start(ctx, f.owner, f.doc.ID)
	require.NoError(t, err)
	require.NoError(t, f.messages.Append(ctx, &models.Message{DocumentID: f.doc.ID, Role: models.RoleChatUser, Content: "chat"}))

	require.NoError(t, f.svc.Reset(ctx, f.owner, f.doc.ID))

	sess, err := f.svc.Session(ctx, f.owner, f.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StateNotStarted, sess.State)
	assert.Empty(t, sess.Messages)

	n, err := f.messages.Count(ctx, f.doc.ID, models.TrackChat)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	turn, err := f.svc.Start(ctx, f.owner, f.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q1 again", turn.Response)
}

func TestHistoryWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{SessionLength: 100, HistoryWindow: 4})
	f.gw.Default = &llmtest.Reply{Content: `{"status":"neutral","response":"next","is_finish":false}`}

	_, err := f.svc.Start(ctx, f.owner, f.doc.ID)
	require.NoError(t, err)
	for i := range 4 {
		_, err := f.svc.Continue(ctx, f.owner, f.doc.ID, fmt.Sprintf("answer %d", i))
		require.NoError(t, err)
	}

	turns := 0
	for _, m := range f.gw.LastChat().Messages {
		if m.Role != "system" {
			turns++
		}
	}
	// opening nudge plus the window
	assert.Equal(t, 1+4, turns)
	last := f.gw.LastChat().Messages
	assert.Equal(t, "answer 3", last[len(last)-1].Content)
}

func TestSourcePrefix(t *testing.T) {
	f := newFixture(t, Config{SourcePrefixRunes: 5})
	f.gw.Script(js(StatusNeutral, "Q1"))

	_, err := f.svc.Start(context.Background(), f.owner, f.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Source material:\nCells", f.gw.LastChat().Messages[1].Content)
}

func TestOtherOwnerIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultConfig())
	stranger := uuid.New()

	_, err := f.svc.Start(ctx, stranger, f.doc.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
	_, err = f.svc.Continue(ctx, stranger, f.doc.ID, "x")
	require.ErrorIs(t, err, models.ErrNotFound)
	require.ErrorIs(t, f.svc.Reset(ctx, stranger, f.doc.ID), models.ErrNotFound)
	_, err = f.svc.Session(ctx, stranger, f.doc.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}
