package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/studybrain/internal/models"
	"github.com/nikhilbhutani/studybrain/internal/vectorstore"
	"github.com/nikhilbhutani/studybrain/pkg/tokenizer"
)

func TestContextBuilderChatKeepsRankOrder(t *testing.T) {
	b := NewContextBuilder(6000, tokenizer.Estimate)
	results := []vectorstore.SearchResult{
		{Content: "first excerpt"},
		{Content: "second excerpt"},
		{Content: "third excerpt"},
	}

	p := b.Chat(results, "What is osmosis?")
	require.Len(t, p.Messages, 2)
	assert.Equal(t, "system", p.Messages[0].Role)

	user := p.Messages[1].Content
	i1 := strings.Index(user, "first excerpt")
	i2 := strings.Index(user, "second excerpt")
	i3 := strings.Index(user, "third excerpt")
	iq := strings.Index(user, "Question: What is osmosis?")
	assert.True(t, i1 >= 0 && i1 < i2 && i2 < i3 && i3 < iq, user)
	assert.Equal(t, 3, p.Excerpts)
	assert.False(t, p.Truncated)
	assert.Positive(t, p.Tokens)
}

func TestContextBuilderChatBudget(t *testing.T) {
	// 100 tokens total, 60 for excerpts: 40 fit, the next 26 overflow
	b := NewContextBuilder(100, tokenizer.Estimate)
	results := []vectorstore.SearchResult{
		{Content: repeatWords("word", 30)},
		{Content: repeatWords("tiny", 20)},
		{Content: "also tiny"},
	}

	p := b.Chat(results, "question?")
	assert.Equal(t, 1, p.Excerpts)
	assert.True(t, p.Truncated)
	assert.NotContains(t, p.Messages[1].Content, "tiny", "later excerpts are dropped, not promoted")
	assert.Contains(t, p.Messages[1].Content, "Question: question?")
}

func TestContextBuilderChatNoExcerpts(t *testing.T) {
	p := NewContextBuilder(6000, tokenizer.Estimate).Chat(nil, "hello?")
	assert.Equal(t, "Question: hello?", p.Messages[1].Content)
	assert.Zero(t, p.Excerpts)
}

func TestContextBuilderTutor(t *testing.T) {
	b := NewContextBuilder(6000, tokenizer.Estimate)
	p := b.Tutor(TutorInput{
		Instruction: "ask a question",
		Source:      "source text",
		Excerpts:    []vectorstore.SearchResult{{Content: "excerpt"}},
		History: []models.Message{
			{Role: models.RoleTutorAssistant, Content: "Q1"},
			{Role: models.RoleTutorUser, Content: "A1"},
		},
	})

	roles := make([]string, len(p.Messages))
	for i, m := range p.Messages {
		roles[i] = m.Role
	}
	assert.Equal(t, []string{"system", "system", "system", "user", "assistant", "user"}, roles)
	assert.Equal(t, "ask a question", p.Messages[0].Content)
	assert.Contains(t, p.Messages[1].Content, "source text")
	assert.Contains(t, p.Messages[2].Content, "excerpt")
	assert.Equal(t, "Q1", p.Messages[4].Content)
	assert.Equal(t, "A1", p.Messages[5].Content)
}
