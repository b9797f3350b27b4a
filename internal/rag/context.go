package rag

import (
	"fmt"
	"strings"

	"github.com/nikhilbhutani/studybrain/internal/llm"
	"github.com/nikhilbhutani/studybrain/internal/models"
	"github.com/nikhilbhutani/studybrain/internal/vectorstore"
)

// TokenCounter reports how many model tokens text occupies.
type TokenCounter func(text string) int

const chatSystemPrompt = `You are a study assistant. Answer the student's question using the document excerpts provided.
If the excerpts do not contain the answer, say so plainly instead of guessing.`

// ContextBuilder assembles bounded prompts. Retrieved excerpts share a fixed
// fraction of the token budget; an excerpt that would overflow it is dropped
// along with everything ranked after it, so the ranked order is never
// changed. The question itself is always included.
type ContextBuilder struct {
	maxTokens       int
	retrievalBudget float64
	count           TokenCounter
}

func NewContextBuilder(maxTokens int, count TokenCounter) *ContextBuilder {
	if maxTokens <= 0 {
		maxTokens = 6000
	}
	return &ContextBuilder{
		maxTokens:       maxTokens,
		retrievalBudget: 0.6,
		count:           count,
	}
}

// Prompt is an assembled request ready for the gateway.
type Prompt struct {
	Messages []llm.Message
	Tokens   int
	// Excerpts is how many retrieved chunks made it into the prompt.
	Excerpts  int
	Truncated bool
}

// Chat grounds a single question in the ranked excerpts. Earlier chat turns
// are deliberately not part of the prompt.
func (b *ContextBuilder) Chat(results []vectorstore.SearchResult, question string) Prompt {
	excerpts, n, truncated := b.excerpts(results)

	var user strings.Builder
	if excerpts != "" {
		user.WriteString("Document excerpts:\n\n")
		user.WriteString(excerpts)
		user.WriteString("\n")
	}
	user.WriteString("Question: ")
	user.WriteString(question)

	msgs := []llm.Message{
		{Role: "system", Content: chatSystemPrompt},
		{Role: "user", Content: user.String()},
	}
	return Prompt{Messages: msgs, Tokens: b.total(msgs), Excerpts: n, Truncated: truncated}
}

// TutorInput carries everything one tutoring generation sees.
type TutorInput struct {
	Instruction string
	Source      string
	Excerpts    []vectorstore.SearchResult
	History     []models.Message
}

const tutorOpening = "Start the tutoring session."

// Tutor lays out instruction, source text, optional excerpts and the
// tutoring history window as a chat transcript.
func (b *ContextBuilder) Tutor(in TutorInput) Prompt {
	msgs := []llm.Message{
		{Role: "system", Content: in.Instruction},
		{Role: "system", Content: "Source material:\n" + in.Source},
	}

	excerpts, n, truncated := b.excerpts(in.Excerpts)
	if excerpts != "" {
		msgs = append(msgs, llm.Message{Role: "system", Content: "Relevant excerpts:\n\n" + excerpts})
	}

	msgs = append(msgs, llm.Message{Role: "user", Content: tutorOpening})
	for _, m := range in.History {
		role := "user"
		if m.Role.Speaker == models.SpeakerAssistant {
			role = "assistant"
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}

	return Prompt{Messages: msgs, Tokens: b.total(msgs), Excerpts: n, Truncated: truncated}
}

func (b *ContextBuilder) excerpts(results []vectorstore.SearchResult) (string, int, bool) {
	budget := int(float64(b.maxTokens) * b.retrievalBudget)

	var sb strings.Builder
	used := 0
	for i, r := range results {
		t := b.count(r.Content)
		if used+t > budget {
			return sb.String(), i, true
		}
		fmt.Fprintf(&sb, "[Excerpt %d]\n%s\n\n", i+1, r.Content)
		used += t
	}
	return sb.String(), len(results), false
}

func (b *ContextBuilder) total(msgs []llm.Message) int {
	n := 0
	for _, m := range msgs {
		n += b.count(m.Content)
	}
	return n
}
