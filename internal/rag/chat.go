package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/studybrain/internal/conversation"
	"github.com/nikhilbhutani/studybrain/internal/document"
	"github.com/nikhilbhutani/studybrain/internal/llm"
	"github.com/nikhilbhutani/studybrain/internal/models"
	"github.com/nikhilbhutani/studybrain/internal/vectorstore"
)

var ErrDocumentNotReady = fmt.Errorf("document is not ready: %w", models.ErrConflict)

type Citation struct {
	ChunkID    uuid.UUID `json:"chunk_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Distance   float64   `json:"distance"`
}

type ChatAnswer struct {
	Question  models.Message `json:"question"`
	Answer    models.Message `json:"answer"`
	Citations []Citation     `json:"citations"`
}

// ChatService answers free-form questions about one document.
type ChatService struct {
	docs      document.Repository
	messages  conversation.Log
	retriever *Retriever
	builder   *ContextBuilder
	gateway   llm.Gateway
	model     string
}

func NewChatService(docs document.Repository, messages conversation.Log, retriever *Retriever,
	builder *ContextBuilder, gw llm.Gateway, model string) *ChatService {
	return &ChatService{
		docs:      docs,
		messages:  messages,
		retriever: retriever,
		builder:   builder,
		gateway:   gw,
		model:     model,
	}
}

// Ask records the question, grounds it in the document's nearest chunks and
// records the answer. The question stays in the log even if generation
// fails.
func (s *ChatService) Ask(ctx context.Context, ownerID, docID uuid.UUID, question string) (*ChatAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", models.ErrInvalidInput)
	}

	doc, err := s.docs.Get(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.DocStatusReady {
		return nil, ErrDocumentNotReady
	}

	q := models.Message{DocumentID: doc.ID, Role: models.RoleChatUser, Content: question}
	if err := s.messages.Append(ctx, &q); err != nil {
		return nil, fmt.Errorf("store question: %w", err)
	}

	results, err := s.retriever.ForDocument(ctx, doc.ID, question)
	if err != nil {
		return nil, err
	}

	prompt := s.builder.Chat(results, question)
	resp, err := s.gateway.Chat(ctx, llm.ChatRequest{Model: s.model, Messages: prompt.Messages})
	if err != nil {
		slog.Error("chat generation failed", "document_id", doc.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, err)
	}

	a := models.Message{DocumentID: doc.ID, Role: models.RoleChatAssistant, Content: resp.Content}
	if err := s.messages.Append(ctx, &a); err != nil {
		return nil, fmt.Errorf("store answer: %w", err)
	}

	slog.Info("chat answered",
		"document_id", doc.ID,
		"excerpts", prompt.Excerpts,
		"prompt_tokens", prompt.Tokens,
		"latency_ms", resp.LatencyMs,
	)

	return &ChatAnswer{
		Question:  q,
		Answer:    a,
		Citations: citations(results[:prompt.Excerpts]),
	}, nil
}

// History returns the chat track only.
func (s *ChatService) History(ctx context.Context, ownerID, docID uuid.UUID, limit int) ([]models.Message, error) {
	if _, err := s.docs.Get(ctx, ownerID, docID); err != nil {
		return nil, err
	}
	return s.messages.History(ctx, docID, models.TrackChat, limit)
}

func citations(results []vectorstore.SearchResult) []Citation {
	out := make([]Citation, len(results))
	for i, r := range results {
		out[i] = Citation{
			ChunkID:    r.ChunkID,
			ChunkIndex: r.ChunkIndex,
			Content:    excerpt(r.Content),
			Distance:   r.Distance,
		}
	}
	return out
}
