// Package tutor runs Socratic tutoring sessions over a document.
//
// A session's state is never stored; it is read off the tutor track of the
// document's message log. An empty track is NotStarted, a track whose last
// assistant message is final is Concluded, anything else is InProgress.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/studybrain/internal/conversation"
	"github.com/nikhilbhutani/studybrain/internal/document"
	"github.com/nikhilbhutani/studybrain/internal/llm"
	"github.com/nikhilbhutani/studybrain/internal/models"
	"github.com/nikhilbhutani/studybrain/internal/rag"
	"github.com/nikhilbhutani/studybrain/internal/vectorstore"
)

var (
	ErrSessionNotStarted = fmt.Errorf("tutoring session has not started: %w", models.ErrConflict)
	ErrSessionConcluded  = fmt.Errorf("tutoring session has concluded: %w", models.ErrConflict)
)

type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateConcluded  State = "concluded"
)

type Status string

const (
	StatusCorrect   Status = "correct"
	StatusIncorrect Status = "incorrect"
	StatusNeutral   Status = "neutral"
)

func (s Status) valid() bool {
	return s == StatusCorrect || s == StatusIncorrect || s == StatusNeutral
}

type Config struct {
	// SessionLength is the tutor-track size at which the next reply is the
	// final report.
	SessionLength     int
	HistoryWindow     int
	SourcePrefixRunes int
	Model             string
}

func DefaultConfig() Config {
	return Config{SessionLength: 10, HistoryWindow: 10, SourcePrefixRunes: 4000}
}

// Turn is what the student sees after Start or Continue.
type Turn struct {
	Status   Status          `json:"status"`
	Response string          `json:"response"`
	IsFinish bool            `json:"is_finish"`
	State    State           `json:"state"`
	Fallback bool            `json:"fallback,omitempty"`
	Message  *models.Message `json:"message,omitempty"`
}

type Session struct {
	State         State            `json:"state"`
	SessionLength int              `json:"session_length"`
	Messages      []models.Message `json:"messages"`
}

type reply struct {
	Status   Status `json:"status"`
	Response string `json:"response"`
	IsFinish bool   `json:"is_finish"`
}

type Service struct {
	docs      document.Repository
	messages  conversation.Log
	retriever *rag.Retriever
	builder   *rag.ContextBuilder
	gateway   llm.Gateway
	cfg       Config
}

// NewService builds a tutor. retriever may be nil, in which case replies are
// grounded in the source prefix only.
func NewService(docs document.Repository, messages conversation.Log, retriever *rag.Retriever,
	builder *rag.ContextBuilder, gw llm.Gateway, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.SessionLength <= 0 {
		cfg.SessionLength = def.SessionLength
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = def.HistoryWindow
	}
	if cfg.SourcePrefixRunes <= 0 {
		cfg.SourcePrefixRunes = def.SourcePrefixRunes
	}
	return &Service{
		docs:      docs,
		messages:  messages,
		retriever: retriever,
		builder:   builder,
		gateway:   gw,
		cfg:       cfg,
	}
}

// Start opens a session. If the document already has tutoring history the
// last assistant message is returned again and nothing is generated.
func (s *Service) Start(ctx context.Context, ownerID, docID uuid.UUID) (*Turn, error) {
	doc, err := s.docs.Get(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}

	state, last, err := s.state(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	if state != StateNotStarted && last != nil {
		return &Turn{
			Status:   StatusNeutral,
			Response: last.Content,
			IsFinish: last.Final,
			State:    state,
			Message:  last,
		}, nil
	}

	r, err := s.generate(ctx, doc, openingInstruction, nil, nil)
	if err != nil {
		slog.Warn("tutor opening failed, returning fallback", "document_id", doc.ID, "error", err)
		return &Turn{Status: StatusNeutral, Response: openingFallback, State: StateNotStarted, Fallback: true}, nil
	}

	msg := models.Message{DocumentID: doc.ID, Role: models.RoleTutorAssistant, Content: r.Response}
	if err := s.messages.Append(ctx, &msg); err != nil {
		return nil, fmt.Errorf("store opening question: %w", err)
	}

	slog.Info("tutor session started", "document_id", doc.ID)
	return &Turn{Status: StatusNeutral, Response: r.Response, State: StateInProgress, Message: &msg}, nil
}

// Continue records the student's answer and generates the next question, or
// the final report once the tutor track has reached SessionLength messages.
// The answer is kept even if generation fails; the caller then gets a
// neutral fallback and the session stays where it was.
func (s *Service) Continue(ctx context.Context, ownerID, docID uuid.UUID, answer string) (*Turn, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, fmt.Errorf("%w: answer is required", models.ErrInvalidInput)
	}

	doc, err := s.docs.Get(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}

	state, _, err := s.state(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	switch state {
	case StateNotStarted:
		return nil, ErrSessionNotStarted
	case StateConcluded:
		return nil, ErrSessionConcluded
	}

	userMsg := models.Message{DocumentID: doc.ID, Role: models.RoleTutorUser, Content: answer}
	if err := s.messages.Append(ctx, &userMsg); err != nil {
		return nil, fmt.Errorf("store answer: %w", err)
	}

	n, err := s.messages.Count(ctx, doc.ID, models.TrackTutor)
	if err != nil {
		return nil, fmt.Errorf("count tutor messages: %w", err)
	}
	final := n >= s.cfg.SessionLength

	history, err := s.messages.History(ctx, doc.ID, models.TrackTutor, s.cfg.HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("load tutor history: %w", err)
	}

	instruction := nextInstruction
	if final {
		instruction = finalInstruction
	}

	r, err := s.generate(ctx, doc, instruction, history, s.excerpts(ctx, doc.ID, answer))
	if err != nil {
		slog.Warn("tutor reply failed, returning fallback", "document_id", doc.ID, "final", final, "error", err)
		return &Turn{Status: StatusNeutral, Response: answerFallback, State: StateInProgress, Fallback: true}, nil
	}

	msg := models.Message{DocumentID: doc.ID, Role: models.RoleTutorAssistant, Content: r.Response, Final: final}
	if err := s.messages.Append(ctx, &msg); err != nil {
		return nil, fmt.Errorf("store tutor reply: %w", err)
	}

	next := StateInProgress
	if final {
		next = StateConcluded
		slog.Info("tutor session concluded", "document_id", doc.ID, "messages", n+1)
	}
	return &Turn{Status: r.Status, Response: r.Response, IsFinish: final, State: next, Message: &msg}, nil
}

// Reset drops the tutor track. The chat track is untouched.
func (s *Service) Reset(ctx context.Context, ownerID, docID uuid.UUID) error {
	doc, err := s.docs.Get(ctx, ownerID, docID)
	if err != nil {
		return err
	}
	if err := s.messages.ClearTrack(ctx, doc.ID, models.TrackTutor); err != nil {
		return fmt.Errorf("reset tutor session: %w", err)
	}
	return nil
}

func (s *Service) Session(ctx context.Context, ownerID, docID uuid.UUID) (*Session, error) {
	doc, err := s.docs.Get(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}
	state, _, err := s.state(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.History(ctx, doc.ID, models.TrackTutor, 0)
	if err != nil {
		return nil, fmt.Errorf("load tutor history: %w", err)
	}
	return &Session{State: state, SessionLength: s.cfg.SessionLength, Messages: msgs}, nil
}

func (s *Service) state(ctx context.Context, docID uuid.UUID) (State, *models.Message, error) {
	n, err := s.messages.Count(ctx, docID, models.TrackTutor)
	if err != nil {
		return "", nil, fmt.Errorf("count tutor messages: %w", err)
	}
	if n == 0 {
		return StateNotStarted, nil, nil
	}

	last, err := s.messages.LastAssistant(ctx, docID, models.TrackTutor)
	if errors.Is(err, models.ErrNotFound) {
		return StateInProgress, nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	if last.Final {
		return StateConcluded, last, nil
	}
	return StateInProgress, last, nil
}

func (s *Service) excerpts(ctx context.Context, docID uuid.UUID, query string) []vectorstore.SearchResult {
	if s.retriever == nil {
		return nil
	}
	results, err := s.retriever.ForDocument(ctx, docID, query)
	if err != nil {
		slog.Warn("tutor retrieval failed, continuing without excerpts", "document_id", docID, "error", err)
		return nil
	}
	return results
}

func (s *Service) generate(ctx context.Context, doc *models.Document, instruction string,
	history []models.Message, excerpts []vectorstore.SearchResult) (*reply, error) {
	prompt := s.builder.Tutor(rag.TutorInput{
		Instruction: instruction,
		Source:      rag.Prefix(doc.Content, s.cfg.SourcePrefixRunes),
		Excerpts:    excerpts,
		History:     history,
	})

	resp, err := s.gateway.Chat(ctx, llm.ChatRequest{
		Model:          s.cfg.Model,
		Messages:       prompt.Messages,
		ResponseFormat: llm.FormatJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, err)
	}

	var r reply
	if err := llm.ParseJSON(resp.Content, &r); err != nil {
		return nil, err
	}
	r.Response = strings.TrimSpace(r.Response)
	if r.Response == "" {
		return nil, fmt.Errorf("%w: empty response field", llm.ErrMalformedJSON)
	}
	if !r.Status.valid() {
		r.Status = StatusNeutral
	}
	return &r, nil
}
