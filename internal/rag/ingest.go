package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/studybrain/internal/document"
	"github.com/nikhilbhutani/studybrain/internal/embedding"
	"github.com/nikhilbhutani/studybrain/internal/llm"
	"github.com/nikhilbhutani/studybrain/internal/models"
	"github.com/nikhilbhutani/studybrain/internal/vectorstore"
	"github.com/nikhilbhutani/studybrain/pkg/chunker"
)

var ErrAlreadyIngested = fmt.Errorf("document already has chunks: %w", models.ErrConflict)

// SummaryFallback is stored when summary generation fails.
const SummaryFallback = "A summary could not be generated for this document."

const summaryPrompt = `Write a concise, well-structured summary of the following document for a student.
Use short sections and bullet points for the key ideas.`

type IngestConfig struct {
	ChunkSize    int
	SummaryRunes int
	Model        string
}

type Ingester struct {
	docs     document.Repository
	chunks   vectorstore.ChunkStore
	embedder embedding.Embedder
	gateway  llm.Gateway
	linker   *Linker
	count    TokenCounter
	cfg      IngestConfig
}

func NewIngester(docs document.Repository, chunks vectorstore.ChunkStore, embedder embedding.Embedder,
	gw llm.Gateway, linker *Linker, count TokenCounter, cfg IngestConfig) *Ingester {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunker.DefaultChunkSize
	}
	if cfg.SummaryRunes <= 0 {
		cfg.SummaryRunes = 30000
	}
	return &Ingester{
		docs:     docs,
		chunks:   chunks,
		embedder: embedder,
		gateway:  gw,
		linker:   linker,
		count:    count,
		cfg:      cfg,
	}
}

// IngestResult reports a finished ingestion. RelatedUnavailable is set when
// the cross-reference could not be computed, as opposed to an empty
// RelatedNote meaning nothing related exists.
type IngestResult struct {
	DocumentID         uuid.UUID `json:"document_id"`
	Chunks             int       `json:"chunks"`
	Summary            string    `json:"summary"`
	RelatedNote        string    `json:"related_note"`
	RelatedUnavailable bool      `json:"related_unavailable,omitempty"`
	DurationMs         int64     `json:"duration_ms"`
}

// Ingest chunks and embeds a document and stores every chunk in one batch.
// Any failure leaves the document failed with no chunks. The summary is best
// effort. Once the document is ready the cross-reference note is computed
// for it. Chunks left behind by an interrupted run on a document that never
// became ready are dropped first.
func (in *Ingester) Ingest(ctx context.Context, doc *models.Document) (*IngestResult, error) {
	start := time.Now()

	n, err := in.chunks.CountDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("count existing chunks: %w", err)
	}
	if n > 0 {
		if doc.Status == models.DocStatusReady {
			return nil, ErrAlreadyIngested
		}
		slog.Warn("dropping chunks of unfinished ingestion", "document_id", doc.ID, "chunks", n, "status", doc.Status)
		if err := in.chunks.DeleteDocument(ctx, doc.ID); err != nil {
			return nil, fmt.Errorf("drop stale chunks: %w", err)
		}
	}

	if err := in.docs.SetStatus(ctx, doc.ID, models.DocStatusProcessing); err != nil {
		return nil, fmt.Errorf("mark processing: %w", err)
	}
	doc.Status = models.DocStatusProcessing

	count, err := in.writeChunks(ctx, doc)
	if err != nil {
		in.fail(ctx, doc, err)
		return nil, err
	}

	summary := in.summarize(ctx, doc)
	if err := in.docs.SetSummary(ctx, doc.ID, summary); err != nil {
		in.fail(ctx, doc, err)
		return nil, fmt.Errorf("store summary: %w", err)
	}
	doc.Summary = summary

	if err := in.docs.SetStatus(ctx, doc.ID, models.DocStatusReady); err != nil {
		in.fail(ctx, doc, err)
		return nil, fmt.Errorf("mark ready: %w", err)
	}
	doc.Status = models.DocStatusReady

	result := &IngestResult{
		DocumentID: doc.ID,
		Chunks:     count,
		Summary:    summary,
	}
	if in.linker != nil {
		note, err := in.linker.Note(ctx, doc)
		if err != nil {
			slog.Warn("cross-reference unavailable", "document_id", doc.ID, "error", err)
			result.RelatedUnavailable = true
		}
		result.RelatedNote = note
	}
	result.DurationMs = time.Since(start).Milliseconds()

	slog.Info("document ingested",
		"document_id", doc.ID,
		"chunks", count,
		"duration_ms", result.DurationMs,
	)
	return result, nil
}

// Reindex drops a document's chunks and ingests it again.
func (in *Ingester) Reindex(ctx context.Context, doc *models.Document) (*IngestResult, error) {
	if err := in.chunks.DeleteDocument(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("drop chunks: %w", err)
	}
	return in.Ingest(ctx, doc)
}

func (in *Ingester) writeChunks(ctx context.Context, doc *models.Document) (int, error) {
	pieces, err := ChunkText(doc.Content, in.cfg.ChunkSize, in.count)
	if err != nil {
		return 0, fmt.Errorf("chunk document: %w", err)
	}
	if len(pieces) == 0 {
		return 0, fmt.Errorf("%w: document has no text", models.ErrInvalidInput)
	}

	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Content
	}

	vectors, err := in.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}

	chunks := make([]vectorstore.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = vectorstore.Chunk{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			OwnerID:    doc.OwnerID,
			ChunkIndex: p.Index,
			Content:    p.Content,
			Embedding:  vectors[i],
			TokenCount: p.TokenCount,
		}
	}

	if err := in.chunks.PutBatch(ctx, chunks); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	return len(chunks), nil
}

func (in *Ingester) summarize(ctx context.Context, doc *models.Document) string {
	resp, err := in.gateway.Chat(ctx, llm.ChatRequest{
		Model: in.cfg.Model,
		Messages: []llm.Message{
			{Role: "system", Content: summaryPrompt},
			{Role: "user", Content: Prefix(doc.Content, in.cfg.SummaryRunes)},
		},
	})
	if err != nil || resp.Content == "" {
		slog.Warn("summary generation failed, using fallback", "document_id", doc.ID, "error", err)
		return SummaryFallback
	}
	return resp.Content
}

// fail drops whatever chunks were written and marks the document failed, so
// a retry starts from nothing.
func (in *Ingester) fail(ctx context.Context, doc *models.Document, cause error) {
	ctx = context.WithoutCancel(ctx)
	if err := in.chunks.DeleteDocument(ctx, doc.ID); err != nil {
		slog.Error("drop chunks of failed ingestion", "document_id", doc.ID, "error", err)
	}
	if err := in.docs.SetStatus(ctx, doc.ID, models.DocStatusFailed); err != nil && !errors.Is(err, models.ErrNotFound) {
		slog.Error("mark failed", "document_id", doc.ID, "error", err)
	}
	doc.Status = models.DocStatusFailed
	slog.Error("ingestion failed", "document_id", doc.ID, "error", cause)
}
