package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/studybrain/internal/document"
	"github.com/nikhilbhutani/studybrain/internal/models"
	"github.com/nikhilbhutani/studybrain/internal/queue"
	"github.com/nikhilbhutani/studybrain/internal/rag"
)

// Ingester is the subset of rag.Ingester the worker drives.
type Ingester interface {
	Ingest(ctx context.Context, doc *models.Document) (*rag.IngestResult, error)
	Reindex(ctx context.Context, doc *models.Document) (*rag.IngestResult, error)
}

var _ Ingester = (*rag.Ingester)(nil)

type IngestWorker struct {
	docs     document.Repository
	ingester Ingester
}

func NewIngestWorker(docs document.Repository, ingester Ingester) *IngestWorker {
	return &IngestWorker{docs: docs, ingester: ingester}
}

// Register binds the worker's task handlers.
func (w *IngestWorker) Register(reg *queue.HandlersRegistry) {
	reg.RegisterFunc(queue.TypeDocumentIngest, w.ProcessIngest)
	reg.RegisterFunc(queue.TypeDocumentReindex, w.ProcessReindex)
}

func (w *IngestWorker) ProcessIngest(ctx context.Context, t *asynq.Task) error {
	return w.process(ctx, t, w.ingester.Ingest)
}

func (w *IngestWorker) ProcessReindex(ctx context.Context, t *asynq.Task) error {
	return w.process(ctx, t, w.ingester.Reindex)
}

func (w *IngestWorker) process(ctx context.Context, t *asynq.Task,
	run func(context.Context, *models.Document) (*rag.IngestResult, error)) error {
	docID, err := queue.ParseDocumentPayload(t.Payload())
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	doc, err := w.docs.GetByID(ctx, docID)
	if errors.Is(err, models.ErrNotFound) {
		slog.Warn("document gone before ingestion", "document_id", docID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	slog.Info("processing document", "document_id", docID, "task", t.Type())

	result, err := run(ctx, doc)
	switch {
	case errors.Is(err, rag.ErrAlreadyIngested):
		slog.Info("document already ingested", "document_id", docID)
		return nil
	case errors.Is(err, models.ErrInvalidInput):
		return fmt.Errorf("ingest %s: %v: %w", docID, err, asynq.SkipRetry)
	case err != nil:
		return fmt.Errorf("ingest %s: %w", docID, err)
	}

	slog.Info("document processed", "document_id", docID, "chunks", result.Chunks)
	return nil
}
