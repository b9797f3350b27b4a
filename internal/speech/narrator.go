package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/studybrain/internal/document"
	"github.com/nikhilbhutani/studybrain/internal/models"
	"github.com/nikhilbhutani/studybrain/internal/storage"
)

var audioTypes = map[string]string{
	".mp3": "audio/mpeg",
	".wav": "audio/wav",
}

var ErrNoSummary = fmt.Errorf("document has no summary to narrate: %w", models.ErrConflict)

// Narrator reads a document's summary aloud and keeps the audio next to the
// uploaded file.
type Narrator struct {
	docs   document.Repository
	synth  Synthesizer
	store  storage.Storage
	bucket string
}

func NewNarrator(docs document.Repository, synth Synthesizer, store storage.Storage, bucket string) *Narrator {
	return &Narrator{docs: docs, synth: synth, store: store, bucket: bucket}
}

// Narrate synthesizes the summary of a ready document and records where the
// audio lives. An existing narration is replaced.
func (n *Narrator) Narrate(ctx context.Context, ownerID, docID uuid.UUID) (*models.Document, error) {
	doc, err := n.docs.Get(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.DocStatusReady || doc.Summary == "" {
		return nil, ErrNoSummary
	}

	res, err := n.synth.Synthesize(ctx, SynthesisRequest{Input: doc.Summary})
	if err != nil {
		slog.Error("narration failed", "document_id", doc.ID, "synthesizer", n.synth.Name(), "error", err)
		return nil, fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, err)
	}

	audioPath := fmt.Sprintf("%s/%s-narration%s", doc.OwnerID, doc.ID, res.Ext)
	if err := n.store.Upload(ctx, n.bucket, audioPath, bytes.NewReader(res.Audio), res.ContentType); err != nil {
		return nil, fmt.Errorf("upload narration: %w", err)
	}
	if err := n.docs.SetAudioURL(ctx, doc.ID, audioPath); err != nil {
		return nil, fmt.Errorf("record narration: %w", err)
	}
	doc.AudioURL = audioPath

	slog.Info("document narrated", "document_id", doc.ID, "bytes", len(res.Audio))
	return doc, nil
}

// Open streams a document's narration. The caller closes the reader.
func (n *Narrator) Open(ctx context.Context, ownerID, docID uuid.UUID) (io.ReadCloser, string, error) {
	doc, err := n.docs.Get(ctx, ownerID, docID)
	if err != nil {
		return nil, "", err
	}
	if doc.AudioURL == "" {
		return nil, "", fmt.Errorf("narration: %w", models.ErrNotFound)
	}

	rc, err := n.store.Download(ctx, n.bucket, doc.AudioURL)
	if err != nil {
		return nil, "", fmt.Errorf("download narration: %w", err)
	}

	contentType, ok := audioTypes[path.Ext(doc.AudioURL)]
	if !ok {
		contentType = "application/octet-stream"
	}
	return rc, contentType, nil
}

// List returns the owner's narrated documents, newest first.
func (n *Narrator) List(ctx context.Context, ownerID uuid.UUID) ([]models.Document, error) {
	return n.docs.ListNarrated(ctx, ownerID)
}
