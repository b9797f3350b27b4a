package document

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/studybrain/internal/conversation"
	"github.com/nikhilbhutani/studybrain/internal/models"
	"github.com/nikhilbhutani/studybrain/internal/storage"
	"github.com/nikhilbhutani/studybrain/internal/vectorstore"
	"github.com/nikhilbhutani/studybrain/pkg/textextract"
)

type Service struct {
	repo      Repository
	chunks    vectorstore.ChunkStore
	messages  conversation.Log
	storage   storage.Storage
	extractor TextExtractor
	bucket    string
}

func NewService(repo Repository, chunks vectorstore.ChunkStore, messages conversation.Log, store storage.Storage, bucket string) *Service {
	return &Service{
		repo:      repo,
		chunks:    chunks,
		messages:  messages,
		storage:   store,
		extractor: NewTextExtractor(),
		bucket:    bucket,
	}
}

type UploadRequest struct {
	OwnerID  uuid.UUID
	Filename string
	Category string
	Data     []byte
}

// Upload extracts the text of an uploaded file, stores the original bytes
// and creates a pending document. Ingestion is a separate step.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*models.Document, error) {
	if req.OwnerID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing owner", models.ErrInvalidInput)
	}
	filename := path.Base(strings.TrimSpace(req.Filename))
	if filename == "" || filename == "." || filename == "/" {
		return nil, fmt.Errorf("%w: missing filename", models.ErrInvalidInput)
	}

	fileType := textextract.TypeFromFilename(filename)
	if !textextract.IsSupported(fileType) {
		return nil, fmt.Errorf("%w: unsupported file type %q, want one of %s",
			models.ErrInvalidInput, fileType, strings.Join(s.extractor.SupportedTypes(), ", "))
	}

	content, err := s.extractor.Extract(ctx, req.Data, fileType)
	if err != nil {
		return nil, err
	}

	docID := uuid.New()
	filePath := fmt.Sprintf("%s/%s%s", req.OwnerID, docID, fileType)

	contentType := mime.TypeByExtension(fileType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.storage.Upload(ctx, s.bucket, filePath, bytes.NewReader(req.Data), contentType); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc := &models.Document{
		ID:       docID,
		OwnerID:  req.OwnerID,
		Filename: filename,
		FileType: strings.TrimPrefix(fileType, "."),
		FilePath: filePath,
		Category: strings.TrimSpace(req.Category),
		Content:  content,
		Status:   models.DocStatusPending,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		if delErr := s.storage.Delete(ctx, s.bucket, filePath); delErr != nil {
			slog.Warn("orphaned stored file", "path", filePath, "error", delErr)
		}
		return nil, err
	}

	slog.Info("document uploaded",
		"document_id", doc.ID,
		"owner_id", doc.OwnerID,
		"file_type", doc.FileType,
		"content_runes", len([]rune(content)),
	)
	return doc, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Document, error) {
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Document, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByOwner(ctx, ownerID, limit, offset)
}

// Delete removes a document and everything derived from it: chunks first,
// then both conversation tracks, then the stored files, then the row. A
// failure before the row is removed leaves the document visible so the
// delete can be retried.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	doc, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := s.chunks.DeleteDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document chunks: %w", err)
	}
	if err := s.messages.DeleteDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document messages: %w", err)
	}
	for _, p := range []string{doc.FilePath, doc.AudioURL} {
		if p == "" {
			continue
		}
		if err := s.storage.Delete(ctx, s.bucket, p); err != nil {
			slog.Warn("stored file delete failed", "document_id", doc.ID, "path", p, "error", err)
		}
	}
	if err := s.repo.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	slog.Info("document deleted", "document_id", doc.ID, "owner_id", ownerID)
	return nil
}
