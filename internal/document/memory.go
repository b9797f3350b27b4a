package document

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/studybrain/internal/models"
)

type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]models.Document
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[uuid.UUID]models.Document)}
}

func (r *MemoryRepository) Create(_ context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Status == "" {
		doc.Status = models.DocStatusPending
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, ownerID, id uuid.UUID) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.docs[id]
	if !ok || d.OwnerID != ownerID {
		return nil, fmt.Errorf("document: %w", models.ErrNotFound)
	}
	return &d, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("document: %w", models.ErrNotFound)
	}
	return &d, nil
}

func (r *MemoryRepository) ListByOwner(_ context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Document, error) {
	docs := r.filter(func(d *models.Document) bool { return d.OwnerID == ownerID })

	if offset >= len(docs) {
		return []models.Document{}, nil
	}
	docs = docs[offset:]
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs, nil
}

func (r *MemoryRepository) ListNarrated(_ context.Context, ownerID uuid.UUID) ([]models.Document, error) {
	return r.filter(func(d *models.Document) bool {
		return d.OwnerID == ownerID && d.AudioURL != ""
	}), nil
}

// filter returns matching documents, newest first.
func (r *MemoryRepository) filter(keep func(*models.Document) bool) []models.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := []models.Document{}
	for _, d := range r.docs {
		if keep(&d) {
			docs = append(docs, d)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs
}

func (r *MemoryRepository) update(id uuid.UUID, fn func(*models.Document)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.docs[id]
	if !ok {
		return fmt.Errorf("document: %w", models.ErrNotFound)
	}
	fn(&d)
	r.docs[id] = d
	return nil
}

func (r *MemoryRepository) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	return r.update(id, func(d *models.Document) { d.Status = status })
}

func (r *MemoryRepository) SetSummary(_ context.Context, id uuid.UUID, summary string) error {
	return r.update(id, func(d *models.Document) { d.Summary = summary })
}

func (r *MemoryRepository) SetAudioURL(_ context.Context, id uuid.UUID, audioURL string) error {
	return r.update(id, func(d *models.Document) { d.AudioURL = audioURL })
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return fmt.Errorf("document: %w", models.ErrNotFound)
	}
	delete(r.docs, id)
	return nil
}
