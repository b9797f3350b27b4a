package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/studybrain/internal/models"
)

type MemoryLog struct {
	mu   sync.RWMutex
	msgs map[uuid.UUID][]models.Message
}

var _ Log = (*MemoryLog)(nil)

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{msgs: make(map[uuid.UUID][]models.Message)}
}

func (l *MemoryLog) Append(_ context.Context, msg *models.Message) error {
	if err := msg.Role.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	l.msgs[msg.DocumentID] = append(l.msgs[msg.DocumentID], *msg)
	return nil
}

func (l *MemoryLog) track(docID uuid.UUID, track models.Track) []models.Message {
	var out []models.Message
	for _, m := range l.msgs[docID] {
		if m.Role.Track == track {
			out = append(out, m)
		}
	}
	return out
}

func (l *MemoryLog) History(_ context.Context, docID uuid.UUID, track models.Track, limit int) ([]models.Message, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	all := l.track(docID, track)
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	result := make([]models.Message, limit)
	copy(result, all[len(all)-limit:])
	return result, nil
}

func (l *MemoryLog) Count(_ context.Context, docID uuid.UUID, track models.Track) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.track(docID, track)), nil
}

func (l *MemoryLog) LastAssistant(_ context.Context, docID uuid.UUID, track models.Track) (*models.Message, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	all := l.track(docID, track)
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Role.Speaker == models.SpeakerAssistant {
			m := all[i]
			return &m, nil
		}
	}
	return nil, fmt.Errorf("last %s reply: %w", track, models.ErrNotFound)
}

func (l *MemoryLog) ClearTrack(_ context.Context, docID uuid.UUID, track models.Track) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var kept []models.Message
	for _, m := range l.msgs[docID] {
		if m.Role.Track != track {
			kept = append(kept, m)
		}
	}
	l.msgs[docID] = kept
	return nil
}

func (l *MemoryLog) DeleteDocument(_ context.Context, docID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.msgs, docID)
	return nil
}
