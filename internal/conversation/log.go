// Package conversation stores the per-document chat and tutor tracks.
package conversation

import (
	"context"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/studybrain/internal/models"
)

// Log is an append-only, per-document message history split into tracks.
// Messages of one track come back in the order they were appended.
type Log interface {
	Append(ctx context.Context, msg *models.Message) error
	// History returns the last limit messages of a track in chronological
	// order. limit <= 0 returns the whole track.
	History(ctx context.Context, docID uuid.UUID, track models.Track, limit int) ([]models.Message, error)
	Count(ctx context.Context, docID uuid.UUID, track models.Track) (int, error)
	// LastAssistant returns models.ErrNotFound when the track has no
	// assistant message.
	LastAssistant(ctx context.Context, docID uuid.UUID, track models.Track) (*models.Message, error)
	ClearTrack(ctx context.Context, docID uuid.UUID, track models.Track) error
	DeleteDocument(ctx context.Context, docID uuid.UUID) error
}
