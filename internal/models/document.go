package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded study material owned by exactly one user. Content
// is immutable after extraction; Summary and AudioURL are derived fields.
type Document struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OwnerID   uuid.UUID `json:"owner_id" db:"owner_id"`
	Filename  string    `json:"filename" db:"filename"`
	FileType  string    `json:"file_type" db:"file_type"`
	FilePath  string    `json:"file_path,omitempty" db:"file_path"`
	Category  string    `json:"category,omitempty" db:"category"`
	Content   string    `json:"-" db:"content"`
	Summary   string    `json:"summary,omitempty" db:"summary"`
	AudioURL  string    `json:"audio_url,omitempty" db:"audio_url"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

const (
	DocStatusPending    = "pending"
	DocStatusProcessing = "processing"
	DocStatusReady      = "ready"
	DocStatusFailed     = "failed"
)
