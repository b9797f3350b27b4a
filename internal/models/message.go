package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Track separates the two conversations kept per document.
type Track string

const (
	TrackChat  Track = "chat"
	TrackTutor Track = "tutor"
)

func (t Track) Valid() bool {
	return t == TrackChat || t == TrackTutor
}

type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

func (s Speaker) Valid() bool {
	return s == SpeakerUser || s == SpeakerAssistant
}

// Role is the closed set {chat, tutor} x {user, assistant}.
type Role struct {
	Track   Track   `json:"track"`
	Speaker Speaker `json:"speaker"`
}

var (
	RoleChatUser       = Role{Track: TrackChat, Speaker: SpeakerUser}
	RoleChatAssistant  = Role{Track: TrackChat, Speaker: SpeakerAssistant}
	RoleTutorUser      = Role{Track: TrackTutor, Speaker: SpeakerUser}
	RoleTutorAssistant = Role{Track: TrackTutor, Speaker: SpeakerAssistant}
)

func (r Role) Validate() error {
	if !r.Track.Valid() {
		return fmt.Errorf("%w: track %q", ErrInvalidInput, r.Track)
	}
	if !r.Speaker.Valid() {
		return fmt.Errorf("%w: speaker %q", ErrInvalidInput, r.Speaker)
	}
	return nil
}

func (r Role) String() string {
	return string(r.Track) + "/" + string(r.Speaker)
}

// Message is one turn of a per-document conversation. Final marks the tutor
// reply that closed a Socratic session.
type Message struct {
	ID         uuid.UUID `json:"id" db:"id"`
	DocumentID uuid.UUID `json:"document_id" db:"document_id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content" db:"content"`
	Final      bool      `json:"final,omitempty" db:"is_final"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
