package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/studybrain/internal/auth"
	"github.com/nikhilbhutani/studybrain/internal/speech"
)

type AudioHandler struct {
	narrator *speech.Narrator
}

func NewAudioHandler(n *speech.Narrator) *AudioHandler {
	return &AudioHandler{narrator: n}
}

func (h *AudioHandler) Narrate(w http.ResponseWriter, r *http.Request) {
	owner, docID, ok := requestIDs(w, r)
	if !ok {
		return
	}

	doc, err := h.narrator.Narrate(r.Context(), owner, docID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *AudioHandler) Play(w http.ResponseWriter, r *http.Request) {
	owner, docID, ok := requestIDs(w, r)
	if !ok {
		return
	}

	rc, contentType, err := h.narrator.Open(r.Context(), owner, docID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("audio stream interrupted", "document_id", docID, "error", err)
	}
}

func (h *AudioHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := auth.UserIDFromContext(r.Context())
	if owner == uuid.Nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	docs, err := h.narrator.List(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs, "count": len(docs)})
}
