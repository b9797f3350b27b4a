package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nikhilbhutani/studybrain/internal/auth"
	"github.com/nikhilbhutani/studybrain/internal/models"
	"github.com/nikhilbhutani/studybrain/internal/rag"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service errors onto status codes. Provider failures
// are logged and reported generically.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrUpstreamUnavailable), errors.Is(err, rag.ErrRetrievalEmbedding):
		slog.Error("upstream failure", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, "language model service unavailable, try again later")
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(v)
}

// requestIDs returns the authenticated user and the {id} document param.
func requestIDs(w http.ResponseWriter, r *http.Request) (owner, docID uuid.UUID, ok bool) {
	owner = auth.UserIDFromContext(r.Context())
	if owner == uuid.Nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return uuid.Nil, uuid.Nil, false
	}
	docID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document ID")
		return uuid.Nil, uuid.Nil, false
	}
	return owner, docID, true
}
