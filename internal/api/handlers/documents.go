package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/studybrain/internal/auth"
	"github.com/nikhilbhutani/studybrain/internal/document"
	"github.com/nikhilbhutani/studybrain/internal/models"
	"github.com/nikhilbhutani/studybrain/internal/rag"
)

const maxUploadBytes = 32 << 20

// Enqueuer hands ingestion to the background worker.
type Enqueuer interface {
	EnqueueIngest(ctx context.Context, docID uuid.UUID) error
	EnqueueReindex(ctx context.Context, docID uuid.UUID) error
}

type DocumentHandler struct {
	svc      *document.Service
	ingester *rag.Ingester
	linker   *rag.Linker
	queue    Enqueuer
}

// NewDocumentHandler ingests inline when queue is nil.
func NewDocumentHandler(svc *document.Service, ingester *rag.Ingester, linker *rag.Linker, queue Enqueuer) *DocumentHandler {
	return &DocumentHandler{svc: svc, ingester: ingester, linker: linker, queue: queue}
}

type uploadResponse struct {
	Document           *models.Document `json:"document"`
	Chunks             int              `json:"chunks,omitempty"`
	RelatedNote        string           `json:"related_note"`
	RelatedUnavailable bool             `json:"related_unavailable,omitempty"`
	Queued             bool             `json:"queued,omitempty"`
}

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	owner := auth.UserIDFromContext(r.Context())
	if owner == uuid.Nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read file")
		return
	}

	doc, err := h.svc.Upload(r.Context(), document.UploadRequest{
		OwnerID:  owner,
		Filename: header.Filename,
		Category: r.FormValue("category"),
		Data:     data,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if h.queue != nil {
		if err := h.queue.EnqueueIngest(r.Context(), doc.ID); err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, uploadResponse{Document: doc, Queued: true})
		return
	}

	result, err := h.ingester.Ingest(r.Context(), doc)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		Document:           doc,
		Chunks:             result.Chunks,
		RelatedNote:        result.RelatedNote,
		RelatedUnavailable: result.RelatedUnavailable,
	})
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := auth.UserIDFromContext(r.Context())
	if owner == uuid.Nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	docs, err := h.svc.List(r.Context(), owner, limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs, "count": len(docs)})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := requestIDs(w, r)
	if !ok {
		return
	}

	doc, err := h.svc.Get(r.Context(), owner, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := requestIDs(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), owner, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := requestIDs(w, r)
	if !ok {
		return
	}

	doc, err := h.svc.Get(r.Context(), owner, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if h.queue != nil {
		if err := h.queue.EnqueueReindex(r.Context(), doc.ID); err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, uploadResponse{Document: doc, Queued: true})
		return
	}

	result, err := h.ingester.Reindex(r.Context(), doc)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Document:           doc,
		Chunks:             result.Chunks,
		RelatedNote:        result.RelatedNote,
		RelatedUnavailable: result.RelatedUnavailable,
	})
}

func (h *DocumentHandler) Related(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := requestIDs(w, r)
	if !ok {
		return
	}

	note, err := h.linker.CrossReference(r.Context(), owner, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"related_note": note})
}
