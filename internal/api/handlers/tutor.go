package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/studybrain/internal/guardrails"
	"github.com/nikhilbhutani/studybrain/internal/tutor"
)

type TutorHandler struct {
	svc   *tutor.Service
	guard *guardrails.Pipeline
}

func NewTutorHandler(svc *tutor.Service, guard *guardrails.Pipeline) *TutorHandler {
	return &TutorHandler{svc: svc, guard: guard}
}

type answerRequest struct {
	Answer string `json:"answer"`
}

func (h *TutorHandler) Start(w http.ResponseWriter, r *http.Request) {
	owner, docID, ok := requestIDs(w, r)
	if !ok {
		return
	}

	turn, err := h.svc.Start(r.Context(), owner, docID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, turn)
}

func (h *TutorHandler) Answer(w http.ResponseWriter, r *http.Request) {
	owner, docID, ok := requestIDs(w, r)
	if !ok {
		return
	}

	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.guard.Screen(r.Context(), req.Answer); err != nil {
		writeServiceError(w, r, err)
		return
	}

	turn, err := h.svc.Continue(r.Context(), owner, docID, req.Answer)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, turn)
}

func (h *TutorHandler) Reset(w http.ResponseWriter, r *http.Request) {
	owner, docID, ok := requestIDs(w, r)
	if !ok {
		return
	}

	if err := h.svc.Reset(r.Context(), owner, docID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TutorHandler) Session(w http.ResponseWriter, r *http.Request) {
	owner, docID, ok := requestIDs(w, r)
	if !ok {
		return
	}

	session, err := h.svc.Session(r.Context(), owner, docID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}
