package handlers

import (
	"net/http"
	"strconv"

	"github.com/nikhilbhutani/studybrain/internal/guardrails"
	"github.com/nikhilbhutani/studybrain/internal/rag"
)

type ChatHandler struct {
	svc   *rag.ChatService
	guard *guardrails.Pipeline
}

func NewChatHandler(svc *rag.ChatService, guard *guardrails.Pipeline) *ChatHandler {
	return &ChatHandler{svc: svc, guard: guard}
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	owner, docID, ok := requestIDs(w, r)
	if !ok {
		return
	}

	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.guard.Screen(r.Context(), req.Question); err != nil {
		writeServiceError(w, r, err)
		return
	}

	answer, err := h.svc.Ask(r.Context(), owner, docID, req.Question)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	owner, docID, ok := requestIDs(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	msgs, err := h.svc.History(r.Context(), owner, docID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs, "count": len(msgs)})
}
