package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/studybrain/internal/audit"
	"github.com/nikhilbhutani/studybrain/internal/auth"
)

type UsageHandler struct {
	rec audit.Recorder
}

func NewUsageHandler(rec audit.Recorder) *UsageHandler {
	return &UsageHandler{rec: rec}
}

// Summary reports the caller's provider usage over the last ?days (default 30).
func (h *UsageHandler) Summary(w http.ResponseWriter, r *http.Request) {
	owner := auth.UserIDFromContext(r.Context())
	if owner == uuid.Nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days <= 0 || days > 365 {
		days = 30
	}

	summary, err := h.rec.Summary(r.Context(), owner, time.Now().AddDate(0, 0, -days))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"days": days, "usage": summary})
}
