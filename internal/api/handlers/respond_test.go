package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nikhilbhutani/studybrain/internal/models"
	"github.com/nikhilbhutani/studybrain/internal/rag"
	"github.com/nikhilbhutani/studybrain/internal/tutor"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		hidden string
	}{
		{"not found", fmt.Errorf("get document: %w", models.ErrNotFound), http.StatusNotFound, ""},
		{"invalid", fmt.Errorf("%w: question is required", models.ErrInvalidInput), http.StatusBadRequest, ""},
		{"not ready", rag.ErrDocumentNotReady, http.StatusConflict, ""},
		{"concluded", tutor.ErrSessionConcluded, http.StatusConflict, ""},
		{"upstream", fmt.Errorf("%w: secret-key rejected", models.ErrUpstreamUnavailable), http.StatusBadGateway, "secret-key"},
		{"query embedding", fmt.Errorf("%w: timeout", rag.ErrRetrievalEmbedding), http.StatusBadGateway, "timeout"},
		{"other", errors.New("pool closed"), http.StatusInternalServerError, "pool closed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.hidden != "" {
				assert.NotContains(t, rec.Body.String(), tt.hidden)
			}
		})
	}
}
