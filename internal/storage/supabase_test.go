package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/studybrain/internal/models"
)

func TestSupabaseStorage(t *testing.T) {
	objects := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		path := strings.TrimPrefix(r.URL.Path, "/storage/v1/object/")
		switch r.Method {
		case http.MethodPost:
			b, _ := io.ReadAll(r.Body)
			objects[path] = string(b)
		case http.MethodGet:
			v, ok := objects[path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = io.WriteString(w, v)
		case http.MethodDelete:
			if _, ok := objects[path]; !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			delete(objects, path)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	s := NewSupabaseStorage(srv.URL, "secret")

	require.NoError(t, s.Upload(ctx, "documents", "u/d.txt", strings.NewReader("hello"), "text/plain"))
	assert.Equal(t, "hello", objects["documents/u/d.txt"])

	rc, err := s.Download(ctx, "documents", "u/d.txt")
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "hello", string(b))

	require.NoError(t, s.Delete(ctx, "documents", "u/d.txt"))
	require.NoError(t, s.Delete(ctx, "documents", "u/d.txt"), "deleting a missing object is not an error")

	_, err = s.Download(ctx, "documents", "u/d.txt")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	require.NoError(t, s.Upload(ctx, "b", "p", strings.NewReader("data"), ""))
	assert.True(t, s.Exists("b", "p"))

	require.NoError(t, s.Delete(ctx, "b", "p"))
	assert.False(t, s.Exists("b", "p"))

	_, err := s.Download(ctx, "b", "p")
	require.ErrorIs(t, err, models.ErrNotFound)
}
