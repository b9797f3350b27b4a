package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/nikhilbhutani/studybrain/internal/models"
)

// MemoryStorage keeps objects in process memory. It backs tests and local
// runs without Supabase credentials.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

func key(bucket, path string) string { return bucket + "/" + path }

func (m *MemoryStorage) Upload(_ context.Context, bucket, path string, data io.Reader, _ string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("read upload data: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key(bucket, path)] = b
	return nil
}

func (m *MemoryStorage) Download(_ context.Context, bucket, path string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[key(bucket, path)]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", path, models.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *MemoryStorage) Delete(_ context.Context, bucket, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key(bucket, path))
	return nil
}

func (m *MemoryStorage) Exists(bucket, path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key(bucket, path)]
	return ok
}
