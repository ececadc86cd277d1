package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/dmitrijs2005/studyshelf/internal/common"
)

// MemoryStore keeps blobs in a map. It backs local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	types   map[string]string
	baseURL string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
		baseURL: baseURL,
	}
}

func (m *MemoryStore) Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[path]; exists {
		return fmt.Errorf("%s: %w", path, common.ErrorAlreadyExists)
	}
	m.objects[path] = data
	m.types[path] = contentType
	return nil
}

func (m *MemoryStore) Download(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, common.ErrorNotFound)
	}
	return bytes.Clone(data), nil
}

func (m *MemoryStore) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	delete(m.types, path)
	return nil
}

func (m *MemoryStore) PublicURL(path string) string {
	return joinURL(m.baseURL, path)
}

// Paths lists the stored keys in sorted order.
func (m *MemoryStore) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.objects))
	for p := range m.objects {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// ContentType returns the content type recorded at upload.
func (m *MemoryStore) ContentType(path string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.types[path]
}
