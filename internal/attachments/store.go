// Package attachments stores complaint files in object storage and hands
// back the metadata that is embedded in the complaint row.
package attachments

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ObjectStore is the minimal object storage contract used by the uploader.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// MemoryStore keeps objects in process memory. Used by tests and by
// deployments that run without an S3 endpoint.
type MemoryStore struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memObject
}

type memObject struct {
	data        []byte
	contentType string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{BaseURL: strings.TrimRight(baseURL, "/"), objects: make(map[string]memObject)}
}

func (m *MemoryStore) EnsureBucket(context.Context) error { return nil }

func (m *MemoryStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return fmt.Errorf("attachments: read %s: %w", key, err)
	}
	m.mu.Lock()
	m.objects[key] = memObject{data: buf.Bytes(), contentType: contentType}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) URL(key string) string {
	return m.BaseURL + "/" + key
}

// Object returns the stored bytes and content type for key.
func (m *MemoryStore) Object(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	return o.data, o.contentType, ok
}
