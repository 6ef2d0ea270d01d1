package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MemStore keeps objects in memory. Used for local development and tests.
type MemStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte

	// Error injection
	PutError    error
	DeleteError error
}

// NewMemStore creates an empty in-memory store whose public URLs start with baseURL.
func NewMemStore(baseURL string) *MemStore {
	return &MemStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		objects: make(map[string][]byte),
	}
}

func (m *MemStore) Name() string {
	return "memory"
}

func (m *MemStore) PublicURL(bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", m.baseURL, bucket, key)
}

func (m *MemStore) Put(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) (string, error) {
	if m.PutError != nil {
		return "", m.PutError
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read object body: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = data
	return m.PublicURL(bucket, key), nil
}

func (m *MemStore) Delete(ctx context.Context, bucket, key string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[bucket+"/"+key]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, bucket+"/"+key)
	return nil
}

// Get returns a stored object.
func (m *MemStore) Get(bucket, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[bucket+"/"+key]
	return data, ok
}

// Len returns the number of stored objects.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
