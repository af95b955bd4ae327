package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps objects in memory. It backs development setups without
// object storage credentials, and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte
}

// NewMemoryStore creates an empty store whose URLs start with baseURL
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string][]byte),
	}
}

func (m *MemoryStore) Upload(_ context.Context, bucket, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[bucket+"/"+key]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, bucket+"/"+key)
	return nil
}

func (m *MemoryStore) PublicURL(bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", m.baseURL, bucket, key)
}

func (m *MemoryStore) PresignedURL(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[bucket+"/"+key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrObjectNotFound
	}
	expires := time.Now().Add(expiry).Unix()
	return fmt.Sprintf("%s/%s/%s?expires=%d", m.baseURL, bucket, (&url.URL{Path: key}).EscapedPath(), expires), nil
}

// Has reports whether an object exists
func (m *MemoryStore) Has(bucket, key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[bucket+"/"+key]
	return ok
}
