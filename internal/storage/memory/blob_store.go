// Package memory keeps objects in-memory for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/pdfingest/internal/pipeline"
)

// BlobStore maps bucket/key pairs to object bytes.
type BlobStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewBlobStore creates an empty in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		data: make(map[string]map[string][]byte),
	}
}

// Put stores a copy of data under bucket/key, creating the bucket if needed.
func (s *BlobStore) Put(bucket, key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	objects, ok := s.data[bucket]
	if !ok {
		objects = make(map[string][]byte)
		s.data[bucket] = objects
	}
	objects[key] = append([]byte(nil), data...)
}

// Get returns a copy of the object bytes.
func (s *BlobStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, ok := s.data[bucket]
	if !ok {
		return nil, fmt.Errorf("bucket %q: %w", bucket, pipeline.ErrObjectNotFound)
	}
	data, ok := objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s/%s: %w", bucket, key, pipeline.ErrObjectNotFound)
	}
	return append([]byte(nil), data...), nil
}
