// Package memory keeps stored documents in-process for development and tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/JakeFAU/pdfingest/internal/id/uuid"
	"github.com/JakeFAU/pdfingest/internal/pipeline"
)

// Record is a stored document with its assigned ID.
type Record struct {
	ID       string
	Document pipeline.StoredDocument
}

// DocumentStore appends documents to a slice.
type DocumentStore struct {
	mu      sync.RWMutex
	records []Record
	ids     *uuid.Generator
}

// NewDocumentStore constructs an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{ids: uuid.New()}
}

// InsertMany stores docs and returns one new ID per document.
func (s *DocumentStore) InsertMany(ctx context.Context, docs []pipeline.StoredDocument) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errors.New("no documents to insert")
	}
	ids := make([]string, 0, len(docs))
	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		id, err := s.ids.NewID()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		records = append(records, Record{ID: id, Document: doc})
	}
	s.mu.Lock()
	s.records = append(s.records, records...)
	s.mu.Unlock()
	return ids, nil
}

// Records returns a snapshot of everything stored so far.
func (s *DocumentStore) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.records...)
}
