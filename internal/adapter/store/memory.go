package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"vendorrag/internal/domain"
)

// MemoryStore is a document store kept entirely in memory. Documents are
// copied on the way in and out so callers never share state with it.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]domain.Document),
	}
}

// Put creates or replaces a document. A zero UpdatedAt is set to now.
func (s *MemoryStore) Put(ctx context.Context, doc domain.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	out := doc.Clone()
	return &out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) FindAll(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []domain.Document
	for _, doc := range s.docs {
		if filter.IsActive != nil && doc.IsActive != *filter.IsActive {
			continue
		}
		if filter.VendorID != "" && doc.VendorID != filter.VendorID {
			continue
		}
		docs = append(docs, doc.Clone())
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, update domain.DocumentUpdate) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, nil
	}

	lastIndexed := update.LastIndexed
	doc.Chunks = domain.Document{Chunks: update.Chunks}.Clone().Chunks
	doc.LastIndexed = &lastIndexed
	s.docs[id] = doc

	out := doc.Clone()
	return &out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
