package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
)

// DocumentStore implements store.DocumentStore using in-memory storage.
type DocumentStore struct {
	mu   sync.RWMutex
	docs []*models.TrackedDocument
}

var _ store.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{}
}

func (s *DocumentStore) List(ctx context.Context) ([]*models.TrackedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.TrackedDocument, 0, len(s.docs))
	for _, doc := range s.docs {
		clone := *doc
		out = append(out, &clone)
	}
	return out, nil
}

func (s *DocumentStore) Get(ctx context.Context, id string) (*models.TrackedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 {
		return nil, store.ErrDocumentNotFound
	}

	clone := *s.docs[i]
	return &clone, nil
}

func (s *DocumentStore) Create(ctx context.Context, doc *models.TrackedDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index(doc.ID) >= 0 {
		return store.ErrDocumentExists
	}

	clone := *doc
	s.docs = append(s.docs, &clone)
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return store.ErrDocumentNotFound
	}

	s.docs = slices.Delete(s.docs, i, i+1)
	return nil
}

func (s *DocumentStore) RefreshLastModified(ctx context.Context, id string, lastModified time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return false, store.ErrDocumentNotFound
	}

	if !lastModified.After(s.docs[i].LastModified) {
		return false, nil
	}

	s.docs[i].LastModified = lastModified
	return true, nil
}

func (s *DocumentStore) index(id string) int {
	return slices.IndexFunc(s.docs, func(doc *models.TrackedDocument) bool { return doc.ID == id })
}
