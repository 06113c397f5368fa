package jsonfile

import (
	"context"
	"errors"
	"time"

	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
)

const documentsFile = "documents.json"

// DocumentStore implements store.DocumentStore on documents.json.
type DocumentStore struct {
	c *collection[models.TrackedDocument]
}

var _ store.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore opens the tracked document collection in dir.
func NewDocumentStore(dir string) (*DocumentStore, error) {
	c, err := newCollection[models.TrackedDocument](dir, documentsFile)
	if err != nil {
		return nil, err
	}
	return &DocumentStore{c: c}, nil
}

func (s *DocumentStore) List(ctx context.Context) ([]*models.TrackedDocument, error) {
	return s.c.read()
}

func (s *DocumentStore) Get(ctx context.Context, id string) (*models.TrackedDocument, error) {
	items, err := s.c.read()
	if err != nil {
		return nil, err
	}

	for _, doc := range items {
		if doc.ID == id {
			return doc, nil
		}
	}

	return nil, store.ErrDocumentNotFound
}

func (s *DocumentStore) Create(ctx context.Context, doc *models.TrackedDocument) error {
	return s.c.update(func(items []*models.TrackedDocument) ([]*models.TrackedDocument, error) {
		for _, existing := range items {
			if existing.ID == doc.ID {
				return nil, store.ErrDocumentExists
			}
		}

		clone := *doc
		return append(items, &clone), nil
	})
}

func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	return s.c.update(func(items []*models.TrackedDocument) ([]*models.TrackedDocument, error) {
		for i, doc := range items {
			if doc.ID == id {
				return append(items[:i], items[i+1:]...), nil
			}
		}

		return nil, store.ErrDocumentNotFound
	})
}

func (s *DocumentStore) RefreshLastModified(ctx context.Context, id string, lastModified time.Time) (bool, error) {
	var refreshed bool

	err := s.c.update(func(items []*models.TrackedDocument) ([]*models.TrackedDocument, error) {
		for _, doc := range items {
			if doc.ID != id {
				continue
			}

			if !lastModified.After(doc.LastModified) {
				return nil, errUnchanged
			}

			doc.LastModified = lastModified
			refreshed = true
			return items, nil
		}

		return nil, store.ErrDocumentNotFound
	})
	if errors.Is(err, errUnchanged) {
		return false, nil
	}

	return refreshed, err
}
