package jsonfile

import (
	"context"
	"errors"
	"slices"

	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
)

const historyFile = "history.json"

// errUnchanged aborts an update without rewriting the file.
var errUnchanged = errors.New("collection unchanged")

// HistoryStore implements store.HistoryStore on history.json.
type HistoryStore struct {
	c *collection[models.SessionRecord]
}

var _ store.HistoryStore = (*HistoryStore)(nil)

// NewHistoryStore opens the session history collection in dir.
func NewHistoryStore(dir string) (*HistoryStore, error) {
	c, err := newCollection[models.SessionRecord](dir, historyFile)
	if err != nil {
		return nil, err
	}
	return &HistoryStore{c: c}, nil
}

func (s *HistoryStore) Append(ctx context.Context, rec *models.SessionRecord) error {
	return s.c.update(func(items []*models.SessionRecord) ([]*models.SessionRecord, error) {
		clone := *rec
		return append(items, &clone), nil
	})
}

func (s *HistoryStore) List(ctx context.Context, filter store.HistoryFilter) ([]*models.SessionRecord, error) {
	items, err := s.c.read()
	if err != nil {
		return nil, err
	}

	matched := make([]*models.SessionRecord, 0, len(items))
	for _, rec := range items {
		if filter.Match(rec) {
			matched = append(matched, rec)
		}
	}

	slices.SortStableFunc(matched, func(a, b *models.SessionRecord) int {
		return b.EndTime.Compare(a.EndTime)
	})

	return matched, nil
}
