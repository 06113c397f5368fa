package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
)

// HistoryStore implements store.HistoryStore using in-memory storage.
type HistoryStore struct {
	mu      sync.RWMutex
	records []*models.SessionRecord
}

var _ store.HistoryStore = (*HistoryStore)(nil)

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

func (s *HistoryStore) Append(ctx context.Context, rec *models.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *rec
	s.records = append(s.records, &clone)
	return nil
}

func (s *HistoryStore) List(ctx context.Context, filter store.HistoryFilter) ([]*models.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.SessionRecord, 0, len(s.records))
	for _, rec := range s.records {
		if filter.Match(rec) {
			clone := *rec
			out = append(out, &clone)
		}
	}

	slices.SortStableFunc(out, func(a, b *models.SessionRecord) int {
		return b.EndTime.Compare(a.EndTime)
	})

	return out, nil
}
