package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sheetclock/internal/apperr"
	"github.com/wolfeidau/sheetclock/internal/models"
)

func TestHistoryFilterMatch(t *testing.T) {
	start := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	rec := &models.SessionRecord{EmployeeEmail: "jana@example.com", StartTime: start}

	tests := []struct {
		name   string
		filter HistoryFilter
		want   bool
	}{
		{name: "empty filter", filter: HistoryFilter{}, want: true},
		{name: "email match ignores case", filter: HistoryFilter{EmployeeEmail: "JANA@example.com"}, want: true},
		{name: "email mismatch", filter: HistoryFilter{EmployeeEmail: "petr@example.com"}, want: false},
		{name: "from inclusive", filter: HistoryFilter{From: start}, want: true},
		{name: "from after start", filter: HistoryFilter{From: start.Add(time.Second)}, want: false},
		{name: "to inclusive", filter: HistoryFilter{To: start}, want: true},
		{name: "to before start", filter: HistoryFilter{To: start.Add(-time.Second)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.filter.Match(rec))
		})
	}
}

func TestSentinelKinds(t *testing.T) {
	require.ErrorIs(t, ErrEmployeeExists, apperr.ErrDuplicate)
	require.ErrorIs(t, ErrDocumentExists, apperr.ErrDuplicate)
	require.ErrorIs(t, ErrEmployeeNotFound, apperr.ErrNotFound)
	require.ErrorIs(t, ErrDocumentNotFound, apperr.ErrNotFound)
}
