package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
)

func TestEmployeeStoreCloneOnRead(t *testing.T) {
	ctx := context.Background()
	s := NewEmployeeStore()

	require.NoError(t, s.Create(ctx, &models.Employee{ID: "emp-1", Email: "jana@example.com", HourlyRate: 200}))

	got, err := s.Get(ctx, "emp-1")
	require.NoError(t, err)
	got.HourlyRate = 999

	again, err := s.Get(ctx, "emp-1")
	require.NoError(t, err)
	require.Equal(t, float64(200), again.HourlyRate)
}

func TestEmployeeStoreEmailIndex(t *testing.T) {
	ctx := context.Background()
	s := NewEmployeeStore()

	require.NoError(t, s.Create(ctx, &models.Employee{ID: "emp-1", Email: "jana@example.com"}))
	require.NoError(t, s.Create(ctx, &models.Employee{ID: "emp-2", Email: "petr@example.com"}))
	require.ErrorIs(t, s.Create(ctx, &models.Employee{ID: "emp-3", Email: "Jana@example.com"}), store.ErrEmployeeExists)

	// email change moves the index entry
	require.NoError(t, s.Update(ctx, &models.Employee{ID: "emp-1", Email: "jana.novak@example.com"}))
	_, err := s.GetByEmail(ctx, "jana@example.com")
	require.ErrorIs(t, err, store.ErrEmployeeNotFound)

	require.ErrorIs(t, s.Update(ctx, &models.Employee{ID: "emp-1", Email: "petr@example.com"}), store.ErrEmployeeExists)

	require.NoError(t, s.Delete(ctx, "emp-2"))
	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestDocumentStoreRefresh(t *testing.T) {
	ctx := context.Background()
	s := NewDocumentStore()
	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Create(ctx, &models.TrackedDocument{ID: "doc-1", LastModified: base}))

	ok, err := s.RefreshLastModified(ctx, "doc-1", base)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.RefreshLastModified(ctx, "doc-1", base.Add(time.Second))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()

	live := &models.AuthSession{SessionID: uuid.Must(uuid.NewV7()), EmployeeID: "emp-1", ExpiresAt: time.Now().Add(time.Hour)}
	expired := &models.AuthSession{SessionID: uuid.Must(uuid.NewV7()), EmployeeID: "emp-1", ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(t, s.Create(ctx, live))
	require.NoError(t, s.Create(ctx, expired))

	got, err := s.Get(ctx, live.SessionID)
	require.NoError(t, err)
	require.Equal(t, "emp-1", got.EmployeeID)

	_, err = s.Get(ctx, expired.SessionID)
	require.ErrorIs(t, err, store.ErrSessionExpired)

	n, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = s.DeleteByEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = s.Get(ctx, live.SessionID)
	require.ErrorIs(t, err, store.ErrSessionNotFound)
}
