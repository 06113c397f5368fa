//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*store.Stores, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	stores, err := Open(ctx, Config{ConnString: connString, AutoMigrate: true})
	require.NoError(t, err)

	cleanup := func() {
		stores.Close()
		_ = container.Terminate(ctx)
	}

	return stores, cleanup
}

func TestIntegration_Stores(t *testing.T) {
	ctx := context.Background()
	stores, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("employees", func(t *testing.T) {
		emp := &models.Employee{
			ID:           uuid.Must(uuid.NewV7()).String(),
			Name:         "Jana Novak",
			Email:        "jana@example.com",
			PasswordHash: "hash",
			HourlyRate:   250,
			CreatedAt:    now,
		}
		require.NoError(t, stores.Employees.Create(ctx, emp))

		err := stores.Employees.Create(ctx, &models.Employee{
			ID: uuid.Must(uuid.NewV7()).String(), Name: "Dup", Email: "JANA@example.com", CreatedAt: now,
		})
		require.ErrorIs(t, err, store.ErrEmployeeExists)

		got, err := stores.Employees.GetByEmail(ctx, "Jana@Example.com")
		require.NoError(t, err)
		require.Equal(t, emp.ID, got.ID)
		require.True(t, got.CreatedAt.Equal(now))

		got.AccessToken = "token"
		require.NoError(t, stores.Employees.Update(ctx, got))

		all, err := stores.Employees.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		require.Equal(t, "token", all[0].AccessToken)

		require.NoError(t, stores.Employees.Delete(ctx, emp.ID))
		require.ErrorIs(t, stores.Employees.Delete(ctx, emp.ID), store.ErrEmployeeNotFound)
	})

	t.Run("documents", func(t *testing.T) {
		doc := &models.TrackedDocument{ID: "doc-1", Title: "Budget", AddedAt: now, LastModified: now, AddedBy: "jana@example.com"}
		require.NoError(t, stores.Documents.Create(ctx, doc))
		require.ErrorIs(t, stores.Documents.Create(ctx, doc), store.ErrDocumentExists)

		refreshed, err := stores.Documents.RefreshLastModified(ctx, "doc-1", now)
		require.NoError(t, err)
		require.False(t, refreshed)

		refreshed, err = stores.Documents.RefreshLastModified(ctx, "doc-1", now.Add(time.Minute))
		require.NoError(t, err)
		require.True(t, refreshed)

		_, err = stores.Documents.RefreshLastModified(ctx, "missing", now)
		require.ErrorIs(t, err, store.ErrDocumentNotFound)

		require.NoError(t, stores.Documents.Delete(ctx, "doc-1"))
		_, err = stores.Documents.Get(ctx, "doc-1")
		require.ErrorIs(t, err, store.ErrDocumentNotFound)
	})

	t.Run("history", func(t *testing.T) {
		for i := range 3 {
			start := now.Add(time.Duration(i) * time.Hour)
			require.NoError(t, stores.History.Append(ctx, &models.SessionRecord{
				ID:              fmt.Sprintf("rec-%d", i),
				EmployeeName:    "Jana Novak",
				EmployeeEmail:   "jana@example.com",
				DocumentID:      "doc-1",
				DocumentTitle:   "Budget",
				StartTime:       start,
				EndTime:         start.Add(30 * time.Minute),
				DurationMinutes: 30,
				SalaryAmount:    125,
				RecordedAt:      start.Add(30 * time.Minute),
			}))
		}

		all, err := stores.History.List(ctx, store.HistoryFilter{EmployeeEmail: "JANA@example.com"})
		require.NoError(t, err)
		require.Len(t, all, 3)
		require.Equal(t, "rec-2", all[0].ID)

		ranged, err := stores.History.List(ctx, store.HistoryFilter{From: now.Add(time.Hour)})
		require.NoError(t, err)
		require.Len(t, ranged, 2)
	})

	t.Run("sessions", func(t *testing.T) {
		session := &models.AuthSession{
			SessionID:  uuid.Must(uuid.NewV7()),
			EmployeeID: "emp-1",
			CreatedAt:  now,
			ExpiresAt:  now.Add(time.Hour),
			LastUsedAt: now,
			UserAgent:  "test",
			IPAddress:  "192.0.2.10",
		}
		require.NoError(t, stores.Sessions.Create(ctx, session))

		got, err := stores.Sessions.Get(ctx, session.SessionID)
		require.NoError(t, err)
		require.Equal(t, "192.0.2.10", got.IPAddress)

		n, err := stores.Sessions.DeleteByEmployee(ctx, "emp-1")
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})
}
