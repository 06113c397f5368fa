// Package postgres implements the record stores on PostgreSQL using pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sheetclock/internal/store"
)

// db is embedded by every store to share the pool and the per-query timeout.
type db struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

func (d db) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.queryTimeout)
}

// Open connects to PostgreSQL, optionally migrates the schema and returns all stores
// sharing a single pool. Close on the result releases the pool.
func Open(ctx context.Context, cfg Config) (*store.Stores, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid postgres config: %w", err)
	}

	pool, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := runMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	d := db{pool: pool, queryTimeout: cfg.QueryTimeout}

	log.Info().
		Int32("max_conns", cfg.MaxConns).
		Bool("auto_migrate", cfg.AutoMigrate).
		Msg("postgres record store ready")

	return &store.Stores{
		Employees: &EmployeeStore{db: d},
		Documents: &DocumentStore{db: d},
		History:   &HistoryStore{db: d},
		Sessions:  &SessionStore{db: d},
		Close:     pool.Close,
	}, nil
}
