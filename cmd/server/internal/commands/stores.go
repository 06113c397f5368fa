package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sheetclock/internal/store"
	"github.com/wolfeidau/sheetclock/internal/store/jsonfile"
	"github.com/wolfeidau/sheetclock/internal/store/memory"
	postgresstore "github.com/wolfeidau/sheetclock/internal/store/postgres"
)

// StoreFlags selects and configures the record store backend.
type StoreFlags struct {
	StoreType     string             `help:"store type (json, postgres or memory)" default:"json" env:"SHEETCLOCK_STORE_TYPE" enum:"json,postgres,memory"`
	DataDir       string             `help:"directory holding the JSON collections" default:"data" env:"SHEETCLOCK_DATA_DIR"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32         `help:"maximum number of connections in pool" default:"10"`
	MinConns        int32         `help:"minimum number of connections in pool" default:"1"`
	MaxConnLifetime time.Duration `help:"maximum connection lifetime" default:"1h"`
	MaxConnIdleTime time.Duration `help:"maximum connection idle time" default:"30m"`
	QueryTimeout    time.Duration `help:"query timeout" default:"10s"`
	ConnectTries    uint          `help:"attempts to reach the database on startup" default:"5"`

	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"SHEETCLOCK_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

// open returns the configured stores. Login sessions are kept in memory for the json and
// memory backends.
func (f *StoreFlags) open(ctx context.Context) (*store.Stores, error) {
	switch f.StoreType {
	case "postgres":
		if err := f.PostgresStore.Validate(); err != nil {
			return nil, fmt.Errorf("failed to validate postgres flags: %w", err)
		}

		stores, err := postgresstore.Open(ctx, postgresstore.Config{
			ConnString:      f.PostgresStore.ConnString,
			MaxConns:        f.PostgresStore.MaxConns,
			MinConns:        f.PostgresStore.MinConns,
			MaxConnLifetime: f.PostgresStore.MaxConnLifetime,
			MaxConnIdleTime: f.PostgresStore.MaxConnIdleTime,
			QueryTimeout:    f.PostgresStore.QueryTimeout,
			ConnectTries:    f.PostgresStore.ConnectTries,
			AutoMigrate:     f.PostgresStore.AutoMigrate,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Using PostgreSQL stores")
		return stores, nil

	case "memory":
		log.Warn().Msg("Using in-memory stores, all data is lost on exit")
		return memory.NewStores(), nil

	default:
		employees, err := jsonfile.NewEmployeeStore(f.DataDir)
		if err != nil {
			return nil, err
		}
		documents, err := jsonfile.NewDocumentStore(f.DataDir)
		if err != nil {
			return nil, err
		}
		history, err := jsonfile.NewHistoryStore(f.DataDir)
		if err != nil {
			return nil, err
		}
		log.Info().Str("data_dir", f.DataDir).Msg("Using JSON file stores")

		return &store.Stores{
			Employees: employees,
			Documents: documents,
			History:   history,
			Sessions:  memory.NewSessionStore(),
		}, nil
	}
}
