package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds the connection and behaviour settings of the PostgreSQL record store.
type Config struct {
	// ConnString is a postgres:// URL or key=value DSN.
	ConnString string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// QueryTimeout bounds every statement issued by the stores.
	QueryTimeout time.Duration

	// AutoMigrate applies the embedded schema migrations on open.
	AutoMigrate bool

	// ConnectTries is how many times the first ping is attempted before giving up.
	ConnectTries uint
}

func (c Config) withDefaults() Config {
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MinConns == 0 {
		c.MinConns = 1
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = time.Hour
	}
	if c.MaxConnIdleTime == 0 {
		c.MaxConnIdleTime = 30 * time.Minute
	}
	if c.QueryTimeout == 0 {
		c.QueryTimeout = 10 * time.Second
	}
	if c.ConnectTries == 0 {
		c.ConnectTries = 5
	}
	return c
}

func (c Config) validate() error {
	if c.ConnString == "" {
		return errors.New("connection string is required")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("min conns (%d) must not exceed max conns (%d)", c.MinConns, c.MaxConns)
	}
	return nil
}

func (c Config) poolConfig() (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(c.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	pc.MaxConns = c.MaxConns
	pc.MinConns = c.MinConns
	pc.MaxConnLifetime = c.MaxConnLifetime
	pc.MaxConnIdleTime = c.MaxConnIdleTime
	pc.HealthCheckPeriod = time.Minute

	return pc, nil
}
