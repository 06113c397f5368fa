package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/wolfeidau/sheetclock/internal/store"
)

// uniqueConstraints maps constraint names from the schema to the store sentinel they enforce.
var uniqueConstraints = map[string]error{
	"idx_employees_email":    store.ErrEmployeeExists,
	"tracked_documents_pkey": store.ErrDocumentExists,
}

// mapPostgresError turns unique violations on known constraints into store sentinels and
// labels the remaining server errors. Non postgres errors are returned unchanged.
func mapPostgresError(err error) error {
	var pgErr *pgconn.PgError
	if err == nil || !errors.As(err, &pgErr) {
		return err
	}

	if pgErr.Code == pgerrcode.UniqueViolation {
		if sentinel, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
			return sentinel
		}
	}

	switch {
	case pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
		return fmt.Errorf("constraint %s violated: %w", pgErr.ConstraintName, err)
	case pgerrcode.IsConnectionException(pgErr.Code), pgErr.Code == pgerrcode.AdminShutdown, pgErr.Code == pgerrcode.CannotConnectNow:
		return fmt.Errorf("database unavailable: %w", err)
	case pgErr.Code == pgerrcode.QueryCanceled:
		return fmt.Errorf("query canceled: %w", err)
	case pgerrcode.IsInsufficientResources(pgErr.Code):
		return fmt.Errorf("database resource limit: %w", err)
	default:
		return fmt.Errorf("postgres error %s: %w", pgErr.Code, err)
	}
}
