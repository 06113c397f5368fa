package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
)

// HistoryStore implements store.HistoryStore using PostgreSQL.
type HistoryStore struct {
	db
}

var _ store.HistoryStore = (*HistoryStore)(nil)

func (s *HistoryStore) Append(ctx context.Context, rec *models.SessionRecord) error {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO session_records (
			id, employee_name, employee_email, document_id, document_title,
			start_time, end_time, duration_minutes, had_modifications, salary_amount, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		rec.ID,
		rec.EmployeeName,
		rec.EmployeeEmail,
		rec.DocumentID,
		rec.DocumentTitle,
		rec.StartTime,
		rec.EndTime,
		rec.DurationMinutes,
		rec.HadModifications,
		rec.SalaryAmount,
		rec.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append session record: %w", mapPostgresError(err))
	}

	return nil
}

func (s *HistoryStore) List(ctx context.Context, filter store.HistoryFilter) ([]*models.SessionRecord, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var (
		where []string
		args  []any
	)
	if filter.EmployeeEmail != "" {
		args = append(args, models.NormalizeEmail(filter.EmployeeEmail))
		where = append(where, fmt.Sprintf("lower(employee_email) = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where = append(where, fmt.Sprintf("start_time >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where = append(where, fmt.Sprintf("start_time <= $%d", len(args)))
	}

	query := `
		SELECT
			id, employee_name, employee_email, document_id, document_title,
			start_time, end_time, duration_minutes, had_modifications, salary_amount, recorded_at
		FROM session_records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY end_time DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list session records: %w", mapPostgresError(err))
	}
	defer rows.Close()

	records := []*models.SessionRecord{}
	for rows.Next() {
		var rec models.SessionRecord
		err := rows.Scan(
			&rec.ID,
			&rec.EmployeeName,
			&rec.EmployeeEmail,
			&rec.DocumentID,
			&rec.DocumentTitle,
			&rec.StartTime,
			&rec.EndTime,
			&rec.DurationMinutes,
			&rec.HadModifications,
			&rec.SalaryAmount,
			&rec.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session record: %w", err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}
