package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
)

// EmployeeStore implements store.EmployeeStore using PostgreSQL.
type EmployeeStore struct {
	db
}

var _ store.EmployeeStore = (*EmployeeStore)(nil)

const employeeColumns = `id, name, email, password_hash, hourly_rate, created_at, is_admin, access_token`

func scanEmployee(row pgx.Row) (*models.Employee, error) {
	var emp models.Employee
	err := row.Scan(
		&emp.ID,
		&emp.Name,
		&emp.Email,
		&emp.PasswordHash,
		&emp.HourlyRate,
		&emp.CreatedAt,
		&emp.IsAdmin,
		&emp.AccessToken,
	)
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (s *EmployeeStore) List(ctx context.Context) ([]*models.Employee, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", mapPostgresError(err))
	}
	defer rows.Close()

	employees := []*models.Employee{}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}

	return employees, rows.Err()
}

func (s *EmployeeStore) Get(ctx context.Context, id string) (*models.Employee, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	emp, err := scanEmployee(s.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", mapPostgresError(err))
	}

	return emp, nil
}

func (s *EmployeeStore) GetByEmail(ctx context.Context, email string) (*models.Employee, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	emp, err := scanEmployee(s.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE lower(email) = $1`, models.NormalizeEmail(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee by email: %w", mapPostgresError(err))
	}

	return emp, nil
}

func (s *EmployeeStore) Create(ctx context.Context, employee *models.Employee) error {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		employee.ID,
		employee.Name,
		employee.Email,
		employee.PasswordHash,
		employee.HourlyRate,
		employee.CreatedAt,
		employee.IsAdmin,
		employee.AccessToken,
	)
	if err != nil {
		return mapPostgresError(err)
	}

	return nil
}

func (s *EmployeeStore) Update(ctx context.Context, employee *models.Employee) error {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	result, err := s.pool.Exec(ctx, `
		UPDATE employees
		SET name = $2, email = $3, password_hash = $4, hourly_rate = $5, is_admin = $6, access_token = $7
		WHERE id = $1
	`,
		employee.ID,
		employee.Name,
		employee.Email,
		employee.PasswordHash,
		employee.HourlyRate,
		employee.IsAdmin,
		employee.AccessToken,
	)
	if err != nil {
		return mapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrEmployeeNotFound
	}

	return nil
}

func (s *EmployeeStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	result, err := s.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrEmployeeNotFound
	}

	return nil
}
