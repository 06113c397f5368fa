// Package admin manages employee records. Every operation here except Profile and
// ChangeOwnCredential is restricted to admin callers by the HTTP layer.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sheetclock/internal/apperr"
	"github.com/wolfeidau/sheetclock/internal/login"
	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
)

var (
	ErrMissingFields    = apperr.Validation("Missing required fields", "name", "email", "password", "hourlySalaryCZK")
	ErrInvalidRate      = apperr.Validation("Hourly salary must be greater than zero", "hourlySalaryCZK")
	ErrMissingPassword  = apperr.Validation("New password is required", "newPassword")
	ErrWrongPassword    = apperr.New(apperr.ErrAuth, "Current password is incorrect")
	ErrAdminUndeletable = apperr.New(apperr.ErrForbidden, "Cannot delete admin account")
	ErrProfileNotFound  = apperr.New(apperr.ErrNotFound, "Employee profile not found")
)

// SessionRevoker ends an employee's login sessions.
type SessionRevoker interface {
	RevokeEmployee(ctx context.Context, employeeID string) (int, error)
}

// WorkSessions closes an employee's running work session.
type WorkSessions interface {
	ForceEnd(ctx context.Context, employeeID string)
}

// AddInput describes a new employee.
type AddInput struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	HourlyRate float64 `json:"hourlySalaryCZK"`
}

// Account is the configured admin account created at startup.
type Account struct {
	Email      string
	Name       string
	Password   string
	HourlyRate float64
}

type Service struct {
	employees  store.EmployeeStore
	adminEmail string
	revoker    SessionRevoker
	work       WorkSessions
	now        func() time.Time
}

type Option func(*Service)

// WithSessionRevoker logs deleted or reset employees out.
func WithSessionRevoker(r SessionRevoker) Option {
	return func(s *Service) { s.revoker = r }
}

// WithWorkSessions closes a deleted employee's running work session.
func WithWorkSessions(w WorkSessions) Option {
	return func(s *Service) { s.work = w }
}

// NewService creates the administration service. adminEmail is the configured admin
// account, new employees with this email are made admins and it can never be deleted.
func NewService(employees store.EmployeeStore, adminEmail string, opts ...Option) *Service {
	s := &Service{
		employees:  employees,
		adminEmail: models.NormalizeEmail(adminEmail),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsConfiguredAdmin reports whether email is the configured admin email.
func (s *Service) IsConfiguredAdmin(email string) bool {
	return s.adminEmail != "" && models.NormalizeEmail(email) == s.adminEmail
}

func (s *Service) List(ctx context.Context) ([]models.PublicEmployee, error) {
	emps, err := s.employees.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	out := make([]models.PublicEmployee, 0, len(emps))
	for _, emp := range emps {
		out = append(out, emp.Public())
	}
	return out, nil
}

// Profile returns the caller's own record as currently stored.
func (s *Service) Profile(ctx context.Context, caller *models.Employee) (*models.PublicEmployee, error) {
	emp, err := s.employees.Get(ctx, caller.ID)
	if errors.Is(err, store.ErrEmployeeNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	pub := emp.Public()
	return &pub, nil
}

func (s *Service) Add(ctx context.Context, in AddInput) (*models.PublicEmployee, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	if in.Name == "" || in.Email == "" || in.Password == "" || in.HourlyRate == 0 {
		return nil, ErrMissingFields
	}
	if in.HourlyRate < 0 {
		return nil, ErrInvalidRate
	}

	hash, err := login.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	emp, err := s.newEmployee(in.Name, in.Email, in.HourlyRate)
	if err != nil {
		return nil, err
	}
	emp.PasswordHash = hash

	if err := s.employees.Create(ctx, emp); err != nil {
		return nil, err
	}

	log.Info().Str("employee_id", emp.ID).Str("email", emp.Email).Bool("is_admin", emp.IsAdmin).Msg("Employee added")

	pub := emp.Public()
	return &pub, nil
}

// ResetCredential sets a new password for another employee and logs them out.
func (s *Service) ResetCredential(ctx context.Context, id, newPassword string) error {
	if newPassword == "" {
		return ErrMissingPassword
	}

	emp, err := s.employees.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.setPassword(ctx, emp, newPassword); err != nil {
		return err
	}

	s.revoke(ctx, emp.ID)

	log.Info().Str("employee_id", emp.ID).Msg("Employee password reset")
	return nil
}

// ChangeOwnCredential changes the caller's password after checking the current one.
func (s *Service) ChangeOwnCredential(ctx context.Context, caller *models.Employee, currentPassword, newPassword string) error {
	if newPassword == "" {
		return ErrMissingPassword
	}

	emp, err := s.employees.Get(ctx, caller.ID)
	if err != nil {
		return err
	}

	if !login.CheckPassword(emp.PasswordHash, currentPassword) {
		return ErrWrongPassword
	}

	if err := s.setPassword(ctx, emp, newPassword); err != nil {
		return err
	}

	log.Info().Str("employee_id", emp.ID).Msg("Employee changed own password")
	return nil
}

// Delete removes an employee, closing their work session and login sessions first.
// Admin records cannot be deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	emp, err := s.employees.Get(ctx, id)
	if err != nil {
		return err
	}

	if emp.IsAdmin || s.IsConfiguredAdmin(emp.Email) {
		return ErrAdminUndeletable
	}

	if s.work != nil {
		s.work.ForceEnd(ctx, emp.ID)
	}

	if err := s.employees.Delete(ctx, emp.ID); err != nil {
		return err
	}

	s.revoke(ctx, emp.ID)

	log.Info().Str("employee_id", emp.ID).Str("email", emp.Email).Msg("Employee deleted")
	return nil
}

// EnsureAdmin makes sure the configured admin account exists and carries the admin flag.
// An account without a password can only log in through the identity provider.
func (s *Service) EnsureAdmin(ctx context.Context, acct Account) (*models.Employee, error) {
	if acct.Email == "" {
		return nil, nil
	}

	emp, err := s.employees.GetByEmail(ctx, acct.Email)
	switch {
	case err == nil:
		if emp.IsAdmin {
			return emp, nil
		}
		emp.IsAdmin = true
		if err := s.employees.Update(ctx, emp); err != nil {
			return nil, fmt.Errorf("failed to promote admin: %w", err)
		}
		log.Info().Str("email", emp.Email).Msg("Existing employee promoted to admin")
		return emp, nil
	case !errors.Is(err, store.ErrEmployeeNotFound):
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	name := acct.Name
	if name == "" {
		name = "Administrator"
	}

	emp, err = s.newEmployee(name, acct.Email, acct.HourlyRate)
	if err != nil {
		return nil, err
	}
	emp.IsAdmin = true

	if acct.Password != "" {
		if emp.PasswordHash, err = login.HashPassword(acct.Password); err != nil {
			return nil, err
		}
	}

	if err := s.employees.Create(ctx, emp); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	log.Info().Str("email", emp.Email).Msg("Admin account created")
	return emp, nil
}

func (s *Service) newEmployee(name, email string, rate float64) (*models.Employee, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate employee ID: %w", err)
	}

	return &models.Employee{
		ID:         id.String(),
		Name:       name,
		Email:      email,
		HourlyRate: rate,
		CreatedAt:  s.now().UTC(),
		IsAdmin:    s.IsConfiguredAdmin(email),
	}, nil
}

func (s *Service) setPassword(ctx context.Context, emp *models.Employee, password string) error {
	hash, err := login.HashPassword(password)
	if err != nil {
		return err
	}
	emp.PasswordHash = hash

	if err := s.employees.Update(ctx, emp); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *Service) revoke(ctx context.Context, employeeID string) {
	if s.revoker == nil {
		return
	}
	n, err := s.revoker.RevokeEmployee(ctx, employeeID)
	if err != nil {
		log.Warn().Err(err).Str("employee_id", employeeID).Msg("failed to revoke login sessions")
		return
	}
	log.Debug().Int("count", n).Str("employee_id", employeeID).Msg("login sessions revoked")
}
