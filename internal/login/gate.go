package login

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sheetclock/internal/apperr"
	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
)

var (
	ErrInvalidCredentials = apperr.New(apperr.ErrAuth, "Invalid credentials")
	ErrNotAuthenticated   = apperr.New(apperr.ErrAuth, "Not authenticated")
	ErrAdminRequired      = apperr.New(apperr.ErrForbidden, "Admin access required")
)

// Gate authenticates callers against the employee collection.
type Gate struct {
	employees store.EmployeeStore

	// allowAdminPassword lets admin records use local login, by default admins
	// must come through the identity provider.
	allowAdminPassword bool
}

func NewGate(employees store.EmployeeStore, allowAdminPassword bool) *Gate {
	return &Gate{employees: employees, allowAdminPassword: allowAdminPassword}
}

// Authenticate checks a local email and password. Every failure is reported as
// ErrInvalidCredentials so callers cannot probe which emails exist.
func (g *Gate) Authenticate(ctx context.Context, email, password string) (*models.Employee, error) {
	emp, err := g.employees.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrEmployeeNotFound) {
		log.Debug().Str("email", email).Msg("login for unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}

	if emp.IsAdmin && !g.allowAdminPassword {
		log.Debug().Str("email", emp.Email).Msg("admin attempted local login")
		return nil, ErrInvalidCredentials
	}

	if !CheckPassword(emp.PasswordHash, password) {
		log.Debug().Str("email", emp.Email).Msg("password mismatch")
		return nil, ErrInvalidCredentials
	}

	return emp, nil
}

// AuthenticateViaProvider resolves a verified provider identity to a provisioned employee and
// stores the provider access token on it. It returns nil, nil when no employee has the email,
// accounts are never created implicitly.
func (g *Gate) AuthenticateViaProvider(ctx context.Context, identity *Identity) (*models.Employee, error) {
	if identity == nil || identity.Email == "" {
		return nil, nil
	}

	emp, err := g.employees.GetByEmail(ctx, identity.Email)
	if errors.Is(err, store.ErrEmployeeNotFound) {
		log.Info().Str("email", identity.Email).Msg("provider login for unprovisioned email")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}

	if identity.AccessToken != "" && identity.AccessToken != emp.AccessToken {
		emp.AccessToken = identity.AccessToken
		if err := g.employees.Update(ctx, emp); err != nil {
			return nil, fmt.Errorf("failed to store access token: %w", err)
		}
	}

	return emp, nil
}
