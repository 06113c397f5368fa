package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/sheetclock/internal/apperr"
	"github.com/wolfeidau/sheetclock/internal/models"
)

// Sentinel errors for common error conditions. Domain sentinels carry an apperr kind so
// handlers can map them to a status code without knowing which store produced them.
var (
	ErrEmployeeNotFound = apperr.New(apperr.ErrNotFound, "Employee not found")
	ErrEmployeeExists   = apperr.New(apperr.ErrDuplicate, "Employee with this email already exists")
	ErrDocumentNotFound = apperr.New(apperr.ErrNotFound, "Document not found")
	ErrDocumentExists   = apperr.New(apperr.ErrDuplicate, "This document is already being tracked")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// EmployeeStore manages the employee collection. Email is unique and compared case-insensitively.
type EmployeeStore interface {
	List(ctx context.Context) ([]*models.Employee, error)
	Get(ctx context.Context, id string) (*models.Employee, error)
	GetByEmail(ctx context.Context, email string) (*models.Employee, error)

	// Create fails with ErrEmployeeExists, leaving the collection untouched, when the email is taken.
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
	Delete(ctx context.Context, id string) error
}

// DocumentStore manages the tracked document collection.
type DocumentStore interface {
	List(ctx context.Context) ([]*models.TrackedDocument, error)
	Get(ctx context.Context, id string) (*models.TrackedDocument, error)
	Create(ctx context.Context, doc *models.TrackedDocument) error
	Delete(ctx context.Context, id string) error

	// RefreshLastModified stores lastModified only when it is strictly after the stored value,
	// and reports whether it did.
	RefreshLastModified(ctx context.Context, id string, lastModified time.Time) (bool, error)
}

// HistoryFilter narrows a history listing. Zero values match everything.
type HistoryFilter struct {
	EmployeeEmail string
	From          time.Time // inclusive, compared against StartTime
	To            time.Time // inclusive, compared against StartTime
}

// Match reports whether the record passes the filter.
func (f HistoryFilter) Match(rec *models.SessionRecord) bool {
	if f.EmployeeEmail != "" && models.NormalizeEmail(rec.EmployeeEmail) != models.NormalizeEmail(f.EmployeeEmail) {
		return false
	}
	if !f.From.IsZero() && rec.StartTime.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && rec.StartTime.After(f.To) {
		return false
	}
	return true
}

// HistoryStore is the append-only session history. Records are never updated or deleted.
type HistoryStore interface {
	Append(ctx context.Context, rec *models.SessionRecord) error

	// List returns matching records, most recent end time first.
	List(ctx context.Context, filter HistoryFilter) ([]*models.SessionRecord, error)
}

// SessionStore manages login sessions.
type SessionStore interface {
	Create(ctx context.Context, session *models.AuthSession) error
	Get(ctx context.Context, sessionID uuid.UUID) (*models.AuthSession, error)
	UpdateLastUsed(ctx context.Context, sessionID uuid.UUID) error
	Delete(ctx context.Context, sessionID uuid.UUID) error
	DeleteByEmployee(ctx context.Context, employeeID string) (int, error)
	DeleteExpired(ctx context.Context) (int, error)
}

// Stores bundles the collections the service needs, whichever backend provides them.
type Stores struct {
	Employees EmployeeStore
	Documents DocumentStore
	History   HistoryStore
	Sessions  SessionStore

	// Close releases backend resources, may be nil.
	Close func()
}
