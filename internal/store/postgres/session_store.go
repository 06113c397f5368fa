package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
)

// SessionStore keeps login sessions in the sessions table so they survive restarts and
// are shared between server instances.
type SessionStore struct {
	db
}

var _ store.SessionStore = (*SessionStore)(nil)

const sessionColumns = `session_id, employee_id, created_at, expires_at, last_used_at, user_agent, host(ip_address)`

func scanSession(row pgx.Row) (*models.AuthSession, error) {
	var (
		sess models.AuthSession
		ip   *string
	)
	err := row.Scan(&sess.SessionID, &sess.EmployeeID, &sess.CreatedAt, &sess.ExpiresAt, &sess.LastUsedAt, &sess.UserAgent, &ip)
	if err != nil {
		return nil, err
	}
	if ip != nil {
		sess.IPAddress = *ip
	}
	return &sess, nil
}

// nullableInet stores an empty address as NULL, the inet type rejects "".
func nullableInet(addr string) *string {
	if addr == "" {
		return nil
	}
	return &addr
}

func (s *SessionStore) Create(ctx context.Context, sess *models.AuthSession) error {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (session_id, employee_id, created_at, expires_at, last_used_at, user_agent, ip_address)
		VALUES (@id, @employee, @created, @expires, @used, @agent, @ip::inet)
	`, pgx.NamedArgs{
		"id":       sess.SessionID,
		"employee": sess.EmployeeID,
		"created":  sess.CreatedAt,
		"expires":  sess.ExpiresAt,
		"used":     sess.LastUsedAt,
		"agent":    sess.UserAgent,
		"ip":       nullableInet(sess.IPAddress),
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", mapPostgresError(err))
	}
	return nil
}

// Get returns the session, ErrSessionExpired once it is past its expiry.
func (s *SessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*models.AuthSession, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	sess, err := scanSession(s.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE session_id = $1`, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", mapPostgresError(err))
	}

	if sess.IsExpired() {
		return nil, store.ErrSessionExpired
	}
	return sess, nil
}

func (s *SessionStore) UpdateLastUsed(ctx context.Context, sessionID uuid.UUID) error {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `UPDATE sessions SET last_used_at = $2 WHERE session_id = $1`, sessionID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrSessionNotFound
	}
	return nil
}

// DeleteByEmployee revokes every login of an employee, used on credential reset and deletion.
func (s *SessionStore) DeleteByEmployee(ctx context.Context, employeeID string) (int, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE employee_id = $1`, employeeID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke sessions: %w", mapPostgresError(err))
	}
	return int(tag.RowsAffected()), nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context) (int, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep sessions: %w", mapPostgresError(err))
	}

	if n := tag.RowsAffected(); n > 0 {
		log.Debug().Int64("count", n).Msg("swept expired sessions")
	}
	return int(tag.RowsAffected()), nil
}
