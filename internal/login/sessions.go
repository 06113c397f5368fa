package login

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	apihttp "github.com/wolfeidau/sheetclock/internal/http"
	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
)

type contextKey string

const (
	employeeContextKey contextKey = "employee"
	sessionContextKey  contextKey = "auth_session"
)

// Sessions manages server-side login sessions and the cookie that refers to them.
type Sessions struct {
	sessions  store.SessionStore
	employees store.EmployeeStore
	codec     *CookieCodec
	ttl       time.Duration
	secure    bool
}

// NewSessions creates a session manager. secure controls the Secure attribute on cookies
// and should be true whenever the server is reached over TLS.
func NewSessions(sessions store.SessionStore, employees store.EmployeeStore, codec *CookieCodec, ttl time.Duration, secure bool) (*Sessions, error) {
	if sessions == nil || employees == nil || codec == nil {
		return nil, fmt.Errorf("session store, employee store, and cookie codec are required")
	}

	if ttl <= 0 {
		return nil, fmt.Errorf("session TTL must be greater than 0")
	}

	return &Sessions{
		sessions:  sessions,
		employees: employees,
		codec:     codec,
		ttl:       ttl,
		secure:    secure,
	}, nil
}

// Login creates a session for emp and sets the session cookie.
func (s *Sessions) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, emp *models.Employee) error {
	sessionID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &models.AuthSession{
		SessionID:  sessionID,
		EmployeeID: emp.ID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
		LastUsedAt: now,
		UserAgent:  r.UserAgent(),
		IPAddress:  apihttp.ClientIPFromContext(ctx),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.codec.Encode(sessionID, now, session.ExpiresAt)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})

	log.Info().
		Str("session_id", sessionID.String()).
		Str("employee_id", emp.ID).
		Msg("Created session")

	return nil
}

// Logout deletes the caller's session, if any, and clears the cookie.
// It returns the session that was removed, nil when the caller had none.
func (s *Sessions) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) *models.AuthSession {
	defer s.clearCookie(w)

	session, err := s.session(ctx, r)
	if err != nil {
		return nil
	}

	if err := s.sessions.Delete(ctx, session.SessionID); err != nil && !errors.Is(err, store.ErrSessionNotFound) {
		log.Warn().Err(err).Str("session_id", session.SessionID.String()).Msg("failed to delete session")
	}

	return session
}

// Current resolves the request's session cookie to the live session and its employee.
func (s *Sessions) Current(r *http.Request) (*models.AuthSession, *models.Employee, error) {
	ctx := r.Context()

	session, err := s.session(ctx, r)
	if err != nil {
		return nil, nil, err
	}

	emp, err := s.employees.Get(ctx, session.EmployeeID)
	if errors.Is(err, store.ErrEmployeeNotFound) {
		// employee was deleted while logged in
		_ = s.sessions.Delete(ctx, session.SessionID)
		return nil, nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session employee: %w", err)
	}

	if err := s.sessions.UpdateLastUsed(ctx, session.SessionID); err != nil {
		log.Debug().Err(err).Str("session_id", session.SessionID.String()).Msg("failed to touch session")
	}

	return session, emp, nil
}

// Cleanup removes expired sessions.
func (s *Sessions) Cleanup(ctx context.Context) (int, error) {
	return s.sessions.DeleteExpired(ctx)
}

// RevokeEmployee drops every session belonging to an employee.
func (s *Sessions) RevokeEmployee(ctx context.Context, employeeID string) (int, error) {
	return s.sessions.DeleteByEmployee(ctx, employeeID)
}

func (s *Sessions) session(ctx context.Context, r *http.Request) (*models.AuthSession, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	sessionID, err := s.codec.Decode(cookie.Value)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, store.ErrSessionNotFound) || errors.Is(err, store.ErrSessionExpired) {
		log.Debug().Err(err).Str("session_id", sessionID.String()).Msg("session rejected")
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return session, nil
}

func (s *Sessions) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireAuth rejects requests without a live session with a 401 envelope.
// On success the session and its employee are added to the request context.
func (s *Sessions) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, emp, err := s.Current(r)
		if err != nil {
			apihttp.WriteError(w, r, err, "Not authenticated")
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		ctx = WithEmployee(ctx, emp)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects callers that are not admins with a 403 envelope.
// It must be composed inside RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		emp, ok := EmployeeFromContext(r.Context())
		if !ok || !emp.IsAdmin {
			apihttp.WriteError(w, r, ErrAdminRequired, "Admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// WithEmployee returns a context carrying the authenticated employee.
func WithEmployee(ctx context.Context, emp *models.Employee) context.Context {
	return context.WithValue(ctx, employeeContextKey, emp)
}

// EmployeeFromContext extracts the authenticated employee from the request context.
// This should be called from handlers protected by RequireAuth.
func EmployeeFromContext(ctx context.Context) (*models.Employee, bool) {
	emp, ok := ctx.Value(employeeContextKey).(*models.Employee)
	return emp, ok && emp != nil
}

// SessionFromContext extracts the login session from the request context.
func SessionFromContext(ctx context.Context) (*models.AuthSession, bool) {
	session, ok := ctx.Value(sessionContextKey).(*models.AuthSession)
	return session, ok
}
