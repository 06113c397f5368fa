package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
)

// SessionStore keeps login sessions in process memory. They are lost on restart and
// callers simply log in again.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]models.AuthSession
}

var _ store.SessionStore = (*SessionStore)(nil)

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uuid.UUID]models.AuthSession)}
}

func (s *SessionStore) Create(ctx context.Context, session *models.AuthSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.SessionID] = *session
	return nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*models.AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	if sess.IsExpired() {
		return nil, store.ErrSessionExpired
	}
	return &sess, nil
}

func (s *SessionStore) UpdateLastUsed(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return store.ErrSessionNotFound
	}
	sess.LastUsedAt = time.Now()
	s.sessions[sessionID] = sess
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return store.ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *SessionStore) DeleteByEmployee(ctx context.Context, employeeID string) (int, error) {
	return s.deleteWhere(func(sess models.AuthSession) bool { return sess.EmployeeID == employeeID }), nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context) (int, error) {
	return s.deleteWhere(func(sess models.AuthSession) bool { return sess.IsExpired() }), nil
}

func (s *SessionStore) deleteWhere(match func(models.AuthSession) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.sessions)
	maps.DeleteFunc(s.sessions, func(_ uuid.UUID, sess models.AuthSession) bool { return match(sess) })
	return before - len(s.sessions)
}
