package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/sheetclock/internal/models"
)

// activeSession is the engine-side state of one running work session.
type activeSession struct {
	id         uuid.UUID
	employee   models.Employee // snapshot taken at start, used when the record cannot be re-read
	documentID string
	title      string
	startTime  time.Time

	mu               sync.Mutex
	elapsedSeconds   int64
	hadModifications bool
	lastObserved     time.Time // newest external timestamp seen, starts at the tracked value
	lastModification *time.Time

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// stop cancels the tick and poll loops and waits for both to exit. Safe to call more than once.
func (s *activeSession) stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
}

func (s *activeSession) setElapsed(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsedSeconds = int64(now.Sub(s.startTime) / time.Second)
}

// observe records an external timestamp and reports whether it is a modification.
func (s *activeSession) observe(lastModified time.Time, hasChanges bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !hasChanges && !lastModified.After(s.lastObserved) {
		return false
	}

	s.hadModifications = true
	if lastModified.After(s.lastObserved) {
		s.lastObserved = lastModified
	}
	ts := lastModified
	s.lastModification = &ts

	return true
}

func (s *activeSession) modified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hadModifications
}

func (s *activeSession) snapshot() *models.ActiveSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &models.ActiveSession{
		ID:               s.id.String(),
		DocumentID:       s.documentID,
		DocumentTitle:    s.title,
		StartTime:        s.startTime,
		ElapsedSeconds:   s.elapsedSeconds,
		HadModifications: s.hadModifications,
	}
	if s.lastModification != nil {
		ts := *s.lastModification
		snap.LastModification = &ts
	}

	return snap
}
