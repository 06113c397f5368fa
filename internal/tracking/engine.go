// Package tracking runs work sessions: it keeps one active session per employee, polls the
// tracked document for external modification while the session runs, and turns a closed
// session into a history record with its accrued pay.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sheetclock/internal/apperr"
	"github.com/wolfeidau/sheetclock/internal/documents"
	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
	"github.com/wolfeidau/sheetclock/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrSessionActive   = apperr.New(apperr.ErrValidation, "A work session is already active")
	ErrNoActiveSession = apperr.New(apperr.ErrValidation, "No active work session")
)

// Documents is the part of the document tracking service the engine depends on.
type Documents interface {
	Get(ctx context.Context, id string) (*models.TrackedDocument, error)
	CheckStatus(ctx context.Context, caller *models.Employee, id string) (*documents.Status, error)
}

// Employees reads the current employee record, so polls use the latest access token.
type Employees interface {
	Get(ctx context.Context, id string) (*models.Employee, error)
}

// Config controls the engine's periodic activities.
type Config struct {
	PollInterval time.Duration // default 30s
	TickInterval time.Duration // default 1s

	// PollMaxTries bounds the attempts made for one poll, including the first. Default 3.
	PollMaxTries uint

	// Now overrides the clock, used by tests.
	Now func() time.Time
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *Config) ApplyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.PollMaxTries == 0 {
		c.PollMaxTries = 3
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Result describes how a session was closed.
type Result struct {
	Record           *models.SessionRecord `json:"record,omitempty"`
	Discarded        bool                  `json:"discarded"`
	DurationMinutes  int64                 `json:"durationMinutes"`
	HadModifications bool                  `json:"hadModifications"`
}

// Engine owns the active work sessions, keyed by employee ID.
type Engine struct {
	docs      Documents
	employees Employees
	history   store.HistoryStore
	cfg       Config
	metrics   *telemetry.Metrics

	mu     sync.Mutex
	active map[string]*activeSession
}

func NewEngine(docs Documents, employees Employees, history store.HistoryStore, cfg Config) *Engine {
	cfg.ApplyDefaults()

	return &Engine{
		docs:      docs,
		employees: employees,
		history:   history,
		cfg:       cfg,
		metrics:   telemetry.GetMetrics(),
		active:    make(map[string]*activeSession),
	}
}

// Start opens a work session for emp on a tracked document. title overrides the tracked
// document title when set. Only one session per employee may be active.
func (e *Engine) Start(ctx context.Context, emp *models.Employee, documentID, title string) (*models.ActiveSession, error) {
	if documentID == "" {
		return nil, apperr.Validation("Missing required fields", "documentId")
	}

	if e.isActive(emp.ID) {
		return nil, ErrSessionActive
	}

	doc, err := e.docs.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if title == "" {
		title = doc.Title
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	// the loops outlive the request that started them, keep its values but not its deadline
	sessCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s := &activeSession{
		id:           id,
		employee:     *emp,
		documentID:   doc.ID,
		title:        title,
		startTime:    e.cfg.Now(),
		lastObserved: doc.LastModified,
		cancel:       cancel,
	}

	e.mu.Lock()
	if _, exists := e.active[emp.ID]; exists {
		e.mu.Unlock()
		cancel()
		return nil, ErrSessionActive
	}
	e.active[emp.ID] = s
	e.mu.Unlock()

	s.wg.Add(2)
	go e.tickLoop(sessCtx, s)
	go e.pollLoop(sessCtx, s)

	e.metrics.SessionsStartedTotal.Add(ctx, 1)
	e.metrics.ActiveSessions.Add(ctx, 1)

	log.Info().
		Str("session_id", id.String()).
		Str("user", emp.Email).
		Str("document_id", doc.ID).
		Msg("Work session started")

	return s.snapshot(), nil
}

// End closes emp's active session. Pay is computed with emp's current hourly rate.
// The employee is idle afterwards whether the session was recorded, discarded or failed to save.
func (e *Engine) End(ctx context.Context, emp *models.Employee) (*Result, error) {
	s := e.take(emp.ID)
	if s == nil {
		return nil, ErrNoActiveSession
	}

	return e.close(ctx, s, emp)
}

// ForceEnd closes an employee's session, if any, on logout or teardown. It is best effort,
// failures are logged and the session is dropped.
func (e *Engine) ForceEnd(ctx context.Context, employeeID string) {
	s := e.take(employeeID)
	if s == nil {
		return
	}

	e.metrics.SessionsForcedTotal.Add(ctx, 1)

	emp := e.current(ctx, s)
	if _, err := e.close(ctx, s, emp); err != nil {
		log.Error().Err(err).
			Str("session_id", s.id.String()).
			Str("user", emp.Email).
			Msg("Forced close of work session failed, session lost")
	}
}

// Active returns a snapshot of emp's running session.
func (e *Engine) Active(employeeID string) (*models.ActiveSession, bool) {
	e.mu.Lock()
	s, ok := e.active[employeeID]
	e.mu.Unlock()

	if !ok {
		return nil, false
	}
	return s.snapshot(), true
}

// Shutdown force-closes every active session.
func (e *Engine) Shutdown(ctx context.Context) {
	e.mu.Lock()
	ids := make([]string, 0, len(e.active))
	for id := range e.active {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	log.Info().Int("count", len(ids)).Msg("Closing active work sessions")

	for _, id := range ids {
		e.ForceEnd(ctx, id)
	}
}

func (e *Engine) isActive(employeeID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.active[employeeID]
	return ok
}

// take removes and returns the employee's session so exactly one caller closes it.
func (e *Engine) take(employeeID string) *activeSession {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.active[employeeID]
	if !ok {
		return nil
	}
	delete(e.active, employeeID)
	return s
}

func (e *Engine) close(ctx context.Context, s *activeSession, emp *models.Employee) (*Result, error) {
	s.stop()
	e.metrics.ActiveSessions.Add(ctx, -1)

	endTime := e.cfg.Now()
	minutes := DurationMinutes(s.startTime, endTime)
	hadModifications := s.modified()

	result := &Result{DurationMinutes: minutes, HadModifications: hadModifications}

	logger := log.With().
		Str("session_id", s.id.String()).
		Str("user", emp.Email).
		Int64("duration_minutes", minutes).
		Bool("had_modifications", hadModifications).
		Logger()

	if ShouldDiscard(hadModifications, minutes) {
		e.metrics.SessionsDiscardedTotal.Add(ctx, 1)
		logger.Info().Msg("Work session discarded, no significant activity")
		result.Discarded = true
		return result, nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate record ID: %w", err)
	}

	rec := &models.SessionRecord{
		ID:               id.String(),
		EmployeeName:     emp.Name,
		EmployeeEmail:    emp.Email,
		DocumentID:       s.documentID,
		DocumentTitle:    s.title,
		StartTime:        s.startTime.UTC(),
		EndTime:          endTime.UTC(),
		DurationMinutes:  minutes,
		HadModifications: hadModifications,
		SalaryAmount:     Salary(minutes, emp.HourlyRate),
		RecordedAt:       e.cfg.Now().UTC(),
	}

	if err := e.history.Append(ctx, rec); err != nil {
		e.metrics.StoreWriteErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to record work session: %w", err)
	}

	e.metrics.SessionsRecordedTotal.Add(ctx, 1)
	e.metrics.SessionDuration.Record(ctx, float64(minutes))

	logger.Info().Int64("salary", rec.SalaryAmount).Msg("Work session recorded")

	result.Record = rec
	return result, nil
}

// tickLoop keeps the elapsed seconds shown to the caller current.
func (e *Engine) tickLoop(ctx context.Context, s *activeSession) {
	defer s.wg.Done()

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.setElapsed(e.cfg.Now())
		}
	}
}

// pollLoop checks the document for external modification every poll interval.
func (e *Engine) pollLoop(ctx context.Context, s *activeSession) {
	defer s.wg.Done()

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.poll(ctx, s)
		}
	}
}

// current re-reads the session's employee, falling back to the snapshot taken at start
// when the record cannot be read.
func (e *Engine) current(ctx context.Context, s *activeSession) *models.Employee {
	emp, err := e.employees.Get(ctx, s.employee.ID)
	if err != nil {
		log.Debug().Err(err).Str("session_id", s.id.String()).Msg("using employee snapshot")
		snap := s.employee
		return &snap
	}
	return emp
}

func (e *Engine) poll(ctx context.Context, s *activeSession) {
	attrs := metric.WithAttributes(attribute.String("document_id", s.documentID))
	e.metrics.PollsTotal.Add(ctx, 1, attrs)

	status, err := backoff.Retry(ctx, func() (*documents.Status, error) {
		st, err := e.docs.CheckStatus(ctx, e.current(ctx, s), s.documentID)
		if errors.Is(err, apperr.ErrNotFound) {
			// document was removed from tracking, retrying cannot help
			return nil, backoff.Permanent(err)
		}
		return st, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(e.cfg.PollMaxTries),
		backoff.WithMaxElapsedTime(e.cfg.PollInterval),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Debug().Err(err).Dur("retry_in", next).Str("document_id", s.documentID).Msg("modification poll failed, retrying")
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		e.metrics.PollErrorsTotal.Add(ctx, 1, attrs)
		log.Warn().Err(err).
			Str("session_id", s.id.String()).
			Str("document_id", s.documentID).
			Msg("modification poll failed")
		return
	}

	if s.observe(status.LastModified, status.HasChanges) {
		e.metrics.ModificationsSeen.Add(ctx, 1, attrs)
		log.Debug().
			Str("session_id", s.id.String()).
			Time("last_modified", status.LastModified).
			Msg("external modification observed")
	}
}
