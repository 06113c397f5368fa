// Package history records closed work sessions and reports on them.
package history

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sheetclock/internal/apperr"
	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
	"github.com/wolfeidau/sheetclock/internal/tracking"
)

var (
	ErrMissingFields     = apperr.Validation("Missing required fields", "startTime", "endTime", "documentId", "documentTitle")
	ErrEndBeforeStart    = apperr.Validation("End time must not be before start time", "endTime")
	ErrNoSignificantWork = apperr.New(apperr.ErrValidation, "No significant activity to record")
)

// RecordInput is a work session reported by a client.
type RecordInput struct {
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`
	DocumentID       string    `json:"documentId"`
	DocumentTitle    string    `json:"documentTitle"`
	HadModifications bool      `json:"hadModifications"`
}

// Summary aggregates a set of history records. The averages are only set when there is
// at least one session.
type Summary struct {
	TotalSessions             int    `json:"totalSessions"`
	TotalDurationMinutes      int64  `json:"totalDurationMinutes"`
	TotalSalary               int64  `json:"totalSalaryCZK"`
	SessionsWithModifications int    `json:"sessionsWithModifications"`
	AvgDurationMinutes        *int64 `json:"avgDurationMinutes,omitempty"`
	AvgSalary                 *int64 `json:"avgSalaryCZK,omitempty"`
}

type Service struct {
	history store.HistoryStore
	now     func() time.Time
}

func NewService(history store.HistoryStore) *Service {
	return &Service{history: history, now: time.Now}
}

// Record validates a client reported session and appends it to the history for caller,
// applying the same duration, discard and pay rules as the session engine.
func (s *Service) Record(ctx context.Context, caller *models.Employee, in RecordInput) (*models.SessionRecord, error) {
	if in.StartTime.IsZero() || in.EndTime.IsZero() || in.DocumentID == "" || in.DocumentTitle == "" {
		return nil, ErrMissingFields
	}

	if in.EndTime.Before(in.StartTime) {
		return nil, ErrEndBeforeStart
	}

	minutes := tracking.DurationMinutes(in.StartTime, in.EndTime)
	if tracking.ShouldDiscard(in.HadModifications, minutes) {
		return nil, ErrNoSignificantWork
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate record ID: %w", err)
	}

	rec := &models.SessionRecord{
		ID:               id.String(),
		EmployeeName:     caller.Name,
		EmployeeEmail:    caller.Email,
		DocumentID:       in.DocumentID,
		DocumentTitle:    in.DocumentTitle,
		StartTime:        in.StartTime.UTC(),
		EndTime:          in.EndTime.UTC(),
		DurationMinutes:  minutes,
		HadModifications: in.HadModifications,
		SalaryAmount:     tracking.Salary(minutes, caller.HourlyRate),
		RecordedAt:       s.now().UTC(),
	}

	if err := s.history.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to append history record: %w", err)
	}

	log.Info().
		Str("record_id", rec.ID).
		Str("user", caller.Email).
		Int64("duration_minutes", minutes).
		Msg("Work session recorded from client")

	return rec, nil
}

// List returns matching records, most recent end time first.
func (s *Service) List(ctx context.Context, filter store.HistoryFilter) ([]*models.SessionRecord, error) {
	recs, err := s.history.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	if recs == nil {
		recs = []*models.SessionRecord{}
	}
	return recs, nil
}

// Summary aggregates the records matching filter.
func (s *Service) Summary(ctx context.Context, filter store.HistoryFilter) (*Summary, error) {
	recs, err := s.history.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for summary: %w", err)
	}

	return Summarize(recs), nil
}

// Summarize computes totals and rounded averages over recs.
func Summarize(recs []*models.SessionRecord) *Summary {
	sum := &Summary{TotalSessions: len(recs)}

	for _, rec := range recs {
		sum.TotalDurationMinutes += rec.DurationMinutes
		sum.TotalSalary += rec.SalaryAmount
		if rec.HadModifications {
			sum.SessionsWithModifications++
		}
	}

	if sum.TotalSessions > 0 {
		n := float64(sum.TotalSessions)
		avgDuration := int64(math.Floor(float64(sum.TotalDurationMinutes)/n + 0.5))
		avgSalary := int64(math.Floor(float64(sum.TotalSalary)/n + 0.5))
		sum.AvgDurationMinutes = &avgDuration
		sum.AvgSalary = &avgSalary
	}

	return sum
}
