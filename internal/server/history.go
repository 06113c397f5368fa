package server

import (
	"net/http"
	"time"

	"github.com/wolfeidau/sheetclock/internal/apperr"
	"github.com/wolfeidau/sheetclock/internal/history"
	apihttp "github.com/wolfeidau/sheetclock/internal/http"
	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
)

const dateLayout = "2006-01-02"

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := historyFilter(r, caller(r))
	if err != nil {
		apihttp.WriteError(w, r, err, "Error loading history")
		return
	}

	recs, err := s.svc.History.List(r.Context(), filter)
	if err != nil {
		apihttp.WriteError(w, r, err, "Error loading history")
		return
	}
	apihttp.WriteData(w, recs)
}

func (s *Server) recordHistory(w http.ResponseWriter, r *http.Request) {
	var in history.RecordInput
	if err := apihttp.DecodeJSON(w, r, &in); err != nil {
		apihttp.WriteError(w, r, err, "Error recording history")
		return
	}

	rec, err := s.svc.History.Record(r.Context(), caller(r), in)
	if err != nil {
		apihttp.WriteError(w, r, err, "Error recording history")
		return
	}
	apihttp.WriteData(w, rec)
}

func (s *Server) historySummary(w http.ResponseWriter, r *http.Request) {
	filter, err := historyFilter(r, caller(r))
	if err != nil {
		apihttp.WriteError(w, r, err, "Error generating summary")
		return
	}

	sum, err := s.svc.History.Summary(r.Context(), filter)
	if err != nil {
		apihttp.WriteError(w, r, err, "Error generating summary")
		return
	}
	apihttp.WriteData(w, sum)
}

// historyFilter reads email, startDate and endDate from the query. Employees only ever see
// their own records, admins see everyone unless they pass an email.
func historyFilter(r *http.Request, emp *models.Employee) (store.HistoryFilter, error) {
	q := r.URL.Query()

	filter := store.HistoryFilter{EmployeeEmail: q.Get("email")}
	if !emp.IsAdmin {
		filter.EmployeeEmail = emp.Email
	}

	var err error
	if filter.From, err = parseBound(q.Get("startDate"), false); err != nil {
		return filter, apperr.Wrap(apperr.ErrValidation, "Invalid startDate", err)
	}
	if filter.To, err = parseBound(q.Get("endDate"), true); err != nil {
		return filter, apperr.Wrap(apperr.ErrValidation, "Invalid endDate", err)
	}

	return filter, nil
}

// parseBound accepts RFC 3339 timestamps or plain dates. A plain end date covers the whole day.
func parseBound(value string, end bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
