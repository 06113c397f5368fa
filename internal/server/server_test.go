package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sheetclock/internal/admin"
	"github.com/wolfeidau/sheetclock/internal/documents"
	"github.com/wolfeidau/sheetclock/internal/history"
	"github.com/wolfeidau/sheetclock/internal/login"
	"github.com/wolfeidau/sheetclock/internal/sheets"
	"github.com/wolfeidau/sheetclock/internal/store/memory"
	"github.com/wolfeidau/sheetclock/internal/tracking"
)

const (
	adminEmail = "boss@example.com"
	docURL     = "https://docs.google.com/spreadsheets/d/1AbC-dEf_123/edit#gid=0"
	docID      = "1AbC-dEf_123"
)

type fakeMetadata struct {
	mu           sync.Mutex
	lastModified time.Time
}

func (f *fakeMetadata) Fetch(ctx context.Context, accessToken, documentID string) (*sheets.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &sheets.Metadata{Title: "Timesheet " + documentID, LastModified: f.lastModified}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
}

type testServer struct {
	url    string
	engine *tracking.Engine
	admin  *admin.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	stores := memory.NewStores()

	codec, err := login.NewCookieCodec([]byte("test-secret-key-min-32-bytes-long"))
	require.NoError(t, err)
	sessions, err := login.NewSessions(stores.Sessions, stores.Employees, codec, time.Hour, false)
	require.NoError(t, err)

	docs := documents.NewService(stores.Documents, &fakeMetadata{lastModified: time.Now().Add(-time.Hour)})
	engine := tracking.NewEngine(docs, stores.Employees, stores.History, tracking.Config{})
	t.Cleanup(func() { engine.Shutdown(context.Background()) })

	adminSvc := admin.NewService(stores.Employees, adminEmail,
		admin.WithSessionRevoker(sessions),
		admin.WithWorkSessions(engine),
	)
	_, err = adminSvc.EnsureAdmin(ctx, admin.Account{Email: adminEmail, Name: "Boss", Password: "boss-pw", HourlyRate: 500})
	require.NoError(t, err)
	_, err = adminSvc.Add(ctx, admin.AddInput{Name: "Jana", Email: "jana@example.com", Password: "jana-pw", HourlyRate: 200})
	require.NoError(t, err)

	authHandlers := login.NewHandlers(login.NewGate(stores.Employees, true), sessions,
		login.WithLogoutHook(engine.ForceEnd),
	)

	srv := NewServer(Services{
		Documents: docs,
		Engine:    engine,
		History:   history.NewService(stores.History),
		Admin:     adminSvc,
		Sessions:  sessions,
		Auth:      authHandlers,
	}, "")

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testServer{url: ts.URL, engine: engine, admin: adminSvc}
}

func (s *testServer) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (s *testServer) do(t *testing.T, c *http.Client, method, path string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, s.url+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (s *testServer) login(t *testing.T, email, password string) *http.Client {
	t.Helper()
	c := s.client(t)
	status, env := s.do(t, c, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, status, env.Message)
	require.True(t, env.Success)
	return c
}

func TestUnknownRoutes(t *testing.T) {
	s := newTestServer(t)
	c := s.client(t)

	for _, path := range []string{"/api/nope", "/auth/nope", "/missing.html"} {
		status, env := s.do(t, c, http.MethodGet, path, nil)
		require.Equal(t, http.StatusNotFound, status, path)
		require.False(t, env.Success)
		require.Equal(t, "Route not found", env.Message)
	}

	resp, err := c.Get(s.url + "/")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/login.html", resp.Header.Get("Location"))
}

func TestGuards(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, s.client(t), http.MethodGet, "/api/documents", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.False(t, env.Success)

	jana := s.login(t, "jana@example.com", "jana-pw")
	status, env = s.do(t, jana, http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "Admin access required", env.Message)

	status, _ = s.do(t, jana, http.MethodGet, "/api/documents", nil)
	require.Equal(t, http.StatusOK, status)
}

func TestBadLogin(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, s.client(t), http.MethodPost, "/auth/login", map[string]string{"email": "jana@example.com", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "Invalid credentials", env.Message)
}

func TestDocumentsAndWorkSession(t *testing.T) {
	s := newTestServer(t)
	jana := s.login(t, "jana@example.com", "jana-pw")

	status, env := s.do(t, jana, http.MethodPost, "/api/documents", map[string]string{"sheetUrl": docURL})
	require.Equal(t, http.StatusOK, status, env.Message)

	var doc struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		AddedBy string `json:"addedBy"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &doc))
	require.Equal(t, docID, doc.ID)
	require.Equal(t, "jana@example.com", doc.AddedBy)

	status, env = s.do(t, jana, http.MethodPost, "/api/documents", map[string]string{"sheetUrl": docID})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "This document is already being tracked", env.Message)

	status, env = s.do(t, jana, http.MethodPost, "/api/documents", map[string]string{"sheetUrl": "not a sheet!"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, []string{"sheetUrl"}, env.Errors)

	status, env = s.do(t, jana, http.MethodGet, "/api/documents/"+docID+"/status", nil)
	require.Equal(t, http.StatusOK, status)
	var st documents.Status
	require.NoError(t, json.Unmarshal(env.Data, &st))
	require.False(t, st.HasChanges)

	status, _ = s.do(t, jana, http.MethodPost, "/api/sessions/start", map[string]string{"documentId": docID})
	require.Equal(t, http.StatusOK, status)

	status, env = s.do(t, jana, http.MethodPost, "/api/sessions/start", map[string]string{"documentId": docID})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "A work session is already active", env.Message)

	status, env = s.do(t, jana, http.MethodGet, "/api/sessions/active", nil)
	require.Equal(t, http.StatusOK, status)
	var active struct {
		Active  bool `json:"active"`
		Session struct {
			DocumentTitle string `json:"documentTitle"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &active))
	require.True(t, active.Active)
	require.Equal(t, "Timesheet "+docID, active.Session.DocumentTitle)

	// ended straight away, nothing worth recording
	status, env = s.do(t, jana, http.MethodPost, "/api/sessions/end", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "No significant activity to record", env.Message)

	status, env = s.do(t, jana, http.MethodPost, "/api/sessions/end", nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "No active work session", env.Message)

	status, _ = s.do(t, jana, http.MethodDelete, "/api/documents/"+docID, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, jana, http.MethodDelete, "/api/documents/"+docID, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestHistory(t *testing.T) {
	s := newTestServer(t)
	jana := s.login(t, "jana@example.com", "jana-pw")
	boss := s.login(t, adminEmail, "boss-pw")

	start := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	status, env := s.do(t, jana, http.MethodPost, "/api/history", map[string]any{
		"startTime":     start,
		"endTime":       start.Add(90 * time.Minute),
		"documentId":    docID,
		"documentTitle": "Budget",
	})
	require.Equal(t, http.StatusOK, status, env.Message)

	var rec struct {
		DurationMinutes int64 `json:"durationMinutes"`
		Salary          int64 `json:"salaryCZK"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	require.Equal(t, int64(90), rec.DurationMinutes)
	require.Equal(t, int64(300), rec.Salary)

	status, env = s.do(t, boss, http.MethodPost, "/api/history", map[string]any{
		"startTime":     start.Add(48 * time.Hour),
		"endTime":       start.Add(48*time.Hour + 30*time.Minute),
		"documentId":    docID,
		"documentTitle": "Budget",
	})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = s.do(t, jana, http.MethodPost, "/api/history", map[string]any{
		"startTime":     start,
		"endTime":       start.Add(10 * time.Second),
		"documentId":    docID,
		"documentTitle": "Budget",
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "No significant activity to record", env.Message)

	// employees only see their own records
	status, env = s.do(t, jana, http.MethodGet, "/api/history?email="+adminEmail, nil)
	require.Equal(t, http.StatusOK, status)
	var recs []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &recs))
	require.Len(t, recs, 1)

	status, env = s.do(t, boss, http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &recs))
	require.Len(t, recs, 2)

	status, env = s.do(t, boss, http.MethodGet, "/api/history/summary?startDate=2024-05-10&endDate=2024-05-10", nil)
	require.Equal(t, http.StatusOK, status)
	var sum history.Summary
	require.NoError(t, json.Unmarshal(env.Data, &sum))
	require.Equal(t, 1, sum.TotalSessions)
	require.Equal(t, int64(300), sum.TotalSalary)
	require.Equal(t, int64(90), *sum.AvgDurationMinutes)

	status, _ = s.do(t, boss, http.MethodGet, "/api/history?startDate=yesterday", nil)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestEmployeeAdministration(t *testing.T) {
	s := newTestServer(t)
	boss := s.login(t, adminEmail, "boss-pw")

	status, env := s.do(t, boss, http.MethodPost, "/api/employees", map[string]any{
		"name": "Petr", "email": "petr@example.com", "password": "petr-pw", "hourlySalaryCZK": 150,
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	require.NotContains(t, string(env.Data), "password")

	var petr struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &petr))

	status, env = s.do(t, boss, http.MethodPost, "/api/employees", map[string]any{
		"name": "Petr 2", "email": "PETR@example.com", "password": "x", "hourlySalaryCZK": 150,
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Employee with this email already exists", env.Message)

	status, env = s.do(t, boss, http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, status)
	require.NotContains(t, string(env.Data), "password")
	var list []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 3)

	status, _ = s.do(t, boss, http.MethodPost, "/api/employees/"+petr.ID+"/reset-credential", map[string]string{"newPassword": "fresh-pw"})
	require.Equal(t, http.StatusOK, status)

	petrClient := s.login(t, "petr@example.com", "fresh-pw")
	status, env = s.do(t, petrClient, http.MethodPut, "/api/employees/credential", map[string]string{"currentPassword": "wrong", "newPassword": "x"})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "Current password is incorrect", env.Message)

	status, _ = s.do(t, petrClient, http.MethodPut, "/api/employees/credential", map[string]string{"currentPassword": "fresh-pw", "newPassword": "mine"})
	require.Equal(t, http.StatusOK, status)

	status, env = s.do(t, petrClient, http.MethodGet, "/api/employees/profile", nil)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(env.Data), "petr@example.com")

	bossProfile, err := s.admin.EnsureAdmin(context.Background(), admin.Account{Email: adminEmail})
	require.NoError(t, err)
	status, env = s.do(t, boss, http.MethodDelete, "/api/employees/"+bossProfile.ID, nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "Cannot delete admin account", env.Message)

	status, _ = s.do(t, boss, http.MethodDelete, "/api/employees/"+petr.ID, nil)
	require.Equal(t, http.StatusOK, status)

	// deleted employees lose their login sessions
	status, _ = s.do(t, petrClient, http.MethodGet, "/api/employees/profile", nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestLogoutClosesWorkSession(t *testing.T) {
	s := newTestServer(t)
	jana := s.login(t, "jana@example.com", "jana-pw")

	status, _ := s.do(t, jana, http.MethodPost, "/api/documents", map[string]string{"sheetUrl": docID})
	require.Equal(t, http.StatusOK, status)
	status, env := s.do(t, jana, http.MethodPost, "/api/sessions/start", map[string]string{"documentId": docID})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, _ = s.do(t, jana, http.MethodGet, "/auth/status", nil)
	require.Equal(t, http.StatusOK, status)

	status, env = s.do(t, jana, http.MethodGet, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Logged out", env.Message)

	status, _ = s.do(t, jana, http.MethodGet, "/api/sessions/active", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	jana = s.login(t, "jana@example.com", "jana-pw")
	status, env = s.do(t, jana, http.MethodGet, "/api/sessions/active", nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"active":false}`, string(env.Data))
}

func TestIsAPIRoute(t *testing.T) {
	require.True(t, IsAPIRoute("/api/documents"))
	require.True(t, IsAPIRoute("/auth/login"))
	require.True(t, IsAPIRoute("/health"))
	require.False(t, IsAPIRoute("/dashboard.html"))
}
