package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	apihttp "github.com/wolfeidau/sheetclock/internal/http"
	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store/memory"
)

var testSecret = []byte("test-secret-key-min-32-bytes-long")

type fakeProvider struct {
	identity *Identity
	err      error
}

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://provider.example.com/auth?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) Verify(ctx context.Context, code string) (*Identity, error) {
	return f.identity, f.err
}

type testEnv struct {
	employees *memory.EmployeeStore
	sessions  *Sessions
	handlers  *Handlers
	mux       *http.ServeMux
}

func newTestEnv(t *testing.T, opts ...HandlersOption) *testEnv {
	t.Helper()

	employees := memory.NewEmployeeStore()
	codec, err := NewCookieCodec(testSecret)
	require.NoError(t, err)

	sessions, err := NewSessions(memory.NewSessionStore(), employees, codec, 24*time.Hour, false)
	require.NoError(t, err)

	handlers := NewHandlers(NewGate(employees, false), sessions, opts...)
	mux := http.NewServeMux()
	handlers.Register(mux)

	return &testEnv{employees: employees, sessions: sessions, handlers: handlers, mux: mux}
}

func createEmployee(t *testing.T, employees *memory.EmployeeStore, email, password string, admin bool) *models.Employee {
	t.Helper()

	hash, err := HashPassword(password)
	require.NoError(t, err)

	emp := &models.Employee{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Name:         "Test Employee",
		Email:        email,
		PasswordHash: hash,
		HourlyRate:   200,
		CreatedAt:    time.Now(),
		IsAdmin:      admin,
	}
	require.NoError(t, employees.Create(context.Background(), emp))
	return emp
}

func (e *testEnv) login(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body := `{"email":"` + email + `","password":"` + password + `"}`
	r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, r)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestGateAuthenticate(t *testing.T) {
	ctx := context.Background()
	employees := memory.NewEmployeeStore()
	createEmployee(t, employees, "jana@example.com", "secret-pw", false)
	createEmployee(t, employees, "boss@example.com", "boss-pw", true)

	gate := NewGate(employees, false)

	emp, err := gate.Authenticate(ctx, "JANA@example.com", "secret-pw")
	require.NoError(t, err)
	require.Equal(t, "jana@example.com", emp.Email)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "unknown email", email: "nobody@example.com", password: "secret-pw"},
		{name: "wrong password", email: "jana@example.com", password: "nope"},
		{name: "admin is provider only", email: "boss@example.com", password: "boss-pw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gate.Authenticate(ctx, tt.email, tt.password)
			require.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}

	t.Run("admin password allowed when enabled", func(t *testing.T) {
		emp, err := NewGate(employees, true).Authenticate(ctx, "boss@example.com", "boss-pw")
		require.NoError(t, err)
		require.True(t, emp.IsAdmin)
	})
}

func TestGateAuthenticateViaProvider(t *testing.T) {
	ctx := context.Background()
	employees := memory.NewEmployeeStore()
	created := createEmployee(t, employees, "jana@example.com", "pw", false)
	gate := NewGate(employees, false)

	emp, err := gate.AuthenticateViaProvider(ctx, &Identity{Email: "Jana@example.com", AccessToken: "ya29.token"})
	require.NoError(t, err)
	require.Equal(t, created.ID, emp.ID)

	stored, err := employees.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "ya29.token", stored.AccessToken)

	emp, err = gate.AuthenticateViaProvider(ctx, &Identity{Email: "stranger@example.com"})
	require.NoError(t, err)
	require.Nil(t, emp)

	all, err := employees.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "unknown identities are never provisioned")
}

func TestCookieCodec(t *testing.T) {
	_, err := NewCookieCodec([]byte("short"))
	require.Error(t, err)

	codec, err := NewCookieCodec(testSecret)
	require.NoError(t, err)

	id := uuid.Must(uuid.NewV7())
	now := time.Now()

	token, err := codec.Encode(id, now, now.Add(time.Hour))
	require.NoError(t, err)

	got, err := codec.Decode(token)
	require.NoError(t, err)
	require.Equal(t, id, got)

	expired, err := codec.Encode(id, now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = codec.Decode(expired)
	require.ErrorIs(t, err, ErrInvalidSession)

	other, err := NewCookieCodec([]byte("another-secret-key-min-32-bytes!!"))
	require.NoError(t, err)
	_, err = other.Decode(token)
	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestLoginHandler(t *testing.T) {
	env := newTestEnv(t)
	createEmployee(t, env.employees, "jana@example.com", "secret-pw", false)

	t.Run("success sets cookie and strips credentials", func(t *testing.T) {
		w := env.login(t, "jana@example.com", "secret-pw")
		require.Equal(t, http.StatusOK, w.Code)
		require.NotContains(t, w.Body.String(), "password")
		require.NotEmpty(t, sessionCookie(t, w).Value)
	})

	t.Run("bad credentials", func(t *testing.T) {
		w := env.login(t, "jana@example.com", "wrong")
		require.Equal(t, http.StatusUnauthorized, w.Code)

		var resp apihttp.Envelope
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.False(t, resp.Success)
		require.Equal(t, "Invalid credentials", resp.Message)
	})
}

func TestRequireAuthAndAdmin(t *testing.T) {
	env := newTestEnv(t)
	createEmployee(t, env.employees, "jana@example.com", "secret-pw", false)
	cookie := sessionCookie(t, env.login(t, "jana@example.com", "secret-pw"))

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		emp, found := EmployeeFromContext(r.Context())
		require.True(t, found)
		apihttp.WriteData(w, emp.Public())
	})

	authed := env.sessions.RequireAuth(ok)
	admin := env.sessions.RequireAuth(RequireAdmin(ok))

	w := httptest.NewRecorder()
	authed.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	r := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	r.AddCookie(cookie)
	w = httptest.NewRecorder()
	authed.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/api/employees", nil)
	r.AddCookie(cookie)
	w = httptest.NewRecorder()
	admin.ServeHTTP(w, r)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestLogoutRunsHookAndDestroysSession(t *testing.T) {
	var loggedOut string
	env := newTestEnv(t, WithLogoutHook(func(ctx context.Context, employeeID string) {
		loggedOut = employeeID
	}))
	emp := createEmployee(t, env.employees, "jana@example.com", "secret-pw", false)
	cookie := sessionCookie(t, env.login(t, "jana@example.com", "secret-pw"))

	r := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	r.AddCookie(cookie)
	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, r)

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login.html", w.Header().Get("Location"))
	require.Equal(t, emp.ID, loggedOut)

	r = httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	r.AddCookie(cookie)
	w = httptest.NewRecorder()
	env.mux.ServeHTTP(w, r)
	require.JSONEq(t, `{"success":true,"authenticated":false,"user":null}`, w.Body.String())
}

func TestStatusHandler(t *testing.T) {
	env := newTestEnv(t)
	createEmployee(t, env.employees, "jana@example.com", "secret-pw", false)
	cookie := sessionCookie(t, env.login(t, "jana@example.com", "secret-pw"))

	r := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	r.AddCookie(cookie)
	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, r)

	var resp struct {
		Authenticated bool                  `json:"authenticated"`
		User          models.PublicEmployee `json:"user"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.True(t, resp.Authenticated)
	require.Equal(t, "jana@example.com", resp.User.Email)
}

func TestProviderCallback(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		expected string
	}{
		{
			name:     "employee",
			provider: &fakeProvider{identity: &Identity{Email: "jana@example.com", AccessToken: "tok"}},
			expected: "/dashboard.html",
		},
		{
			name:     "admin",
			provider: &fakeProvider{identity: &Identity{Email: "boss@example.com", AccessToken: "tok"}},
			expected: "/admin.html",
		},
		{
			name:     "not provisioned",
			provider: &fakeProvider{identity: &Identity{Email: "stranger@example.com"}},
			expected: "/unauthorized.html",
		},
		{
			name:     "verification failure",
			provider: &fakeProvider{err: errors.New("exchange failed")},
			expected: "/login.html?error_code=provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, WithProvider(tt.provider))
			createEmployee(t, env.employees, "jana@example.com", "pw", false)
			createEmployee(t, env.employees, "boss@example.com", "pw", true)

			// start the flow to obtain the state cookie
			w := httptest.NewRecorder()
			env.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/provider", nil))
			require.Equal(t, http.StatusFound, w.Code)

			var state *http.Cookie
			for _, c := range w.Result().Cookies() {
				if c.Name == stateCookieName {
					state = c
				}
			}
			require.NotNil(t, state)

			r := httptest.NewRequest(http.MethodGet, "/auth/provider/callback?code=abc&state="+url.QueryEscape(state.Value), nil)
			r.AddCookie(state)
			w = httptest.NewRecorder()
			env.mux.ServeHTTP(w, r)

			require.Equal(t, http.StatusFound, w.Code)
			require.Equal(t, tt.expected, w.Header().Get("Location"))
		})
	}
}

func TestProviderCallbackStateMismatch(t *testing.T) {
	env := newTestEnv(t, WithProvider(&fakeProvider{identity: &Identity{Email: "jana@example.com"}}))

	r := httptest.NewRequest(http.MethodGet, "/auth/provider/callback?code=abc&state=forged", nil)
	r.AddCookie(&http.Cookie{Name: stateCookieName, Value: "original"})
	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, r)

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login.html?error_code=provider", w.Header().Get("Location"))
}

func TestProviderNotConfigured(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/provider", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}
