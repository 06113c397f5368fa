package server

import (
	"net/http"
	"strings"

	"github.com/wolfeidau/sheetclock/internal/admin"
	"github.com/wolfeidau/sheetclock/internal/apperr"
	"github.com/wolfeidau/sheetclock/internal/documents"
	"github.com/wolfeidau/sheetclock/internal/history"
	apihttp "github.com/wolfeidau/sheetclock/internal/http"
	"github.com/wolfeidau/sheetclock/internal/login"
	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/tracking"
)

var errRouteNotFound = apperr.New(apperr.ErrNotFound, "Route not found")

// Services are the application services exposed over HTTP.
type Services struct {
	Documents *documents.Service
	Engine    *tracking.Engine
	History   *history.Service
	Admin     *admin.Service
	Sessions  *login.Sessions
	Auth      *login.Handlers
}

// Server wraps the HTTP routes of the JSON API and the static site.
type Server struct {
	svc       Services
	publicDir string
}

// NewServer creates a server. Files under publicDir are served for non API paths,
// an empty publicDir disables static files.
func NewServer(svc Services, publicDir string) *Server {
	return &Server{svc: svc, publicDir: publicDir}
}

// Handler returns the HTTP handler for the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		apihttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.svc.Auth.Register(mux)

	auth := func(h http.HandlerFunc) http.Handler {
		return s.svc.Sessions.RequireAuth(h)
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return s.svc.Sessions.RequireAuth(login.RequireAdmin(h))
	}

	// /api/sheets is the older name for the same collection
	for _, prefix := range []string{"/api/documents", "/api/sheets"} {
		mux.Handle("GET "+prefix, auth(s.listDocuments))
		mux.Handle("POST "+prefix, auth(s.addDocument))
		mux.Handle("DELETE "+prefix+"/{id}", auth(s.deleteDocument))
		mux.Handle("GET "+prefix+"/{id}/status", auth(s.documentStatus))
	}

	mux.Handle("POST /api/sessions/start", auth(s.startSession))
	mux.Handle("POST /api/sessions/end", auth(s.endSession))
	mux.Handle("GET /api/sessions/active", auth(s.activeSession))

	mux.Handle("GET /api/history", auth(s.listHistory))
	mux.Handle("POST /api/history", auth(s.recordHistory))
	mux.Handle("GET /api/history/summary", auth(s.historySummary))

	mux.Handle("GET /api/employees", adminOnly(s.listEmployees))
	mux.Handle("POST /api/employees", adminOnly(s.addEmployee))
	mux.Handle("GET /api/employees/profile", auth(s.profile))
	mux.Handle("PUT /api/employees/credential", auth(s.changeCredential))
	mux.Handle("PUT /api/employees/password", auth(s.changeCredential))
	mux.Handle("POST /api/employees/{id}/reset-credential", adminOnly(s.resetCredential))
	mux.Handle("POST /api/employees/{id}/reset-password", adminOnly(s.resetCredential))
	mux.Handle("DELETE /api/employees/{id}", adminOnly(s.deleteEmployee))

	mux.HandleFunc("/api/", notFound)
	mux.HandleFunc("/auth/", notFound)
	mux.Handle("/", s.static())

	return mux
}

func (s *Server) static() http.Handler {
	var files http.Handler
	if s.publicDir != "" {
		files = http.FileServer(http.Dir(s.publicDir))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/login.html", http.StatusFound)
			return
		}
		if files == nil {
			notFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	apihttp.WriteError(w, r, errRouteNotFound, "")
}

// IsAPIRoute reports whether path is served by the JSON API rather than the static site.
func IsAPIRoute(path string) bool {
	return strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/auth/") || path == "/health"
}

func caller(r *http.Request) *models.Employee {
	emp, _ := login.EmployeeFromContext(r.Context())
	return emp
}
