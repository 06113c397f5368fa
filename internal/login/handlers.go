package login

import (
	"context"
	"crypto/rand"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sheetclock/internal/apperr"
	apihttp "github.com/wolfeidau/sheetclock/internal/http"
	"github.com/wolfeidau/sheetclock/internal/models"
)

// LogoutHook runs before a caller's session is destroyed, it is used to force-close
// the caller's active work session.
type LogoutHook func(ctx context.Context, employeeID string)

// Handlers serves the /auth routes.
type Handlers struct {
	gate     *Gate
	sessions *Sessions
	provider IdentityProvider
	onLogout LogoutHook
}

type HandlersOption func(*Handlers)

// WithProvider enables delegated login through p.
func WithProvider(p IdentityProvider) HandlersOption {
	return func(h *Handlers) { h.provider = p }
}

// WithLogoutHook registers fn to run on logout.
func WithLogoutHook(fn LogoutHook) HandlersOption {
	return func(h *Handlers) { h.onLogout = fn }
}

func NewHandlers(gate *Gate, sessions *Sessions, opts ...HandlersOption) *Handlers {
	h := &Handlers{gate: gate, sessions: sessions}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the auth routes on mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login", h.LoginHandler)
	mux.HandleFunc("GET /auth/provider", h.ProviderHandler)
	mux.HandleFunc("GET /auth/provider/callback", h.CallbackHandler)
	mux.HandleFunc("GET /auth/logout", h.LogoutHandler)
	mux.HandleFunc("GET /auth/status", h.StatusHandler)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := apihttp.DecodeJSON(w, r, &req); err != nil {
		apihttp.WriteError(w, r, err, "Login failed")
		return
	}

	if req.Email == "" || req.Password == "" {
		apihttp.WriteError(w, r, ErrInvalidCredentials, "Login failed")
		return
	}

	emp, err := h.gate.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		apihttp.WriteError(w, r, err, "Login failed")
		return
	}

	if err := h.sessions.Login(r.Context(), w, r, emp); err != nil {
		apihttp.WriteError(w, r, err, "Login failed")
		return
	}

	log.Info().Str("user", emp.Email).Msg("Employee logged in")

	apihttp.WriteJSON(w, http.StatusOK, apihttp.Envelope{
		Success: true,
		Message: "Login successful",
		Data:    emp.Public(),
	})
}

func (h *Handlers) ProviderHandler(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		apihttp.WriteError(w, r, apperr.New(apperr.ErrNotFound, "Identity provider login is not configured"), "")
		return
	}

	log.Debug().Msg("Initiating provider OAuth flow")

	state := h.saveState(w)
	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

func (h *Handlers) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		apihttp.WriteError(w, r, apperr.New(apperr.ErrNotFound, "Identity provider login is not configured"), "")
		return
	}

	state := r.FormValue("state")
	code := r.FormValue("code")

	if state == "" || code == "" {
		log.Warn().Msg("OAuth callback missing state or code")
		http.Redirect(w, r, "/login.html?error_code=provider", http.StatusFound)
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value != state {
		log.Warn().Msg("OAuth callback state mismatch")
		http.Redirect(w, r, "/login.html?error_code=provider", http.StatusFound)
		return
	}

	h.clearState(w)

	identity, err := h.provider.Verify(r.Context(), code)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to verify provider identity")
		http.Redirect(w, r, "/login.html?error_code=provider", http.StatusFound)
		return
	}

	emp, err := h.gate.AuthenticateViaProvider(r.Context(), identity)
	if err != nil {
		log.Error().Err(err).Msg("Provider authentication failed")
		http.Redirect(w, r, "/login.html?error_code=provider", http.StatusFound)
		return
	}

	if emp == nil {
		http.Redirect(w, r, "/unauthorized.html", http.StatusFound)
		return
	}

	if err := h.sessions.Login(r.Context(), w, r, emp); err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		http.Redirect(w, r, "/login.html?error_code=session", http.StatusFound)
		return
	}

	log.Info().Str("user", emp.Email).Bool("admin", emp.IsAdmin).Msg("Employee authenticated via provider")

	if emp.IsAdmin {
		http.Redirect(w, r, "/admin.html", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/dashboard.html", http.StatusFound)
}

func (h *Handlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if session, _, err := h.sessions.Current(r); err == nil && h.onLogout != nil {
		h.onLogout(r.Context(), session.EmployeeID)
	}

	h.sessions.Logout(r.Context(), w, r)

	if wantsJSON(r) {
		apihttp.WriteMessage(w, "Logged out")
		return
	}
	http.Redirect(w, r, "/login.html", http.StatusFound)
}

type statusResponse struct {
	Success       bool                   `json:"success"`
	Authenticated bool                   `json:"authenticated"`
	User          *models.PublicEmployee `json:"user"`
}

func (h *Handlers) StatusHandler(w http.ResponseWriter, r *http.Request) {
	_, emp, err := h.sessions.Current(r)
	if err != nil {
		apihttp.WriteJSON(w, http.StatusOK, statusResponse{Success: true})
		return
	}

	user := emp.Public()
	apihttp.WriteJSON(w, http.StatusOK, statusResponse{Success: true, Authenticated: true, User: &user})
}

func (h *Handlers) saveState(w http.ResponseWriter) string {
	state := rand.Text()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.sessions.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300, // 5 minutes - enough time for OAuth flow
	})

	return state
}

func (h *Handlers) clearState(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.sessions.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
