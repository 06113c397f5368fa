package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"filippo.io/csrf"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/sheetclock/internal/admin"
	"github.com/wolfeidau/sheetclock/internal/documents"
	"github.com/wolfeidau/sheetclock/internal/history"
	apihttp "github.com/wolfeidau/sheetclock/internal/http"
	"github.com/wolfeidau/sheetclock/internal/logger"
	"github.com/wolfeidau/sheetclock/internal/login"
	"github.com/wolfeidau/sheetclock/internal/server"
	"github.com/wolfeidau/sheetclock/internal/sheets"
	"github.com/wolfeidau/sheetclock/internal/telemetry"
	"github.com/wolfeidau/sheetclock/internal/tracking"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type ServeCmd struct {
	// Server configuration
	Listen    string `help:"HTTP server listen address" default:"0.0.0.0:3000" env:"SHEETCLOCK_LISTEN"`
	Cert      string `help:"path to TLS cert file, plain HTTP when unset" default:"" env:"SHEETCLOCK_TLS_CERT"`
	Key       string `help:"path to TLS key file" default:"" env:"SHEETCLOCK_TLS_KEY"`
	PublicDir string `help:"directory of static pages" default:"public" env:"SHEETCLOCK_PUBLIC_DIR"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"http://localhost:3000" env:"SHEETCLOCK_CORS_ORIGINS"`

	Store StoreFlags `embed:""`

	// Login sessions
	SessionSecret          string        `help:"secret used to sign session cookies, at least 32 bytes" required:"" env:"SHEETCLOCK_SESSION_SECRET"`
	SessionTTL             time.Duration `help:"login session TTL" default:"24h" env:"SHEETCLOCK_SESSION_TTL"`
	SessionCleanupInterval time.Duration `help:"interval between expired session sweeps" default:"10m" env:"SHEETCLOCK_SESSION_CLEANUP_INTERVAL"`

	// Admin account
	AdminEmail         string  `help:"email of the admin account" default:"" env:"SHEETCLOCK_ADMIN_EMAIL"`
	AdminName          string  `help:"display name of the admin account" default:"Administrator" env:"SHEETCLOCK_ADMIN_NAME"`
	AdminPassword      string  `help:"initial admin password, provider login only when unset" default:"" env:"SHEETCLOCK_ADMIN_PASSWORD"`
	AdminHourlyRate    float64 `help:"hourly rate of the admin account" default:"0" env:"SHEETCLOCK_ADMIN_HOURLY_RATE"`
	AllowAdminPassword bool    `help:"allow admins to log in with a password" default:"false" env:"SHEETCLOCK_ALLOW_ADMIN_PASSWORD"`

	Google   GoogleFlags   `embed:"" prefix:"google-"`
	Tracking TrackingFlags `embed:"" prefix:"tracking-"`

	// Development and operational modes
	Development      bool    `help:"development mode, exposes panic detail in responses" default:"false" env:"SHEETCLOCK_DEVELOPMENT"`
	Tracing          bool    `help:"enable tracing" default:"false" env:"SHEETCLOCK_TRACING"`
	TraceSampleRatio float64 `help:"fraction of traces sampled" default:"1" env:"SHEETCLOCK_TRACE_SAMPLE_RATIO"`
}

type GoogleFlags struct {
	ClientID     string `help:"Google OAuth client ID, provider login is disabled when unset" default:"" env:"SHEETCLOCK_GOOGLE_CLIENT_ID"`
	ClientSecret string `help:"Google OAuth client secret" default:"" env:"SHEETCLOCK_GOOGLE_CLIENT_SECRET"`
	CallbackURL  string `help:"Google OAuth callback URL" default:"http://localhost:3000/auth/provider/callback" env:"SHEETCLOCK_GOOGLE_CALLBACK_URL"`
	CacheDir     string `help:"directory for cached document metadata, in memory when unset" default:"" env:"SHEETCLOCK_METADATA_CACHE_DIR"`
}

type TrackingFlags struct {
	PollInterval time.Duration `help:"interval between document modification checks" default:"30s" env:"SHEETCLOCK_POLL_INTERVAL"`
	TickInterval time.Duration `help:"elapsed time update interval" default:"1s" env:"SHEETCLOCK_TICK_INTERVAL"`
	PollMaxTries uint          `help:"attempts per modification check" default:"3" env:"SHEETCLOCK_POLL_MAX_TRIES"`
}

func (c *ServeCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug || c.Development)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		providers, err := telemetry.Setup(ctx, telemetry.Config{
			ServiceName: "sheetclock-server",
			Version:     globals.Version,
			SampleRatio: c.TraceSampleRatio,
		})
		if err != nil {
			return fmt.Errorf("failed to set up telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := providers.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	stores, err := c.Store.open(ctx)
	if err != nil {
		return err
	}
	if stores.Close != nil {
		defer stores.Close()
	}

	codec, err := login.NewCookieCodec([]byte(c.SessionSecret))
	if err != nil {
		return fmt.Errorf("invalid session secret: %w", err)
	}
	sessions, err := login.NewSessions(stores.Sessions, stores.Employees, codec, c.SessionTTL, c.Cert != "")
	if err != nil {
		return err
	}

	metadata := sheets.NewClient(sheets.WithHTTPClient(sheets.NewCachingHTTPClient(c.Google.CacheDir)))
	docs := documents.NewService(stores.Documents, metadata, documents.WithAdderToken(stores.Employees))

	engine := tracking.NewEngine(docs, stores.Employees, stores.History, tracking.Config{
		PollInterval: c.Tracking.PollInterval,
		TickInterval: c.Tracking.TickInterval,
		PollMaxTries: c.Tracking.PollMaxTries,
	})

	adminSvc := admin.NewService(stores.Employees, c.AdminEmail,
		admin.WithSessionRevoker(sessions),
		admin.WithWorkSessions(engine),
	)
	if _, err := adminSvc.EnsureAdmin(ctx, admin.Account{
		Email:      c.AdminEmail,
		Name:       c.AdminName,
		Password:   c.AdminPassword,
		HourlyRate: c.AdminHourlyRate,
	}); err != nil {
		return err
	}

	authOpts := []login.HandlersOption{login.WithLogoutHook(engine.ForceEnd)}
	if c.Google.ClientID != "" {
		provider, err := login.NewGoogleProvider(c.Google.ClientID, c.Google.ClientSecret, c.Google.CallbackURL)
		if err != nil {
			return fmt.Errorf("failed to initialize Google OAuth: %w", err)
		}
		authOpts = append(authOpts, login.WithProvider(provider))
		log.Info().Str("callback_url", c.Google.CallbackURL).Msg("Google login enabled")
	}

	srv := server.NewServer(server.Services{
		Documents: docs,
		Engine:    engine,
		History:   history.NewService(stores.History),
		Admin:     adminSvc,
		Sessions:  sessions,
		Auth:      login.NewHandlers(login.NewGate(stores.Employees, c.AllowAdminPassword), sessions, authOpts...),
	}, c.PublicDir)

	handler, err := c.buildHandler(log, srv.Handler())
	if err != nil {
		return err
	}

	go c.sweepSessions(ctx, sessions)

	httpServer := configureHTTPServer(c.Listen, handler)

	errCh := make(chan error, 1)
	go func() {
		if c.Cert != "" {
			log.Info().Str("addr", c.Listen).Msg("Starting HTTPS server")
			errCh <- httpServer.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
		log.Info().Str("addr", c.Listen).Msg("Starting HTTP server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			engine.Shutdown(context.Background())
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown http server")
	}

	// record whatever is still running before the stores close
	engine.Shutdown(shutdownCtx)

	return nil
}

// buildHandler wraps the routes with the middleware chain. API routes get CORS, every
// route gets cross-origin request protection.
func (c *ServeCmd) buildHandler(log zerolog.Logger, routes http.Handler) (http.Handler, error) {
	protection := csrf.New()
	for _, origin := range c.CORSOrigins {
		if err := protection.AddTrustedOrigin(origin); err != nil {
			return nil, fmt.Errorf("invalid CORS origin %q: %w", origin, err)
		}
	}

	withCORS := apihttp.CORS(c.CORSOrigins)(routes)
	routed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if server.IsAPIRoute(r.URL.Path) {
			withCORS.ServeHTTP(w, r)
			return
		}
		routes.ServeHTTP(w, r)
	})

	handler := apihttp.Chain(protection.Handler(routed),
		apihttp.ClientIPMiddleware(),
		apihttp.RequestLogger(log),
		apihttp.Recover(c.Development),
		apihttp.Compress(),
	)

	if c.Tracing {
		handler = otelhttp.NewHandler(handler, "sheetclock")
	}

	return handler, nil
}

func (c *ServeCmd) sweepSessions(ctx context.Context, sessions *login.Sessions) {
	ticker := time.NewTicker(c.SessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.Cleanup(ctx)
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to remove expired sessions")
				continue
			}
			if n > 0 {
				zerolog.Ctx(ctx).Info().Int("count", n).Msg("Removed expired sessions")
			}
		}
	}
}
