package http

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// RequestLogger attaches logger to every request and logs each completed request with
// its status, size and duration.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			evt := hlog.FromRequest(r).Info()
			if status >= http.StatusInternalServerError {
				evt = hlog.FromRequest(r).Error()
			}
			evt.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Str("client_ip", ClientIPFromContext(r.Context())).
				Msg("http request")
		})(next)

		h = hlog.UserAgentHandler("user_agent")(h)
		h = hlog.RequestIDHandler("request_id", "X-Request-Id")(h)

		return hlog.NewHandler(logger)(h)
	}
}
