package http

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/hlog"
)

// Recover turns a panic in a handler into a 500 envelope. The panic value is only
// included in the response when development is set.
func Recover(development bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				hlog.FromRequest(r).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("path", r.URL.Path).
					Msg("handler panicked")

				msg := "Internal server error"
				if development {
					msg = fmt.Sprintf("%s: %v", msg, rec)
				}
				WriteFailure(w, http.StatusInternalServerError, msg)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
