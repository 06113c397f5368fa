package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"
	"github.com/wolfeidau/sheetclock/internal/apperr"
)

// Envelope is the shape of every JSON response body.
type Envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// WriteJSON writes v as a JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes a successful envelope carrying data.
func WriteData(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// WriteMessage writes a successful envelope carrying only a message.
func WriteMessage(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: message})
}

// WriteFailure writes a failed envelope with an explicit status code.
func WriteFailure(w http.ResponseWriter, status int, message string, errs ...string) {
	WriteJSON(w, status, Envelope{Success: false, Message: message, Errors: errs})
}

// WriteError classifies err and writes the matching failed envelope. Unclassified errors are
// logged and reported with fallback as the message so internal detail never reaches the caller.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := apperr.Status(err)

	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg(fallback)
	} else {
		hlog.FromRequest(r).Debug().Err(err).Int("status", status).Msg("request rejected")
	}

	WriteFailure(w, status, apperr.Message(err, fallback), apperr.Fields(err)...)
}

// MaxBodyBytes limits the size of JSON request bodies.
const MaxBodyBytes = 1 << 20

// DecodeJSON decodes the request body into v, reporting malformed or oversized bodies as
// validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return apperr.Validation("Request body is required")
	}

	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(v)
	if maxErr := (*http.MaxBytesError)(nil); errors.As(err, &maxErr) {
		return apperr.Wrap(apperr.ErrValidation, "Request body too large", err)
	}
	if err != nil {
		return apperr.Wrap(apperr.ErrValidation, "Invalid request body", err)
	}
	return nil
}
