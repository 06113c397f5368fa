package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sheetclock/internal/apperr"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env
}

func TestWriteData(t *testing.T) {
	w := httptest.NewRecorder()
	WriteData(w, []string{})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())
}

func TestWriteErrorClassified(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/employees", nil)

	WriteError(w, r, apperr.Validation("Missing required fields", "email"), "Error adding employee")

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	require.False(t, env.Success)
	require.Equal(t, "Missing required fields", env.Message)
	require.Equal(t, []string{"email"}, env.Errors)
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/history", nil)

	WriteError(w, r, errors.New("open /data/history.json: permission denied"), "Error loading history")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	env := decodeEnvelope(t, w)
	require.Equal(t, "Error loading history", env.Message)
	require.NotContains(t, w.Body.String(), "permission denied")
}

func TestDecodeJSON(t *testing.T) {
	var body struct {
		Email string `json:"email"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"jana@example.com"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), r, &body))
	require.Equal(t, "jana@example.com", body.Email)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))
	err := DecodeJSON(httptest.NewRecorder(), r, &body)
	require.ErrorIs(t, err, apperr.ErrValidation)

	huge := `{"email":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge))
	err = DecodeJSON(httptest.NewRecorder(), r, &body)
	require.ErrorIs(t, err, apperr.ErrValidation)
	require.Equal(t, "Request body too large", apperr.Message(err, ""))
}
