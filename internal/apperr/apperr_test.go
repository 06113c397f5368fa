package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil", err: nil, expected: http.StatusOK},
		{name: "validation", err: Validation("bad input", "email"), expected: http.StatusBadRequest},
		{name: "duplicate", err: New(ErrDuplicate, "exists"), expected: http.StatusBadRequest},
		{name: "access", err: New(ErrAccess, "no access"), expected: http.StatusBadRequest},
		{name: "auth", err: New(ErrAuth, "bad password"), expected: http.StatusUnauthorized},
		{name: "forbidden", err: New(ErrForbidden, "nope"), expected: http.StatusForbidden},
		{name: "not found", err: New(ErrNotFound, "missing"), expected: http.StatusNotFound},
		{name: "wrapped kind", err: fmt.Errorf("outer: %w", New(ErrNotFound, "missing")), expected: http.StatusNotFound},
		{name: "unclassified", err: errors.New("disk on fire"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Status(tt.err))
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrAccess, "Unable to access this document", cause)

	require.ErrorIs(t, err, ErrAccess)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "Unable to access this document", Message(err, "fallback"))
	require.Contains(t, err.Error(), "connection reset")
}

func TestMessageAndFields(t *testing.T) {
	err := fmt.Errorf("handler: %w", Validation("Missing required fields", "name", "email"))

	require.Equal(t, "Missing required fields", Message(err, "fallback"))
	require.Equal(t, []string{"name", "email"}, Fields(err))

	require.Equal(t, "fallback", Message(errors.New("raw"), "fallback"))
	require.Nil(t, Fields(errors.New("raw")))
}
