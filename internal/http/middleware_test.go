package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/stretchr/testify/require"
)

func TestExtractClientIP_xForwardedFor(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{
			name:     "single IP",
			header:   "192.168.1.1",
			expected: "192.168.1.1",
		},
		{
			name:     "multiple IPs (take first)",
			header:   "203.0.113.1, 198.51.100.1",
			expected: "203.0.113.1",
		},
		{
			name:     "multiple IPs no spaces",
			header:   "203.0.113.1,198.51.100.1",
			expected: "203.0.113.1",
		},
		{
			name:     "multiple IPs with extra spaces",
			header:   "203.0.113.1  ,  198.51.100.1",
			expected: "203.0.113.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("X-Forwarded-For", tt.header)

			ip := ExtractClientIP(r)
			require.Equal(t, tt.expected, ip)
		})
	}
}

func TestExtractClientIP_xRealIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-IP", "192.168.1.100")

	ip := ExtractClientIP(r)
	require.Equal(t, "192.168.1.100", ip)
}

func TestExtractClientIP_xForwardedForTakesPreference(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.1, 198.51.100.1")
	r.Header.Set("X-Real-IP", "192.168.1.100")

	ip := ExtractClientIP(r)
	// X-Forwarded-For should take precedence
	require.Equal(t, "203.0.113.1", ip)
}

func TestExtractClientIP_invalidHeaders(t *testing.T) {
	tests := []struct {
		name     string
		xff      string
		xri      string
		expected string
	}{
		{name: "unknown forwarded for", xff: "unknown", expected: "10.0.0.7"},
		{name: "obfuscated forwarded for falls to real ip", xff: "_hidden, 198.51.100.1", xri: "192.168.1.100", expected: "192.168.1.100"},
		{name: "garbage in both", xff: "unknown", xri: "not-an-ip", expected: "10.0.0.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = "10.0.0.7:41000"
			r.Header.Set("X-Forwarded-For", tt.xff)
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}

			ip := ExtractClientIP(r)
			require.Equal(t, tt.expected, ip)

			_, err := netip.ParseAddr(ip)
			require.NoError(t, err)
		})
	}
}

func TestExtractClientIP_remoteAddr(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		expected   string
	}{
		{
			name:       "IPv4 with port",
			remoteAddr: "192.168.1.1:54321",
			expected:   "192.168.1.1",
		},
		{
			name:       "IPv6 with port",
			remoteAddr: "[2001:db8::1]:54321",
			expected:   "2001:db8::1",
		},
		{
			name:       "no port",
			remoteAddr: "192.168.1.1",
			expected:   "192.168.1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr

			ip := ExtractClientIP(r)
			require.Equal(t, tt.expected, ip)
		})
	}
}

func TestClientIPMiddleware(t *testing.T) {
	middleware := ClientIPMiddleware()

	var capturedIP string
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedIP = ClientIPFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.1")

	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "203.0.113.1", capturedIP)
}

func TestClientIPFromContext_missing(t *testing.T) {
	ctx := context.Background()

	ip := ClientIPFromContext(ctx)
	require.Empty(t, ip)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mw("outer"), mw("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRecover(t *testing.T) {
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("store exploded")
	})

	tests := []struct {
		name        string
		development bool
		message     string
	}{
		{name: "production hides detail", development: false, message: "Internal server error"},
		{name: "development shows detail", development: true, message: "Internal server error: store exploded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Recover(tt.development)(panicky).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/history", nil))

			require.Equal(t, http.StatusInternalServerError, w.Code)

			var env Envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			require.False(t, env.Success)
			require.Equal(t, tt.message, env.Message)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), ClientIPMiddleware(), RequestLogger(logger))

	r := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusTeapot, w.Code)
	require.NotEmpty(t, w.Header().Get("X-Request-Id"))

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	require.Equal(t, "/api/documents", entry["path"])
	require.Equal(t, float64(http.StatusTeapot), entry["status"])
	require.Equal(t, "203.0.113.9", entry["client_ip"])
	require.NotEmpty(t, entry["request_id"])
}
