package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sheetclock/internal/documents"
	"github.com/wolfeidau/sheetclock/internal/history"
	"github.com/wolfeidau/sheetclock/internal/login"
	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/tracking"
)

// Config holds common client configuration
type Config struct {
	ServerURL string
	Timeout   time.Duration
	Debug     bool
	// MaxTries bounds retries of idempotent requests on transport failures.
	MaxTries uint
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:3000",
		Timeout:   30 * time.Second,
		Debug:     false,
		MaxTries:  3,
	}
}

// APIError is a failed response envelope returned by the server.
type APIError struct {
	StatusCode int
	Message    string
	Errors     []string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Errors) > 0 {
		return fmt.Sprintf("%s (%d): %s", msg, e.StatusCode, strings.Join(e.Errors, ", "))
	}
	return fmt.Sprintf("%s (%d)", msg, e.StatusCode)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
}

// Client talks to the JSON API using the login cookie for authentication.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	debug    bool
	maxTries uint
}

// New creates a client for the server in config.
func New(config Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(config.ServerURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", config.ServerURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	maxTries := config.MaxTries
	if maxTries == 0 {
		maxTries = 1
	}

	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: config.Timeout,
			Jar:     jar,
			// logout and provider routes redirect browsers, the CLI only wants the first response
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		debug:    config.Debug,
		maxTries: maxTries,
	}, nil
}

// SessionCookie returns the login cookie value currently held by the client.
func (c *Client) SessionCookie() string {
	for _, cookie := range c.http.Jar.Cookies(c.baseURL) {
		if cookie.Name == login.SessionCookieName {
			return cookie.Value
		}
	}
	return ""
}

// SetSessionCookie restores a login cookie saved by an earlier run.
func (c *Client) SetSessionCookie(value string) {
	if value == "" {
		return
	}
	c.http.Jar.SetCookies(c.baseURL, []*http.Cookie{{
		Name:  login.SessionCookieName,
		Value: value,
		Path:  "/",
	}})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates with a local credential.
func (c *Client) Login(ctx context.Context, email, password string) (*models.PublicEmployee, error) {
	var emp models.PublicEmployee
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &emp); err != nil {
		return nil, err
	}
	return &emp, nil
}

// Logout ends the login session, closing any running work session on the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/auth/logout", nil, nil, nil)
}

// AuthStatus is the response of the status endpoint.
type AuthStatus struct {
	Authenticated bool                   `json:"authenticated"`
	User          *models.PublicEmployee `json:"user"`
}

// Status reports whether the client's login cookie is still valid.
func (c *Client) Status(ctx context.Context) (*AuthStatus, error) {
	var status AuthStatus
	if err := c.doRaw(ctx, http.MethodGet, "/auth/status", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) Documents(ctx context.Context) ([]models.TrackedDocument, error) {
	var docs []models.TrackedDocument
	if err := c.do(ctx, http.MethodGet, "/api/documents", nil, nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

type addDocumentRequest struct {
	SheetURL string `json:"sheetUrl"`
}

// AddDocument starts tracking a spreadsheet by URL or raw identifier.
func (c *Client) AddDocument(ctx context.Context, urlOrID string) (*models.TrackedDocument, error) {
	var doc models.TrackedDocument
	if err := c.do(ctx, http.MethodPost, "/api/documents", nil, addDocumentRequest{SheetURL: urlOrID}, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) RemoveDocument(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/documents/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) DocumentStatus(ctx context.Context, id string) (*documents.Status, error) {
	var status documents.Status
	if err := c.do(ctx, http.MethodGet, "/api/documents/"+url.PathEscape(id)+"/status", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

type startSessionRequest struct {
	DocumentID    string `json:"documentId"`
	DocumentTitle string `json:"documentTitle"`
}

// StartSession starts a work session on a tracked document.
func (c *Client) StartSession(ctx context.Context, documentID, documentTitle string) (*models.ActiveSession, error) {
	var active models.ActiveSession
	req := startSessionRequest{DocumentID: documentID, DocumentTitle: documentTitle}
	if err := c.do(ctx, http.MethodPost, "/api/sessions/start", nil, req, &active); err != nil {
		return nil, err
	}
	return &active, nil
}

// EndSession closes the caller's work session.
func (c *Client) EndSession(ctx context.Context) (*tracking.Result, error) {
	var result tracking.Result
	if err := c.do(ctx, http.MethodPost, "/api/sessions/end", nil, struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type activeSessionResponse struct {
	Active  bool                  `json:"active"`
	Session *models.ActiveSession `json:"session"`
}

// ActiveSession returns the running work session, or nil when the caller is idle.
func (c *Client) ActiveSession(ctx context.Context) (*models.ActiveSession, error) {
	var resp activeSessionResponse
	if err := c.do(ctx, http.MethodGet, "/api/sessions/active", nil, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Active {
		return nil, nil
	}
	return resp.Session, nil
}

// HistoryQuery filters history and summary requests. Dates are YYYY-MM-DD or RFC 3339.
type HistoryQuery struct {
	Email     string
	StartDate string
	EndDate   string
}

func (q HistoryQuery) values() url.Values {
	v := url.Values{}
	if q.Email != "" {
		v.Set("email", q.Email)
	}
	if q.StartDate != "" {
		v.Set("startDate", q.StartDate)
	}
	if q.EndDate != "" {
		v.Set("endDate", q.EndDate)
	}
	return v
}

func (c *Client) History(ctx context.Context, q HistoryQuery) ([]models.SessionRecord, error) {
	var recs []models.SessionRecord
	if err := c.do(ctx, http.MethodGet, "/api/history", q.values(), nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *Client) Summary(ctx context.Context, q HistoryQuery) (*history.Summary, error) {
	var sum history.Summary
	if err := c.do(ctx, http.MethodGet, "/api/history/summary", q.values(), nil, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// do sends a request and decodes the envelope's data field into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var env envelope
	if err := c.doRaw(ctx, method, path, query, body, &env); err != nil {
		return err
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// doRaw sends a request and decodes the whole response body into out. Failed
// envelopes are returned as *APIError.
func (c *Client) doRaw(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	target := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	send := func() (*http.Response, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		if c.debug {
			log.Debug().Str("method", method).Str("url", target.String()).Msg("sending request")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return resp, nil
	}

	tries := c.maxTries
	if method != http.MethodGet {
		// only idempotent reads are retried
		tries = 1
	}

	resp, err := backoff.Retry(ctx, send,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(tries),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Debug().Err(err).Dur("retry_in", next).Str("path", path).Msg("request failed, retrying")
		}),
	)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().Int("status", resp.StatusCode).Int("size", len(data)).Str("path", path).Msg("received response")
	}

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		// browser flows answer with redirects, treat them as success without a body
		return nil
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var env envelope
		if json.Unmarshal(data, &env) == nil {
			apiErr.Message = env.Message
			apiErr.Errors = env.Errors
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
