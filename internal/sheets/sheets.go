// Package sheets fetches spreadsheet metadata from the Google Drive files API.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://www.googleapis.com/drive/v3"

var (
	ErrNoAccessToken = errors.New("no access token for document metadata")
	ErrNoAccess      = errors.New("document not accessible")
)

// Metadata is what the tracking service needs to know about an external document.
type Metadata struct {
	Title        string
	LastModified time.Time
}

// MetadataSource fetches document metadata on behalf of a caller.
type MetadataSource interface {
	Fetch(ctx context.Context, accessToken, documentID string) (*Metadata, error)
}

// Client implements MetadataSource with the Drive v3 files endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

var _ MetadataSource = (*Client)(nil)

type Option func(*Client)

// WithBaseURL overrides the Drive API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient sets the client used underneath the OAuth transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each metadata request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = NewCachingHTTPClient("")
	}
	return c
}

type driveFile struct {
	Name         string    `json:"name"`
	ModifiedTime time.Time `json:"modifiedTime"`
}

// Fetch returns the title and modification time of documentID using the caller's token.
// Authorization failures are reported as ErrNoAccess.
func (c *Client) Fetch(ctx context.Context, accessToken, documentID string) (*Metadata, error) {
	if accessToken == "" {
		return nil, ErrNoAccessToken
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// the oauth2 transport wraps whatever client is stored in the context
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	u := fmt.Sprintf("%s/files/%s?fields=%s&supportsAllDrives=true",
		c.baseURL, url.PathEscape(documentID), url.QueryEscape("name,modifiedTime"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata request: %w", err)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document metadata: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		log.Debug().Str("document_id", documentID).Int("status", resp.StatusCode).Msg("document not accessible")
		return nil, fmt.Errorf("%w: HTTP %d", ErrNoAccess, resp.StatusCode)
	default:
		return nil, fmt.Errorf("metadata endpoint returned HTTP %d", resp.StatusCode)
	}

	var file driveFile
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode document metadata: %w", err)
	}

	return &Metadata{Title: file.Name, LastModified: file.ModifiedTime}, nil
}
