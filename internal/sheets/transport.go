package sheets

import (
	"net/http"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
)

// NewCachingHTTPClient creates an HTTP client that caches metadata responses.
// Drive responses are marked must-revalidate, so every cached entry is revalidated with its
// ETag and the caller's token on each fetch, the cache only saves the body transfer.
func NewCachingHTTPClient(cacheDir string) *http.Client {
	if cacheDir == "" {
		return &http.Client{
			Transport: httpcache.NewTransport(httpcache.NewMemoryCache()),
		}
	}

	// Use disk-based cache for persistence across restarts
	return &http.Client{
		Transport: httpcache.NewTransport(diskcache.New(cacheDir)),
	}
}
