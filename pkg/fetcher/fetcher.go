// Package fetcher defines the interface for retrieving remote pages and
// image bodies. Implement the Fetcher interface to swap in a custom
// transport (caching, recording, fixtures for tests).
package fetcher

import (
	"context"
	"errors"
	"time"
)

// Fetcher abstracts the HTTP transport used by the conversion pipeline.
type Fetcher interface {
	// Fetch retrieves the HTML body of a page.
	Fetch(ctx context.Context, url string) (string, error)

	// FetchBytes retrieves a raw body, used for image downloads.
	FetchBytes(ctx context.Context, url string) ([]byte, error)

	// Close releases any resources held by the fetcher.
	Close() error
}

// ErrBadStatus indicates the server answered with a non-success status.
// Check with errors.Is(err, fetcher.ErrBadStatus).
var ErrBadStatus = errors.New("non-success status")

// Config holds common fetcher configuration.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Chrome user agent for better compatibility with sites that reject
// unknown clients.
const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent: defaultUserAgent,
		Timeout:   30 * time.Second,
	}
}
