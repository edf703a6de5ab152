package fetcher

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gocolly/colly/v2"

	"github.com/postport/postport/internal/logger"
)

// StaticFetcher performs plain synchronous GET requests using Colly.
// It implements the Fetcher interface. There is no retry: a failed
// request is reported to the caller and the caller decides whether the
// failure is fatal (page fetch) or isolated (single image).
type StaticFetcher struct {
	config Config
}

// NewStatic creates a new static fetcher.
func NewStatic(cfg Config) *StaticFetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &StaticFetcher{config: cfg}
}

// Fetch retrieves the HTML body of a page.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	body, err := f.get(ctx, targetURL)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchBytes retrieves a raw body, used for image downloads.
func (f *StaticFetcher) FetchBytes(ctx context.Context, targetURL string) ([]byte, error) {
	return f.get(ctx, targetURL)
}

// get performs a single GET with the configured user agent and timeout.
func (f *StaticFetcher) get(_ context.Context, targetURL string) ([]byte, error) {
	logger.Debug("fetch starting", "url", targetURL)

	// Create a new collector for each request
	c := colly.NewCollector(
		colly.UserAgent(f.config.UserAgent),
	)
	c.SetRequestTimeout(f.config.Timeout)

	var (
		body     []byte
		fetchErr error
	)

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		logger.Debug("fetch response received",
			"status", r.StatusCode,
			"content_type", r.Headers.Get("Content-Type"),
			"body_size", len(r.Body))
	})

	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		if status != 0 && (status < http.StatusOK || status >= http.StatusMultipleChoices) {
			fetchErr = fmt.Errorf("%w: %d from %s", ErrBadStatus, status, targetURL)
		} else {
			fetchErr = fmt.Errorf("fetch error: %w", err)
		}
		logger.Debug("fetch error", "url", targetURL, "status", status, "error", err)
	})

	// Visit reports the same failure OnError saw; prefer the
	// classified error when one was recorded.
	if err := c.Visit(targetURL); err != nil {
		if fetchErr != nil {
			return nil, fetchErr
		}
		return nil, fmt.Errorf("failed to visit URL: %w", err)
	}

	if fetchErr != nil {
		return nil, fetchErr
	}

	return body, nil
}

// Close releases resources.
func (f *StaticFetcher) Close() error {
	return nil
}
