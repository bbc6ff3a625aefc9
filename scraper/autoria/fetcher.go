package autoria

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"autoria-importer/config"
)

// FetchError is a failed page or image request. It carries the URL and the
// underlying cause so the orchestrator can record a per-link reason.
type FetchError struct {
	URL   string
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Fetcher issues single GET requests with a randomized user agent per call.
// It never retries; retry policy belongs to the orchestrator.
type Fetcher struct {
	client     *http.Client
	userAgents []string
}

// NewFetcher creates a Fetcher with the configured timeout and UA pool.
func NewFetcher(cfg *config.ScrapeConfig) *Fetcher {
	timeout := time.Duration(cfg.FetchTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client:     &http.Client{Timeout: timeout},
		userAgents: cfg.UserAgents,
	}
}

// Fetch performs one GET and returns the response body. Any transport error
// or non-2xx status is wrapped in a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Cause: err}
	}
	req.Header.Set("User-Agent", f.userAgent())

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, Cause: fmt.Errorf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Cause: err}
	}
	return body, nil
}

func (f *Fetcher) userAgent() string {
	if len(f.userAgents) == 0 {
		return "Mozilla/5.0 (X11; Linux x86_64)"
	}
	return f.userAgents[rand.Intn(len(f.userAgents))]
}
