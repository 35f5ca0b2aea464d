package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxBodyBytes caps how much of a source document is read.
const maxBodyBytes = 10 << 20

// Fetcher retrieves source documents over HTTP. It is shared by every adapter
// and throttles requests per host, so sources hosted on the same portal are
// not hammered when they run in parallel.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	rpsPerHost float64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewFetcher constructs a Fetcher with a bounded HTTP client.
func NewFetcher(timeout time.Duration, userAgent string, rpsPerHost float64) *Fetcher {
	return &Fetcher{
		client:     &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		rpsPerHost: rpsPerHost,
		limiters:   make(map[string]*rate.Limiter),
	}
}

// Get fetches rawURL on behalf of the named source and returns the body.
// Any failure, including a non-2xx status, is a *SourceFetchError.
func (f *Fetcher) Get(ctx context.Context, source, rawURL string) ([]byte, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return nil, &SourceFetchError{Source: source, URL: rawURL, Err: fmt.Errorf("invalid url")}
	}

	if err := f.limiter(u.Host).Wait(ctx); err != nil {
		return nil, &SourceFetchError{Source: source, URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &SourceFetchError{Source: source, URL: rawURL, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &SourceFetchError{Source: source, URL: rawURL, Err: fmt.Errorf("http GET: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &SourceFetchError{Source: source, URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &SourceFetchError{Source: source, URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

func (f *Fetcher) limiter(host string) *rate.Limiter {
	host = strings.ToLower(host)

	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(f.rpsPerHost), 1)
		f.limiters[host] = l
	}
	return l
}
