package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// ErrProviderUnavailable means the reverse-geocoding provider could not
// answer: it is not configured, unreachable, timed out or returned an error
// status. It is distinct from a cache miss.
var ErrProviderUnavailable = errors.New("geocode provider unavailable")

// Provider resolves coordinates to a place description.
type Provider interface {
	Reverse(ctx context.Context, lat, lon float64) (json.RawMessage, error)
}

// NominatimProvider calls a Nominatim-compatible /reverse endpoint.
type NominatimProvider struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

// NewNominatimProvider returns a provider for baseURL. An empty baseURL
// yields a provider that is always unavailable.
func NewNominatimProvider(baseURL, userAgent string, timeout time.Duration, rps float64) *NominatimProvider {
	return &NominatimProvider{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (p *NominatimProvider) Reverse(ctx context.Context, lat, lon float64) (json.RawMessage, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("%w: no provider configured", ErrProviderUnavailable)
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrProviderUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned %d", ErrProviderUnavailable, resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: provider returned invalid JSON", ErrProviderUnavailable)
	}
	return json.RawMessage(body), nil
}
