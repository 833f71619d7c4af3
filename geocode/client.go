package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"gta_pricer/config"
	"gta_pricer/models"
)

// Limiter serializes calls against the provider quota. One instance is
// shared by every concurrent geocode worker.
type Limiter struct {
	mu       sync.Mutex
	last     time.Time
	interval time.Duration
}

func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{interval: interval}
}

func (l *Limiter) Wait() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if elapsed := time.Since(l.last); elapsed < l.interval {
		time.Sleep(l.interval - elapsed)
	}
	l.last = time.Now()
}

// Client queries the geocoding provider. Network and HTTP failures come
// back as error values; a well-formed ZERO_RESULTS body is a valid,
// empty response.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	regionSuffix string
	limiter      *Limiter
	maxAttempts  int
}

func NewClient(cfg *config.GeocoderConfig, httpClient *http.Client) *Client {
	return &Client{
		httpClient:   httpClient,
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		regionSuffix: cfg.RegionSuffix,
		limiter:      NewLimiter(time.Duration(cfg.DelayMS) * time.Millisecond),
		maxAttempts:  cfg.MaxAttempts,
	}
}

// Lookup geocodes one free-text address. The region suffix is appended
// before encoding so bare street addresses resolve inside the target
// market. Retries transport failures with doubling backoff, then gives up.
func (c *Client) Lookup(ctx context.Context, address string) (*models.GeocodeResponse, error) {
	query := url.Values{}
	query.Set("address", address+c.regionSuffix)
	query.Set("key", c.apiKey)
	reqURL := c.baseURL + "?" + query.Encode()

	attempts := c.maxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	backoff := time.Second
	for attempt := 1; attempt <= attempts; attempt++ {
		c.limiter.Wait()

		resp, err := c.lookupOnce(ctx, reqURL)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < attempts {
			log.Printf("Geocode: lookup failed (attempt %d/%d): %v", attempt, attempts, err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}

	return nil, fmt.Errorf("geocode %q: %w", address, lastErr)
}

func (c *Client) lookupOnce(ctx context.Context, reqURL string) (*models.GeocodeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	var result models.GeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if result.Status == models.GeocodeStatusOverLimit {
		return nil, fmt.Errorf("provider over query limit")
	}

	return &result, nil
}
