// Package httpclient kapselt alle ausgehenden HTTP-Aufrufe: Timeout, Rate-Limit,
// User-Agent und Wiederholung bei HTTP 429.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RetryBaseDelay ist die Startwartezeit für den Backoff nach HTTP 429. Tests setzen sie herunter.
var RetryBaseDelay = 500 * time.Millisecond

const (
	maxRetryWait = 8 * time.Second
	// DefaultMaxResponseBytes begrenzt eingelesene Antworten (10 MB).
	DefaultMaxResponseBytes int64 = 10 * 1024 * 1024
)

// StatusError wird bei einer Antwort außerhalb von 2xx zurückgegeben.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// userAgentTransport fügt jeder Anfrage einen User-Agent-Header hinzu.
type userAgentTransport struct {
	userAgent string
	transport http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", t.userAgent)
	return t.transport.RoundTrip(req)
}

// Client ist ein rate-limitierter JSON-Client für genau einen Upstream.
type Client struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	MaxRetries int
	MaxBytes   int64
	Logger     *zap.Logger
}

// New erstellt einen Client mit Timeout, User-Agent und rps Anfragen pro Sekunde.
func New(timeout time.Duration, rps float64, maxRetries int, userAgent string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
			Transport: &userAgentTransport{
				userAgent: userAgent,
				transport: http.DefaultTransport,
			},
		},
		Limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		MaxRetries: maxRetries,
		MaxBytes:   DefaultMaxResponseBytes,
		Logger:     logger,
	}
}

// GetJSON führt einen GET aus und dekodiert die Antwort nach v.
// Nicht-2xx-Antworten liefern einen *StatusError.
func (c *Client) GetJSON(ctx context.Context, rawURL string, header http.Header, v any) error {
	body, err := c.Get(ctx, rawURL, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}
	return nil
}

// Get führt einen rate-limitierten GET aus und gibt den Body zurück.
// HTTP 429 wird mit exponentiellem Backoff wiederholt, Retry-After wird beachtet.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		for k, vals := range header {
			for _, v := range vals {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.MaxRetries {
			wait := retryAfterDuration(resp.Header.Get("Retry-After"))
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if wait <= 0 {
				wait = RetryBaseDelay * time.Duration(1<<attempt)
			}
			if wait > maxRetryWait {
				wait = maxRetryWait
			}
			c.Logger.Debug("Rate limited, retrying",
				zap.String("url", rawURL),
				zap.Duration("wait", wait),
				zap.Int("attempt", attempt+1))
			if err := sleepWithContext(ctx, wait); err != nil {
				return nil, fmt.Errorf("retry canceled: %w", err)
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
		}

		limit := c.MaxBytes
		if limit <= 0 {
			limit = DefaultMaxResponseBytes
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		if int64(len(body)) > limit {
			return nil, fmt.Errorf("response exceeds maximum size of %d bytes", limit)
		}
		return body, nil
	}
}

func retryAfterDuration(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs > 0 {
			return time.Duration(secs) * time.Second
		}
		return 0
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
