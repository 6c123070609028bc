// Package fetch provides retry-wrapped HTTP helpers for the search provider
// and labeling APIs.
//
// The retry policy is explicit rather than woven into the request logic:
// ShouldRetry decides per attempt, and the backoff schedule is exponential
// with a cap. Definitive client errors are never retried.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default retry schedule: up to 3 attempts with exponential backoff
// starting at 1s and capped at 10s.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	defaultTimeout     = 30 * time.Second
)

// DefaultUserAgent identifies the collector in HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ocrdlp-lab/1.0)"

// HTTPError reports a non-success status code from a completed request.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("fetch: unexpected status %d", e.StatusCode)
}

// Client wraps an http.Client with a retry policy. The zero value is usable;
// zero fields fall back to the defaults above.
type Client struct {
	HTTPClient  *http.Client
	UserAgent   string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func (c *Client) defaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
}

// ShouldRetry reports whether an attempt that ended with the given status
// and error is worth repeating. Network errors, including a per-request
// timeout from http.Client, are transient while ctx itself is still live;
// 5xx and 429 are transient; all other client errors are definitive. The
// ctx check matters because a client-timeout error can unwrap to
// context.DeadlineExceeded, which is indistinguishable from caller
// cancellation by error inspection alone.
func ShouldRetry(ctx context.Context, status int, err error) bool {
	if err != nil {
		return ctx.Err() == nil
	}
	return status >= 500 || status == http.StatusTooManyRequests
}

// GetJSON issues a GET request to url with the given headers and decodes the
// response body into dest, retrying per the client policy.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, dest any) error {
	return c.doJSON(ctx, http.MethodGet, url, headers, nil, dest)
}

// PostJSON marshals payload, issues a POST request to url, and decodes the
// response body into dest, retrying per the client policy.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, payload, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("fetch: marshal request: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, url, headers, body, dest)
}

func (c *Client) doJSON(ctx context.Context, method, url string, headers map[string]string, body []byte, dest any) error {
	c.defaults()

	var lastErr error
	delay := c.BaseDelay

	for attempt := 1; attempt <= c.MaxAttempts; attempt++ {
		status, respBody, err := c.attempt(ctx, method, url, headers, body)
		if err == nil && status == http.StatusOK {
			if dest == nil {
				return nil
			}
			if err := json.Unmarshal(respBody, dest); err != nil {
				return fmt.Errorf("fetch: decode response: %w", err)
			}
			return nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = &HTTPError{StatusCode: status, Body: string(respBody)}
		}

		if !ShouldRetry(ctx, status, err) || attempt == c.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > c.MaxDelay {
			delay = c.MaxDelay
		}
	}

	return lastErr
}

func (c *Client) attempt(ctx context.Context, method, url string, headers map[string]string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req) //nolint:gosec // G704: URL is caller-supplied by design
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}
