// Package upstream provides the JSON-over-HTTP client shared by the embedding
// and language-model adapters.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/hyperjump/kotae/internal/models"
)

// maxErrorBody caps how much of a failed response body ends up in an error message.
const maxErrorBody = 512

// Client posts JSON to an external service. Every failure it returns wraps
// models.ErrUpstream. Retries are left to the caller.
type Client struct {
	name    string
	http    *http.Client
	limiter *rate.Limiter
	headers map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithBearerToken sets the Authorization header.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.headers["Authorization"] = "Bearer " + token
		}
	}
}

// WithRateLimit limits outgoing requests to rps per second. rps <= 0 disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client. name prefixes error messages (e.g. "openai", "ollama").
func New(name string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		name:    name,
		http:    &http.Client{Timeout: timeout},
		headers: map[string]string{"Content-Type": "application/json"},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostJSON marshals in, posts it to url and decodes the response into out.
// A non-2xx status is an error; when out implements APIError and reports a
// message, that message is used.
func (c *Client) PostJSON(ctx context.Context, url string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %s: rate limit wait: %v", models.ErrUpstream, c.name, err)
		}
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.name, err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: send request: %v", models.ErrUpstream, c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s: read response: %v", models.ErrUpstream, c.name, err)
	}

	decodeErr := json.Unmarshal(body, out)
	if apiErr, ok := out.(APIError); ok && decodeErr == nil {
		if msg := apiErr.ErrorMessage(); msg != "" {
			return fmt.Errorf("%w: %s error (status %d): %s", models.ErrUpstream, c.name, resp.StatusCode, msg)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s error (status %d): %s", models.ErrUpstream, c.name, resp.StatusCode, snippet(body))
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: %s: decode response: %v", models.ErrUpstream, c.name, decodeErr)
	}
	return nil
}

// APIError is implemented by response types that carry an error field in the body.
type APIError interface {
	ErrorMessage() string
}

func snippet(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
