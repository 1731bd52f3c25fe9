package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds each request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.SetToken(token)
	}
}

// WithTimeout sets the per request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestIDs replaces the request id generator.
func WithRequestIDs(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.requestID = fn
		}
	}
}

// Client is the shared HTTP transport of the typed clients.
type Client struct {
	base      *url.URL
	http      *http.Client
	timeout   time.Duration
	logger    zerolog.Logger
	requestID func() string

	token       string
	userHeaders http.Header
}

// New constructs a client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}

	c := &Client{
		base:      base,
		http:      http.DefaultClient,
		timeout:   DefaultTimeout,
		logger:    zerolog.Nop(),
		requestID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// SetToken replaces the bearer token and the user headers derived from it.
func (c *Client) SetToken(token string) {
	c.token = strings.TrimSpace(token)
	c.userHeaders = nil
	if c.token == "" {
		return
	}
	headers, err := userHeaders(c.token)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to parse token claims")
		return
	}
	c.userHeaders = headers
}

// Forms returns the form configuration client.
func (c *Client) Forms() *Forms { return &Forms{c: c} }

// Locations returns the location lookup client.
func (c *Client) Locations() *Locations { return &Locations{c: c} }

// Entities returns the healthcare entity client.
func (c *Client) Entities() *Entities { return &Entities{c: c} }

// Records returns a record client for resource, e.g. "patients".
func (c *Client) Records(resource string) (*Records, error) {
	resource = strings.Trim(strings.TrimSpace(resource), "/")
	if resource == "" {
		return nil, ErrResourceRequired
	}
	return &Records{c: c, resource: resource}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends one JSON request and decodes the response body into out when
// out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	c.decorate(req, body != nil)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return networkError(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(err)
	}

	event := c.logger.Debug()
	if resp.StatusCode >= 400 {
		event = c.logger.Warn()
	}
	event.Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Str("request_id", req.Header.Get("X-Request-ID")).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) decorate(req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := c.requestID(); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	if c.token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	for key, values := range c.userHeaders {
		for _, v := range values {
			req.Header.Set(key, v)
		}
	}
}

// envelope reads a payload that is either a bare value or wrapped under one
// of keys.
func envelope(raw json.RawMessage, keys ...string) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return trimmed
	}
	for _, key := range keys {
		if inner, ok := wrapped[key]; ok && !isNull(inner) {
			return inner
		}
	}
	return trimmed
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
