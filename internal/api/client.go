// Package api provides the authenticated HTTP client for the Folio API.
//
// The client attaches the current bearer credential to every outgoing
// request except those against authentication endpoints, normalizes all
// failures into output.Error, and recovers expired sessions through a
// single-flight token refresh (see refresh.go).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/foliohq/folio-cli/internal/auth"
	"github.com/foliohq/folio-cli/internal/config"
	"github.com/foliohq/folio-cli/internal/observability"
	"github.com/foliohq/folio-cli/internal/output"
	"github.com/foliohq/folio-cli/internal/version"
)

// authExemptPrefix classifies authentication endpoints. Requests under this
// prefix never receive the bearer credential and never trigger a refresh
// cycle, which is what keeps a failing login or refresh call from recursing.
const authExemptPrefix = "/auth/"

// IsAuthExempt reports whether path targets an authentication endpoint.
func IsAuthExempt(path string) bool {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.HasPrefix(path, authExemptPrefix)
}

// Response wraps an API response.
type Response struct {
	Data       json.RawMessage
	StatusCode int
	Headers    http.Header
}

// UnmarshalData unmarshals the response data into the given value.
func (r *Response) UnmarshalData(v any) error {
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// Client is an HTTP client for the Folio API.
type Client struct {
	httpClient *http.Client
	cfg        *config.Config
	creds      *auth.Store
	refresher  *refresher
	hooks      observability.Hooks
}

// Option configures a Client.
type Option func(*Client)

// WithHooks installs observability hooks.
func WithHooks(hooks observability.Hooks) Option {
	return func(c *Client) {
		if hooks != nil {
			c.hooks = hooks
		}
	}
}

// WithHTTPClient replaces the underlying transport (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSessionExpiredHandler installs the callback invoked when a refresh
// fails for a previously authenticated session.
func WithSessionExpiredHandler(fn func(error)) Option {
	return func(c *Client) {
		c.refresher.onExpired = fn
	}
}

// NewClient creates a new API client.
func NewClient(cfg *config.Config, creds *auth.Store, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		cfg:   cfg,
		creds: creds,
		hooks: observability.NopHooks{},
	}
	c.refresher = newRefresher(c)
	for _, opt := range opts {
		opt(c)
	}
	// The refresh channel reads the anti-forgery cookie from the jar; keep
	// one even when the transport is replaced.
	if c.httpClient.Jar == nil {
		c.httpClient.Jar = jar
	}
	return c
}

// Credentials returns the client's credential store.
func (c *Client) Credentials() *auth.Store {
	return c.creds
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, nil, body)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, nil, body)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, nil, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do issues one request and, when it fails with an authorization failure on
// a protected endpoint while a credential is held, hands the failure to the
// refresh coordinator. Every other failure is surfaced unchanged.
func (c *Client) Do(ctx context.Context, method, path string, headers http.Header, body any) (*Response, error) {
	resp, err := c.send(ctx, method, path, headers, body, 1)
	if err == nil {
		return resp, nil
	}

	e := output.AsError(err)
	// Guard A: only a 401 is a session-expiry signal. Guard C: a failing
	// auth endpoint (login, the refresh call itself) is never retried here.
	if e.HTTPStatus != http.StatusUnauthorized || IsAuthExempt(path) {
		return nil, err
	}
	// Guard B: with no credential there is nothing to refresh; anonymous
	// callers hitting protected endpoints get their 401 back as-is.
	if _, ok := c.creds.Get(); !ok {
		return nil, err
	}

	replay := func(ctx context.Context) (*Response, error) {
		return c.send(ctx, method, path, headers, body, 2)
	}
	return c.refresher.resolve(ctx, true, replay)
}

// send performs a single wire request. It attaches the bearer credential to
// protected paths (unless the caller set Authorization explicitly; caller
// intent wins), normalizes transport and HTTP failures, and never triggers
// a refresh itself.
func (c *Client) send(ctx context.Context, method, path string, headers http.Header, body any, attempt int) (*Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, output.ErrUsage("invalid request body: " + err.Error())
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), bodyReader)
	if err != nil {
		return nil, output.ErrUsage(err.Error())
	}

	for name, values := range headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if req.Header.Get("X-Request-Id") == "" {
		req.Header.Set("X-Request-Id", uuid.NewString())
	}

	if !IsAuthExempt(path) && req.Header.Get("Authorization") == "" {
		if token, ok := c.creds.Get(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	info := observability.RequestInfo{
		Method:    method,
		Path:      path,
		RequestID: req.Header.Get("X-Request-Id"),
		Attempt:   attempt,
	}
	ctx = c.hooks.OnRequestStart(ctx, info)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.hooks.OnRequestEnd(ctx, info, 0, err, time.Since(start))
		return nil, output.ErrNetwork(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.hooks.OnRequestEnd(ctx, info, resp.StatusCode, err, time.Since(start))
		return nil, output.ErrNetwork(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		normalized := output.Normalize(resp.StatusCode, respBody)
		c.hooks.OnRequestEnd(ctx, info, resp.StatusCode, normalized, time.Since(start))
		return nil, normalized
	}

	c.hooks.OnRequestEnd(ctx, info, resp.StatusCode, nil, time.Since(start))
	return &Response{
		Data:       respBody,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
	}, nil
}

func (c *Client) buildURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.cfg.BaseURL + path
}
