package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foliohq/folio-cli/internal/output"
	"github.com/foliohq/folio-cli/internal/version"
)

const (
	refreshPath = "/auth/refresh"

	// csrfCookie is the readable cookie carrying the anti-forgery token the
	// refresh endpoint requires; its value is echoed in csrfHeader.
	csrfCookie = "csrf_token"
	csrfHeader = "X-CSRF-Token"
)

type pendingResult struct {
	resp *Response
	err  error
}

// pendingRequest is a caller whose request failed with a 401 while a
// refresh was already in flight. It waits for the refresh to settle; on
// success its replay closure is run, on failure it receives the refresh
// error. Owned exclusively by the refresher's queue.
type pendingRequest struct {
	ctx    context.Context
	replay func(context.Context) (*Response, error)
	done   chan pendingResult
}

// refresher coordinates credential refreshes. At most one refresh call is
// ever in flight; concurrent authorization failures queue behind it and are
// replayed in arrival order once it settles. The flag and queue live behind
// one mutex so the single-flight invariant holds under real parallelism,
// not just cooperative scheduling.
type refresher struct {
	client    *Client
	onExpired func(error)

	mu       sync.Mutex
	inFlight bool
	queue    []*pendingRequest
}

func newRefresher(c *Client) *refresher {
	return &refresher{client: c}
}

// resolve is called after a request failed with a 401 that passed the
// coordinator guards. hadCredential records whether a credential existed
// before this cycle; the session-expired signal fires only for callers who
// were actually authenticated, not for opportunistic probes.
func (r *refresher) resolve(ctx context.Context, hadCredential bool, replay func(context.Context) (*Response, error)) (*Response, error) {
	r.mu.Lock()
	if r.inFlight {
		// A refresh is already underway: queue and wait for its outcome.
		p := &pendingRequest{ctx: ctx, replay: replay, done: make(chan pendingResult, 1)}
		r.queue = append(r.queue, p)
		r.mu.Unlock()

		select {
		case res := <-p.done:
			return res.resp, res.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r.inFlight = true
	r.mu.Unlock()

	refreshErr := r.refresh(ctx)

	r.mu.Lock()
	r.inFlight = false
	queue := r.queue
	r.queue = nil
	r.mu.Unlock()

	if refreshErr != nil {
		return nil, r.fail(queue, refreshErr, hadCredential)
	}

	// Success: the trigger replays first (it failed first), then the queue
	// drains in arrival order. Every replay runs against the new credential;
	// the refresh settled before any of them started.
	resp, err := replay(ctx)
	for _, p := range queue {
		if p.ctx.Err() != nil {
			p.done <- pendingResult{err: p.ctx.Err()}
			continue
		}
		pr, perr := p.replay(p.ctx)
		p.done <- pendingResult{resp: pr, err: perr}
	}
	return resp, err
}

// fail handles the failure path: every queued caller is rejected with the
// refresh error (not its original 401), the credential is cleared, and the
// expiry handler fires when the session was previously authenticated. A cancelled context is the caller abandoning the refresh, not the
// session dying, so it tears nothing down.
func (r *refresher) fail(queue []*pendingRequest, refreshErr error, hadCredential bool) error {
	for _, p := range queue {
		p.done <- pendingResult{err: refreshErr}
	}

	if errors.Is(refreshErr, context.Canceled) || errors.Is(refreshErr, context.DeadlineExceeded) {
		return refreshErr
	}

	r.client.creds.Clear()
	if hadCredential && r.onExpired != nil {
		r.onExpired(refreshErr)
	}
	return refreshErr
}

// refresh performs the refresh call itself. It deliberately bypasses the
// dispatcher: no bearer credential is attached and a 401 from this call is
// surfaced, never intercepted. The session artifact travels in the cookie
// jar; the anti-forgery token is read from the readable csrf cookie and
// echoed as a header. On success the new credential is installed in the
// store before any queued request replays.
func (r *refresher) refresh(ctx context.Context) error {
	c := r.client

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(refreshPath), nil)
	if err != nil {
		return output.ErrAPI(0, err.Error())
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Request-Id", uuid.NewString())
	if token := r.csrfToken(); token != "" {
		req.Header.Set(csrfHeader, token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		normalized := output.ErrNetwork(err)
		c.hooks.OnTokenRefresh(ctx, normalized, time.Since(start))
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return normalized
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		normalized := output.ErrNetwork(readErr)
		c.hooks.OnTokenRefresh(ctx, normalized, time.Since(start))
		return normalized
	}

	if resp.StatusCode != http.StatusOK {
		normalized := output.Normalize(resp.StatusCode, body)
		c.hooks.OnTokenRefresh(ctx, normalized, time.Since(start))
		return normalized
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil || tokenResp.AccessToken == "" {
		normalized := output.ErrAPI(resp.StatusCode, "refresh response missing access_token")
		c.hooks.OnTokenRefresh(ctx, normalized, time.Since(start))
		return normalized
	}

	c.creds.Set(tokenResp.AccessToken)
	c.hooks.OnTokenRefresh(ctx, nil, time.Since(start))
	return nil
}

// csrfToken reads the anti-forgery token from the cookie jar.
func (r *refresher) csrfToken() string {
	jar := r.client.httpClient.Jar
	if jar == nil {
		return ""
	}
	base, err := url.Parse(r.client.cfg.BaseURL)
	if err != nil {
		return ""
	}
	for _, cookie := range jar.Cookies(base) {
		if cookie.Name == csrfCookie {
			return cookie.Value
		}
	}
	return ""
}

// Refresh forces one coordinated refresh cycle. Concurrent callers share a
// single refresh call like any other authorization failure would.
func (c *Client) Refresh(ctx context.Context) error {
	_, hadCredential := c.creds.Get()
	noop := func(context.Context) (*Response, error) { return nil, nil }
	_, err := c.refresher.resolve(ctx, hadCredential, noop)
	return err
}
