package observability

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// sensitiveParams are query parameter names that should be scrubbed from trace output.
// This list is intentionally specific to avoid hiding useful debug info.
var sensitiveParams = map[string]bool{
	"access_token":  true,
	"refresh_token": true,
	"token":         true,
	"api_key":       true,
	"password":      true,
	"secret":        true,
	"csrf_token":    true,
}

// TraceWriter outputs human-readable trace information to stderr.
// It formats output with timestamps relative to session start.
type TraceWriter struct {
	mu        sync.Mutex
	writer    io.Writer
	startTime time.Time
}

// NewTraceWriter creates a new TraceWriter that writes to stderr.
func NewTraceWriter() *TraceWriter {
	return &TraceWriter{
		writer:    os.Stderr,
		startTime: time.Now(),
	}
}

// NewTraceWriterTo creates a new TraceWriter that writes to the given writer.
func NewTraceWriterTo(w io.Writer) *TraceWriter {
	return &TraceWriter{
		writer:    w,
		startTime: time.Now(),
	}
}

func (t *TraceWriter) elapsed() float64 {
	return time.Since(t.startTime).Seconds()
}

// WriteOperationStart writes an operation start trace line.
// Format: [0.234s] Calling Profile.Get
func (t *TraceWriter) WriteOperationStart(op OperationInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, "[%.3fs] Calling %s.%s\n", t.elapsed(), op.Service, op.Operation)
}

// WriteOperationEnd writes an operation completion trace line.
func (t *TraceWriter) WriteOperationEnd(op OperationInfo, err error, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		fmt.Fprintf(t.writer, "[%.3fs] Failed %s.%s: %v\n", t.elapsed(), op.Service, op.Operation, err)
	} else {
		fmt.Fprintf(t.writer, "[%.3fs] Completed %s.%s (%dms)\n", t.elapsed(), op.Service, op.Operation, duration.Milliseconds())
	}
}

// WriteRequestStart writes a request start trace line.
// Format: [0.234s]   -> GET /profile/me
func (t *TraceWriter) WriteRequestStart(info RequestInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, "[%.3fs]   -> %s %s\n", t.elapsed(), info.Method, ScrubURL(info.Path))
}

// WriteRequestEnd writes a request completion trace line.
func (t *TraceWriter) WriteRequestEnd(info RequestInfo, status int, err error, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil && status == 0 {
		fmt.Fprintf(t.writer, "[%.3fs]   <- %s %s failed: %v\n", t.elapsed(), info.Method, ScrubURL(info.Path), err)
		return
	}
	fmt.Fprintf(t.writer, "[%.3fs]   <- %d %s %s (%dms)\n", t.elapsed(), status, info.Method, ScrubURL(info.Path), duration.Milliseconds())
}

// WriteTokenRefresh writes a token refresh trace line.
func (t *TraceWriter) WriteTokenRefresh(err error, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		fmt.Fprintf(t.writer, "[%.3fs] Token refresh failed: %v\n", t.elapsed(), err)
	} else {
		fmt.Fprintf(t.writer, "[%.3fs] Token refreshed (%dms)\n", t.elapsed(), duration.Milliseconds())
	}
}

// ScrubURL removes sensitive query parameter values from a URL or path.
func ScrubURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	changed := false
	for name := range q {
		if sensitiveParams[strings.ToLower(name)] {
			q.Set(name, "REDACTED")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}
