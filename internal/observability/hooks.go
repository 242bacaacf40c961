package observability

import (
	"context"
	"sync"
	"time"
)

// OperationInfo describes a semantic client operation (e.g. Profile.Get).
type OperationInfo struct {
	Service    string // e.g. "Profile", "Auth"
	Operation  string // e.g. "Get", "Update"
	IsMutation bool
}

// RequestInfo describes a single HTTP request on the wire.
type RequestInfo struct {
	Method    string
	Path      string
	RequestID string
	Attempt   int // 1 for the original send, 2 for a post-refresh replay
}

// Hooks receives callbacks around client operations and HTTP requests.
type Hooks interface {
	OnOperationStart(ctx context.Context, op OperationInfo) context.Context
	OnOperationEnd(ctx context.Context, op OperationInfo, err error, duration time.Duration)
	OnRequestStart(ctx context.Context, info RequestInfo) context.Context
	OnRequestEnd(ctx context.Context, info RequestInfo, status int, err error, duration time.Duration)
	OnTokenRefresh(ctx context.Context, err error, duration time.Duration)
}

// Verify CLIHooks implements Hooks at compile time.
var _ Hooks = (*CLIHooks)(nil)

// CLIHooks implements Hooks for CLI observability.
// It supports configurable verbosity levels:
//   - 0: Silent (collect stats only, no output)
//   - 1: Operations only (log client operations)
//   - 2: Operations + requests (log both operations and HTTP requests)
type CLIHooks struct {
	mu        sync.Mutex
	level     int
	collector *SessionCollector
	writer    *TraceWriter
}

// NewCLIHooks creates a new CLIHooks with the given verbosity level.
// If collector is nil, metrics are not collected.
// If writer is nil, no trace output is produced.
func NewCLIHooks(level int, collector *SessionCollector, writer *TraceWriter) *CLIHooks {
	return &CLIHooks{
		level:     level,
		collector: collector,
		writer:    writer,
	}
}

// SetLevel changes the verbosity level at runtime.
func (h *CLIHooks) SetLevel(level int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.level = level
}

// Level returns the current verbosity level.
func (h *CLIHooks) Level() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.level
}

func (h *CLIHooks) snapshot() (int, *SessionCollector, *TraceWriter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.level, h.collector, h.writer
}

// OnOperationStart is called when a semantic client operation begins.
func (h *CLIHooks) OnOperationStart(ctx context.Context, op OperationInfo) context.Context {
	level, _, writer := h.snapshot()
	if level >= 1 && writer != nil {
		writer.WriteOperationStart(op)
	}
	return ctx
}

// OnOperationEnd is called when a semantic client operation completes.
func (h *CLIHooks) OnOperationEnd(ctx context.Context, op OperationInfo, err error, duration time.Duration) {
	level, collector, writer := h.snapshot()
	if collector != nil {
		collector.RecordOperation(op, err, duration)
	}
	if level >= 1 && writer != nil {
		writer.WriteOperationEnd(op, err, duration)
	}
}

// OnRequestStart is called before an HTTP request is sent.
func (h *CLIHooks) OnRequestStart(ctx context.Context, info RequestInfo) context.Context {
	level, _, writer := h.snapshot()
	if level >= 2 && writer != nil {
		writer.WriteRequestStart(info)
	}
	return ctx
}

// OnRequestEnd is called after an HTTP request completes.
func (h *CLIHooks) OnRequestEnd(ctx context.Context, info RequestInfo, status int, err error, duration time.Duration) {
	level, collector, writer := h.snapshot()
	if collector != nil {
		collector.RecordRequest(info, status, err, duration)
	}
	if level >= 2 && writer != nil {
		writer.WriteRequestEnd(info, status, err, duration)
	}
}

// OnTokenRefresh is called after a credential refresh call settles.
func (h *CLIHooks) OnTokenRefresh(ctx context.Context, err error, duration time.Duration) {
	level, collector, writer := h.snapshot()
	if collector != nil {
		collector.RecordTokenRefresh(err)
	}
	if level >= 1 && writer != nil {
		writer.WriteTokenRefresh(err, duration)
	}
}

// NopHooks is a Hooks implementation that does nothing.
type NopHooks struct{}

var _ Hooks = NopHooks{}

func (NopHooks) OnOperationStart(ctx context.Context, _ OperationInfo) context.Context { return ctx }
func (NopHooks) OnOperationEnd(context.Context, OperationInfo, error, time.Duration)   {}
func (NopHooks) OnRequestStart(ctx context.Context, _ RequestInfo) context.Context     { return ctx }
func (NopHooks) OnRequestEnd(context.Context, RequestInfo, int, error, time.Duration)  {}
func (NopHooks) OnTokenRefresh(context.Context, error, time.Duration)                  {}
