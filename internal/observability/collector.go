// Package observability provides metrics collection and tracing for CLI operations.
package observability

import (
	"sync"
	"time"
)

// SessionMetrics aggregates metrics for an entire CLI session.
type SessionMetrics struct {
	StartTime       time.Time     `json:"start_time"`
	TotalRequests   int           `json:"total_requests"`
	TotalOperations int           `json:"total_operations"`
	FailedOps       int           `json:"failed_operations"`
	Replays         int           `json:"replays"`
	TokenRefreshes  int           `json:"token_refreshes"`
	RefreshFailures int           `json:"refresh_failures"`
	TotalLatency    time.Duration `json:"total_latency_ns"`
}

// SessionCollector accumulates metrics across a CLI session.
// It is safe for concurrent use and uses counters instead of unbounded slices.
type SessionCollector struct {
	mu sync.Mutex

	startTime       time.Time
	totalRequests   int
	totalOperations int
	failedOps       int
	replays         int
	tokenRefreshes  int
	refreshFailures int
	totalLatency    time.Duration
}

// NewSessionCollector creates a collector with the session start time set to now.
func NewSessionCollector() *SessionCollector {
	return &SessionCollector{startTime: time.Now()}
}

// RecordOperation records a completed client operation.
func (c *SessionCollector) RecordOperation(_ OperationInfo, err error, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalOperations++
	if err != nil {
		c.failedOps++
	}
	c.totalLatency += duration
}

// RecordRequest records a completed HTTP request.
func (c *SessionCollector) RecordRequest(info RequestInfo, _ int, _ error, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
	if info.Attempt > 1 {
		c.replays++
	}
}

// RecordTokenRefresh records a settled credential refresh call.
func (c *SessionCollector) RecordTokenRefresh(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokenRefreshes++
	if err != nil {
		c.refreshFailures++
	}
}

// Snapshot returns a copy of the current session metrics.
func (c *SessionCollector) Snapshot() SessionMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SessionMetrics{
		StartTime:       c.startTime,
		TotalRequests:   c.totalRequests,
		TotalOperations: c.totalOperations,
		FailedOps:       c.failedOps,
		Replays:         c.replays,
		TokenRefreshes:  c.tokenRefreshes,
		RefreshFailures: c.refreshFailures,
		TotalLatency:    c.totalLatency,
	}
}
