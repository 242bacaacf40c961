package observability

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSessionCollector_RecordOperation(t *testing.T) {
	c := NewSessionCollector()

	op := OperationInfo{Service: "Profile", Operation: "Get"}
	c.RecordOperation(op, nil, 50*time.Millisecond)
	c.RecordOperation(op, errors.New("boom"), 25*time.Millisecond)

	snap := c.Snapshot()
	if snap.TotalOperations != 2 {
		t.Errorf("expected 2 operations, got %d", snap.TotalOperations)
	}
	if snap.FailedOps != 1 {
		t.Errorf("expected 1 failed operation, got %d", snap.FailedOps)
	}
	if snap.TotalLatency != 75*time.Millisecond {
		t.Errorf("expected 75ms total latency, got %s", snap.TotalLatency)
	}
}

func TestSessionCollector_RecordRequestCountsReplays(t *testing.T) {
	c := NewSessionCollector()

	c.RecordRequest(RequestInfo{Method: "GET", Path: "/profile/me", Attempt: 1}, 401, nil, 10*time.Millisecond)
	c.RecordRequest(RequestInfo{Method: "GET", Path: "/profile/me", Attempt: 2}, 200, nil, 12*time.Millisecond)

	snap := c.Snapshot()
	if snap.TotalRequests != 2 {
		t.Errorf("expected 2 requests, got %d", snap.TotalRequests)
	}
	if snap.Replays != 1 {
		t.Errorf("expected 1 replay, got %d", snap.Replays)
	}
}

func TestSessionCollector_RecordTokenRefresh(t *testing.T) {
	c := NewSessionCollector()

	c.RecordTokenRefresh(nil)
	c.RecordTokenRefresh(errors.New("session expired"))

	snap := c.Snapshot()
	if snap.TokenRefreshes != 2 {
		t.Errorf("expected 2 refreshes, got %d", snap.TokenRefreshes)
	}
	if snap.RefreshFailures != 1 {
		t.Errorf("expected 1 refresh failure, got %d", snap.RefreshFailures)
	}
}

func TestSessionCollector_ConcurrentAccess(t *testing.T) {
	c := NewSessionCollector()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordRequest(RequestInfo{Method: "GET", Path: "/dashboard", Attempt: 1}, 200, nil, time.Millisecond)
			c.RecordOperation(OperationInfo{Service: "Dashboard", Operation: "Get"}, nil, time.Millisecond)
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.TotalRequests != 20 {
		t.Errorf("expected 20 requests, got %d", snap.TotalRequests)
	}
	if snap.TotalOperations != 20 {
		t.Errorf("expected 20 operations, got %d", snap.TotalOperations)
	}
}
