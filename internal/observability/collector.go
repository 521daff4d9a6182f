// Package observability provides metrics collection and tracing for CLI operations.
package observability

import (
	"sync"
	"time"

	"github.com/drmind/mindtalk-cli/internal/api"
	"github.com/drmind/mindtalk-cli/internal/auth"
)

// SessionMetrics aggregates metrics for an entire CLI session.
type SessionMetrics struct {
	StartTime       time.Time
	EndTime         time.Time
	TotalRequests   int
	CacheHits       int
	CacheMisses     int
	Replays         int
	TotalOperations int
	FailedOps       int
	Refreshes       int
	FailedRefreshes int
	RefreshWaiters  int
	TotalLatency    time.Duration
}

// SessionCollector accumulates metrics across a CLI session.
// It is safe for concurrent use and keeps counters, not per-event records.
type SessionCollector struct {
	mu sync.Mutex

	startTime       time.Time
	totalRequests   int
	cacheHits       int
	cacheMisses     int
	replays         int
	totalOperations int
	failedOps       int
	refreshes       int
	failedRefreshes int
	refreshWaiters  int
	totalLatency    time.Duration
}

// NewSessionCollector creates a new SessionCollector.
func NewSessionCollector() *SessionCollector {
	return &SessionCollector{
		startTime: time.Now(),
	}
}

// RecordRequest records one HTTP round trip or cache hit.
func (c *SessionCollector) RecordRequest(info api.RequestInfo, result api.RequestResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
	c.totalLatency += result.Duration
	if result.FromCache {
		c.cacheHits++
	} else {
		c.cacheMisses++
	}
	if info.Replay {
		c.replays++
	}
}

// RecordOperation records a completed service operation.
func (c *SessionCollector) RecordOperation(_ api.OperationInfo, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalOperations++
	if err != nil {
		c.failedOps++
	}
}

// RecordRefresh records a settled token refresh cycle.
func (c *SessionCollector) RecordRefresh(info auth.RefreshInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshes++
	c.refreshWaiters += info.Waiters
	if info.Err != nil {
		c.failedRefreshes++
	}
}

// Summary returns aggregated metrics for the session.
func (c *SessionCollector) Summary() SessionMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	return SessionMetrics{
		StartTime:       c.startTime,
		EndTime:         time.Now(),
		TotalRequests:   c.totalRequests,
		CacheHits:       c.cacheHits,
		CacheMisses:     c.cacheMisses,
		Replays:         c.replays,
		TotalOperations: c.totalOperations,
		FailedOps:       c.failedOps,
		Refreshes:       c.refreshes,
		FailedRefreshes: c.failedRefreshes,
		RefreshWaiters:  c.refreshWaiters,
		TotalLatency:    c.totalLatency,
	}
}

// Reset clears all collected metrics and resets the start time.
func (c *SessionCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startTime = time.Now()
	c.totalRequests = 0
	c.cacheHits = 0
	c.cacheMisses = 0
	c.replays = 0
	c.totalOperations = 0
	c.failedOps = 0
	c.refreshes = 0
	c.failedRefreshes = 0
	c.refreshWaiters = 0
	c.totalLatency = 0
}
