package api

import (
	"context"
	"time"

	"github.com/drmind/mindtalk-cli/internal/auth"
)

// OperationInfo names a semantic API operation such as "Sessions.Send".
type OperationInfo struct {
	Service    string
	Operation  string
	ResourceID string
}

// Name returns "Service.Operation".
func (o OperationInfo) Name() string {
	return o.Service + "." + o.Operation
}

// RequestInfo describes one HTTP round trip.
type RequestInfo struct {
	Method    string
	Path      string
	RequestID string
	// Replay is true for the single retry that follows a token refresh.
	Replay bool
}

// RequestResult describes how a round trip ended.
type RequestResult struct {
	StatusCode int
	Duration   time.Duration
	FromCache  bool
	Err        error
}

// Hooks observes client activity. Implementations must be safe for
// concurrent use.
type Hooks interface {
	OnOperationStart(ctx context.Context, op OperationInfo) context.Context
	OnOperationEnd(ctx context.Context, op OperationInfo, err error, duration time.Duration)
	OnRequestStart(ctx context.Context, info RequestInfo) context.Context
	OnRequestEnd(ctx context.Context, info RequestInfo, result RequestResult)
	auth.RefreshHooks
}

// NoopHooks ignores every event.
type NoopHooks struct{}

var _ Hooks = NoopHooks{}

func (NoopHooks) OnOperationStart(ctx context.Context, _ OperationInfo) context.Context { return ctx }
func (NoopHooks) OnOperationEnd(context.Context, OperationInfo, error, time.Duration)    {}
func (NoopHooks) OnRequestStart(ctx context.Context, _ RequestInfo) context.Context     { return ctx }
func (NoopHooks) OnRequestEnd(context.Context, RequestInfo, RequestResult)              {}
func (NoopHooks) OnRefreshStart(context.Context)                                        {}
func (NoopHooks) OnRefreshEnd(context.Context, auth.RefreshInfo)                        {}
