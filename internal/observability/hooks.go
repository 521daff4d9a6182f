package observability

import (
	"context"
	"sync"
	"time"

	"github.com/drmind/mindtalk-cli/internal/api"
	"github.com/drmind/mindtalk-cli/internal/auth"
)

var _ api.Hooks = (*CLIHooks)(nil)

// CLIHooks implements api.Hooks for CLI observability.
// Verbosity levels:
//   - 0: Silent (collect stats only, no output)
//   - 1: Operations and refresh cycles
//   - 2: Operations, refresh cycles and HTTP requests
type CLIHooks struct {
	mu        sync.Mutex
	level     int
	collector *SessionCollector
	writer    *TraceWriter
}

// NewCLIHooks creates a new CLIHooks with the given verbosity level.
// A nil collector disables metrics; a nil writer disables trace output.
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

func (h *CLIHooks) OnOperationStart(ctx context.Context, op api.OperationInfo) context.Context {
	if level, _, writer := h.snapshot(); level >= 1 && writer != nil {
		writer.WriteOperationStart(op)
	}
	return ctx
}

func (h *CLIHooks) OnOperationEnd(_ context.Context, op api.OperationInfo, err error, duration time.Duration) {
	level, collector, writer := h.snapshot()
	if collector != nil {
		collector.RecordOperation(op, err)
	}
	if level >= 1 && writer != nil {
		writer.WriteOperationEnd(op, err, duration)
	}
}

func (h *CLIHooks) OnRequestStart(ctx context.Context, info api.RequestInfo) context.Context {
	if level, _, writer := h.snapshot(); level >= 2 && writer != nil {
		writer.WriteRequestStart(info)
	}
	return ctx
}

func (h *CLIHooks) OnRequestEnd(_ context.Context, info api.RequestInfo, result api.RequestResult) {
	level, collector, writer := h.snapshot()
	if collector != nil {
		collector.RecordRequest(info, result)
	}
	if level >= 2 && writer != nil {
		writer.WriteRequestEnd(info, result)
	}
}

func (h *CLIHooks) OnRefreshStart(context.Context) {
	if level, _, writer := h.snapshot(); level >= 1 && writer != nil {
		writer.WriteRefreshStart()
	}
}

func (h *CLIHooks) OnRefreshEnd(_ context.Context, info auth.RefreshInfo) {
	level, collector, writer := h.snapshot()
	if collector != nil {
		collector.RecordRefresh(info)
	}
	if level >= 1 && writer != nil {
		writer.WriteRefreshEnd(info)
	}
}
