package observability

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/drmind/mindtalk-cli/internal/api"
	"github.com/drmind/mindtalk-cli/internal/auth"
)

// sensitiveParams are query parameter names (lowercased) scrubbed from trace output.
var sensitiveParams = map[string]bool{
	"access_token":  true,
	"accesstoken":   true,
	"refresh_token": true,
	"refreshtoken":  true,
	"token":         true,
	"password":      true,
	"code":          true,
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
	return NewTraceWriterTo(os.Stderr)
}

// NewTraceWriterTo creates a new TraceWriter that writes to the given writer.
func NewTraceWriterTo(w io.Writer) *TraceWriter {
	return &TraceWriter{
		writer:    w,
		startTime: time.Now(),
	}
}

func (t *TraceWriter) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	elapsed := time.Since(t.startTime).Seconds()
	fmt.Fprintf(t.writer, "[%.3fs] "+format+"\n", append([]any{elapsed}, args...)...)
}

// WriteOperationStart writes e.g. "[0.234s] Calling Sessions.Send".
func (t *TraceWriter) WriteOperationStart(op api.OperationInfo) {
	t.printf("Calling %s", op.Name())
}

// WriteOperationEnd writes e.g. "[0.234s] Completed Sessions.Send (234ms)".
func (t *TraceWriter) WriteOperationEnd(op api.OperationInfo, err error, duration time.Duration) {
	if err != nil {
		t.printf("Failed %s: %v", op.Name(), err)
		return
	}
	t.printf("Completed %s (%dms)", op.Name(), duration.Milliseconds())
}

// WriteRequestStart writes e.g. "[0.234s]   -> GET /sessions".
// Replays after a token refresh are marked.
func (t *TraceWriter) WriteRequestStart(info api.RequestInfo) {
	marker := ""
	if info.Replay {
		marker = " (replay)"
	}
	t.printf("  -> %s %s%s", info.Method, scrubPath(info.Path), marker)
}

// WriteRequestEnd writes e.g. "[0.234s]   <- 200 (45ms)" or "<- 200 (cached)".
func (t *TraceWriter) WriteRequestEnd(_ api.RequestInfo, result api.RequestResult) {
	switch {
	case result.Err != nil:
		t.printf("  <- ERROR: %v", result.Err)
	case result.FromCache:
		t.printf("  <- %d (cached)", result.StatusCode)
	default:
		t.printf("  <- %d (%dms)", result.StatusCode, result.Duration.Milliseconds())
	}
}

// WriteRefreshStart writes "[0.234s] Refreshing access token".
func (t *TraceWriter) WriteRefreshStart() {
	t.printf("Refreshing access token")
}

// WriteRefreshEnd writes the outcome of a refresh cycle and how many
// callers it released.
func (t *TraceWriter) WriteRefreshEnd(info auth.RefreshInfo) {
	if info.Err != nil {
		t.printf("Refresh failed (%d waiting): %v", info.Waiters, info.Err)
		return
	}
	t.printf("Refreshed access token (%dms, %d waiting)", info.Duration.Milliseconds(), info.Waiters)
}

// Reset resets the start time for relative timestamps.
func (t *TraceWriter) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startTime = time.Now()
}

// scrubPath redacts sensitive query parameters from a request path.
func scrubPath(path string) string {
	u, err := url.Parse(path)
	if err != nil {
		return "[unparseable URL]"
	}

	query := u.Query()
	modified := false
	for key := range query {
		if sensitiveParams[strings.ToLower(key)] {
			query.Set(key, "[REDACTED]")
			modified = true
		}
	}
	if !modified {
		return path
	}

	u.RawQuery = query.Encode()
	return u.String()
}
