package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/drmind/mindtalk-cli/internal/api"
	"github.com/drmind/mindtalk-cli/internal/auth"
)

func TestTraceWriter_WriteOperation(t *testing.T) {
	var buf bytes.Buffer
	w := NewTraceWriterTo(&buf)
	op := api.OperationInfo{Service: "Sessions", Operation: "Send"}

	w.WriteOperationStart(op)
	w.WriteOperationEnd(op, nil, 234*time.Millisecond)
	w.WriteOperationEnd(op, errors.New("not found"), 0)

	out := buf.String()
	for _, want := range []string{
		"Calling Sessions.Send",
		"Completed Sessions.Send (234ms)",
		"Failed Sessions.Send: not found",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
}

func TestTraceWriter_WriteRequest(t *testing.T) {
	var buf bytes.Buffer
	w := NewTraceWriterTo(&buf)

	w.WriteRequestStart(api.RequestInfo{Method: "GET", Path: "/sessions"})
	w.WriteRequestEnd(api.RequestInfo{}, api.RequestResult{StatusCode: 200, Duration: 45 * time.Millisecond})
	w.WriteRequestStart(api.RequestInfo{Method: "GET", Path: "/sessions", Replay: true})
	w.WriteRequestEnd(api.RequestInfo{}, api.RequestResult{StatusCode: 200, FromCache: true})
	w.WriteRequestEnd(api.RequestInfo{}, api.RequestResult{Err: errors.New("connection refused")})

	out := buf.String()
	for _, want := range []string{
		"-> GET /sessions\n",
		"-> GET /sessions (replay)",
		"<- 200 (45ms)",
		"<- 200 (cached)",
		"<- ERROR: connection refused",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
}

func TestTraceWriter_WriteRefresh(t *testing.T) {
	var buf bytes.Buffer
	w := NewTraceWriterTo(&buf)

	w.WriteRefreshStart()
	w.WriteRefreshEnd(auth.RefreshInfo{Waiters: 3, Duration: 80 * time.Millisecond})
	w.WriteRefreshEnd(auth.RefreshInfo{Waiters: 1, Err: errors.New("revoked")})

	out := buf.String()
	for _, want := range []string{
		"Refreshing access token",
		"Refreshed access token (80ms, 3 waiting)",
		"Refresh failed (1 waiting): revoked",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
}

func TestTraceWriter_RefreshEndedBySignOut(t *testing.T) {
	var buf bytes.Buffer
	w := NewTraceWriterTo(&buf)

	w.WriteRefreshEnd(auth.RefreshInfo{Waiters: 2, Err: &auth.RefreshError{Cause: auth.ErrSessionEnded}})

	out := buf.String()
	if !strings.Contains(out, "Refresh failed (2 waiting): token refresh failed: session ended during refresh") {
		t.Errorf("unexpected output: %s", out)
	}
	if strings.Contains(out, "cleared") {
		t.Errorf("trace must not claim the session was cleared: %s", out)
	}
}

func TestTraceWriter_ScrubsSecrets(t *testing.T) {
	var buf bytes.Buffer
	w := NewTraceWriterTo(&buf)

	w.WriteRequestStart(api.RequestInfo{Method: "GET", Path: "/auth/callback?refreshToken=abc&state=ok"})

	out := buf.String()
	if strings.Contains(out, "abc") {
		t.Errorf("refresh token leaked: %s", out)
	}
	if !strings.Contains(out, "state=ok") {
		t.Errorf("expected harmless params kept: %s", out)
	}
}

func TestScrubPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/sessions", "/sessions"},
		{"/sessions?page=2", "/sessions?page=2"},
		{"/x?access_token=s3cret", "/x?access_token=%5BREDACTED%5D"},
		{"/x?Password=hunter2", "/x?Password=%5BREDACTED%5D"},
	}
	for _, tt := range tests {
		if got := scrubPath(tt.in); got != tt.want {
			t.Errorf("scrubPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTraceWriter_Timestamps(t *testing.T) {
	var buf bytes.Buffer
	w := NewTraceWriterTo(&buf)

	w.WriteRefreshStart()
	time.Sleep(10 * time.Millisecond)
	w.Reset()
	w.WriteRefreshStart()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if !strings.HasPrefix(line, "[0.0") {
			t.Errorf("expected near-zero timestamp on line %d: %s", i+1, line)
		}
	}
}
