package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// =============================================================================
// Exit Codes Tests
// =============================================================================

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{CodeUsage, ExitUsage},
		{CodeNotFound, ExitNotFound},
		{CodeAuth, ExitAuth},
		{CodeForbidden, ExitForbidden},
		{CodeRateLimit, ExitRateLimit},
		{CodeNetwork, ExitNetwork},
		{CodeAPI, ExitAPI},
		{CodeBusiness, ExitBusiness},
		{"unknown_code", ExitAPI},
		{"", ExitAPI},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := ExitCodeFor(tt.code); got != tt.expected {
				t.Errorf("ExitCodeFor(%q) = %d, want %d", tt.code, got, tt.expected)
			}
		})
	}
}

// =============================================================================
// Error Tests
// =============================================================================

func TestErrorMessageWithHint(t *testing.T) {
	e := ErrAuth("Not authenticated")
	if got := e.Error(); got != "Not authenticated: Run: mindtalk auth login" {
		t.Errorf("Error() = %q", got)
	}
	if e.ExitCode() != ExitAuth {
		t.Errorf("ExitCode() = %d, want %d", e.ExitCode(), ExitAuth)
	}
}

func TestErrBusiness(t *testing.T) {
	e := ErrBusiness("F-400", "invalid nickname")
	if e.Code != CodeBusiness || e.ResultCode != "F-400" || e.Message != "invalid nickname" {
		t.Errorf("ErrBusiness() = %+v", e)
	}

	empty := ErrBusiness("F-500", "")
	if empty.Message != "Request rejected (F-500)" {
		t.Errorf("ErrBusiness() without msg = %q", empty.Message)
	}
}

func TestErrAuthExpiredUnwraps(t *testing.T) {
	cause := errors.New("refresh token revoked")
	e := ErrAuthExpired(cause)
	if !errors.Is(e, cause) {
		t.Error("ErrAuthExpired should wrap its cause")
	}
	if !IsAuth(e) {
		t.Error("IsAuth should be true for ErrAuthExpired")
	}
	if !IsAuthExpired(e) {
		t.Error("IsAuthExpired should be true for ErrAuthExpired")
	}
	if IsAuthExpired(ErrAuth("Not authenticated")) {
		t.Error("IsAuthExpired should be false for a plain auth error")
	}
}

func TestPredicatesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("loading sessions: %w", ErrBusiness("F-404", "no such session"))
	if !IsBusiness(wrapped) {
		t.Error("IsBusiness should see through fmt.Errorf wrapping")
	}
	if IsAuth(wrapped) || IsNetwork(wrapped) {
		t.Error("business error misclassified")
	}
	if !IsNetwork(ErrNetwork(errors.New("dial tcp: refused"))) {
		t.Error("IsNetwork should be true for ErrNetwork")
	}
}

func TestAsErrorFallback(t *testing.T) {
	e := AsError(errors.New("boom"))
	if e.Code != CodeAPI || e.Message != "boom" {
		t.Errorf("AsError() = %+v", e)
	}
}

// =============================================================================
// Writer Tests
// =============================================================================

func TestWriterJSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	w := New(Options{Format: FormatJSON, Writer: &buf})

	err := w.OK(map[string]any{"id": 7, "name": "Luna"},
		WithSummary("Character 7"),
		WithBreadcrumbs(Breadcrumb{Action: "chat", Cmd: "mindtalk sessions start --character 7"}),
	)
	if err != nil {
		t.Fatalf("OK() error = %v", err)
	}

	var resp Response
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if !resp.OK || resp.Summary != "Character 7" || len(resp.Breadcrumbs) != 1 {
		t.Errorf("unexpected envelope: %+v", resp)
	}
}

func TestWriterErrEnvelope(t *testing.T) {
	var buf bytes.Buffer
	w := New(Options{Format: FormatJSON, Writer: &buf})

	if err := w.Err(ErrBusiness("F-400", "invalid nickname")); err != nil {
		t.Fatalf("Err() error = %v", err)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if resp.OK || resp.Code != CodeBusiness || resp.ResultCode != "F-400" || resp.Error != "invalid nickname" {
		t.Errorf("unexpected error envelope: %+v", resp)
	}
}

func TestWriterQuietOutputsDataOnly(t *testing.T) {
	var buf bytes.Buffer
	w := New(Options{Format: FormatQuiet, Writer: &buf})

	if err := w.OK(json.RawMessage(`{"id":1}`), WithSummary("ignored")); err != nil {
		t.Fatalf("OK() error = %v", err)
	}
	if strings.Contains(buf.String(), "summary") {
		t.Errorf("quiet output should not include envelope: %s", buf.String())
	}
}

func TestWriterIDsAndCount(t *testing.T) {
	data := json.RawMessage(`[{"id":11,"name":"a"},{"id":12,"name":"b"}]`)

	var ids bytes.Buffer
	if err := New(Options{Format: FormatIDs, Writer: &ids}).OK(data); err != nil {
		t.Fatalf("OK() error = %v", err)
	}
	if ids.String() != "11\n12\n" {
		t.Errorf("ids output = %q", ids.String())
	}

	var count bytes.Buffer
	if err := New(Options{Format: FormatCount, Writer: &count}).OK(data); err != nil {
		t.Fatalf("OK() error = %v", err)
	}
	if count.String() != "2\n" {
		t.Errorf("count output = %q", count.String())
	}
}

func TestWriterYAML(t *testing.T) {
	var buf bytes.Buffer
	w := New(Options{Format: FormatYAML, Writer: &buf})

	if err := w.OK(json.RawMessage(`{"nickname":"mind"}`)); err != nil {
		t.Fatalf("OK() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "ok: true") || !strings.Contains(out, "nickname: mind") {
		t.Errorf("yaml output = %q", out)
	}
}

func TestWriterJQFilter(t *testing.T) {
	var buf bytes.Buffer
	w := New(Options{Format: FormatJSON, Writer: &buf, JQ: ".[].name"})

	if err := w.OK(json.RawMessage(`[{"name":"Luna"},{"name":"Sol"}]`)); err != nil {
		t.Fatalf("OK() error = %v", err)
	}
	if buf.String() != "Luna\nSol\n" {
		t.Errorf("jq output = %q", buf.String())
	}
}

func TestWriterJQInvalidExpression(t *testing.T) {
	w := New(Options{Format: FormatJSON, Writer: &bytes.Buffer{}, JQ: ".[[["})
	err := w.OK(map[string]any{})
	if e := AsError(err); e.Code != CodeUsage {
		t.Errorf("invalid jq should be a usage error, got %v", err)
	}
}

func TestMarkdownRendererTable(t *testing.T) {
	var buf bytes.Buffer
	w := New(Options{Format: FormatMarkdown, Writer: &buf})

	err := w.OK(json.RawMessage(`[{"id":1,"name":"Luna","description":"calm"}]`), WithSummary("Characters"))
	if err != nil {
		t.Fatalf("OK() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "## Characters") {
		t.Errorf("missing heading: %q", out)
	}
	if !strings.Contains(out, "| ID | Name | Description |") {
		t.Errorf("missing ordered header row: %q", out)
	}
}

func TestStyledRendererPlainWhenNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	w := New(Options{Format: FormatStyled, Writer: &buf})
	if err := w.Err(ErrAuth("Not authenticated")); err != nil {
		t.Fatalf("Err() error = %v", err)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("NO_COLOR output contains ANSI escapes: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "Hint: Run: mindtalk auth login") {
		t.Errorf("missing hint: %q", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"json": FormatJSON, "md": FormatMarkdown, "markdown": FormatMarkdown,
		"styled": FormatStyled, "yaml": FormatYAML, "quiet": FormatQuiet,
		"auto": FormatAuto, "": FormatAuto,
	}
	for in, want := range tests {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFormatHeader(t *testing.T) {
	tests := map[string]string{
		"id":          "ID",
		"createdAt":   "Created",
		"created_at":  "Created",
		"nickname":    "Nickname",
		"sessionId":   "Session ID",
		"lastMessage": "Last Message",
	}
	for in, want := range tests {
		if got := formatHeader(in); got != want {
			t.Errorf("formatHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncateIsRuneSafe(t *testing.T) {
	s := strings.Repeat("마음", 30)
	got := truncate(s, 10)
	if len([]rune(got)) != 10 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncate() = %q", got)
	}
}
