package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"
)

// Response is the success envelope for JSON output.
type Response struct {
	OK          bool           `json:"ok" yaml:"ok"`
	Data        any            `json:"data,omitempty" yaml:"data,omitempty"`
	Summary     string         `json:"summary,omitempty" yaml:"summary,omitempty"`
	Breadcrumbs []Breadcrumb   `json:"breadcrumbs,omitempty" yaml:"breadcrumbs,omitempty"`
	Meta        map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Breadcrumb is a suggested follow-up action.
type Breadcrumb struct {
	Action      string `json:"action" yaml:"action"`
	Cmd         string `json:"cmd" yaml:"cmd"`
	Description string `json:"description" yaml:"description"`
}

// ErrorResponse is the error envelope for JSON output.
type ErrorResponse struct {
	OK         bool   `json:"ok" yaml:"ok"`
	Error      string `json:"error" yaml:"error"`
	Code       string `json:"code" yaml:"code"`
	ResultCode string `json:"result_code,omitempty" yaml:"result_code,omitempty"`
	Hint       string `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// Format specifies the output format.
type Format int

const (
	FormatAuto Format = iota // Auto-detect: TTY → Styled, non-TTY → JSON
	FormatJSON
	FormatMarkdown // Literal Markdown syntax (portable, pipeable)
	FormatStyled   // ANSI styled output (forced, even when piped)
	FormatYAML
	FormatQuiet
	FormatIDs
	FormatCount
)

// ParseFormat maps a config/env format name to a Format.
func ParseFormat(name string) Format {
	switch name {
	case "json":
		return FormatJSON
	case "markdown", "md":
		return FormatMarkdown
	case "styled":
		return FormatStyled
	case "yaml", "yml":
		return FormatYAML
	case "quiet":
		return FormatQuiet
	default:
		return FormatAuto
	}
}

// Options controls output behavior.
type Options struct {
	Format Format
	Writer io.Writer
	// JQ, when set, filters the data payload through a jq expression.
	JQ string
}

// DefaultOptions returns options for standard output.
func DefaultOptions() Options {
	return Options{
		Format: FormatAuto,
		Writer: os.Stdout,
	}
}

// Writer handles all output formatting.
type Writer struct {
	opts Options
}

// New creates a new output writer.
func New(opts Options) *Writer {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	return &Writer{opts: opts}
}

// OK outputs a success response.
func (w *Writer) OK(data any, opts ...ResponseOption) error {
	resp := &Response{OK: true, Data: data}
	for _, opt := range opts {
		opt(resp)
	}
	if w.opts.JQ != "" {
		return w.writeJQ(resp.Data)
	}
	return w.write(resp)
}

// Err outputs an error response.
func (w *Writer) Err(err error) error {
	e := AsError(err)
	resp := &ErrorResponse{
		OK:         false,
		Error:      e.Message,
		Code:       e.Code,
		ResultCode: e.ResultCode,
		Hint:       e.Hint,
	}
	return w.write(resp)
}

func (w *Writer) write(v any) error {
	format := w.opts.Format

	// Auto-detect format: TTY → Styled, non-TTY → JSON
	if format == FormatAuto {
		if isTTY(w.opts.Writer) {
			format = FormatStyled
		} else {
			format = FormatJSON
		}
	}

	switch format {
	case FormatQuiet:
		if resp, ok := v.(*Response); ok {
			return w.writeJSON(resp.Data)
		}
		return w.writeJSON(v)
	case FormatIDs:
		return w.writeIDs(v)
	case FormatCount:
		return w.writeCount(v)
	case FormatMarkdown:
		return w.writeLiteralMarkdown(v)
	case FormatStyled:
		return w.writeStyled(v)
	case FormatYAML:
		return w.writeYAML(v)
	default:
		return w.writeJSON(v)
	}
}

// isTTY checks if the writer is a terminal.
func isTTY(w io.Writer) bool {
	_, tty := terminalInfo(w)
	return tty
}

func (w *Writer) writeJSON(v any) error {
	enc := json.NewEncoder(w.opts.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (w *Writer) writeYAML(v any) error {
	// Round-trip through JSON so json.RawMessage and struct tags render as data.
	enc := yaml.NewEncoder(w.opts.Writer)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(toPlain(v))
}

// writeJQ runs the configured jq expression against the data payload and
// prints every result as compact JSON, one per line.
func (w *Writer) writeJQ(data any) error {
	query, err := gojq.Parse(w.opts.JQ)
	if err != nil {
		return ErrUsage(fmt.Sprintf("invalid --jq expression: %v", err))
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return ErrUsage(fmt.Sprintf("invalid --jq expression: %v", err))
	}

	iter := code.Run(toPlain(data))
	enc := json.NewEncoder(w.opts.Writer)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := v.(error); isErr {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				return nil
			}
			return ErrUsage(fmt.Sprintf("--jq: %v", err))
		}
		if s, isStr := v.(string); isStr {
			fmt.Fprintln(w.opts.Writer, s)
			continue
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
}

func (w *Writer) writeIDs(v any) error {
	resp, ok := v.(*Response)
	if !ok {
		return w.writeJSON(v)
	}

	switch d := NormalizeData(resp.Data).(type) {
	case []map[string]any:
		for _, item := range d {
			if id, ok := item["id"]; ok {
				fmt.Fprintln(w.opts.Writer, formatCell(id))
			}
		}
	case map[string]any:
		if id, ok := d["id"]; ok {
			fmt.Fprintln(w.opts.Writer, formatCell(id))
		}
	}
	return nil
}

func (w *Writer) writeCount(v any) error {
	resp, ok := v.(*Response)
	if !ok {
		return w.writeJSON(v)
	}

	switch d := NormalizeData(resp.Data).(type) {
	case []any:
		fmt.Fprintln(w.opts.Writer, len(d))
	case []map[string]any:
		fmt.Fprintln(w.opts.Writer, len(d))
	default:
		fmt.Fprintln(w.opts.Writer, 1)
	}
	return nil
}

// toPlain converts typed values into the generic map/slice/scalar shapes that
// gojq and yaml expect.
func toPlain(data any) any {
	if data == nil {
		return nil
	}
	var b []byte
	if raw, ok := data.(json.RawMessage); ok {
		b = raw
	} else {
		var err error
		if b, err = json.Marshal(data); err != nil {
			return data
		}
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return data
	}
	return out
}

// NormalizeData converts json.RawMessage and typed values to standard Go types.
func NormalizeData(data any) any {
	switch data.(type) {
	case []map[string]any, map[string]any:
		return data
	case nil:
		return nil
	}
	return normalizeUnmarshaled(toPlain(data))
}

// normalizeUnmarshaled converts []any to []map[string]any if all elements are maps.
func normalizeUnmarshaled(v any) any {
	d, ok := v.([]any)
	if !ok {
		return v
	}
	if len(d) == 0 {
		return []map[string]any{}
	}
	maps := make([]map[string]any, 0, len(d))
	for _, item := range d {
		m, ok := item.(map[string]any)
		if !ok {
			return v // Mixed types, return as-is
		}
		maps = append(maps, m)
	}
	return maps
}

// writeStyled outputs ANSI styled terminal output.
func (w *Writer) writeStyled(v any) error {
	r := NewRenderer(w.opts.Writer, true)
	switch resp := v.(type) {
	case *Response:
		return r.RenderResponse(w.opts.Writer, resp)
	case *ErrorResponse:
		return r.RenderError(w.opts.Writer, resp)
	default:
		return w.writeJSON(v)
	}
}

// writeLiteralMarkdown outputs literal Markdown syntax (portable, pipeable).
func (w *Writer) writeLiteralMarkdown(v any) error {
	r := NewMarkdownRenderer(w.opts.Writer)
	switch resp := v.(type) {
	case *Response:
		return r.RenderResponse(w.opts.Writer, resp)
	case *ErrorResponse:
		return r.RenderError(w.opts.Writer, resp)
	default:
		return w.writeJSON(v)
	}
}

// ResponseOption modifies a Response.
type ResponseOption func(*Response)

// WithSummary adds a summary to the response.
func WithSummary(s string) ResponseOption {
	return func(r *Response) { r.Summary = s }
}

// WithBreadcrumbs adds breadcrumbs to the response.
func WithBreadcrumbs(b ...Breadcrumb) ResponseOption {
	return func(r *Response) { r.Breadcrumbs = append(r.Breadcrumbs, b...) }
}

// WithMeta adds metadata to the response.
func WithMeta(key string, value any) ResponseOption {
	return func(r *Response) {
		if r.Meta == nil {
			r.Meta = make(map[string]any)
		}
		r.Meta[key] = value
	}
}

// WithStats attaches a one-line session stats summary.
func WithStats(line string) ResponseOption {
	if line == "" {
		return func(*Response) {}
	}
	return WithMeta("stats", line)
}
