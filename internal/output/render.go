package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/term"
)

// Palette colors for styled output.
const (
	colorPrimary = "#7C6FF0"
	colorMuted   = "#8A8A9A"
	colorText    = "#E6E6EF"
	colorError   = "#F06F6F"
	colorSuccess = "#6FD08C"
)

// Renderer handles styled terminal output.
type Renderer struct {
	width  int
	styled bool

	Summary   lipgloss.Style
	Muted     lipgloss.Style
	Data      lipgloss.Style
	Error     lipgloss.Style
	Hint      lipgloss.Style
	Success   lipgloss.Style
	Header    lipgloss.Style
	Cell      lipgloss.Style
	CellMuted lipgloss.Style
}

// NewRenderer creates a renderer. Styling is enabled when writing to a TTY,
// or when forceStyled is true, unless NO_COLOR is set.
func NewRenderer(w io.Writer, forceStyled bool) *Renderer {
	width, tty := terminalInfo(w)
	styled := (tty || forceStyled) && os.Getenv("NO_COLOR") == ""

	r := &Renderer{width: width, styled: styled}
	if !styled {
		plain := lipgloss.NewStyle()
		r.Summary, r.Muted, r.Data, r.Error, r.Hint = plain, plain, plain, plain, plain
		r.Success, r.Header, r.Cell, r.CellMuted = plain, plain, plain, plain
		return r
	}

	r.Summary = lipgloss.NewStyle().Foreground(lipgloss.Color(colorPrimary)).Bold(true)
	r.Muted = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	r.Data = lipgloss.NewStyle().Foreground(lipgloss.Color(colorText))
	r.Error = lipgloss.NewStyle().Foreground(lipgloss.Color(colorError)).Bold(true)
	r.Hint = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted)).Italic(true)
	r.Success = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess))
	r.Header = lipgloss.NewStyle().Foreground(lipgloss.Color(colorText)).Bold(true)
	r.Cell = lipgloss.NewStyle().Foreground(lipgloss.Color(colorText))
	r.CellMuted = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	return r
}

// terminalInfo returns the terminal width and whether the writer is a TTY.
func terminalInfo(w io.Writer) (width int, isTTY bool) {
	width = 80

	f, ok := w.(*os.File)
	if !ok {
		return width, false
	}
	if !term.IsTerminal(f.Fd()) {
		return width, false
	}
	if cols, _, err := term.GetSize(f.Fd()); err == nil && cols >= 40 {
		width = cols
	}
	return width, true
}

// RenderResponse renders a success response to the writer.
func (r *Renderer) RenderResponse(w io.Writer, resp *Response) error {
	var b strings.Builder

	if resp.Summary != "" {
		b.WriteString(r.Summary.Render(resp.Summary))
		b.WriteString("\n\n")
	}

	r.renderData(&b, NormalizeData(resp.Data))

	if len(resp.Breadcrumbs) > 0 {
		b.WriteString("\n")
		b.WriteString(r.Muted.Render("Next:"))
		b.WriteString("\n")
		for _, bc := range resp.Breadcrumbs {
			line := "  " + bc.Cmd
			if bc.Description != "" {
				line += "  # " + bc.Description
			}
			b.WriteString(r.Muted.Render(line) + "\n")
		}
	}

	if stats, ok := resp.Meta["stats"].(string); ok && stats != "" {
		b.WriteString("\n" + r.Muted.Render("Stats: "+stats) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderError renders an error response to the writer.
func (r *Renderer) RenderError(w io.Writer, resp *ErrorResponse) error {
	var b strings.Builder

	msg := "Error: " + resp.Error
	if resp.ResultCode != "" {
		msg += " (" + resp.ResultCode + ")"
	}
	b.WriteString(r.Error.Render(msg))
	b.WriteString("\n")

	if resp.Hint != "" {
		b.WriteString(r.Hint.Render("Hint: " + resp.Hint))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) renderData(b *strings.Builder, data any) {
	switch d := data.(type) {
	case []map[string]any:
		if len(d) == 0 {
			b.WriteString(r.Muted.Render("(no results)") + "\n")
			return
		}
		r.renderTable(b, d)
	case map[string]any:
		r.renderObject(b, d)
	case []any:
		if len(d) == 0 {
			b.WriteString(r.Muted.Render("(no results)") + "\n")
			return
		}
		for _, item := range d {
			b.WriteString(r.Data.Render("• "+formatCell(item)) + "\n")
		}
	case nil:
		b.WriteString(r.Muted.Render("(no data)") + "\n")
	default:
		b.WriteString(r.Data.Render(formatCell(d)) + "\n")
	}
}

// Column priority for table rendering (lower = higher priority)
var columnPriority = map[string]int{
	"id":          1,
	"name":        2,
	"nickname":    2,
	"title":       2,
	"role":        3,
	"content":     3,
	"email":       4,
	"specialty":   4,
	"description": 6,
	"lastMessage": 6,
	"createdAt":   8,
	"updatedAt":   9,
}

// Metadata columns rendered muted.
var mutedColumns = map[string]bool{
	"id":        true,
	"createdAt": true,
	"updatedAt": true,
}

// Fields that never render (image URLs, nested payloads).
var skipColumns = map[string]bool{
	"imageUrl":   true,
	"profileUrl": true,
}

type column struct {
	key      string
	priority int
	width    int
}

func (r *Renderer) renderTable(b *strings.Builder, data []map[string]any) {
	cols := fitColumns(detectColumns(data), data, r.width)
	if len(cols) == 0 {
		return
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.Header
			}
			if col < len(cols) && mutedColumns[cols[col].key] {
				return r.CellMuted
			}
			return r.Cell
		})

	headers := make([]string, len(cols))
	for i, col := range cols {
		headers[i] = formatHeader(col.key)
	}
	t.Headers(headers...)

	for _, item := range data {
		row := make([]string, len(cols))
		for i, col := range cols {
			row[i] = truncate(formatValue(col.key, item[col.key]), 40)
		}
		t.Row(row...)
	}

	b.WriteString(t.String())
	b.WriteString("\n")
}

func (r *Renderer) renderObject(b *strings.Builder, data map[string]any) {
	keys := orderedKeys(data)
	if len(keys) == 0 {
		b.WriteString(r.Muted.Render("(no data)") + "\n")
		return
	}

	maxLen := 0
	for _, k := range keys {
		maxLen = max(maxLen, len(formatHeader(k)))
	}
	for _, k := range keys {
		label := r.Muted.Render(fmt.Sprintf("%-*s: ", maxLen, formatHeader(k)))
		style := r.Data
		if mutedColumns[k] {
			style = r.CellMuted
		}
		b.WriteString(label + style.Render(formatValue(k, data[k])) + "\n")
	}
}

// detectColumns picks the scalar columns of the first row, ordered by priority.
func detectColumns(data []map[string]any) []column {
	if len(data) == 0 {
		return nil
	}
	var cols []column
	for _, key := range orderedKeys(data[0]) {
		cols = append(cols, column{key: key, priority: priorityOf(key)})
	}
	return cols
}

// fitColumns drops the lowest-priority columns until the table fits width.
func fitColumns(cols []column, data []map[string]any, width int) []column {
	for i := range cols {
		cols[i].width = lipgloss.Width(formatHeader(cols[i].key))
		for _, row := range data {
			cols[i].width = max(cols[i].width, lipgloss.Width(formatValue(cols[i].key, row[cols[i].key])))
		}
		cols[i].width = min(cols[i].width, 40)
	}

	const padding = 2
	for len(cols) > 1 {
		total := 0
		for _, col := range cols {
			total += col.width + padding
		}
		if total <= width {
			break
		}
		cols = cols[:len(cols)-1]
	}
	return cols
}

func orderedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if skipColumns[k] {
			continue
		}
		switch v.(type) {
		case map[string]any, []map[string]any, []any:
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, pj := priorityOf(keys[i]), priorityOf(keys[j])
		if pi != pj {
			return pi < pj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func priorityOf(key string) int {
	if p, ok := columnPriority[key]; ok {
		return p
	}
	return 50
}

// formatHeader turns camelCase or snake_case keys into title-case headers,
// dropping a trailing "At" from timestamps.
func formatHeader(key string) string {
	var words []string
	var cur []rune
	for _, r := range key {
		switch {
		case r == '_':
			if len(cur) > 0 {
				words = append(words, string(cur))
			}
			cur = nil
		case unicode.IsUpper(r) && len(cur) > 0:
			words = append(words, string(cur))
			cur = []rune{unicode.ToLower(r)}
		default:
			cur = append(cur, r)
		}
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	if len(words) > 1 && words[len(words)-1] == "at" {
		words = words[:len(words)-1]
	}
	for i, w := range words {
		if w == "id" {
			words[i] = "ID"
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func isTimestampKey(key string) bool {
	return strings.HasSuffix(key, "At") || strings.HasSuffix(key, "_at")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func formatCell(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatValue formats timestamp fields relative to now; everything else via formatCell.
func formatValue(key string, val any) string {
	str, ok := val.(string)
	if !ok || !isTimestampKey(key) {
		return formatCell(val)
	}
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return str
	}
	return relativeTime(time.Since(t), t)
}

func relativeTime(diff time.Duration, t time.Time) string {
	switch {
	case diff < 0:
		return t.Format("Jan 2, 2006")
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute") + " ago"
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour") + " ago"
	case diff < 48*time.Hour:
		return "yesterday"
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day") + " ago"
	default:
		return t.Format("Jan 2, 2006")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// MarkdownRenderer outputs literal Markdown syntax (portable, pipeable).
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a renderer for literal Markdown output.
func NewMarkdownRenderer(io.Writer) *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// RenderResponse renders a success response as literal Markdown.
func (r *MarkdownRenderer) RenderResponse(w io.Writer, resp *Response) error {
	var b strings.Builder

	if resp.Summary != "" {
		b.WriteString("## " + resp.Summary + "\n\n")
	}

	switch d := NormalizeData(resp.Data).(type) {
	case []map[string]any:
		if len(d) == 0 {
			b.WriteString("*No results*\n")
			break
		}
		cols := detectColumns(d)
		headers := make([]string, len(cols))
		seps := make([]string, len(cols))
		for i, c := range cols {
			headers[i] = formatHeader(c.key)
			seps[i] = "---"
		}
		b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
		b.WriteString("| " + strings.Join(seps, " | ") + " |\n")
		for _, item := range d {
			cells := make([]string, len(cols))
			for i, c := range cols {
				cells[i] = strings.ReplaceAll(formatCell(item[c.key]), "|", "\\|")
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
	case map[string]any:
		for _, k := range orderedKeys(d) {
			fmt.Fprintf(&b, "- **%s:** %s\n", formatHeader(k), formatCell(d[k]))
		}
	case []any:
		for _, item := range d {
			b.WriteString("- " + formatCell(item) + "\n")
		}
	case nil:
		b.WriteString("*No data*\n")
	default:
		b.WriteString(formatCell(d) + "\n")
	}

	if len(resp.Breadcrumbs) > 0 {
		b.WriteString("\n### Next steps\n\n")
		for _, bc := range resp.Breadcrumbs {
			fmt.Fprintf(&b, "- `%s`", bc.Cmd)
			if bc.Description != "" {
				b.WriteString(" — " + bc.Description)
			}
			b.WriteString("\n")
		}
	}

	if stats, ok := resp.Meta["stats"].(string); ok && stats != "" {
		b.WriteString("\n*Stats: " + stats + "*\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderError renders an error response as literal Markdown.
func (r *MarkdownRenderer) RenderError(w io.Writer, resp *ErrorResponse) error {
	var b strings.Builder
	b.WriteString("**Error:** " + resp.Error)
	if resp.ResultCode != "" {
		b.WriteString(" (`" + resp.ResultCode + "`)")
	}
	b.WriteString("\n")
	if resp.Hint != "" {
		b.WriteString("\n*Hint: " + resp.Hint + "*\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
