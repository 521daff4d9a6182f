// Package appctx provides application context helpers.
package appctx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"

	"github.com/drmind/mindtalk-cli/internal/api"
	"github.com/drmind/mindtalk-cli/internal/auth"
	"github.com/drmind/mindtalk-cli/internal/config"
	"github.com/drmind/mindtalk-cli/internal/observability"
	"github.com/drmind/mindtalk-cli/internal/output"
)

// contextKey is a private type for context keys.
type contextKey string

const appKey contextKey = "app"

// App holds the shared application context for all commands.
type App struct {
	Config *config.Config
	Store  *auth.Store
	Client *api.Client
	Output *output.Writer

	// Observability
	Collector *observability.SessionCollector
	Hooks     *observability.CLIHooks

	// Flags holds the global flag values
	Flags GlobalFlags

	Stdout io.Writer
	Stderr io.Writer
}

// GlobalFlags holds values for global CLI flags.
type GlobalFlags struct {
	// Output format flags
	JSON    bool
	Quiet   bool
	MD      bool // Literal Markdown syntax output
	Styled  bool // Force ANSI styled output (even when piped)
	YAML    bool
	IDsOnly bool
	Count   bool
	JQ      string

	// Context flags
	Host string

	// Behavior flags
	Verbose int // 0=off, 1=operations, 2=operations+requests (stacks with -v -v or -vv)
	Stats   bool
	NoCache bool
}

// NewApp creates a new App with the given configuration and loads the
// persisted session for cfg.BaseURL.
func NewApp(cfg *config.Config) *App {
	store := auth.NewStore(cfg.BaseURL, config.GlobalConfigDir())
	if err := store.MigrateToKeyring(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if _, err := store.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not read saved session: %v\n", err)
	}
	return newApp(cfg, store)
}

func newApp(cfg *config.Config, store *auth.Store) *App {
	// Collector always runs to gather stats; hooks control output verbosity.
	// Level 0 initially; ApplyFlags sets the actual level from -v flags.
	collector := observability.NewSessionCollector()
	hooks := observability.NewCLIHooks(0, collector, observability.NewTraceWriter())

	client := api.NewClient(cfg, store, api.WithHooks(hooks))

	return &App{
		Config:    cfg,
		Store:     store,
		Client:    client,
		Collector: collector,
		Hooks:     hooks,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Output: output.New(output.Options{
			Format: output.ParseFormat(cfg.Format),
			Writer: os.Stdout,
		}),
	}
}

// ApplyFlags applies global flag values to the app configuration.
func (a *App) ApplyFlags() {
	a.Output = output.New(output.Options{
		Format: a.format(),
		Writer: a.Stdout,
		JQ:     a.Flags.JQ,
	})

	if !a.Flags.Stats && a.Config.Stats != nil {
		a.Flags.Stats = *a.Config.Stats
	}

	verboseLevel := a.verbosity()
	if a.Hooks != nil {
		a.Hooks.SetLevel(verboseLevel)
	}
	if verboseLevel > 0 && a.Client != nil {
		debugLogger := slog.New(slog.NewTextHandler(a.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		a.Client.SetLogger(debugLogger)
	}
}

// format resolves the output format: specific modes first, then the
// configured default.
func (a *App) format() output.Format {
	switch {
	case a.Flags.IDsOnly:
		return output.FormatIDs
	case a.Flags.Count:
		return output.FormatCount
	case a.Flags.Quiet:
		return output.FormatQuiet
	case a.Flags.JSON:
		return output.FormatJSON
	case a.Flags.YAML:
		return output.FormatYAML
	case a.Flags.Styled:
		return output.FormatStyled
	case a.Flags.MD:
		return output.FormatMarkdown
	}
	if a.Config != nil {
		return output.ParseFormat(a.Config.Format)
	}
	return output.FormatAuto
}

// verbosity combines -v flags, the config file and MINDTALK_DEBUG
// ("1", "2", or "true" for full debug). The highest wins.
func (a *App) verbosity() int {
	level := a.Flags.Verbose
	if a.Config != nil && a.Config.Verbose != nil && *a.Config.Verbose > level {
		level = *a.Config.Verbose
	}
	if debugEnv := os.Getenv("MINDTALK_DEBUG"); debugEnv != "" {
		if n, err := strconv.Atoi(debugEnv); err == nil {
			level = max(level, n)
		} else if debugEnv == "true" {
			level = 2
		}
	}
	return min(level, 2)
}

// OK outputs a success response, automatically including stats if --stats flag is set.
func (a *App) OK(data any, opts ...output.ResponseOption) error {
	if a.Flags.Stats && a.Collector != nil {
		stats := a.Collector.Summary()
		opts = append(opts, output.WithStats(statsLine(&stats)))
	}
	return a.Output.OK(data, opts...)
}

// Err outputs an error response, printing stats to stderr if --stats flag is set.
func (a *App) Err(err error) error {
	if outputErr := a.Output.Err(err); outputErr != nil {
		return outputErr
	}

	// Machine-consumable modes never get extra stderr chatter.
	if a.Flags.Stats && a.Collector != nil && !a.isMachineOutput() {
		stats := a.Collector.Summary()
		if line := statsLine(&stats); line != "" {
			fmt.Fprintf(a.Stderr, "\nStats: %s\n", line)
		}
	}
	return nil
}

// isMachineOutput returns true if the output mode is intended for programmatic consumption.
func (a *App) isMachineOutput() bool {
	if a.Flags.Quiet || a.Flags.IDsOnly || a.Flags.Count || a.Flags.JQ != "" {
		return true
	}
	return a.Config != nil && a.Config.Format == "quiet"
}

// statsLine renders a compact one-line session summary.
func statsLine(stats *observability.SessionMetrics) string {
	if stats == nil {
		return ""
	}

	var parts []string

	duration := stats.EndTime.Sub(stats.StartTime)
	if duration < time.Second {
		parts = append(parts, fmt.Sprintf("%dms", duration.Milliseconds()))
	} else {
		parts = append(parts, fmt.Sprintf("%.1fs", duration.Seconds()))
	}

	if stats.TotalRequests > 0 {
		parts = append(parts, plural(stats.TotalRequests, "request", "requests"))
	}

	if stats.CacheHits > 0 {
		rate := float64(stats.CacheHits) / float64(stats.TotalRequests) * 100
		parts = append(parts, fmt.Sprintf("%d cached (%.0f%%)", stats.CacheHits, rate))
	}

	if stats.Refreshes > 0 {
		parts = append(parts, plural(stats.Refreshes, "token refresh", "token refreshes"))
	}
	if stats.Replays > 0 {
		parts = append(parts, plural(stats.Replays, "replay", "replays"))
	}

	if stats.FailedOps > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", stats.FailedOps))
	}

	return strings.Join(parts, " | ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

// IsInteractive returns true if prompts can be shown: stdin is a terminal
// and no machine output mode is set.
func (a *App) IsInteractive() bool {
	if a.Flags.JSON || a.Flags.Quiet || a.Flags.IDsOnly || a.Flags.Count || a.Flags.JQ != "" {
		return false
	}
	return term.IsTerminal(os.Stdin.Fd()) && term.IsTerminal(os.Stdout.Fd())
}

// WithApp stores the app in the context.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey, app)
}

// FromContext retrieves the app from the context.
func FromContext(ctx context.Context) *App {
	app, _ := ctx.Value(appKey).(*App)
	return app
}
