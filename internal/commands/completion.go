package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/drmind/mindtalk-cli/internal/completion"
	"github.com/drmind/mindtalk-cli/internal/output"
)

// completer serves ID completion for every command from the on-disk cache.
var completer = completion.NewCompleter(nil)

// NewCompletionCmd creates the completion command group.
func NewCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion <bash|zsh|fish|powershell>",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for mindtalk.

To load completions:

Bash:
  $ source <(mindtalk completion bash)

Zsh:
  $ mindtalk completion zsh > "${fpath[1]}/_mindtalk"

Fish:
  $ mindtalk completion fish | source

PowerShell:
  PS> mindtalk completion powershell | Out-String | Invoke-Expression

Session, character and counselor IDs complete from a local cache that list
commands keep up to date. Run "mindtalk completion refresh" to fill it.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompletion(cmd.Root(), cmd, args[0])
		},
	}

	cmd.AddCommand(
		newCompletionRefreshCmd(),
		newCompletionStatusCmd(),
	)

	return cmd
}

func runCompletion(root, cmd *cobra.Command, shell string) error {
	out := cmd.OutOrStdout()
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(out, true)
	case "zsh":
		return root.GenZshCompletion(out)
	case "fish":
		return root.GenFishCompletion(out, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(out)
	default:
		return output.ErrUsage("unknown shell: " + shell)
	}
}

func newCompletionRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the completion cache",
		Long: `Fetch characters, counselors and sessions and store them for tab completion.

The cache is also updated whenever you run a list command such as
"mindtalk sessions" or "mindtalk home".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := authedApp(cmd)
			if err != nil {
				return err
			}

			home, err := app.Client.Home(cmd.Context())
			if err != nil {
				return err
			}

			store := completion.NewStore("")
			for section, items := range map[completion.Section][]completion.CachedItem{
				completion.Characters: completion.FromCharacters(home.Characters),
				completion.Counselors: completion.FromCounselors(home.Counselors),
				completion.Sessions:   completion.FromSessions(home.Sessions),
			} {
				if err := store.Update(section, items); err != nil {
					return fmt.Errorf("failed to write completion cache: %w", err)
				}
			}

			return app.OK(map[string]any{
				"characters": len(home.Characters),
				"counselors": len(home.Counselors),
				"sessions":   len(home.Sessions),
				"cache_path": store.Path(),
			}, output.WithSummary(fmt.Sprintf("Cached %s, %s, %s",
				pluralize(len(home.Characters), "character", "characters"),
				pluralize(len(home.Counselors), "counselor", "counselors"),
				pluralize(len(home.Sessions), "session", "sessions"),
			)))
		},
	}
}

func newCompletionStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show completion cache status",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFor(cmd)
			if err != nil {
				return err
			}

			store := completion.NewStore("")
			cache, err := store.Load()
			if err != nil {
				return err
			}

			stale := store.IsStale(completion.DefaultMaxAge)
			result := map[string]any{
				"characters": len(cache.Characters),
				"counselors": len(cache.Counselors),
				"sessions":   len(cache.Sessions),
				"cache_path": store.Path(),
				"stale":      stale,
			}

			summary := "Completion cache is fresh"
			if updated := cache.UpdatedAt(); !updated.IsZero() {
				result["updated_at"] = updated.Format(time.RFC3339)
				if stale {
					summary = "Completion cache is stale"
				}
			} else {
				summary = "Completion cache is empty"
			}

			return app.OK(result,
				output.WithSummary(summary),
				output.WithBreadcrumbs(output.Breadcrumb{
					Action: "refresh", Cmd: "mindtalk completion refresh", Description: "Refresh the cache",
				}),
			)
		},
	}
}

// rememberCompletions records list results for tab completion. Failures are
// ignored; the cache is a convenience.
func rememberCompletions(section completion.Section, items []completion.CachedItem) {
	_ = completion.NewStore("").Update(section, items)
}
