// Package cli wires the root command, global flags and error handling.
package cli

import (
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/drmind/mindtalk-cli/internal/appctx"
	"github.com/drmind/mindtalk-cli/internal/commands"
	"github.com/drmind/mindtalk-cli/internal/config"
	"github.com/drmind/mindtalk-cli/internal/output"
	"github.com/drmind/mindtalk-cli/internal/version"
)

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	var flags appctx.GlobalFlags

	cmd := &cobra.Command{
		Use:           "mindtalk",
		Short:         "Command-line client for Dr. Mind",
		Long:          "mindtalk talks to the Dr. Mind (마인드톡) counseling service: sign in, browse characters and counselors, and hold sessions.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip setup for help, version and shell completion
			if skipSetup(cmd) {
				return nil
			}

			format := ""
			if flags.YAML {
				format = "yaml"
			}
			cfg, err := config.Load(config.FlagOverrides{
				Host:    flags.Host,
				Format:  format,
				NoCache: flags.NoCache,
			})
			if err != nil {
				return output.ErrUsage(err.Error())
			}

			app := appctx.NewApp(cfg)
			app.Stdout = cmd.OutOrStdout()
			app.Stderr = cmd.ErrOrStderr()
			app.Flags = flags
			app.ApplyFlags()

			cmd.SetContext(appctx.WithApp(cmd.Context(), app))
			return nil
		},
	}

	// Allow flags anywhere in the command line
	cmd.Flags().SetInterspersed(true)
	cmd.PersistentFlags().SetInterspersed(true)

	pf := cmd.PersistentFlags()

	// Output format flags
	pf.BoolVarP(&flags.JSON, "json", "j", false, "Output as JSON")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "Output data only, no envelope")
	pf.BoolVarP(&flags.MD, "md", "m", false, "Output as Markdown (portable)")
	pf.BoolVar(&flags.MD, "markdown", false, "Output as Markdown (portable)")
	pf.BoolVar(&flags.Styled, "styled", false, "Force styled output (ANSI colors)")
	pf.BoolVar(&flags.YAML, "yaml", false, "Output as YAML")
	pf.BoolVar(&flags.IDsOnly, "ids-only", false, "Output only IDs")
	pf.BoolVar(&flags.Count, "count", false, "Output only count")
	pf.StringVar(&flags.JQ, "jq", "", "Filter the data payload with a jq expression")

	// Context flags
	pf.StringVar(&flags.Host, "host", "", "API host (e.g., localhost:8080, staging.mindtalk.app)")

	// Behavior flags
	pf.CountVarP(&flags.Verbose, "verbose", "v", "Verbose output (-v for operations, -vv for requests)")
	pf.BoolVar(&flags.Stats, "stats", false, "Show session statistics")
	pf.BoolVar(&flags.NoCache, "no-cache", false, "Bypass the response cache")

	cmd.SetVersionTemplate(version.Full() + "\n")

	return cmd
}

// AddCommands registers every subcommand on root.
func AddCommands(root *cobra.Command) {
	root.AddCommand(
		commands.NewAuthCmd(),
		commands.NewMeCmd(),
		commands.NewHomeCmd(),
		commands.NewCharactersCmd(),
		commands.NewCounselorsCmd(),
		commands.NewSessionsCmd(),
		commands.NewConfigCmd(),
		commands.NewCommandsCmd(),
		commands.NewCompletionCmd(),
		commands.NewVersionCmd(),
	)
}

func skipSetup(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", "version", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	return false
}

// Execute runs the root command and exits with the mapped exit code on error.
func Execute() {
	cmd := NewRootCmd()
	AddCommands(cmd)

	// Use ExecuteC to get the executed command (for correct context access)
	executedCmd, err := cmd.ExecuteC()
	if err == nil {
		return
	}

	err = transformCobraError(err)
	apiErr := output.AsError(err)

	// Try to use app.Err() if app is available (for --stats support)
	if app := appctx.FromContext(executedCmd.Context()); app != nil {
		_ = app.Err(err)
		os.Exit(apiErr.ExitCode())
	}

	// Fallback: output error directly (app not available, e.g., during setup)
	writer := output.New(output.Options{
		Format: errorFormat(cmd.PersistentFlags()),
		Writer: os.Stdout,
	})
	_ = writer.Err(err)

	os.Exit(apiErr.ExitCode())
}

// errorFormat picks the output format from raw flags when setup failed
// before an App existed.
func errorFormat(pf *pflag.FlagSet) output.Format {
	enabled := func(name string) bool {
		v, _ := pf.GetBool(name)
		return v
	}
	switch {
	case enabled("quiet"):
		return output.FormatQuiet
	case enabled("json"):
		return output.FormatJSON
	case enabled("yaml"):
		return output.FormatYAML
	case enabled("styled"):
		return output.FormatStyled
	case enabled("md"), enabled("markdown"):
		return output.FormatMarkdown
	}
	return output.FormatAuto
}

var shorthandRe = regexp.MustCompile(`unknown shorthand flag: '.' in (-\w)`)
var requiredFlagsRe = regexp.MustCompile(`required flag\(s\) "(\w+)"`)

// transformCobraError turns cobra's argument and flag errors into usage errors.
func transformCobraError(err error) error {
	msg := err.Error()

	switch {
	case strings.HasPrefix(msg, "flag needs an argument: "):
		flag := strings.TrimPrefix(msg, "flag needs an argument: ")
		return output.ErrUsage(flag + " requires a value")

	case strings.HasPrefix(msg, "unknown flag: "):
		return output.ErrUsage("Unknown option: " + strings.TrimPrefix(msg, "unknown flag: "))

	case strings.HasPrefix(msg, "unknown shorthand flag: "):
		if m := shorthandRe.FindStringSubmatch(msg); len(m) > 1 {
			return output.ErrUsage("Unknown option: " + m[1])
		}
		return output.ErrUsage(msg)

	case strings.HasPrefix(msg, "unknown command "):
		return output.ErrUsageHint(msg, "Run: mindtalk commands")

	case strings.Contains(msg, "invalid argument"),
		strings.Contains(msg, "arg(s), received"),
		strings.HasPrefix(msg, "requires at least "),
		strings.HasPrefix(msg, "if any flags in the group"),
		strings.HasPrefix(msg, "at least one of the flags in the group"):
		return output.ErrUsage(msg)

	case strings.HasPrefix(msg, "required flag(s) "):
		if m := requiredFlagsRe.FindStringSubmatch(msg); len(m) > 1 {
			return output.ErrUsage(m[1] + " required")
		}
		return output.ErrUsage(msg)
	}

	return err
}
