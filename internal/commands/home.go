package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drmind/mindtalk-cli/internal/completion"
	"github.com/drmind/mindtalk-cli/internal/output"
)

// NewHomeCmd creates the home command.
func NewHomeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show the home screen",
		Long:  "Show characters, counselors and your recent sessions in one view.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := authedApp(cmd)
			if err != nil {
				return err
			}

			home, err := app.Client.Home(cmd.Context())
			if err != nil {
				return err
			}
			rememberCompletions(completion.Characters, completion.FromCharacters(home.Characters))
			rememberCompletions(completion.Counselors, completion.FromCounselors(home.Counselors))
			rememberCompletions(completion.Sessions, completion.FromSessions(home.Sessions))

			return app.OK(home,
				output.WithSummary(fmt.Sprintf("%s, %s, %s",
					pluralize(len(home.Characters), "character", "characters"),
					pluralize(len(home.Counselors), "counselor", "counselors"),
					pluralize(len(home.Sessions), "session", "sessions"),
				)),
				output.WithBreadcrumbs(
					output.Breadcrumb{Action: "characters", Cmd: "mindtalk characters", Description: "Browse characters"},
					output.Breadcrumb{Action: "sessions", Cmd: "mindtalk sessions", Description: "Your sessions"},
				),
			)
		},
	}
}
