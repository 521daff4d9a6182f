package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drmind/mindtalk-cli/internal/output"
)

// NewMeCmd creates the me command.
func NewMeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "me",
		Short: "Show current user profile",
		Long:  "Display the profile of the signed-in user.",
		RunE:  runMe,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "nickname <name>",
		Short: "Change your nickname",
		Args:  cobra.ExactArgs(1),
		RunE:  runMeNickname,
	})

	return cmd
}

func runMe(cmd *cobra.Command, args []string) error {
	app, err := authedApp(cmd)
	if err != nil {
		return err
	}

	user, err := app.Client.Users().Me(cmd.Context())
	if err != nil {
		return err
	}

	summary := user.Email
	if user.Nickname != "" {
		summary = fmt.Sprintf("%s <%s>", user.Nickname, user.Email)
	}
	return app.OK(user,
		output.WithSummary(summary),
		output.WithBreadcrumbs(
			output.Breadcrumb{Action: "nickname", Cmd: "mindtalk me nickname <name>", Description: "Change your nickname"},
			output.Breadcrumb{Action: "sessions", Cmd: "mindtalk sessions", Description: "Your sessions"},
		),
	)
}

func runMeNickname(cmd *cobra.Command, args []string) error {
	app, err := authedApp(cmd)
	if err != nil {
		return err
	}

	user, err := app.Client.Users().UpdateNickname(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return app.OK(user, output.WithSummary("Nickname set to "+user.Nickname))
}
