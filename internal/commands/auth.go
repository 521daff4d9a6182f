// Package commands implements the CLI commands.
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drmind/mindtalk-cli/internal/api"
	"github.com/drmind/mindtalk-cli/internal/appctx"
	"github.com/drmind/mindtalk-cli/internal/completion"
	"github.com/drmind/mindtalk-cli/internal/models"
	"github.com/drmind/mindtalk-cli/internal/output"
	"github.com/drmind/mindtalk-cli/internal/tui"
)

// NewAuthCmd creates the auth command group.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
		Long:  "Sign in to Dr. Mind, inspect the stored session, and sign out.",
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthOAuthCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
		newAuthRefreshCmd(),
		newAuthTokenCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long: `Sign in with email and password and store the session.

Missing values are prompted for when running in a terminal. The password can
also be supplied through MINDTALK_PASSWORD.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFor(cmd)
			if err != nil {
				return err
			}

			if password == "" {
				password = os.Getenv("MINDTALK_PASSWORD")
			}
			if (email == "" || password == "") && app.IsInteractive() {
				if err := tui.LoginForm(&email, &password); err != nil {
					return err
				}
			}
			if email == "" || password == "" {
				return output.ErrUsageHint("Email and password are required",
					"mindtalk auth login --email <email> --password <password>")
			}

			result, err := app.Client.Auth().Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			return loggedIn(app, result)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")

	return cmd
}

func newAuthOAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "oauth <provider> <token>",
		Short: "Sign in with a social provider token",
		Long: fmt.Sprintf(`Exchange a provider token for a Dr. Mind session.

Supported providers: %s, %s.`, api.ProviderGoogle, api.ProviderKakao),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFor(cmd)
			if err != nil {
				return err
			}

			result, err := app.Client.Auth().OAuthLogin(cmd.Context(), strings.ToLower(args[0]), args[1])
			if err != nil {
				return err
			}
			return loggedIn(app, result)
		},
	}
}

func loggedIn(app *appctx.App, result *models.AuthResult) error {
	summary := "Logged in as " + result.User.Email
	if result.User.Nickname != "" {
		summary = fmt.Sprintf("Logged in as %s <%s>", result.User.Nickname, result.User.Email)
	}
	return app.OK(result.User,
		output.WithSummary(summary),
		output.WithBreadcrumbs(
			output.Breadcrumb{Action: "home", Cmd: "mindtalk home", Description: "Characters, counselors and recent sessions"},
			output.Breadcrumb{Action: "status", Cmd: "mindtalk auth status", Description: "Auth status"},
		),
	)
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove stored credentials",
		Long:  "Sign out on the server (best effort) and remove the stored session for the current origin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFor(cmd)
			if err != nil {
				return err
			}

			if err := app.Client.Auth().Logout(cmd.Context()); err != nil {
				return err
			}
			_ = completion.NewStore("").Clear()

			return app.OK(map[string]string{
				"status": "logged_out",
			}, output.WithSummary("Successfully logged out"))
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Long:  "Display whether a session is stored for the current origin and who it belongs to.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFor(cmd)
			if err != nil {
				return err
			}

			backend := "file"
			if app.Store.UsingKeyring() {
				backend = "keyring"
			}

			creds := app.Store.Current()
			if creds == nil {
				return app.OK(map[string]any{
					"authenticated": false,
					"origin":        app.Store.Origin(),
					"backend":       backend,
				},
					output.WithSummary("Not authenticated"),
					output.WithBreadcrumbs(output.Breadcrumb{
						Action: "login", Cmd: "mindtalk auth login", Description: "Sign in",
					}),
				)
			}

			return app.OK(map[string]any{
				"authenticated": true,
				"origin":        app.Store.Origin(),
				"backend":       backend,
				"user":          creds.User,
			}, output.WithSummary("Authenticated as "+creds.User.Email))
		},
	}
}

func newAuthRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the access token",
		Long:  "Force a refresh of the access token using the stored refresh token.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := authedApp(cmd)
			if err != nil {
				return err
			}

			if err := app.Client.RefreshSession(cmd.Context()); err != nil {
				return err
			}

			return app.OK(map[string]string{
				"status": "refreshed",
			}, output.WithSummary("Token refreshed successfully"))
		},
	}
}

func newAuthTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print the access token",
		Long: `Print the stored access token to stdout for use with other tools.

Examples:
  curl -H "Authorization: Bearer $(mindtalk auth token)" ...

Output modes:
  mindtalk auth token           # Raw token (for shell substitution)
  mindtalk auth token --json    # JSON envelope with token in data field`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := authedApp(cmd)
			if err != nil {
				return err
			}

			token := app.Store.AccessToken()
			if app.Flags.JSON {
				return app.OK(map[string]string{"token": token})
			}

			fmt.Fprintln(app.Stdout, token)
			return nil
		},
	}
}
