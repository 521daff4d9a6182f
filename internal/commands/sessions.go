package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drmind/mindtalk-cli/internal/api"
	"github.com/drmind/mindtalk-cli/internal/completion"
	"github.com/drmind/mindtalk-cli/internal/models"
	"github.com/drmind/mindtalk-cli/internal/output"
	"github.com/drmind/mindtalk-cli/internal/tui"
)

// NewSessionsCmd creates the sessions command group.
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions [action]",
		Aliases: []string{"session"},
		Short:   "Manage counseling sessions",
		Long:    "List, start, continue and delete counseling sessions.",
		RunE:    runSessionsList,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List sessions",
			RunE:  runSessionsList,
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show a session",
			Args:  cobra.ExactArgs(1),
			RunE:  runSessionShow,

			ValidArgsFunction: completer.SessionCompletion(),
		},
		newSessionsStartCmd(),
		newSessionsSendCmd(),
		&cobra.Command{
			Use:   "messages <id>",
			Short: "Show a session's messages",
			Args:  cobra.ExactArgs(1),
			RunE:  runSessionMessages,

			ValidArgsFunction: completer.SessionCompletion(),
		},
		newSessionsDeleteCmd(),
	)

	return cmd
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	app, err := authedApp(cmd)
	if err != nil {
		return err
	}

	sessions, err := app.Client.Sessions().List(cmd.Context())
	if err != nil {
		return err
	}
	rememberCompletions(completion.Sessions, completion.FromSessions(sessions))

	var breadcrumbs []output.Breadcrumb
	if len(sessions) > 0 {
		breadcrumbs = append(breadcrumbs, output.Breadcrumb{
			Action:      "messages",
			Cmd:         fmt.Sprintf("mindtalk sessions messages %d", sessions[0].ID),
			Description: "Read the most recent session",
		})
	} else {
		breadcrumbs = append(breadcrumbs, output.Breadcrumb{
			Action:      "characters",
			Cmd:         "mindtalk characters",
			Description: "Pick a character to talk to",
		})
	}

	return app.OK(sessions,
		output.WithSummary(pluralize(len(sessions), "session", "sessions")),
		output.WithBreadcrumbs(breadcrumbs...),
	)
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	app, err := authedApp(cmd)
	if err != nil {
		return err
	}
	id, err := parseID("session", args[0])
	if err != nil {
		return err
	}

	session, err := app.Client.Sessions().Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	summary := session.Title
	if summary == "" {
		summary = fmt.Sprintf("Session %d", id)
	}
	return app.OK(session,
		output.WithSummary(summary),
		output.WithBreadcrumbs(sessionBreadcrumbs(id)...),
	)
}

func newSessionsStartCmd() *cobra.Command {
	var characterID, counselorID int64

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a session",
		Long:  "Start a new session with either an AI character or a counselor.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := authedApp(cmd)
			if err != nil {
				return err
			}

			session, err := app.Client.Sessions().Create(cmd.Context(), api.CreateSessionRequest{
				CharacterID: characterID,
				CounselorID: counselorID,
			})
			if err != nil {
				return err
			}

			return app.OK(session,
				output.WithSummary(fmt.Sprintf("Started session %d", session.ID)),
				output.WithBreadcrumbs(sessionBreadcrumbs(session.ID)...),
			)
		},
	}

	cmd.Flags().Int64Var(&characterID, "character", 0, "Character ID to talk to")
	cmd.Flags().Int64Var(&counselorID, "counselor", 0, "Counselor ID to talk to")
	cmd.MarkFlagsMutuallyExclusive("character", "counselor")
	cmd.MarkFlagsOneRequired("character", "counselor")
	_ = cmd.RegisterFlagCompletionFunc("character", completer.CharacterCompletion())
	_ = cmd.RegisterFlagCompletionFunc("counselor", completer.CounselorCompletion())

	return cmd
}

func newSessionsSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <id> <message>...",
		Short: "Send a message",
		Long: `Send a message to a session and print the reply.

Pass "-" as the message to read it from stdin.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := authedApp(cmd)
			if err != nil {
				return err
			}
			id, err := parseID("session", args[0])
			if err != nil {
				return err
			}

			content := strings.Join(args[1:], " ")
			if content == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading message from stdin: %w", err)
				}
				content = string(data)
			}

			var exchange *models.Exchange
			send := func() (err error) {
				exchange, err = app.Client.Sessions().Send(cmd.Context(), id, content)
				return err
			}
			if app.IsInteractive() {
				err = tui.Wait(app.Stderr, "Waiting for reply...", send)
			} else {
				err = send()
			}
			if err != nil {
				return err
			}

			summary := "Message sent"
			if exchange.Reply != nil {
				summary = exchange.Reply.Content
			}
			return app.OK(exchange,
				output.WithSummary(summary),
				output.WithBreadcrumbs(sessionBreadcrumbs(id)...),
			)
		},

		ValidArgsFunction: completer.SessionCompletion(),
	}
}

func runSessionMessages(cmd *cobra.Command, args []string) error {
	app, err := authedApp(cmd)
	if err != nil {
		return err
	}
	id, err := parseID("session", args[0])
	if err != nil {
		return err
	}

	messages, err := app.Client.Sessions().Messages(cmd.Context(), id)
	if err != nil {
		return err
	}

	return app.OK(messages,
		output.WithSummary(pluralize(len(messages), "message", "messages")),
		output.WithBreadcrumbs(output.Breadcrumb{
			Action:      "send",
			Cmd:         fmt.Sprintf("mindtalk sessions send %d <message>", id),
			Description: "Continue the conversation",
		}),
	)
}

func newSessionsDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session",
		Long:  "Delete a session and its messages. Prompts for confirmation in a terminal unless --force is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := authedApp(cmd)
			if err != nil {
				return err
			}
			id, err := parseID("session", args[0])
			if err != nil {
				return err
			}

			if !force && app.IsInteractive() {
				ok, err := tui.ConfirmDangerous(fmt.Sprintf("Delete session %d?", id))
				if err != nil {
					return err
				}
				if !ok {
					return output.ErrUsage("Deletion canceled")
				}
			}

			if err := app.Client.Sessions().Delete(cmd.Context(), id); err != nil {
				return err
			}

			return app.OK(map[string]any{
				"id":     id,
				"status": "deleted",
			}, output.WithSummary(fmt.Sprintf("Deleted session %d", id)))
		},

		ValidArgsFunction: completer.SessionCompletion(),
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}

func sessionBreadcrumbs(id int64) []output.Breadcrumb {
	sid := strconv.FormatInt(id, 10)
	return []output.Breadcrumb{
		{Action: "send", Cmd: "mindtalk sessions send " + sid + " <message>", Description: "Send a message"},
		{Action: "messages", Cmd: "mindtalk sessions messages " + sid, Description: "Read the conversation"},
	}
}
