package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/drmind/mindtalk-cli/internal/completion"
	"github.com/drmind/mindtalk-cli/internal/output"
)

// NewCounselorsCmd creates the counselors command group.
func NewCounselorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "counselors [action]",
		Aliases: []string{"counselor"},
		Short:   "Browse counselors",
		Long:    "List the counselors available for a session, or show one with their specialty.",
		RunE:    runCounselorsList,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List counselors",
			RunE:  runCounselorsList,
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show a counselor",
			Args:  cobra.ExactArgs(1),
			RunE:  runCounselorShow,

			ValidArgsFunction: completer.CounselorCompletion(),
		},
	)

	return cmd
}

func runCounselorsList(cmd *cobra.Command, args []string) error {
	app, err := authedApp(cmd)
	if err != nil {
		return err
	}

	counselors, err := app.Client.Counselors().List(cmd.Context())
	if err != nil {
		return err
	}
	rememberCompletions(completion.Counselors, completion.FromCounselors(counselors))

	var breadcrumbs []output.Breadcrumb
	if len(counselors) > 0 {
		breadcrumbs = append(breadcrumbs, output.Breadcrumb{
			Action:      "start",
			Cmd:         fmt.Sprintf("mindtalk sessions start --counselor %d", counselors[0].ID),
			Description: "Start a session with a counselor",
		})
	}

	return app.OK(counselors,
		output.WithSummary(pluralize(len(counselors), "counselor", "counselors")),
		output.WithBreadcrumbs(breadcrumbs...),
	)
}

func runCounselorShow(cmd *cobra.Command, args []string) error {
	app, err := authedApp(cmd)
	if err != nil {
		return err
	}
	id, err := parseID("counselor", args[0])
	if err != nil {
		return err
	}

	counselor, err := app.Client.Counselors().Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	summary := counselor.Name
	if counselor.Specialty != "" {
		summary += " - " + counselor.Specialty
	}

	return app.OK(counselor,
		output.WithSummary(summary),
		output.WithBreadcrumbs(output.Breadcrumb{
			Action:      "start",
			Cmd:         "mindtalk sessions start --counselor " + strconv.FormatInt(id, 10),
			Description: "Start a session with " + counselor.Name,
		}),
	)
}
