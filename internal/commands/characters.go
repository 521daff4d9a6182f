package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/drmind/mindtalk-cli/internal/completion"
	"github.com/drmind/mindtalk-cli/internal/output"
)

// NewCharactersCmd creates the characters command group.
func NewCharactersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "characters [action]",
		Aliases: []string{"character"},
		Short:   "Browse AI characters",
		Long:    "List the AI characters available for a counseling session, or show one in detail.",
		RunE:    runCharactersList,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List characters",
			RunE:  runCharactersList,
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show a character",
			Args:  cobra.ExactArgs(1),
			RunE:  runCharacterShow,

			ValidArgsFunction: completer.CharacterCompletion(),
		},
	)

	return cmd
}

func runCharactersList(cmd *cobra.Command, args []string) error {
	app, err := authedApp(cmd)
	if err != nil {
		return err
	}

	characters, err := app.Client.Characters().List(cmd.Context())
	if err != nil {
		return err
	}
	rememberCompletions(completion.Characters, completion.FromCharacters(characters))

	var breadcrumbs []output.Breadcrumb
	if len(characters) > 0 {
		breadcrumbs = append(breadcrumbs, output.Breadcrumb{
			Action:      "start",
			Cmd:         fmt.Sprintf("mindtalk sessions start --character %d", characters[0].ID),
			Description: "Start a session with a character",
		})
	}

	return app.OK(characters,
		output.WithSummary(pluralize(len(characters), "character", "characters")),
		output.WithBreadcrumbs(breadcrumbs...),
	)
}

func runCharacterShow(cmd *cobra.Command, args []string) error {
	app, err := authedApp(cmd)
	if err != nil {
		return err
	}
	id, err := parseID("character", args[0])
	if err != nil {
		return err
	}

	character, err := app.Client.Characters().Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	return app.OK(character,
		output.WithSummary(character.Name),
		output.WithBreadcrumbs(output.Breadcrumb{
			Action:      "start",
			Cmd:         "mindtalk sessions start --character " + strconv.FormatInt(id, 10),
			Description: "Start a session with " + character.Name,
		}),
	)
}
