package commands

import (
	"github.com/spf13/cobra"

	"github.com/drmind/mindtalk-cli/internal/output"
)

// CommandInfo describes a CLI command.
type CommandInfo struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Actions     []string `json:"actions,omitempty"`
}

// CommandCategory groups commands by category.
type CommandCategory struct {
	Name     string        `json:"name"`
	Commands []CommandInfo `json:"commands"`
}

// commandCategories returns all command categories for the catalog.
func commandCategories() []CommandCategory {
	return []CommandCategory{
		{
			Name: "Counseling",
			Commands: []CommandInfo{
				{Name: "home", Category: "counseling", Description: "Characters, counselors and recent sessions"},
				{Name: "characters", Category: "counseling", Description: "Browse AI characters", Actions: []string{"list", "show"}},
				{Name: "counselors", Category: "counseling", Description: "Browse counselors", Actions: []string{"list", "show"}},
				{Name: "sessions", Category: "counseling", Description: "Manage counseling sessions", Actions: []string{"list", "show", "start", "send", "messages", "delete"}},
			},
		},
		{
			Name: "Auth & Config",
			Commands: []CommandInfo{
				{Name: "auth", Category: "auth", Description: "Sign in and manage the session", Actions: []string{"login", "oauth", "logout", "status", "refresh", "token"}},
				{Name: "me", Category: "auth", Description: "Show or update your profile", Actions: []string{"nickname"}},
				{Name: "config", Category: "auth", Description: "Manage configuration", Actions: []string{"show", "set", "unset"}},
			},
		},
		{
			Name: "Additional Commands",
			Commands: []CommandInfo{
				{Name: "commands", Category: "additional", Description: "List all commands"},
				{Name: "completion", Category: "additional", Description: "Shell completion scripts", Actions: []string{"bash", "zsh", "fish", "powershell", "refresh", "status"}},
				{Name: "help", Category: "additional", Description: "Show help"},
				{Name: "version", Category: "additional", Description: "Show version"},
			},
		},
	}
}

// CatalogCommandNames returns all command names from the catalog.
func CatalogCommandNames() []string {
	var names []string
	for _, cat := range commandCategories() {
		for _, cmd := range cat.Commands {
			names = append(names, cmd.Name)
		}
	}
	return names
}

// NewCommandsCmd creates the commands listing command.
func NewCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "commands",
		Aliases: []string{"cmds"},
		Short:   "List all available commands",
		Long:    "List all available mindtalk commands organized by category.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFor(cmd)
			if err != nil {
				return err
			}

			return app.OK(commandCategories(),
				output.WithSummary("All available mindtalk commands"),
				output.WithBreadcrumbs(output.Breadcrumb{
					Action:      "help",
					Cmd:         "mindtalk --help",
					Description: "View help",
				}),
			)
		},
	}
}
