package commands

import (
	"github.com/spf13/cobra"

	"github.com/drmind/mindtalk-cli/internal/version"
)

// NewVersionCmd creates the version command. It runs without app setup.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version.Full())
		},
	}
}
