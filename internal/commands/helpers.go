package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drmind/mindtalk-cli/internal/appctx"
	"github.com/drmind/mindtalk-cli/internal/output"
)

// appFor returns the app stored on the command context.
func appFor(cmd *cobra.Command) (*appctx.App, error) {
	app := appctx.FromContext(cmd.Context())
	if app == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	return app, nil
}

// authedApp is appFor plus a check that a session is stored, so protected
// commands fail fast instead of after a doomed refresh.
func authedApp(cmd *cobra.Command) (*appctx.App, error) {
	app, err := appFor(cmd)
	if err != nil {
		return nil, err
	}
	if app.Store.Current() == nil {
		return nil, output.ErrAuth("Not authenticated")
	}
	return app, nil
}

// parseID parses a positive numeric resource ID.
func parseID(resource, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, output.ErrUsage(fmt.Sprintf("Invalid %s ID: %q", resource, s))
	}
	return id, nil
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
