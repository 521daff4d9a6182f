package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drmind/mindtalk-cli/internal/config"
	"github.com/drmind/mindtalk-cli/internal/output"
)

// NewConfigCmd creates the config command for managing configuration.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage mindtalk configuration.

Configuration is loaded from multiple sources with the following precedence:
  flags > env > global > system > defaults

Config locations:
  - System: /etc/mindtalk/config.json
  - Global: ~/.config/mindtalk/config.json`,
		RunE: runConfigShow,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show effective configuration",
			Long:  "Display the current effective configuration with source information.",
			RunE:  runConfigShow,
		},
		newConfigSetCmd(),
		newConfigUnsetCmd(),
	)

	return cmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	app, err := appFor(cmd)
	if err != nil {
		return err
	}
	cfg := app.Config

	values := map[string]string{
		"base_url":        cfg.BaseURL,
		"format":          cfg.Format,
		"cache_enabled":   strconv.FormatBool(cfg.CacheEnabled),
		"cache_ttl":       cfg.CacheTTL.String(),
		"refresh_timeout": cfg.RefreshTimeout.String(),
		"request_timeout": cfg.RequestTimeout.String(),
	}
	if cfg.Stats != nil {
		values["stats"] = strconv.FormatBool(*cfg.Stats)
	}
	if cfg.Verbose != nil {
		values["verbose"] = strconv.Itoa(*cfg.Verbose)
	}

	configData := make(map[string]any, len(values))
	for key, value := range values {
		source := cfg.Sources[key]
		if source == "" {
			source = string(config.SourceDefault)
		}
		configData[key] = map[string]string{
			"value":  value,
			"source": source,
		}
	}

	return app.OK(configData,
		output.WithSummary("Effective configuration"),
		output.WithBreadcrumbs(output.Breadcrumb{
			Action:      "set",
			Cmd:         "mindtalk config set <key> <value>",
			Description: "Set config value",
		}),
	)
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: fmt.Sprintf(`Set a value in the global config file.

Valid keys: %s`, strings.Join(config.Keys, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFor(cmd)
			if err != nil {
				return err
			}

			key := args[0]
			value, err := config.SetGlobal(key, args[1])
			if err != nil {
				return output.ErrUsage(err.Error())
			}

			return app.OK(map[string]any{
				"key":    key,
				"value":  value,
				"path":   config.GlobalConfigPath(),
				"status": "set",
			},
				output.WithSummary(fmt.Sprintf("Set %s = %v", key, value)),
				output.WithBreadcrumbs(output.Breadcrumb{
					Action: "show", Cmd: "mindtalk config show", Description: "View config",
				}),
			)
		},
	}
}

func newConfigUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Unset a configuration value",
		Long:  "Remove a value from the global config file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFor(cmd)
			if err != nil {
				return err
			}

			key := args[0]
			found, err := config.UnsetGlobal(key)
			if err != nil {
				return err
			}
			if !found {
				return app.OK(map[string]any{
					"key":    key,
					"status": "not_set",
				}, output.WithSummary("Key not set: "+key))
			}

			return app.OK(map[string]any{
				"key":    key,
				"status": "unset",
			}, output.WithSummary("Unset "+key))
		},
	}
}
