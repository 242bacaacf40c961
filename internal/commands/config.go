package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/foliohq/folio-cli/internal/config"
	"github.com/foliohq/folio-cli/internal/output"
)

// NewConfigCmd creates the config command group.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage folio configuration",
		Long:  "Show and change persisted configuration in " + config.GlobalConfigDir() + ".",
	}

	cmd.AddCommand(newConfigShowCmd(), newConfigSetCmd(), newConfigUnsetCmd(), newConfigInitCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show resolved configuration",
		Long:  "Show the resolved configuration and where each value came from.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			return app.OK(map[string]any{
				"base_url":     app.Config.BaseURL,
				"format":       app.Config.Format,
				"state_dir":    app.Config.StateDir,
				"poll_seconds": app.Config.PollSeconds,
				"sources":      app.Config.Sources,
			})
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist a configuration value",
		Long:  "Persist a configuration value. Settable keys: " + strings.Join(config.SettableKeys(), ", ") + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			key, value := args[0], args[1]
			if err := config.Set(key, value); err != nil {
				return err
			}

			return app.OK(map[string]string{
				"key":   key,
				"value": value,
			}, output.WithSummary("Set %s = %s", key, value))
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the config file with defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			path, created, err := config.Init()
			if err != nil {
				return err
			}

			summary := "Config file already exists: " + path
			if created {
				summary = "Created " + path
			}
			return app.OK(map[string]any{
				"path":    path,
				"created": created,
			}, output.WithSummary("%s", summary))
		},
	}
}

func newConfigUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a persisted configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if err := config.Unset(args[0]); err != nil {
				return err
			}

			return app.OK(map[string]string{
				"key": args[0],
			}, output.WithSummary("Unset %s", args[0]))
		},
	}
}
