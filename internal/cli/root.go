// Package cli wires the cobra command tree and global flags.
package cli

import (
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/foliohq/folio-cli/internal/appctx"
	"github.com/foliohq/folio-cli/internal/commands"
	"github.com/foliohq/folio-cli/internal/config"
	"github.com/foliohq/folio-cli/internal/output"
	"github.com/foliohq/folio-cli/internal/version"
)

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	var flags appctx.GlobalFlags

	cmd := &cobra.Command{
		Use:           "folio",
		Short:         "Command-line interface for Folio",
		Long:          "folio manages your professional profile, experience entries, and notifications from the terminal.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}

			if err := validateFormat(flags.Format); err != nil {
				return err
			}

			cfg, err := config.Load(config.FlagOverrides{
				BaseURL:  flags.BaseURL,
				Format:   flags.Format,
				StateDir: flags.StateDir,
			})
			if err != nil {
				return err
			}

			resolveVerbose(cmd, cfg, &flags)

			app := appctx.NewApp(cfg)
			app.Flags = flags
			app.ApplyFlags()

			// Restore a persisted session before commands that talk to the
			// API. A missing or dead session leaves the app anonymous;
			// protected commands surface that as a 401, auth commands do
			// not care. Commands on local state skip the network entirely.
			if !isLocalCommand(cmd) {
				app.Client.Bootstrap(cmd.Context())
			}

			cmd.SetContext(appctx.WithApp(cmd.Context(), app))
			return nil
		},
	}

	cmd.Flags().SetInterspersed(true)
	cmd.PersistentFlags().SetInterspersed(true)

	cmd.PersistentFlags().BoolVarP(&flags.JSON, "json", "j", false, "Output as JSON")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Output data only, no envelope")
	cmd.PersistentFlags().StringVar(&flags.JQ, "jq", "", "Filter output data with a jq expression")
	cmd.PersistentFlags().StringVar(&flags.Format, "format", "", "Output format (auto, json, text, quiet)")

	cmd.PersistentFlags().StringVar(&flags.BaseURL, "base-url", "", "Folio API base URL")
	cmd.PersistentFlags().StringVar(&flags.StateDir, "state-dir", "", "Directory for persisted credentials")

	cmd.PersistentFlags().CountVarP(&flags.Verbose, "verbose", "v", "Verbose output (-v for ops, -vv for requests)")
	cmd.PersistentFlags().BoolVar(&flags.Stats, "stats", false, "Show session statistics")

	return cmd
}

// Execute runs the root command and exits with the mapped error code.
func Execute() {
	cmd := NewRootCmd()

	cmd.AddCommand(commands.NewAuthCmd())
	cmd.AddCommand(commands.NewProfileCmd())
	cmd.AddCommand(commands.NewMeCmd())
	cmd.AddCommand(commands.NewDashboardCmd())
	cmd.AddCommand(commands.NewNotificationsCmd())
	cmd.AddCommand(commands.NewConfigCmd())
	cmd.AddCommand(commands.NewCommandsCmd())

	executedCmd, err := cmd.ExecuteC()
	if err == nil {
		return
	}

	err = transformCobraError(err)
	apiErr := output.AsError(err)

	if app := appctx.FromContext(executedCmd.Context()); app != nil {
		if app.SessionExpired() && apiErr.Code == output.CodeAuth {
			apiErr = output.ErrSessionExpired(err)
			err = apiErr
		}
		_ = app.Err(err)
		os.Exit(apiErr.ExitCode())
	}

	// App not available (setup failed before PersistentPreRunE finished).
	format := output.FormatAuto
	pf := cmd.PersistentFlags()
	if quiet, _ := pf.GetBool("quiet"); quiet {
		format = output.FormatQuiet
	} else if jsonFlag, _ := pf.GetBool("json"); jsonFlag {
		format = output.FormatJSON
	}
	writer := output.New(output.Options{Format: format, Writer: os.Stdout})
	_ = writer.Err(err)
	os.Exit(apiErr.ExitCode())
}

// isLocalCommand reports whether the invoked command works purely on local
// state, so startup skips restoring the session over the network.
func isLocalCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "config", "commands":
			return true
		}
	}
	return false
}

func validateFormat(format string) error {
	switch format {
	case "", "auto", "json", "text", "quiet":
		return nil
	}
	return output.ErrUsage("--format must be one of auto, json, text, quiet")
}

// resolveVerbose lets a persisted verbose preference apply when the user did
// not pass -v explicitly. An explicit flag always wins.
func resolveVerbose(cmd *cobra.Command, cfg *config.Config, flags *appctx.GlobalFlags) {
	if !cmd.Flags().Changed("verbose") && cfg.Verbose != nil {
		flags.Verbose = *cfg.Verbose
	}
}

var shorthandFlagRe = regexp.MustCompile(`unknown shorthand flag: '.' in (-\w)`)

// transformCobraError maps cobra's parse errors onto the usage error code so
// they exit with the right status and envelope.
func transformCobraError(err error) error {
	msg := err.Error()

	if strings.HasPrefix(msg, "flag needs an argument: ") {
		flag := strings.TrimPrefix(msg, "flag needs an argument: ")
		return output.ErrUsage(flag + " requires a value")
	}
	if strings.HasPrefix(msg, "unknown flag: ") {
		return output.ErrUsage("unknown option: " + strings.TrimPrefix(msg, "unknown flag: "))
	}
	if matches := shorthandFlagRe.FindStringSubmatch(msg); len(matches) > 1 {
		return output.ErrUsage("unknown option: " + matches[1])
	}
	if strings.Contains(msg, "invalid argument") {
		return output.ErrUsage(msg)
	}
	if strings.Contains(msg, "arg(s), received") || strings.Contains(msg, "requires at least") {
		return output.ErrUsage(msg)
	}
	if strings.HasPrefix(msg, "unknown command ") {
		return output.ErrUsageHint(msg, "run 'folio --help' for available commands")
	}
	return err
}
