// Package commands implements the CLI commands.
package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/foliohq/folio-cli/internal/appctx"
	"github.com/foliohq/folio-cli/internal/output"
)

// CommandInfo describes a CLI command.
type CommandInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Actions     []string `json:"actions,omitempty"`
}

// CommandCategory groups commands by category.
type CommandCategory struct {
	Name     string        `json:"name"`
	Commands []CommandInfo `json:"commands"`
}

func commandCategories() []CommandCategory {
	return []CommandCategory{
		{
			Name: "Session",
			Commands: []CommandInfo{
				{Name: "auth", Description: "Manage the login session", Actions: []string{"login", "logout", "register", "status", "refresh"}},
			},
		},
		{
			Name: "Profile",
			Commands: []CommandInfo{
				{Name: "profile", Description: "Manage your professional profile", Actions: []string{"get", "update", "experience", "skill"}},
				{Name: "me", Description: "Show your profile"},
			},
		},
		{
			Name: "Activity",
			Commands: []CommandInfo{
				{Name: "dashboard", Description: "Show profile completeness and recent activity"},
				{Name: "notifications", Description: "List or follow notifications", Actions: []string{"list", "follow"}},
			},
		},
		{
			Name: "Setup",
			Commands: []CommandInfo{
				{Name: "config", Description: "Manage folio configuration", Actions: []string{"show", "set", "unset", "init"}},
			},
		},
	}
}

// NewCommandsCmd creates the command catalog listing.
func NewCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "commands",
		Aliases: []string{"cmds"},
		Short:   "List all available commands",
		Long:    "List all available folio commands organized by category.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			return app.OK(commandCategories(),
				output.WithSummary("All available folio commands"))
		},
	}
}

// appFrom fetches the application context wired in by the root command.
func appFrom(cmd *cobra.Command) (*appctx.App, error) {
	app := appctx.FromContext(cmd.Context())
	if app == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	return app, nil
}

// readSecret prompts for a secret on the terminal without echo, falling back
// to a plain line read when stdin is not a terminal (piped input, tests).
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
