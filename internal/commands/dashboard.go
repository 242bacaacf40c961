package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/foliohq/folio-cli/internal/appctx"
	"github.com/foliohq/folio-cli/internal/models"
	"github.com/foliohq/folio-cli/internal/presenter"
)

// NewDashboardCmd creates the dashboard command.
func NewDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Show your profile dashboard",
		Long:    "Show profile completeness, recent profile views, and improvement suggestions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			dash, err := app.Client.Dashboard(cmd.Context())
			if err != nil {
				return err
			}

			if app.IsInteractive() && app.Flags.JQ == "" {
				return app.Output.Text(renderDashboard(app, dash), dash)
			}
			return app.OK(dash)
		},
	}
}

// renderDashboard composes the widgets into one text view. The completeness
// widget goes through its schema; views and suggestions are short enough to
// render inline.
func renderDashboard(app *appctx.App, dash *models.Dashboard) string {
	var b strings.Builder

	var widget strings.Builder
	if presenter.PresentWithLocale(&widget, presenter.ToMap(dash.Completeness), "completeness", app.Locale) {
		b.WriteString(widget.String())
	}

	if len(dash.RecentViews) > 0 {
		b.WriteString("Recent views\n")
		for _, view := range dash.RecentViews {
			name := view.ViewerName
			if name == "" {
				name = "Someone"
			}
			when := presenter.FormatField(presenter.FieldSpec{Format: "relative_time"}, view.ViewedAt, app.Locale)
			fmt.Fprintf(&b, "  %s viewed your profile %s\n", name, when)
		}
		b.WriteString("\n")
	}

	if len(dash.Suggestions) > 0 {
		b.WriteString("Suggestions\n")
		for _, s := range dash.Suggestions {
			fmt.Fprintf(&b, "  - %s\n", s.Message)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
