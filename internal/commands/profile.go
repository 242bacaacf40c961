package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/foliohq/folio-cli/internal/dateparse"
	"github.com/foliohq/folio-cli/internal/models"
	"github.com/foliohq/folio-cli/internal/output"
	"github.com/foliohq/folio-cli/internal/presenter"
)

// NewProfileCmd creates the profile command group.
func NewProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your professional profile",
	}

	cmd.AddCommand(
		newProfileGetCmd(),
		newProfileUpdateCmd(),
		newExperienceCmd(),
		newSkillCmd(),
	)
	return cmd
}

func newProfileGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get",
		Aliases: []string{"show", "me"},
		Short:   "Show your profile",
		RunE:    runProfileGet,
	}
}

// NewMeCmd is the top-level shorthand for `profile get`.
func NewMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show your profile",
		RunE:  runProfileGet,
	}
}

func runProfileGet(cmd *cobra.Command, args []string) error {
	app, err := appFrom(cmd)
	if err != nil {
		return err
	}

	profile, err := app.Client.Me(cmd.Context())
	if err != nil {
		return err
	}

	return app.Present(presenter.ToMap(profile), "profile", profile)
}

func newProfileUpdateCmd() *cobra.Command {
	var update models.ProfileUpdate

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		Long:  "Update one or more profile fields. Only the flags you pass are changed; an explicitly empty value clears the field.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			// Only flags the user actually passed go on the wire.
			bind := func(name string, dst **string) {
				if cmd.Flags().Changed(name) {
					v, _ := cmd.Flags().GetString(name)
					*dst = &v
				}
			}
			bind("headline", &update.Headline)
			bind("summary", &update.Summary)
			bind("location", &update.Location)
			bind("website", &update.Website)
			bind("visibility", &update.Visibility)

			if update == (models.ProfileUpdate{}) {
				return output.ErrUsageHint("nothing to update", "pass at least one of --headline, --summary, --location, --website, --visibility")
			}
			if update.Visibility != nil && *update.Visibility != "public" && *update.Visibility != "private" {
				return output.ErrUsage("--visibility must be 'public' or 'private'")
			}

			profile, err := app.Client.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return err
			}

			return app.Present(presenter.ToMap(profile), "profile", profile,
				output.WithSummary("Profile updated"))
		},
	}

	cmd.Flags().String("headline", "", "Professional headline")
	cmd.Flags().String("summary", "", "Profile summary")
	cmd.Flags().String("location", "", "Location")
	cmd.Flags().String("website", "", "Website URL")
	cmd.Flags().String("visibility", "", "Profile visibility: public or private")
	return cmd
}

func newExperienceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "experience",
		Aliases: []string{"exp"},
		Short:   "Manage employment entries",
	}
	cmd.AddCommand(newExperienceAddCmd(), newExperienceRemoveCmd())
	return cmd
}

func newExperienceAddCmd() *cobra.Command {
	var exp models.Experience

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an employment entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if exp.Title == "" || exp.Company == "" {
				return output.ErrUsage("--title and --company are required")
			}

			// Dates arrive in resume shorthand ("jan 2020", "2019", "present").
			if !dateparse.IsValid(exp.StartDate) {
				return output.ErrUsage("unrecognized --start date: " + exp.StartDate)
			}
			if !dateparse.IsValid(exp.EndDate) {
				return output.ErrUsage("unrecognized --end date: " + exp.EndDate)
			}
			exp.StartDate = dateparse.Parse(exp.StartDate)
			exp.EndDate = dateparse.Parse(exp.EndDate)

			created, err := app.Client.AddExperience(cmd.Context(), exp)
			if err != nil {
				return err
			}

			return app.Present(presenter.ToMap(created), "experience", created,
				output.WithSummary("Added %s at %s", created.Title, created.Company))
		},
	}

	cmd.Flags().StringVar(&exp.Title, "title", "", "Job title")
	cmd.Flags().StringVar(&exp.Company, "company", "", "Company name")
	cmd.Flags().StringVar(&exp.Location, "location", "", "Location")
	cmd.Flags().StringVar(&exp.StartDate, "start", "", "Start date (YYYY-MM-DD, 'jan 2020', '2019')")
	cmd.Flags().StringVar(&exp.EndDate, "end", "", "End date (same formats, or 'present' for a current role)")
	cmd.Flags().StringVar(&exp.Description, "description", "", "Role description")
	return cmd
}

func newExperienceRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an employment entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if err := app.Client.RemoveExperience(cmd.Context(), args[0]); err != nil {
				if e := output.AsError(err); e.Code == output.CodeNotFound {
					return output.ErrNotFound("experience", args[0])
				}
				return err
			}

			return app.OK(map[string]string{
				"status": "removed",
				"id":     args[0],
			}, output.WithSummary("Removed experience %s", args[0]))
		},
	}
}

func newSkillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skill",
		Short: "Manage profile skills",
	}
	cmd.AddCommand(newSkillAddCmd(), newSkillRemoveCmd())
	return cmd
}

func newSkillAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a skill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			name := strings.TrimSpace(args[0])
			if name == "" {
				return output.ErrUsage("skill name must not be empty")
			}

			profile, err := app.Client.AddSkill(cmd.Context(), name)
			if err != nil {
				return err
			}

			return app.OK(profile.Skills, output.WithSummary("Added skill %q", name))
		},
	}
}

func newSkillRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a skill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if err := app.Client.RemoveSkill(cmd.Context(), args[0]); err != nil {
				if e := output.AsError(err); e.Code == output.CodeNotFound {
					return output.ErrNotFound("skill", args[0])
				}
				return err
			}

			return app.OK(map[string]string{
				"status": "removed",
				"skill":  args[0],
			}, output.WithSummary("Removed skill %q", args[0]))
		},
	}
}
