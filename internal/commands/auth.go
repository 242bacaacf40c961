package commands

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/foliohq/folio-cli/internal/api"
	"github.com/foliohq/folio-cli/internal/config"
	"github.com/foliohq/folio-cli/internal/output"
)

// NewAuthCmd creates the auth command group.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
		Long:  "Manage Folio authentication including login, logout, registration, and session status.",
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthRegisterCmd(),
		newAuthStatusCmd(),
		newAuthRefreshCmd(),
	)
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with Folio",
		Long:  "Log in with email and password. The access token is persisted for later invocations.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if email == "" {
				return output.ErrUsage("--email is required")
			}
			if password == "" {
				password, err = readSecret("Password: ")
				if err != nil {
					return output.ErrUsage("could not read password: " + err.Error())
				}
			}
			if password == "" {
				return output.ErrUsage("password must not be empty")
			}

			user, err := app.Client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			return app.OK(map[string]any{
				"authenticated": true,
				"user":          user,
			}, output.WithSummary("Logged in as %s", user.Email))
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long:  "Revoke the server session and remove the persisted credential.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			// The local credential is cleared even when the server call
			// fails; a dead session should not keep the user logged in.
			if err := app.Client.Logout(cmd.Context()); err != nil {
				e := output.AsError(err)
				if e.Code == output.CodeNetwork {
					return err
				}
			}

			return app.OK(map[string]string{
				"status": "logged_out",
			}, output.WithSummary("Logged out"))
		},
	}
}

func newAuthRegisterCmd() *cobra.Command {
	var params api.RegisterParams

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a Folio account",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if params.Email == "" {
				return output.ErrUsage("--email is required")
			}
			if params.Password == "" {
				params.Password, err = readSecret("Password: ")
				if err != nil {
					return output.ErrUsage("could not read password: " + err.Error())
				}
			}

			user, err := app.Client.Register(cmd.Context(), params)
			if err != nil {
				return err
			}

			return app.OK(user, output.WithSummary("Account created for %s, run 'folio auth login'", user.Email))
		},
	}

	cmd.Flags().StringVarP(&params.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVar(&params.Password, "password", "", "Account password (prompted when omitted)")
	cmd.Flags().StringVar(&params.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&params.LastName, "last-name", "", "Last name")
	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Long:  "Display whether a credential is held and what the token claims about itself.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			origin := config.NormalizeBaseURL(app.Config.BaseURL)
			token, ok := app.Creds.Get()
			if !ok {
				return app.OK(map[string]any{
					"authenticated": false,
					"origin":        origin,
				}, output.WithSummary("Not logged in"))
			}

			status := map[string]any{
				"authenticated": true,
				"origin":        origin,
			}
			summary := "Logged in"

			// The token is opaque to us for authorization purposes, but its
			// claims are still useful status display. No verification here;
			// the server is the authority.
			if claims := unverifiedClaims(token); claims != nil {
				if sub, err := claims.GetSubject(); err == nil && sub != "" {
					status["subject"] = sub
				}
				if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
					status["expires_at"] = exp.Format(time.RFC3339)
					if remaining := time.Until(exp.Time); remaining > 0 {
						summary = fmt.Sprintf("Logged in, token expires in %s", remaining.Round(time.Second))
					} else {
						summary = "Logged in, token expired (will refresh on next request)"
					}
				}
			}

			return app.OK(status, output.WithSummary("%s", summary))
		},
	}
}

func unverifiedClaims(token string) jwt.MapClaims {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}

func newAuthRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Force a credential refresh",
		Long:  "Exchange the session for a fresh access token without waiting for a request to fail.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if err := app.Client.Refresh(cmd.Context()); err != nil {
				return err
			}

			return app.OK(map[string]string{
				"status": "refreshed",
			}, output.WithSummary("Credential refreshed"))
		},
	}
}
