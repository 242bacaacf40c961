package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/foliohq/folio-cli/internal/appctx"
	"github.com/foliohq/folio-cli/internal/auth"
	"github.com/foliohq/folio-cli/internal/models"
	"github.com/foliohq/folio-cli/internal/output"
	"github.com/foliohq/folio-cli/internal/presenter"
)

// NewNotificationsCmd creates the notifications command group.
func NewNotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notifs"},
		Short:   "View profile notifications",
	}

	cmd.AddCommand(newNotificationsListCmd(), newNotificationsFollowCmd())
	return cmd
}

func newNotificationsListCmd() *cobra.Command {
	var unreadOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			notifications, err := app.Client.Notifications(cmd.Context(), unreadOnly)
			if err != nil {
				return err
			}

			if len(notifications) == 0 {
				return app.OK(notifications, output.WithSummary("No notifications"))
			}
			return app.Present(presenter.ToMaps(notifications), "notification", notifications,
				output.WithSummary("%d notifications", len(notifications)))
		},
	}

	cmd.Flags().BoolVarP(&unreadOnly, "unread", "u", false, "Only unread notifications")
	return cmd
}

func newNotificationsFollowCmd() *cobra.Command {
	var interval int

	cmd := &cobra.Command{
		Use:   "follow",
		Short: "Stream notifications as they arrive",
		Long:  "Poll the notification channel and print new entries until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if interval <= 0 {
				interval = app.Config.PollSeconds
			}
			if interval <= 0 {
				interval = 15
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Pick up credential rotations by other folio processes so a
			// long-lived follow does not keep polling with a dead token.
			if watch, err := app.Creds.Watch(ctx); err == nil {
				go func() {
					for range watch {
					}
				}()
			} else if !errors.Is(err, auth.ErrWatchUnsupported) {
				fmt.Fprintf(os.Stderr, "folio: credential watch unavailable: %v\n", err)
			}

			return followNotifications(ctx, app, time.Duration(interval)*time.Second)
		},
	}

	cmd.Flags().IntVar(&interval, "interval", 0, "Poll interval in seconds (default from config)")
	return cmd
}

func followNotifications(ctx context.Context, app *appctx.App, interval time.Duration) error {
	cursor := ""

	poll := func() error {
		events, next, err := app.Client.NotificationEvents(ctx, cursor)
		if err != nil {
			return err
		}
		if next != "" {
			cursor = next
		}
		for _, n := range events {
			printNotification(app, n)
		}
		return nil
	}

	if err := poll(); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := poll(); err != nil {
				// A flaky network should not kill the stream; anything
				// else (expired session, server rejection) should.
				if output.AsError(err).Code == output.CodeNetwork {
					fmt.Fprintf(os.Stderr, "folio: poll failed: %v\n", err)
					continue
				}
				return err
			}
		}
	}
}

func printNotification(app *appctx.App, n models.Notification) {
	if app.IsInteractive() {
		when := presenter.FormatField(presenter.FieldSpec{Format: "relative_time"}, n.CreatedAt, app.Locale)
		fmt.Printf("[%s] %s (%s)\n", n.Kind, n.Message, when)
		return
	}
	_ = app.Output.OK(n)
}
