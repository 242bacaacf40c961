// Package appctx provides the shared application context for all commands.
package appctx

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/foliohq/folio-cli/internal/api"
	"github.com/foliohq/folio-cli/internal/auth"
	"github.com/foliohq/folio-cli/internal/config"
	"github.com/foliohq/folio-cli/internal/observability"
	"github.com/foliohq/folio-cli/internal/output"
	"github.com/foliohq/folio-cli/internal/presenter"
)

type contextKey string

const appKey contextKey = "app"

// App holds the shared application state commands operate on.
type App struct {
	Config *config.Config
	Creds  *auth.Store
	Client *api.Client
	Output *output.Writer
	Locale presenter.Locale

	Collector *observability.SessionCollector
	Hooks     *observability.CLIHooks

	// Flags holds the global flag values.
	Flags GlobalFlags

	sessionExpired atomic.Bool
}

// SessionExpired reports whether the API client gave up on the stored
// session during this invocation.
func (a *App) SessionExpired() bool {
	return a.sessionExpired.Load()
}

// GlobalFlags holds values for global CLI flags.
type GlobalFlags struct {
	JSON   bool
	Quiet  bool
	JQ     string
	Format string

	BaseURL  string
	StateDir string

	Verbose int // 0=off, 1=operations, 2=operations+requests
	Stats   bool
}

// NewApp wires the credential store, API client, and observability for one
// CLI invocation. The collector always runs; the -v flags only control what
// gets printed.
func NewApp(cfg *config.Config) *App {
	creds := auth.NewStore(cfg.StateDir)

	collector := observability.NewSessionCollector()
	hooks := observability.NewCLIHooks(0, collector, observability.NewTraceWriter())

	app := &App{
		Config:    cfg,
		Creds:     creds,
		Locale:    presenter.DetectLocale(),
		Collector: collector,
		Hooks:     hooks,
	}

	app.Client = api.NewClient(cfg, creds,
		api.WithHooks(hooks),
		api.WithSessionExpiredHandler(func(error) {
			app.sessionExpired.Store(true)
		}),
	)

	format := output.FormatAuto
	switch cfg.Format {
	case "json":
		format = output.FormatJSON
	case "text":
		format = output.FormatText
	case "quiet":
		format = output.FormatQuiet
	}
	app.Output = output.New(output.Options{
		Format: format,
		Writer: os.Stdout,
	})

	return app
}

// ApplyFlags applies global flag values after parsing. Flag-driven format
// selection wins over the config file; specific modes first.
func (a *App) ApplyFlags() {
	if a.Flags.Quiet {
		a.Output = output.New(output.Options{
			Format: output.FormatQuiet,
			Writer: os.Stdout,
			JQ:     a.Flags.JQ,
		})
	} else if a.Flags.JSON {
		a.Output = output.New(output.Options{
			Format: output.FormatJSON,
			Writer: os.Stdout,
			JQ:     a.Flags.JQ,
		})
	} else if a.Flags.JQ != "" {
		// A filter implies machine consumption.
		a.Output = output.New(output.Options{
			Format: output.FormatJSON,
			Writer: os.Stdout,
			JQ:     a.Flags.JQ,
		})
	}

	level := a.Flags.Verbose
	if debugEnv := os.Getenv("FOLIO_DEBUG"); debugEnv != "" {
		if n, err := strconv.Atoi(debugEnv); err == nil {
			if n > level {
				level = n
			}
		} else if debugEnv == "true" {
			level = 2
		}
	}
	if a.Hooks != nil {
		a.Hooks.SetLevel(level)
	}
	if level > 0 {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
}

// OK outputs a success response, appending session stats when --stats is set.
func (a *App) OK(data any, opts ...output.ResponseOption) error {
	if a.Flags.Stats && a.Collector != nil {
		opts = append(opts, output.WithMeta("stats", a.Collector.Snapshot()))
	}
	return a.Output.OK(data, opts...)
}

// Err outputs an error response.
func (a *App) Err(err error) error {
	return a.Output.Err(err)
}

// Present renders data through its entity schema when text output is active,
// falling back to the generic envelope otherwise.
func (a *App) Present(data any, entityHint string, jsonData any, opts ...output.ResponseOption) error {
	if a.IsInteractive() && a.Flags.JQ == "" {
		var buf strings.Builder
		if presenter.PresentWithLocale(&buf, data, entityHint, a.Locale) {
			return a.Output.Text(strings.TrimRight(buf.String(), "\n"), jsonData, opts...)
		}
	}
	return a.OK(jsonData, opts...)
}

// IsInteractive reports whether styled text output is appropriate.
func (a *App) IsInteractive() bool {
	if a.Flags.JSON || a.Flags.Quiet {
		return false
	}
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// WithApp stores the app in the context.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey, app)
}

// FromContext retrieves the app from the context.
func FromContext(ctx context.Context) *App {
	app, _ := ctx.Value(appKey).(*App)
	return app
}
