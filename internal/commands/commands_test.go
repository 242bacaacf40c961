package commands_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliohq/folio-cli/internal/appctx"
	"github.com/foliohq/folio-cli/internal/commands"
	"github.com/foliohq/folio-cli/internal/config"
	"github.com/foliohq/folio-cli/internal/foliotest"
	"github.com/foliohq/folio-cli/internal/output"
)

// newTestApp builds an app against the fake backend with quiet output
// captured in buf.
func newTestApp(t *testing.T, srv *foliotest.Server, buf *bytes.Buffer) *appctx.App {
	t.Helper()
	t.Setenv("FOLIO_NO_KEYRING", "1")
	cfg := &config.Config{
		BaseURL:     srv.URL,
		StateDir:    t.TempDir(),
		PollSeconds: 1,
		Sources:     map[string]string{},
	}
	app := appctx.NewApp(cfg)
	app.Flags.Quiet = true
	app.Output = output.New(output.Options{Format: output.FormatQuiet, Writer: buf})
	return app
}

func run(app *appctx.App, cmd *cobra.Command, args ...string) error {
	cmd.SetContext(appctx.WithApp(context.Background(), app))
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.Execute()
}

func login(t *testing.T, app *appctx.App) {
	t.Helper()
	var buf bytes.Buffer
	out := app.Output
	app.Output = output.New(output.Options{Format: output.FormatQuiet, Writer: &buf})
	require.NoError(t, run(app, commands.NewAuthCmd(),
		"login", "--email", foliotest.DefaultEmail, "--password", foliotest.DefaultPassword))
	app.Output = out
}

func TestAuthLoginAndStatus(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)

	require.NoError(t, run(app, commands.NewAuthCmd(),
		"login", "--email", foliotest.DefaultEmail, "--password", foliotest.DefaultPassword))
	assert.Contains(t, buf.String(), `"authenticated": true`)

	_, ok := app.Creds.Get()
	assert.True(t, ok, "login must persist a credential")

	buf.Reset()
	require.NoError(t, run(app, commands.NewAuthCmd(), "status"))
	assert.Contains(t, buf.String(), `"authenticated": true`)
	assert.Contains(t, buf.String(), `"subject": "user-1"`)
}

func TestAuthStatusLoggedOut(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)

	require.NoError(t, run(app, commands.NewAuthCmd(), "status"))
	assert.Contains(t, buf.String(), `"authenticated": false`)
}

func TestAuthLoginRequiresEmail(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)

	err := run(app, commands.NewAuthCmd(), "login")
	require.Error(t, err)
	assert.Equal(t, output.CodeUsage, output.AsError(err).Code)
}

func TestAuthLogout(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)
	login(t, app)

	require.NoError(t, run(app, commands.NewAuthCmd(), "logout"))
	_, ok := app.Creds.Get()
	assert.False(t, ok)
}

func TestAuthRefresh(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)

	require.NoError(t, run(app, commands.NewAuthCmd(), "refresh"))
	assert.Equal(t, 1, srv.RefreshCalls())
	token, ok := app.Creds.Get()
	require.True(t, ok)
	assert.Equal(t, srv.ValidToken(), token)
}

func TestProfileGet(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)
	login(t, app)

	require.NoError(t, run(app, commands.NewProfileCmd(), "get"))
	assert.Contains(t, buf.String(), "Distributed Systems Engineer")
}

func TestProfileUpdate(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)
	login(t, app)

	require.NoError(t, run(app, commands.NewProfileCmd(),
		"update", "--headline", "Staff Engineer"))
	assert.Contains(t, buf.String(), "Staff Engineer")
}

func TestProfileUpdateWithoutFlagsIsUsageError(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)
	login(t, app)

	err := run(app, commands.NewProfileCmd(), "update")
	require.Error(t, err)
	assert.Equal(t, output.CodeUsage, output.AsError(err).Code)
}

func TestProfileUpdateRejectsBadVisibility(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)
	login(t, app)

	err := run(app, commands.NewProfileCmd(), "update", "--visibility", "friends-only")
	require.Error(t, err)
	assert.Equal(t, output.CodeUsage, output.AsError(err).Code)
}

func TestProfileSkillAdd(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)
	login(t, app)

	require.NoError(t, run(app, commands.NewProfileCmd(), "skill", "add", "Kubernetes"))
	assert.Contains(t, buf.String(), "Kubernetes")
}

func TestProfileExperienceAddNormalizesDates(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)
	login(t, app)

	require.NoError(t, run(app, commands.NewProfileCmd(),
		"experience", "add",
		"--title", "Engineer", "--company", "Folio",
		"--start", "jan 2020", "--end", "present"))
	assert.Contains(t, buf.String(), `"start_date": "2020-01-01"`)
	assert.NotContains(t, buf.String(), `"end_date"`, "'present' means no end date")
}

func TestProfileExperienceAddRejectsBadDate(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)
	login(t, app)

	err := run(app, commands.NewProfileCmd(),
		"experience", "add",
		"--title", "Engineer", "--company", "Folio", "--start", "someday")
	require.Error(t, err)
	assert.Equal(t, output.CodeUsage, output.AsError(err).Code)
}

func TestDashboard(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)
	login(t, app)

	require.NoError(t, run(app, commands.NewDashboardCmd()))
	assert.Contains(t, buf.String(), `"percent": 70`)
}

func TestNotificationsList(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)
	login(t, app)

	require.NoError(t, run(app, commands.NewNotificationsCmd(), "list", "--unread"))
	assert.Contains(t, buf.String(), `"read": false`)
	assert.NotContains(t, buf.String(), `"read": true`)
}

func TestProtectedCommandWithoutSession(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)

	err := run(app, commands.NewProfileCmd(), "get")
	require.Error(t, err)
	assert.Equal(t, 401, output.AsError(err).HTTPStatus)
	assert.Equal(t, 0, srv.RefreshCalls(), "anonymous 401 must not trigger a refresh")
}

func TestConfigShow(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)

	require.NoError(t, run(app, commands.NewConfigCmd(), "show"))
	assert.Contains(t, buf.String(), srv.URL)
}

func TestConfigInit(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)

	require.NoError(t, run(app, commands.NewConfigCmd(), "init"))
	assert.Contains(t, buf.String(), `"created": true`)

	buf.Reset()
	require.NoError(t, run(app, commands.NewConfigCmd(), "init"))
	assert.Contains(t, buf.String(), `"created": false`)
}

func TestMeCommand(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)
	login(t, app)

	require.NoError(t, run(app, commands.NewMeCmd()))
	assert.Contains(t, buf.String(), "Distributed Systems Engineer")
}

func TestCommandsCatalog(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	var buf bytes.Buffer
	app := newTestApp(t, srv, &buf)

	require.NoError(t, run(app, commands.NewCommandsCmd()))
	assert.Contains(t, buf.String(), `"notifications"`)
	assert.Contains(t, buf.String(), `"auth"`)
}
