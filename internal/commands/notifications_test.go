package commands

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliohq/folio-cli/internal/appctx"
	"github.com/foliohq/folio-cli/internal/config"
	"github.com/foliohq/folio-cli/internal/foliotest"
	"github.com/foliohq/folio-cli/internal/models"
	"github.com/foliohq/folio-cli/internal/output"
)

// lockedBuffer collects output written from the follow goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newFollowApp builds a logged-in app whose output lands in the returned
// buffer, safe to read while followNotifications runs.
func newFollowApp(t *testing.T, srv *foliotest.Server) (*appctx.App, *lockedBuffer) {
	t.Helper()
	t.Setenv("FOLIO_NO_KEYRING", "1")

	cfg := &config.Config{
		BaseURL:  srv.URL,
		StateDir: t.TempDir(),
		Sources:  map[string]string{},
	}
	app := appctx.NewApp(cfg)
	app.Flags.Quiet = true
	buf := &lockedBuffer{}
	app.Output = output.New(output.Options{Format: output.FormatQuiet, Writer: buf})

	_, err := app.Client.Login(context.Background(), foliotest.DefaultEmail, foliotest.DefaultPassword)
	require.NoError(t, err)
	return app, buf
}

func TestFollowStreamsEventsAndAdvancesCursor(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	app, buf := newFollowApp(t, srv)

	srv.PushEvent(models.Notification{ID: "n1", Kind: "view", Message: "Someone viewed your profile", CreatedAt: "2026-08-30T10:00:00Z"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- followNotifications(ctx, app, 25*time.Millisecond) }()

	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), `"n1"`)
	}, 2*time.Second, 10*time.Millisecond, "first poll must deliver the queued event")

	srv.PushEvent(models.Notification{ID: "n2", Kind: "suggestion", Message: "Add a summary", CreatedAt: "2026-08-30T10:01:00Z"})

	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), `"n2"`)
	}, 2*time.Second, 10*time.Millisecond, "later polls must deliver new events")

	cancel()
	require.NoError(t, <-done, "interruption is a clean stop")

	var paths []string
	for _, rec := range srv.AuthRecords() {
		paths = append(paths, rec.Path)
	}
	assert.Contains(t, paths, "/notifications/events",
		"first poll starts without a cursor")
	assert.Contains(t, paths, "/notifications/events?cursor=cursor-n1",
		"polls after the first batch resume from its cursor")

	cred, ok := app.Creds.Get()
	require.True(t, ok)
	records := srv.AuthRecords()
	require.NotEmpty(t, records)
	assert.Equal(t, cred, foliotest.BearerOf(records[0].Authorization),
		"polls carry the session credential")
}

func TestFollowSurvivesTransportFailures(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	app, _ := newFollowApp(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- followNotifications(ctx, app, 25*time.Millisecond) }()

	require.Eventually(t, func() bool {
		return len(srv.AuthRecords()) > 0
	}, 2*time.Second, 10*time.Millisecond)

	// Kill the backend; the stream should keep ticking through the
	// connection errors until interrupted.
	srv.Close()
	time.Sleep(100 * time.Millisecond)

	select {
	case err := <-done:
		t.Fatalf("follow stopped on a transport failure: %v", err)
	default:
	}

	cancel()
	require.NoError(t, <-done)
}

func TestFollowStopsWhenSessionDies(t *testing.T) {
	srv := foliotest.New()
	defer srv.Close()

	app, _ := newFollowApp(t, srv)

	ctx := context.Background()
	done := make(chan error, 1)
	go func() { done <- followNotifications(ctx, app, 25*time.Millisecond) }()

	require.Eventually(t, func() bool {
		return len(srv.AuthRecords()) > 0
	}, 2*time.Second, 10*time.Millisecond)

	srv.SetValidToken("rotated-away")
	srv.FailRefresh(http.StatusUnauthorized)

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, output.CodeAuth, output.AsError(err).Code,
			"a dead session ends the stream with an auth failure")
	case <-time.After(3 * time.Second):
		t.Fatal("follow kept polling after the session died")
	}
}
