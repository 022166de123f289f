package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronov/goalkeeper/internal/client/engine"
	"github.com/avoronov/goalkeeper/internal/client/iocli"
	"github.com/avoronov/goalkeeper/internal/server"
	serverauth "github.com/avoronov/goalkeeper/internal/server/auth"
	"github.com/avoronov/goalkeeper/internal/server/storage/sqlite"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	router := server.NewRouter(server.Deps{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Users:   store,
		Tokens:  store,
		Objects: store,
		Issuer:  serverauth.NewTokenService("test-secret", 15*time.Minute, time.Hour),
		Version: "test",
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, serverURL string, out *strings.Builder) *App {
	t.Helper()
	eng, err := engine.New(context.Background(), engine.Config{
		ServerURL:    serverURL,
		DBPath:       filepath.Join(t.TempDir(), "client.db"),
		PullInterval: time.Hour,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	return &App{
		engine: eng,
		io: &iocli.IOMock{
			PrintfFunc:  func(format string, a ...any) { fmt.Fprintf(out, format, a...) },
			PrintlnFunc: func(a ...any) { fmt.Fprintln(out, a...) },
			WriteFunc:   out.Write,
		},
	}
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

func (a *App) withCredentials(username, password string) {
	mock := a.io.(*iocli.IOMock)
	mock.ReadInputFunc = func(string) (string, error) { return username, nil }
	mock.ReadPasswordFunc = func(string) (string, error) { return password, nil }
}

func TestCommandsRequireLogin(t *testing.T) {
	var out strings.Builder
	app := newTestApp(t, "http://localhost:1", &out)

	err := execute(t, app.goalCommand(), "add", "Run a marathon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestRegisterLoginAndGoalFlow(t *testing.T) {
	srv := newTestServer(t)
	var out strings.Builder
	app := newTestApp(t, srv.URL, &out)
	app.withCredentials("alice_smith", "long-enough-password")

	require.NoError(t, execute(t, app.registerCommand()))
	require.NoError(t, execute(t, app.loginCommand()))
	assert.Contains(t, out.String(), "Logged in as alice_smith")

	require.NoError(t, execute(t, app.goalCommand(), "add", "Run a marathon"))

	out.Reset()
	require.NoError(t, execute(t, app.goalCommand(), "list"))
	assert.Contains(t, out.String(), "Run a marathon")
	assert.Contains(t, out.String(), "not_started")
}

func TestTaskLifecycleCommands(t *testing.T) {
	srv := newTestServer(t)
	var out strings.Builder
	app := newTestApp(t, srv.URL, &out)
	app.withCredentials("bob_jones", "long-enough-password")

	require.NoError(t, execute(t, app.registerCommand()))
	require.NoError(t, execute(t, app.loginCommand()))

	require.NoError(t, execute(t, app.taskCommand(), "add", "Buy running shoes"))

	ctx := context.Background()
	owner := app.engine.OwnerID(ctx)
	tasks, err := app.engine.Tasks.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	out.Reset()
	require.NoError(t, execute(t, app.taskCommand(), "complete", tasks[0].ID))
	assert.Contains(t, out.String(), `Task "Buy running shoes" completed`)

	require.NoError(t, execute(t, app.taskCommand(), "delete", tasks[0].ID))
	tasks, err = app.engine.Tasks.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestAreaSetDefaultCommand(t *testing.T) {
	srv := newTestServer(t)
	var out strings.Builder
	app := newTestApp(t, srv.URL, &out)
	app.withCredentials("carol_white", "long-enough-password")

	require.NoError(t, execute(t, app.registerCommand()))
	require.NoError(t, execute(t, app.loginCommand()))

	require.NoError(t, execute(t, app.areaCommand(), "add", "Health"))
	require.NoError(t, execute(t, app.areaCommand(), "add", "Career"))

	ctx := context.Background()
	owner := app.engine.OwnerID(ctx)
	areas, err := app.engine.LifeAreas.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, areas, 2)

	require.NoError(t, execute(t, app.areaCommand(), "set-default", areas[1].ID))

	out.Reset()
	require.NoError(t, execute(t, app.areaCommand(), "list"))
	assert.Contains(t, out.String(), "* "+areas[1].ID)
}

func TestStatusCommandLoggedOut(t *testing.T) {
	var out strings.Builder
	app := newTestApp(t, "http://localhost:1", &out)

	require.NoError(t, execute(t, app.statusCommand()))
	assert.Contains(t, out.String(), "not logged in")
	assert.Contains(t, out.String(), "Pending operations: 0")
}

func TestRegisterRejectsPasswordMismatch(t *testing.T) {
	var out strings.Builder
	app := newTestApp(t, "http://localhost:1", &out)

	passwords := []string{"first-password", "second-password"}
	mock := app.io.(*iocli.IOMock)
	mock.ReadInputFunc = func(string) (string, error) { return "dave_brown", nil }
	mock.ReadPasswordFunc = func(string) (string, error) {
		pw := passwords[0]
		passwords = passwords[1:]
		return pw, nil
	}

	err := execute(t, app.registerCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passwords do not match")
}

func TestSyncCommandPushesPendingWork(t *testing.T) {
	srv := newTestServer(t)
	var out strings.Builder
	app := newTestApp(t, srv.URL, &out)
	app.withCredentials("erin_green", "long-enough-password")

	require.NoError(t, execute(t, app.registerCommand()))
	require.NoError(t, execute(t, app.loginCommand()))
	require.NoError(t, execute(t, app.goalCommand(), "add", "Learn the piano"))

	out.Reset()
	require.NoError(t, execute(t, app.syncCommand()))
	assert.Contains(t, out.String(), "0 operation(s) still pending")
}
