package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cctools/cctest/internal/cli/shared"
	"github.com/cctools/cctest/internal/workspace"
)

func TestCacheImport(t *testing.T) {
	e := newTestEnv(t)
	app := e.file(t, "build.ccz", "package-v1")
	restore := e.file(t, "restore.xml", "<OpenRosaResponse/>")

	out, err := e.execute("cache", "import", "--domain", "demo", "--app-id", "abc",
		"--app", app, "--name", "Intake", "--version", "7", "--username", "nurse", "--restore", restore)
	require.NoError(t, err)
	assert.Contains(t, out, "Cached application demo/abc")
	assert.Contains(t, out, "Cached restore for nurse")

	ws := workspace.NewManager(e.workspaceDir)
	data, err := os.ReadFile(ws.AppPath("demo", "abc"))
	require.NoError(t, err)
	assert.Equal(t, "package-v1", string(data))
	_, err = os.Stat(ws.RestorePath("demo", "abc", "nurse"))
	require.NoError(t, err)

	info, err := ws.LoadAppInfo("demo", "abc")
	require.NoError(t, err)
	assert.Equal(t, "Intake", info.Name)
	assert.Equal(t, 7, info.Version)
	assert.NotNil(t, info.DownloadedAt)

	require.NoError(t, os.WriteFile(app, []byte("package-v2"), 0o644))
	out, err = e.execute("cache", "import", "--domain", "demo", "--app-id", "abc", "--app", app)
	require.NoError(t, err)
	assert.Contains(t, out, "already cached")
	data, _ = os.ReadFile(ws.AppPath("demo", "abc"))
	assert.Equal(t, "package-v1", string(data))

	_, err = e.execute("cache", "import", "--domain", "demo", "--app-id", "abc", "--app", app, "--force")
	require.NoError(t, err)
	data, _ = os.ReadFile(ws.AppPath("demo", "abc"))
	assert.Equal(t, "package-v2", string(data))
}

func TestCacheImport_ArgumentErrors(t *testing.T) {
	tests := map[string][]string{
		"no identifiers":       {"cache", "import", "--app", "x.ccz"},
		"nothing to import":    {"cache", "import", "--domain", "d", "--app-id", "a"},
		"restore without user": {"cache", "import", "--domain", "d", "--app-id", "a", "--restore", "r.xml"},
		"missing source":       {"cache", "import", "--domain", "d", "--app-id", "a", "--app", "/does/not/exist.ccz"},
		"app id escapes cache": {"cache", "import", "--domain", "d", "--app-id", "../a", "--app", "x.ccz"},
	}

	for name, args := range tests {
		args := args
		t.Run(name, func(t *testing.T) {
			e := newTestEnv(t)
			_, err := e.execute(args...)
			require.Error(t, err)
			assert.Equal(t, shared.ExitInvalid, shared.ExitCode(err))
		})
	}
}

func TestCacheList(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.execute("cache", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No cached applications")

	app := e.file(t, "build.ccz", "pkg")
	_, err = e.execute("cache", "import", "--domain", "demo", "--app-id", "abc", "--app", app, "--name", "Intake")
	require.NoError(t, err)

	out, err = e.execute("cache", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "demo")
	assert.Contains(t, out, "Intake")
	assert.Contains(t, out, "cached")
}
