package fixtures

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/cctools/cctest/internal/cli/shared"
	"github.com/cctools/cctest/internal/config"
	"github.com/cctools/cctest/internal/engine"
)

const formXML = `<?xml version='1.0' ?><data xmlns="http://openrosa.org/formdesigner/ABC"><name>Jane</name></data>`

const completedOutput = "Form Start\n" + formXML + "\nForm complete\n"

const intakeFixture = `name: intake
domain: demo
app_id: abc
username: nurse
navigation: [1]
answers:
  /data/name: Jane
`

// testEnv is an isolated home, config, workspace and state directory.
type testEnv struct {
	dir        string
	configPath string
	stateDir   string
	app        string
	restore    string
}

// newTestEnv must not be used from parallel tests: it sets HOME.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	e := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.json"),
		stateDir:   filepath.Join(dir, "state"),
		app:        touch(t, dir, "app.ccz"),
		restore:    touch(t, dir, "restore.xml"),
	}
	jar := touch(t, dir, "commcare-cli.jar")

	cfg := fmt.Sprintf(`{
  "cli_jar": %q,
  "workspace_dir": %q,
  "state_dir": %q,
  "grace_period": 0,
  "show_progress": false
}`, jar, filepath.Join(dir, "workspace"), e.stateDir)
	require.NoError(t, os.WriteFile(e.configPath, []byte(cfg), 0o644))
	return e
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

// fixture writes a fixture file and returns its path.
func (e *testEnv) fixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the fixture commands under a fresh root command.
func (e *testEnv) execute(args ...string) (stdout, stderr string, err error) {
	root := &cobra.Command{Use: "cctest", SilenceErrors: true}
	shared.AddGroups(root)
	shared.AddGlobalFlags(root)
	Register(root)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--config", e.configPath))
	err = root.Execute()
	return out.String(), errOut.String(), err
}

// useLauncher swaps the engine launcher for the duration of the test.
func useLauncher(t *testing.T, l engine.Launcher) {
	t.Helper()
	orig := launcherFor
	launcherFor = func(context.Context, *config.Configuration) (engine.Launcher, error) {
		return l, nil
	}
	t.Cleanup(func() { launcherFor = orig })
}
