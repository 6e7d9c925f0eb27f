package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/cctools/cctest/internal/cli/shared"
)

type testEnv struct {
	dir          string
	configPath   string
	jar          string
	workspaceDir string
}

// newTestEnv sets HOME, so callers cannot run in parallel.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	e := &testEnv{
		dir:          dir,
		configPath:   filepath.Join(dir, "config.json"),
		jar:          filepath.Join(dir, "commcare-cli.jar"),
		workspaceDir: filepath.Join(dir, "workspace"),
	}
	require.NoError(t, os.WriteFile(e.jar, []byte("PK"), 0o644))

	cfg := fmt.Sprintf(`{"cli_jar": %q, "workspace_dir": %q, "state_dir": %q, "max_parallel": 2}`,
		e.jar, e.workspaceDir, filepath.Join(dir, "state"))
	require.NoError(t, os.WriteFile(e.configPath, []byte(cfg), 0o644))
	return e
}

func (e *testEnv) execute(args ...string) (string, error) {
	root := newRoot()
	root.SilenceErrors = true

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--config", e.configPath))
	err := root.Execute()
	return out.String(), err
}

func (e *testEnv) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newRoot() *cobra.Command {
	root := &cobra.Command{Use: "cctest"}
	shared.AddGroups(root)
	shared.AddGlobalFlags(root)
	Register(root)
	return root
}
