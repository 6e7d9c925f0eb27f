package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cctools/cctest/internal/notify"
)

// isolate points HOME at an empty directory so the developer's global
// config does not leak into tests.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	return home
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".cctest"), cfg.WorkspaceDir)
	assert.Equal(t, filepath.Join(home, ".cctest", "state"), cfg.StateDir)
	assert.Equal(t, 120*time.Second, cfg.Timeout())
	assert.Equal(t, 5*time.Second, cfg.Grace())
	assert.Equal(t, 4, cfg.MaxParallel)
	assert.Equal(t, 500, cfg.MaxHistory)
	assert.Equal(t, 10, cfg.TrailingBlankLines)
	assert.True(t, cfg.ShowProgress)
	assert.Empty(t, cfg.JavaCmd)
}

func TestLoad_Precedence(t *testing.T) {
	home := isolate(t)

	writeConfig(t, filepath.Join(home, ".cctest", "config.json"), `{"cli_jar": "/opt/global.jar", "max_parallel": 2, "default_timeout": 60}`)
	local := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, local, `{"max_parallel": 3}`)
	t.Setenv("CCTEST_DEFAULT_TIMEOUT", "30")

	cfg, err := Load(local)
	require.NoError(t, err)
	assert.Equal(t, "/opt/global.jar", cfg.CLIJar, "global file applies")
	assert.Equal(t, 3, cfg.MaxParallel, "local overrides global")
	assert.Equal(t, 30, cfg.DefaultTimeout, "environment overrides files")
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := isolate(t)
	t.Setenv("CCTEST_CLI_JAR", "~/tools/commcare-cli.jar")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "tools", "commcare-cli.jar"), cfg.CLIJar)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]struct {
		content   string
		env       map[string]string
		wantField string
		wantLine  int
	}{
		"out of range parallelism": {content: `{"max_parallel": 0}`, wantField: "max_parallel"},
		"zero timeout from env":    {env: map[string]string{"CCTEST_DEFAULT_TIMEOUT": "0"}, wantField: "default_timeout"},
		"empty workspace":          {content: `{"workspace_dir": ""}`, wantField: "workspace_dir"},
		"syntax error":             {content: "{\n  \"max_parallel\": 2,\n}", wantLine: 3},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			local := filepath.Join(t.TempDir(), "config.json")
			if tt.content != "" {
				writeConfig(t, local, tt.content)
			}

			_, err := Load(local)
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.Equal(t, tt.wantLine, verr.Line)
		})
	}
}

func TestValidateConfigValues(t *testing.T) {
	t.Parallel()

	valid := func() *Configuration {
		return &Configuration{
			WorkspaceDir: "/w", StateDir: "/s", DefaultTimeout: 120, GracePeriod: 5,
			MaxParallel: 4, MaxHistory: 10, TrailingBlankLines: 10,
			Notifications: notify.DefaultConfig(),
		}
	}

	assert.NoError(t, ValidateConfigValues(valid(), "c.json"))

	cfg := valid()
	cfg.TrailingBlankLines = 101
	err := ValidateConfigValues(cfg, "c.json")
	assert.EqualError(t, err, "c.json: field 'trailing_blank_lines': must be at most 100")

	cfg = valid()
	cfg.StateDir = ""
	err = ValidateConfigValues(cfg, "c.json")
	assert.EqualError(t, err, "c.json: field 'state_dir': is required")

	cfg = valid()
	cfg.Notifications.Type = "loud"
	err = ValidateConfigValues(cfg, "c.json")
	assert.EqualError(t, err, "c.json: field 'notifications.type': must be one of: sound, visual, both")

	cfg = valid()
	cfg.Notifications.LongRunningThreshold = -1
	err = ValidateConfigValues(cfg, "c.json")
	assert.EqualError(t, err, "c.json: field 'notifications.long_running_threshold': must be at least 0")
}

func TestLoad_Notifications(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeConfig(t, path, `{"notifications": {"enabled": true, "sound_file": "~/ding.wav"}}`)
	t.Setenv("CCTEST_NOTIFICATIONS_ON_FAILURE_ONLY", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, notify.OutputBoth, cfg.Notifications.Type, "unset keys keep their defaults")
	assert.True(t, cfg.Notifications.OnFailureOnly)
	assert.True(t, filepath.IsAbs(cfg.Notifications.SoundFile))
	assert.Equal(t, "ding.wav", filepath.Base(cfg.Notifications.SoundFile))
}

func TestValidateJSONSyntaxFromBytes(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateJSONSyntaxFromBytes([]byte("  \n"), "c.json"))
	assert.NoError(t, ValidateJSONSyntaxFromBytes([]byte(`{"a": 1}`), "c.json"))

	err := ValidateJSONSyntaxFromBytes([]byte(`[1, 2]`), "c.json")
	assert.EqualError(t, err, "c.json: config must be a JSON object")

	err = ValidateJSONSyntaxFromBytes([]byte("{\n\"a\" 1}"), "c.json")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 2, verr.Line)
}

func TestValidateJSONSyntax_MissingFile(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateJSONSyntax(filepath.Join(t.TempDir(), "nope.json")))
}

func TestEnvTransform(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "max_parallel", envTransform("CCTEST_MAX_PARALLEL"))
	assert.Equal(t, "cli_jar", envTransform("CCTEST_CLI_JAR"))
	assert.Equal(t, "notifications.sound_file", envTransform("CCTEST_NOTIFICATIONS_SOUND_FILE"))
}
