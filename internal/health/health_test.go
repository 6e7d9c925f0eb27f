package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cctools/cctest/internal/config"
)

func TestChecker_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jar := filepath.Join(dir, "commcare-cli.jar")
	require.NoError(t, os.WriteFile(jar, []byte("PK"), 0o644))

	cfg := &config.Configuration{
		CLIJar:       jar,
		WorkspaceDir: filepath.Join(dir, "ws"),
		StateDir:     filepath.Join(dir, "state"),
	}

	tests := map[string]struct {
		checker    *Checker
		javaCmd    string
		wantPassed bool
		wantJava   string
	}{
		"java found on path": {
			checker: &Checker{
				FindJava:  func() (string, error) { return "/usr/bin/java", nil },
				CheckJava: func(context.Context, string) (int, error) { return 21, nil },
			},
			wantPassed: true,
			wantJava:   "Java 21 found at /usr/bin/java",
		},
		"configured java is used as-is": {
			checker: &Checker{
				FindJava:  func() (string, error) { t.Error("must not search"); return "", nil },
				CheckJava: func(_ context.Context, java string) (int, error) { return 17, nil },
			},
			javaCmd:    "/opt/jdk/bin/java",
			wantPassed: true,
			wantJava:   "Java 17 found at /opt/jdk/bin/java",
		},
		"java too old": {
			checker: &Checker{
				FindJava:  func() (string, error) { return "/usr/bin/java", nil },
				CheckJava: func(context.Context, string) (int, error) { return 0, errors.New("java 11 found, but version 17+ is required") },
			},
			wantJava: "java 11 found, but version 17+ is required",
		},
		"java missing": {
			checker: &Checker{
				FindJava: func() (string, error) { return "", errors.New("java executable not found") },
			},
			wantJava: "java executable not found",
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := *cfg
			c.JavaCmd = tt.javaCmd

			report := tt.checker.Run(context.Background(), &c)
			require.Len(t, report.Checks, 4)
			assert.Equal(t, tt.wantPassed, report.Passed)
			assert.Equal(t, tt.wantJava, report.Checks[0].Message)
			for _, check := range report.Checks[1:] {
				assert.True(t, check.Passed, "%s: %s", check.Name, check.Message)
			}
		})
	}
}

func TestCheckCLIJar(t *testing.T) {
	t.Parallel()

	assert.False(t, CheckCLIJar("").Passed)
	assert.False(t, CheckCLIJar(filepath.Join(t.TempDir(), "missing.jar")).Passed)
	assert.False(t, CheckCLIJar(t.TempDir()).Passed)
}

func TestCheckWritableDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "a", "b")
	res := CheckWritableDir("Workspace directory", dir)
	assert.True(t, res.Passed, res.Message)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "write-check file is removed")

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	assert.False(t, CheckWritableDir("x", filepath.Join(blocker, "sub")).Passed)
}

func TestFormatReport(t *testing.T) {
	t.Parallel()

	out := FormatReport(&HealthReport{Checks: []CheckResult{
		{Name: "Java", Passed: true, Message: "Java 17 found at java"},
		{Name: "commcare-cli jar", Message: "cli_jar is not configured"},
	}})
	assert.Equal(t, "✓ Java: Java 17 found at java\n✗ commcare-cli jar: cli_jar is not configured\n", out)
}
