package config

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cctools/cctest/internal/cli/shared"
	"github.com/cctools/cctest/internal/health"
)

func useChecker(t *testing.T, c *health.Checker) {
	t.Helper()
	orig := checker
	checker = c
	t.Cleanup(func() { checker = orig })
}

func TestDoctor(t *testing.T) {
	tests := map[string]struct {
		checkJava func(context.Context, string) (int, error)
		wantCode  int
		wantOut   string
	}{
		"all checks pass": {
			checkJava: func(context.Context, string) (int, error) { return 21, nil },
			wantCode:  shared.ExitPass,
			wantOut:   "✓ Java: Java 21 found at /usr/bin/java",
		},
		"old java": {
			checkJava: func(context.Context, string) (int, error) {
				return 11, errors.New("java 11 found, but version 17+ is required")
			},
			wantCode: shared.ExitMissingDependency,
			wantOut:  "✗ Java: java 11 found, but version 17+ is required",
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			e := newTestEnv(t)
			useChecker(t, &health.Checker{
				FindJava:  func() (string, error) { return "/usr/bin/java", nil },
				CheckJava: tt.checkJava,
			})

			out, err := e.execute("doctor")
			assert.Equal(t, tt.wantCode, shared.ExitCode(err))
			assert.Contains(t, out, tt.wantOut)
			assert.Contains(t, out, "✓ commcare-cli jar: found at "+e.jar)
			assert.Contains(t, out, "✓ Workspace directory")
		})
	}
}

func TestDoctor_Alias(t *testing.T) {
	e := newTestEnv(t)
	useChecker(t, &health.Checker{
		FindJava:  func() (string, error) { return "", errors.New("java executable not found") },
		CheckJava: func(context.Context, string) (int, error) { return 0, nil },
	})

	out, err := e.execute("doc")
	require.Error(t, err)
	assert.True(t, shared.IsSilent(err))
	assert.Contains(t, out, "✗ Java: java executable not found")
}
