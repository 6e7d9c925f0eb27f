//go:build unix

package engine

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/cctools/cctest/internal/replay"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
}

// processGone reports whether pid no longer exists.
func processGone(pid int) bool {
	return unix.Kill(pid, 0) == unix.ESRCH
}

func TestDriver_RealProcess_EchoesInput(t *testing.T) {
	t.Parallel()
	requireShell(t)

	d := &Driver{Launcher: &CommandLauncher{
		Path: "/bin/sh",
		Args: []string{"-c", `while read -r line; do echo "got:$line"; done`},
	}}

	lines := []replay.Line{{Text: "1", Steps: []int{0}}, {Text: ":replay ((/data/a[1]) (SKIP))", Steps: []int{1}}}
	res, err := d.Run(context.Background(), lines, LaunchSpec{}, 10*time.Second)
	require.NoError(t, err)

	assert.Equal(t, Completed, res.State)
	assert.Equal(t, "got:1\ngot::replay ((/data/a[1]) (SKIP))\n", res.Stdout)
	assert.Equal(t, 2, res.Delivered)
	assert.True(t, processGone(res.Pid))
}

func TestDriver_RealProcess_ExitCode(t *testing.T) {
	t.Parallel()
	requireShell(t)

	d := &Driver{Launcher: &CommandLauncher{Path: "/bin/sh", Args: []string{"-c", "echo oops >&2; exit 7"}}}

	res, err := d.Run(context.Background(), nil, LaunchSpec{}, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, Crashed, res.State)
	assert.Equal(t, 7, res.ExitCode)
	assert.Equal(t, "oops\n", res.Stderr)
}

func TestDriver_RealProcess_TimeoutReclaimsProcess(t *testing.T) {
	t.Parallel()
	requireShell(t)

	tests := map[string]string{
		"honours SIGTERM": "sleep 30",
		"ignores SIGTERM": "trap '' TERM; sleep 30",
	}

	for name, script := range tests {
		script := script
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			d := &Driver{
				Launcher:    &CommandLauncher{Path: "/bin/sh", Args: []string{"-c", script}},
				GracePeriod: 200 * time.Millisecond,
			}

			start := time.Now()
			res, err := d.Run(context.Background(), nil, LaunchSpec{}, 300*time.Millisecond)
			require.NoError(t, err)

			assert.Equal(t, TimedOut, res.State)
			assert.Less(t, time.Since(start), 10*time.Second)
			assert.True(t, processGone(res.Pid), "engine process %d still running", res.Pid)
		})
	}
}

func TestCommandLauncher_StartFailure(t *testing.T) {
	t.Parallel()

	l := &CommandLauncher{Path: "/nonexistent/engine-binary"}
	proc, err := l.Launch(context.Background(), LaunchSpec{}, nil, nil)
	require.Error(t, err)
	assert.Nil(t, proc)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "start", execErr.Op)
}
