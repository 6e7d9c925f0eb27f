package progress_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cctools/cctest/internal/progress"
)

var plainCaps = progress.TerminalCapabilities{}

func stage(n int, name string) progress.StageInfo {
	return progress.StageInfo{Name: name, Number: n, TotalStages: 3, Status: progress.StageInProgress}
}

func TestDisplay_StartStage(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		stage        progress.StageInfo
		wantContains []string
		wantErr      bool
	}{
		"first stage": {
			stage:        stage(1, "compile"),
			wantContains: []string{"[1/3]", "Compile..."},
		},
		"fixture label and detail": {
			stage: progress.StageInfo{
				Name: "execute", Number: 2, TotalStages: 3,
				Fixture: "intake", Detail: "timeout 2m0s",
			},
			wantContains: []string{"intake: [2/3] Execute (timeout 2m0s)..."},
		},
		"invalid stage": {
			stage:   progress.StageInfo{Name: "compile", Number: 4, TotalStages: 3},
			wantErr: true,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			d := progress.NewDisplay(&buf, plainCaps)
			err := d.StartStage(tt.stage)
			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, buf.String())
				return
			}
			require.NoError(t, err)
			for _, want := range tt.wantContains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestDisplay_CompleteAndFail(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := progress.NewDisplay(&buf, plainCaps)

	require.NoError(t, d.CompleteStage(stage(1, "compile")))
	require.NoError(t, d.FailStage(stage(2, "execute"), errors.New("engine exited with status 1")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[OK] [1/3] Compile done", lines[0])
	assert.Equal(t, "[FAIL] [2/3] Execute failed: engine exited with status 1", lines[1])
}

func TestDisplay_UnicodeMarksAndColor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := progress.NewDisplay(&buf, progress.TerminalCapabilities{SupportsUnicode: true, SupportsColor: true})
	require.NoError(t, d.CompleteStage(stage(3, "classify")))

	out := buf.String()
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "\x1b[32m", "checkmark is green")
}

func TestDisplay_Debugf(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := progress.NewDisplay(&buf, plainCaps)

	d.Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	d.SetDebug(true)
	d.Debugf("launch %s", "java -jar x.jar")
	d.Infof("wrote %s", "out.xml")
	d.Warnf("duplicate answer")

	assert.Equal(t, "[DEBUG] launch java -jar x.jar\nwrote out.xml\nWarning: duplicate answer\n", buf.String())
}

func TestDisplay_NilIsSilent(t *testing.T) {
	t.Parallel()

	var d *progress.Display
	assert.NoError(t, d.StartStage(stage(1, "compile")))
	assert.NoError(t, d.CompleteStage(stage(1, "compile")))
	assert.NoError(t, d.FailStage(stage(1, "compile"), errors.New("x")))
	d.Infof("x")
	d.Debugf("x")
	d.Warnf("x")
	d.StopSpinner()
	d.SetDebug(true)
	assert.Equal(t, progress.TerminalCapabilities{}, d.Capabilities())
}

func TestDisplay_SpinnerLifecycle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := progress.NewDisplay(&buf, progress.TerminalCapabilities{IsTTY: true, SupportsUnicode: true})

	require.NoError(t, d.StartStage(stage(2, "execute")))
	d.Infof("engine pid %d", 4242)
	d.StopSpinner()
	d.StopSpinner()
	require.NoError(t, d.CompleteStage(stage(2, "execute")))

	assert.Contains(t, buf.String(), "engine pid 4242")
	assert.Contains(t, buf.String(), "✓ [2/3] Execute done")
}
