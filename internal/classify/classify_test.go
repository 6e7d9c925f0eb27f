package classify

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cctools/cctest/internal/engine"
	"github.com/cctools/cctest/internal/fixture"
	"github.com/cctools/cctest/internal/replay"
)

const formXML = `<?xml version='1.0' ?><data xmlns="http://openrosa.org/formdesigner/ABC" uiVersion="1">
  <name>Jane</name>
  <gender>2</gender>
</data>`

// testScript compiles nav(1), nav(2), answer(/data/name), answer(/data/gender).
func testScript(t *testing.T) *replay.Script {
	t.Helper()
	s, err := replay.Compile(&fixture.Fixture{
		Name:       "t1",
		Navigation: []fixture.NavigationStep{{Index: 1}, {Index: 2}},
		Answers: []fixture.Answer{
			{Path: "/data/name", Value: fixture.Literal("Jane"), Line: 7},
			{Path: "/data/gender", Value: fixture.Literal("2"), Line: 8},
		},
	})
	require.NoError(t, err)
	return s
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		res            *engine.Result
		wantStatus     Status
		wantReason     string
		wantFailedStep int // -1 for none
		wantStepStatus []StepStatus
		wantXML        bool
	}{
		"pass": {
			res:            &engine.Result{State: engine.Completed, Stdout: "Form Start\n" + formXML + "\nForm complete\n"},
			wantStatus:     Pass,
			wantFailedStep: -1,
			wantStepStatus: []StepStatus{StepAccepted, StepAccepted, StepAccepted, StepAccepted},
			wantXML:        true,
		},
		"pass with ansi colors": {
			res:            &engine.Result{State: engine.Completed, Stdout: "\x1b[32m" + formXML + "\x1b[0m\n"},
			wantStatus:     Pass,
			wantFailedStep: -1,
			wantXML:        true,
		},
		"rejection naming a path": {
			res: &engine.Result{State: engine.Completed,
				Stdout: "Invalid input for question /data/gender[1]: selection out of range\n"},
			wantStatus:     Fail,
			wantReason:     "step 4 answer(/data/gender[1], \"2\") rejected",
			wantFailedStep: 3,
			wantStepStatus: []StepStatus{StepDelivered, StepDelivered, StepDelivered, StepRejected},
		},
		"rejection naming an unindexed path": {
			res: &engine.Result{State: engine.Completed,
				Stdout: "Could not find question /data/name\n" + formXML},
			wantStatus:     Fail,
			wantFailedStep: 2,
			wantStepStatus: []StepStatus{StepDelivered, StepDelivered, StepRejected, StepNotReached},
			wantXML:        true,
		},
		"rejection naming a navigation index": {
			res: &engine.Result{State: engine.Completed,
				Stdout: "Selection 2 is out of range\n", UndeliveredSteps: []int{2, 3}},
			wantStatus:     Fail,
			wantFailedStep: 1,
			wantStepStatus: []StepStatus{StepDelivered, StepRejected, StepNotReached, StepNotReached},
		},
		"rejection without a location": {
			res:            &engine.Result{State: engine.Completed, Stdout: "Sorry, this response is invalid!\n"},
			wantStatus:     Fail,
			wantReason:     "engine rejected input",
			wantFailedStep: -1,
		},
		"no form xml": {
			res:            &engine.Result{State: engine.Completed, Stdout: "Form Start\n"},
			wantStatus:     Fail,
			wantReason:     "form XML not found",
			wantFailedStep: -1,
		},
		"engine stopped reading": {
			res:            &engine.Result{State: engine.Completed, Stdout: "Goodbye\n", UndeliveredSteps: []int{2, 3}},
			wantStatus:     Fail,
			wantReason:     "before step 3",
			wantFailedStep: 2,
			wantStepStatus: []StepStatus{StepDelivered, StepDelivered, StepNotReached, StepNotReached},
		},
		"form xml but steps never delivered": {
			res:            &engine.Result{State: engine.Completed, Stdout: formXML + "\n", UndeliveredSteps: []int{2, 3}},
			wantStatus:     Fail,
			wantReason:     "form completed before step 3 answer(/data/name[1], \"Jane\") was entered",
			wantFailedStep: 2,
			wantStepStatus: []StepStatus{StepDelivered, StepDelivered, StepNotReached, StepNotReached},
			wantXML:        true,
		},
		"completed without xml": {
			res:            &engine.Result{State: engine.Completed, Stdout: "Form submitted\n"},
			wantStatus:     Fail,
			wantReason:     "form completed but no form XML",
			wantFailedStep: -1,
		},
		"non-zero exit": {
			res: &engine.Result{State: engine.Crashed, ExitCode: 1, Stdout: formXML,
				Err: &engine.ExecutionError{Op: "run", Err: errors.New("exit status 1")}},
			wantStatus:     Error,
			wantReason:     "exited with code 1",
			wantFailedStep: -1,
			wantXML:        true,
		},
		"engine fault on stderr": {
			res: &engine.Result{State: engine.Completed, Stdout: formXML,
				Stderr: "Exception in thread \"main\" java.lang.NullPointerException\n\tat org.commcare.Foo(Foo.java:1)\n"},
			wantStatus:     Error,
			wantReason:     "engine fault: Exception in thread \"main\"",
			wantFailedStep: -1,
			wantXML:        true,
		},
		"xpath fault": {
			res:            &engine.Result{State: engine.Completed, Stdout: "XPath type mismatch in /data/calc\n"},
			wantStatus:     Error,
			wantReason:     "XPath type mismatch",
			wantFailedStep: -1,
		},
		"timeout": {
			res: &engine.Result{State: engine.TimedOut, ExitCode: -1, UndeliveredSteps: []int{3},
				Err: engine.NewTimeoutError(2*time.Minute, "java -jar cli.jar")},
			wantStatus:     Error,
			wantReason:     "did not finish within 2m0s",
			wantFailedStep: 3,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			o := New(nil).Classify(testScript(t), tt.res)

			assert.Equal(t, tt.wantStatus, o.Status, o.Reason)
			assert.Contains(t, o.Reason, tt.wantReason)
			assert.Equal(t, "t1", o.Fixture)
			require.Len(t, o.Steps, 4)

			if tt.wantFailedStep < 0 {
				assert.Nil(t, o.FailedStep)
			} else {
				require.NotNil(t, o.FailedStep)
				assert.Equal(t, tt.wantFailedStep, o.FailedStep.Index)
			}

			if tt.wantStepStatus != nil {
				got := make([]StepStatus, len(o.Steps))
				for i, s := range o.Steps {
					got[i] = s.Status
				}
				assert.Equal(t, tt.wantStepStatus, got)
			}

			if tt.wantXML {
				assert.Equal(t, formXML, o.FormXML)
			}
			assert.Equal(t, tt.wantStatus == Error && tt.res.State == engine.TimedOut, o.TimedOut)
		})
	}
}

func TestClassify_RawTailAndSteps(t *testing.T) {
	t.Parallel()

	c := &Classifier{Grammar: DefaultGrammar(), TailLines: 2}
	o := c.Classify(testScript(t), &engine.Result{
		State:  engine.Completed,
		Stdout: "one\ntwo\nthree",
		Stderr: "warn\n",
	})

	assert.Equal(t, "three\nwarn", o.RawTail)
	assert.Equal(t, "one\ntwo\nthree\nwarn\n", o.RawOutput)
	assert.Equal(t, "/data/name[1]", o.Steps[2].Path)
	assert.Equal(t, 7, o.Steps[2].Line)
	assert.Equal(t, "nav(1)", o.Steps[0].Command)
}

func TestClassify_RejectsTheRightRepeatInstance(t *testing.T) {
	t.Parallel()

	s, err := replay.Compile(&fixture.Fixture{
		Name: "repeat",
		Answers: []fixture.Answer{
			{Path: "/data/g", Value: fixture.NewRepeat()},
			{Path: "/data/g/x", Value: fixture.Literal("A")},
			{Path: "/data/g", Value: fixture.NewRepeat()},
			{Path: "/data/g/x", Value: fixture.Literal("B")},
		},
	})
	require.NoError(t, err)

	o := New(nil).Classify(s, &engine.Result{
		State:  engine.Completed,
		Stdout: "Answer rejected for /data/g[2]/x[1]\n",
	})
	require.Equal(t, Fail, o.Status)
	require.NotNil(t, o.FailedStep)
	assert.Equal(t, 3, o.FailedStep.Index)
}

func TestFromError(t *testing.T) {
	t.Parallel()

	f := &fixture.Fixture{Name: "t1", SourcePath: "tests/t1.yaml"}
	launchErr := &engine.ExecutionError{Op: "launch", Path: "cli.jar", Err: engine.ErrArtifactMissing}

	o := FromError(f, testScript(t), launchErr)
	assert.Equal(t, Error, o.Status)
	assert.Equal(t, "tests/t1.yaml", o.SourcePath)
	assert.Contains(t, o.Reason, "cli.jar")
	assert.False(t, o.TimedOut)
	require.Len(t, o.Steps, 4)
	for _, s := range o.Steps {
		assert.Equal(t, StepNotReached, s.Status)
	}

	bare := FromError(f, nil, errors.New("compile failed"))
	assert.Empty(t, bare.Steps)
	assert.Equal(t, "t1", bare.Fixture)
}

func TestOutcome_JSON(t *testing.T) {
	t.Parallel()

	o := &Outcome{
		Fixture:  "t1",
		Status:   Pass,
		Duration: 1500 * time.Millisecond,
		FormXML:  "<data/>",
		Steps:    []StepResult{{Index: 0, Command: "nav(1)", Status: StepAccepted}},
	}
	data, err := json.Marshal(o)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "pass", got["status"])
	assert.Equal(t, 1.5, got["duration_seconds"])
	assert.Equal(t, float64(7), got["form_xml_size_bytes"])
	assert.NotContains(t, got, "FormXML")
	assert.True(t, o.Passed())
}
