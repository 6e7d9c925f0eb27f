// Package runner orchestrates fixture runs: compile the fixture into a
// replay script, execute it against the engine, classify the result, and
// record it. Each stage runs once; nothing is retried.
package runner

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/cctools/cctest/internal/classify"
	"github.com/cctools/cctest/internal/engine"
	"github.com/cctools/cctest/internal/fixture"
	"github.com/cctools/cctest/internal/history"
	"github.com/cctools/cctest/internal/lifecycle"
	"github.com/cctools/cctest/internal/progress"
	"github.com/cctools/cctest/internal/replay"
	"github.com/cctools/cctest/internal/workspace"
)

// Stage names as shown by the progress display.
const (
	StageCompile  = "compile"
	StageExecute  = "execute"
	StageClassify = "classify"
)

var stageOrder = []string{StageCompile, StageExecute, StageClassify}

// Recorder stores run history. *history.Writer implements it.
type Recorder interface {
	Start(e history.Entry) (string, error)
	Complete(id string, r history.Result) error
}

// Options are per-run output choices.
type Options struct {
	// OutputXMLPath receives the completed form XML when set.
	OutputXMLPath string
	// RawOutputPath receives the full engine output when set.
	RawOutputPath string
}

// Runner executes fixtures. The zero value is not usable; Launcher is
// required. A Runner is safe for concurrent runs.
type Runner struct {
	Launcher   engine.Launcher
	Encoder    replay.Encoder
	Classifier *classify.Classifier
	Progress   *progress.Display
	History    Recorder
	// GracePeriod is how long a stopped engine gets before it is killed.
	GracePeriod time.Duration
	// ShowOutput mirrors engine stdout live when set.
	ShowOutput io.Writer
	// ExtraArgs are appended to every engine command line.
	ExtraArgs []string
	// NewRunID generates run identifiers; uuid.NewString when nil.
	NewRunID func() string
}

// Run executes one fixture against the given artifacts.
//
// A fixture that does not compile returns a nil outcome and the
// *replay.CompileError; no process is started. Every other run returns an
// outcome. The error is then non-nil only when a requested output file
// could not be written.
func (r *Runner) Run(ctx context.Context, f *fixture.Fixture, artifacts workspace.Artifacts, opts Options) (*classify.Outcome, error) {
	runID := r.runID()
	label := f.Name
	stages := &stageReporter{display: r.Progress, fixture: label}

	for _, w := range f.Warnings {
		r.Progress.Warnf("%s: %s", label, w.Error())
	}

	var script *replay.Script
	err := lifecycle.Run(stages, StageCompile, func() error {
		var err error
		script, err = replay.Compile(f)
		return err
	})
	if err != nil {
		return nil, err
	}

	entryID := r.startHistory(f, runID)

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = fixture.DefaultTimeout
	}
	stages.detail = "timeout " + timeout.String()

	var res *engine.Result
	var launchErr error
	_ = lifecycle.RunWithContext(ctx, stages, StageExecute, func(ctx context.Context) error {
		res, launchErr = r.execute(ctx, script, artifacts, timeout)
		if launchErr != nil {
			return launchErr
		}
		return res.Err
	})
	stages.detail = ""
	if res == nil && launchErr == nil {
		launchErr = &engine.ExecutionError{Op: "run", Err: ctx.Err()}
	}

	var outcome *classify.Outcome
	_ = lifecycle.Run(stages, StageClassify, func() error {
		if launchErr != nil {
			outcome = classify.FromError(f, script, launchErr)
		} else {
			outcome = r.classifier().Classify(script, res)
		}
		outcome.RunID = runID
		outcome.SourcePath = f.SourcePath
		if !outcome.Passed() {
			return errors.New(outcome.Reason)
		}
		return nil
	})

	r.completeHistory(entryID, outcome)
	return outcome, r.persist(outcome, opts)
}

func (r *Runner) execute(ctx context.Context, script *replay.Script, a workspace.Artifacts, timeout time.Duration) (*engine.Result, error) {
	spec := engine.LaunchSpec{AppPath: a.AppPath, RestorePath: a.RestorePath, ExtraArgs: r.ExtraArgs}
	lines := r.encoder().Encode(script)

	r.Progress.Debugf("%s: %s", script.Name(), r.Launcher.Describe(spec))
	for _, text := range replay.Texts(lines) {
		r.Progress.Debugf("%s: > %s", script.Name(), text)
	}
	if r.ShowOutput != nil {
		r.Progress.StopSpinner()
	}

	d := &engine.Driver{
		Launcher:    r.Launcher,
		GracePeriod: r.GracePeriod,
		Mirror:      r.ShowOutput,
		OnState: func(s engine.State) {
			r.Progress.Debugf("%s: engine %s", script.Name(), s)
		},
	}
	return d.Run(ctx, lines, spec, timeout)
}

func (r *Runner) encoder() replay.Encoder {
	if r.Encoder != nil {
		return r.Encoder
	}
	return replay.NewCommCareEncoder()
}

func (r *Runner) classifier() *classify.Classifier {
	if r.Classifier != nil {
		return r.Classifier
	}
	return classify.New(nil)
}

func (r *Runner) runID() string {
	if r.NewRunID != nil {
		return r.NewRunID()
	}
	return uuid.NewString()
}

func (r *Runner) startHistory(f *fixture.Fixture, runID string) string {
	if r.History == nil {
		return ""
	}
	id, err := r.History.Start(history.Entry{
		RunID:   runID,
		Fixture: f.Name,
		Source:  f.SourcePath,
		Domain:  f.Connection.Domain,
		AppID:   f.Connection.AppID,
	})
	if err != nil {
		r.Progress.Warnf("failed to record history: %v", err)
		return ""
	}
	return id
}

func (r *Runner) completeHistory(id string, o *classify.Outcome) {
	if r.History == nil || id == "" {
		return
	}
	res := history.Result{
		Status:   string(o.Status),
		Reason:   o.Reason,
		ExitCode: o.ExitCode,
		Duration: o.Duration,
	}
	if o.FailedStep != nil {
		step := o.FailedStep.Index + 1
		res.FailedStep = &step
	}
	if err := r.History.Complete(id, res); err != nil {
		r.Progress.Warnf("failed to record history: %v", err)
	}
}

// stageReporter shows lifecycle steps as numbered progress stages.
type stageReporter struct {
	display *progress.Display
	fixture string
	detail  string
}

func (s *stageReporter) info(name string) progress.StageInfo {
	n := 0
	for i, st := range stageOrder {
		if st == name {
			n = i + 1
		}
	}
	return progress.StageInfo{
		Name:        name,
		Number:      n,
		TotalStages: len(stageOrder),
		Status:      progress.StageInProgress,
		Fixture:     s.fixture,
		Detail:      s.detail,
	}
}

// OnStart implements lifecycle.Observer.
func (s *stageReporter) OnStart(name string) {
	_ = s.display.StartStage(s.info(name))
}

// OnComplete implements lifecycle.Observer.
func (s *stageReporter) OnComplete(name string, err error, d time.Duration) {
	info := s.info(name)
	if err != nil {
		info.Status = progress.StageFailed
		_ = s.display.FailStage(info, err)
		return
	}
	info.Status = progress.StageCompleted
	_ = s.display.CompleteStage(info)
	s.display.Debugf("%s took %v", name, d.Round(time.Millisecond))
}
