package classify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/cctools/cctest/internal/engine"
	"github.com/cctools/cctest/internal/fixture"
	"github.com/cctools/cctest/internal/replay"
)

// Classifier assigns verdicts to engine results.
type Classifier struct {
	Grammar   *Grammar
	TailLines int
}

// New returns a classifier using g, or DefaultGrammar when g is nil.
func New(g *Grammar) *Classifier {
	if g == nil {
		g = DefaultGrammar()
	}
	return &Classifier{Grammar: g, TailLines: engine.DefaultTailLines}
}

// Classify applies the verdict rules to one run, in order:
//
//  1. timeout                                  -> Error
//  2. internal engine fault in the output      -> Error
//  3. abnormal or non-zero exit                -> Error
//  4. engine rejected a scripted step          -> Fail
//  5. form XML, every step delivered           -> Pass
//  6. otherwise (form never completed)         -> Fail
func (c *Classifier) Classify(script *replay.Script, res *engine.Result) *Outcome {
	out := stripansi.Strip(res.Stdout)
	raw := out
	if res.Stderr != "" {
		if raw != "" && !strings.HasSuffix(raw, "\n") {
			raw += "\n"
		}
		raw += stripansi.Strip(res.Stderr)
	}

	o := &Outcome{
		Fixture:   script.Name(),
		ExitCode:  res.ExitCode,
		Command:   res.Command,
		Duration:  res.Duration,
		RawOutput: raw,
		RawTail:   engine.TailLines(raw, c.tailLines()),
		FormXML:   ExtractFormXML(out),
	}
	steps := baseSteps(script, res)

	fault, _ := c.Grammar.FindFault(raw)
	var timeoutErr *engine.TimeoutError
	switch {
	case res.State == engine.TimedOut || errors.As(res.Err, &timeoutErr):
		o.Status = Error
		o.TimedOut = true
		o.Err = res.Err
		o.Reason = fmt.Sprintf("engine did not finish within %v and was stopped", timeoutOf(res.Err))
		o.FailedStep = firstWithStatus(steps, StepNotReached)
	case fault != "":
		o.Status = Error
		o.Reason = "engine fault: " + fault
		o.Err = res.Err
	case res.State == engine.Crashed || res.ExitCode != 0:
		o.Status = Error
		o.Err = res.Err
		o.Reason = fmt.Sprintf("engine exited with code %d", res.ExitCode)
	default:
		c.judge(o, script, steps, out)
	}

	o.Steps = steps
	if o.FailedStep != nil {
		s := *o.FailedStep
		o.FailedStep = &s
	}
	return o
}

// judge decides between Pass and Fail for a run that exited normally.
func (c *Classifier) judge(o *Outcome, script *replay.Script, steps []StepResult, out string) {
	if rej, ok := c.Grammar.FindRejection(out); ok {
		o.Status = Fail
		idx := locateRejection(script, steps, rej)
		if idx < 0 {
			o.Reason = "engine rejected input: " + rej.Message
			return
		}
		steps[idx].Status = StepRejected
		steps[idx].Message = rej.Message
		for i := idx + 1; i < len(steps); i++ {
			steps[i].Status = StepNotReached
		}
		o.FailedStep = &steps[idx]
		o.Reason = fmt.Sprintf("step %d %s rejected: %s", idx+1, steps[idx].Command, rej.Message)
		return
	}

	notReached := firstWithStatus(steps, StepNotReached)
	if o.FormXML != "" && notReached == nil {
		o.Status = Pass
		for i := range steps {
			if steps[i].Status == StepDelivered {
				steps[i].Status = StepAccepted
			}
		}
		return
	}

	o.Status = Fail
	o.FailedStep = notReached
	switch {
	case o.FormXML != "":
		o.Reason = fmt.Sprintf("form completed before step %d %s was entered; engine stopped reading input",
			notReached.Index+1, notReached.Command)
	case c.Grammar.Completed(out):
		o.Reason = "form completed but no form XML was printed"
	case notReached != nil:
		o.Reason = fmt.Sprintf("form did not complete; engine stopped reading input before step %d %s",
			notReached.Index+1, notReached.Command)
	default:
		o.Reason = "form XML not found in output; the form may not have completed"
	}
}

func (c *Classifier) tailLines() int {
	if c.TailLines > 0 {
		return c.TailLines
	}
	return engine.DefaultTailLines
}

// FromError builds an Error outcome for a run that never produced engine
// output, e.g. because the engine could not be launched.
func FromError(f *fixture.Fixture, script *replay.Script, err error) *Outcome {
	o := &Outcome{Status: Error, ExitCode: -1, Err: err}
	if f != nil {
		o.Fixture = f.Name
		o.SourcePath = f.SourcePath
	}
	if script != nil {
		o.Fixture = script.Name()
		o.Steps = baseSteps(script, &engine.Result{UndeliveredSteps: allSteps(script)})
	}
	if err != nil {
		o.Reason = err.Error()
	}
	var timeoutErr *engine.TimeoutError
	o.TimedOut = errors.As(err, &timeoutErr)
	return o
}

// baseSteps lists every command as delivered or not reached.
func baseSteps(script *replay.Script, res *engine.Result) []StepResult {
	undelivered := make(map[int]bool, len(res.UndeliveredSteps))
	for _, i := range res.UndeliveredSteps {
		undelivered[i] = true
	}
	steps := make([]StepResult, script.Len())
	for i, cmd := range script.Commands() {
		steps[i] = StepResult{Index: i, Command: cmd.String(), Path: cmd.Path, Line: cmd.Line, Status: StepDelivered}
		if undelivered[i] {
			steps[i].Status = StepNotReached
		}
	}
	return steps
}

func allSteps(script *replay.Script) []int {
	all := make([]int, script.Len())
	for i := range all {
		all[i] = i
	}
	return all
}

// locateRejection maps a rejection to the step it refers to: the first
// delivered command with the named address, the navigation step with the
// named index, or failing that the first step never delivered.
func locateRejection(script *replay.Script, steps []StepResult, rej *Rejection) int {
	if rej.Path != "" {
		cmds := script.Commands()
		matchers := []func(replay.Command) bool{
			func(c replay.Command) bool { return c.Path == rej.Path || c.SourcePath == rej.Path },
			func(c replay.Command) bool { return fixture.StripIndexes(c.Path) == fixture.StripIndexes(rej.Path) },
		}
		for _, match := range matchers {
			for i, cmd := range cmds {
				if cmd.Kind != replay.Navigate && match(cmd) {
					return i
				}
			}
		}
	}
	if rej.Index > 0 {
		for i, cmd := range script.Commands() {
			if cmd.Kind == replay.Navigate && cmd.Index == rej.Index {
				return i
			}
		}
	}
	for i, s := range steps {
		if s.Status == StepNotReached {
			return i
		}
	}
	return -1
}

func firstWithStatus(steps []StepResult, status StepStatus) *StepResult {
	for i := range steps {
		if steps[i].Status == status {
			return &steps[i]
		}
	}
	return nil
}

func timeoutOf(err error) any {
	var timeoutErr *engine.TimeoutError
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Timeout
	}
	return "the timeout"
}
