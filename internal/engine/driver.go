// Package engine runs one attempt of an external form-execution engine:
// it launches the process, streams a compiled replay script to its input,
// captures output, and guarantees the process is gone when Run returns.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/cctools/cctest/internal/replay"
)

const (
	// DefaultGracePeriod is how long a terminated engine gets to exit
	// before it is killed.
	DefaultGracePeriod = 5 * time.Second
	// DefaultTailLines is the number of output lines kept for diagnostics.
	DefaultTailLines = 40
)

// Driver runs replay scripts against engine processes.
type Driver struct {
	Launcher    Launcher
	GracePeriod time.Duration
	// Mirror, when set, receives engine stdout as it is produced.
	Mirror io.Writer
	// OnState, when set, is called on every state transition.
	OnState func(State)
}

// Result is the raw outcome of one engine run.
type Result struct {
	// State is the terminal state reached: Completed, TimedOut or Crashed.
	State State
	// States is every state visited, ending in Finalized.
	States   []State
	Command  string
	Pid      int
	ExitCode int
	Stdout   string
	Stderr   string
	// Delivered is the number of input lines the engine accepted.
	Delivered int
	// UndeliveredSteps are the script steps carried by lines that were
	// never written because the engine stopped reading.
	UndeliveredSteps []int
	Duration         time.Duration
	// Err is a *TimeoutError or *ExecutionError for runs that did not
	// complete normally.
	Err error
}

// Tail returns the last n lines of combined stdout and stderr.
func (r *Result) Tail(n int) string {
	out := r.Stdout
	if r.Stderr != "" {
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += r.Stderr
	}
	return TailLines(out, n)
}

// TailLines returns the last n lines of s.
func TailLines(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if n <= 0 || s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

type exitStatus struct {
	code int
	err  error
}

// Run launches the engine, writes lines in order and waits for it to exit
// or for timeout to elapse. A timeout of zero means no limit.
//
// Launch failures are returned as *ExecutionError with no Result. Every
// other outcome, timeouts and crashes included, is a Result with a nil
// error; the process has been reclaimed by the time Run returns.
func (d *Driver) Run(ctx context.Context, lines []replay.Line, spec LaunchSpec, timeout time.Duration) (*Result, error) {
	m := newMachine(d.OnState)
	stdout := &syncBuffer{mirror: d.Mirror}
	stderr := &syncBuffer{}
	start := time.Now()

	m.to(Launching)
	proc, err := d.Launcher.Launch(ctx, spec, stdout, stderr)
	if err != nil {
		m.to(Crashed)
		m.to(Finalized)
		var execErr *ExecutionError
		if !errors.As(err, &execErr) {
			err = &ExecutionError{Op: "launch", Err: err}
		}
		return nil, err
	}
	m.to(Streaming)

	res := &Result{Command: d.Launcher.Describe(spec), Pid: proc.Pid()}
	defer func() {
		_ = proc.CloseInput()
		_ = proc.Terminate(d.grace())
		if !m.current.Terminal() {
			m.to(Crashed)
		}
		m.to(Finalized)
		res.State = m.terminal
		res.States = append([]State(nil), m.history...)
	}()

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	delivered := make(chan int, 1)
	go func() { delivered <- feed(runCtx, proc, lines) }()

	exited := make(chan exitStatus, 1)
	go func() {
		code, err := proc.Wait()
		exited <- exitStatus{code: code, err: err}
	}()

	var st exitStatus
	var stopped error
	select {
	case st = <-exited:
	case <-runCtx.Done():
		stopped = runCtx.Err()
		_ = proc.Terminate(d.grace())
		st = <-exited
	}

	res.Delivered = <-delivered
	for _, l := range lines[min(res.Delivered, len(lines)):] {
		res.UndeliveredSteps = append(res.UndeliveredSteps, l.Steps...)
	}
	res.ExitCode = st.code
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	res.Duration = time.Since(start)

	switch {
	case stopped != nil && ctx.Err() == nil:
		m.to(TimedOut)
		res.Err = NewTimeoutError(timeout, res.Command)
	case stopped != nil:
		m.to(Crashed)
		res.Err = &ExecutionError{Op: "run", Err: ctx.Err()}
	case st.err != nil:
		m.to(Crashed)
		res.Err = &ExecutionError{Op: "run", Err: st.err}
	case st.code != 0:
		m.to(Crashed)
		res.Err = &ExecutionError{Op: "run", Err: fmt.Errorf("exit status %d", st.code)}
	default:
		m.to(Completed)
	}
	return res, nil
}

func (d *Driver) grace() time.Duration {
	if d.GracePeriod > 0 {
		return d.GracePeriod
	}
	return DefaultGracePeriod
}

// feed writes lines until they run out, a write fails or ctx is done, then
// closes the input. It returns the number of lines written.
func feed(ctx context.Context, proc Process, lines []replay.Line) int {
	n := 0
	for _, l := range lines {
		if ctx.Err() != nil {
			break
		}
		if err := proc.WriteLine(l.Text); err != nil {
			break
		}
		n++
	}
	_ = proc.CloseInput()
	return n
}

// syncBuffer collects output written from the process copy goroutines.
type syncBuffer struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	mirror io.Writer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Write(p)
	if b.mirror != nil {
		_, _ = b.mirror.Write(p)
	}
	return len(p), nil
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
