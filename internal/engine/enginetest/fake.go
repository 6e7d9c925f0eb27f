// Package enginetest provides an in-memory engine for tests of code that
// drives engine.Process.
package enginetest

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/cctools/cctest/internal/engine"
)

// FakePid is the pid every fake process reports.
const FakePid = 4242

// Behavior scripts how a fake process reacts to its input.
type Behavior struct {
	// Respond computes output and exit code from all input received. It is
	// called when input is closed or AcceptLines is reached. When nil, Stdout
	// and ExitCode are used as-is.
	Respond  func(input []string) (stdout string, exitCode int)
	Stdout   string
	Stderr   string
	ExitCode int
	// AcceptLines makes the process exit after reading that many lines,
	// refusing the rest. Zero accepts everything.
	AcceptLines int
	// Hang keeps the process running after input closes until terminated.
	Hang bool
	// IgnoreTerminate makes Terminate wait out the whole grace period
	// before the process dies, as if it ignored the polite signal.
	IgnoreTerminate bool
}

// Launcher hands out fake processes.
type Launcher struct {
	Behavior  Behavior
	LaunchErr error

	mu        sync.Mutex
	specs     []engine.LaunchSpec
	processes []*Process
}

// Launch implements engine.Launcher.
func (l *Launcher) Launch(ctx context.Context, spec engine.LaunchSpec, stdout, stderr io.Writer) (engine.Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.specs = append(l.specs, spec)
	if l.LaunchErr != nil {
		return nil, l.LaunchErr
	}
	p := &Process{behavior: l.Behavior, stdout: stdout, stderr: stderr, done: make(chan struct{})}
	l.processes = append(l.processes, p)
	return p, nil
}

// Describe implements engine.Launcher.
func (l *Launcher) Describe(spec engine.LaunchSpec) string {
	return "fake-engine play " + spec.AppPath
}

// Specs returns every spec passed to Launch.
func (l *Launcher) Specs() []engine.LaunchSpec {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]engine.LaunchSpec(nil), l.specs...)
}

// Processes returns every process launched.
func (l *Launcher) Processes() []*Process {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Process(nil), l.processes...)
}

// Process is a fake engine.Process.
type Process struct {
	behavior Behavior
	stdout   io.Writer
	stderr   io.Writer

	mu         sync.Mutex
	input      []string
	exited     bool
	exitCode   int
	terminated bool
	done       chan struct{}
}

// WriteLine implements engine.Process.
func (p *Process) WriteLine(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited {
		return io.ErrClosedPipe
	}
	p.input = append(p.input, line)
	if p.behavior.AcceptLines > 0 && len(p.input) >= p.behavior.AcceptLines {
		p.respondLocked()
	}
	return nil
}

// CloseInput implements engine.Process.
func (p *Process) CloseInput() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.exited && !p.behavior.Hang {
		p.respondLocked()
	}
	return nil
}

// Wait implements engine.Process.
func (p *Process) Wait() (int, error) {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode, nil
}

// Terminate implements engine.Process.
func (p *Process) Terminate(grace time.Duration) error {
	p.mu.Lock()
	if p.exited {
		p.mu.Unlock()
		return nil
	}
	p.terminated = true
	ignore := p.behavior.IgnoreTerminate
	p.mu.Unlock()

	if ignore {
		time.Sleep(grace)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.exitLocked(-1)
	return nil
}

// Pid implements engine.Process.
func (p *Process) Pid() int { return FakePid }

// Input returns the lines received so far.
func (p *Process) Input() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.input...)
}

// Exited reports whether the process has exited.
func (p *Process) Exited() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exited
}

// Terminated reports whether Terminate reached a live process.
func (p *Process) Terminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}

func (p *Process) respondLocked() {
	out, code := p.behavior.Stdout, p.behavior.ExitCode
	if p.behavior.Respond != nil {
		out, code = p.behavior.Respond(append([]string(nil), p.input...))
	}
	if out != "" {
		_, _ = io.WriteString(p.stdout, out)
	}
	if p.behavior.Stderr != "" {
		_, _ = io.WriteString(p.stderr, p.behavior.Stderr)
	}
	p.exitLocked(code)
}

func (p *Process) exitLocked(code int) {
	if p.exited {
		return
	}
	p.exited = true
	p.exitCode = code
	close(p.done)
}
