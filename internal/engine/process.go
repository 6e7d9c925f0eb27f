package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Process is a running engine. Implementations must be safe for WriteLine
// and CloseInput to be called from one goroutine while Wait and Terminate
// are called from another.
type Process interface {
	// WriteLine sends one line of input. It fails once the engine has
	// closed its input or exited.
	WriteLine(line string) error
	// CloseInput signals end of input.
	CloseInput() error
	// Wait blocks until the process exits and returns its exit code,
	// -1 if it was killed by a signal.
	Wait() (int, error)
	// Terminate asks the process to stop, then kills it after grace.
	// It returns once the process has exited.
	Terminate(grace time.Duration) error
	// Pid returns the operating system process id, 0 if there is none.
	Pid() int
}

// LaunchSpec names the artifacts a run needs.
type LaunchSpec struct {
	AppPath     string
	RestorePath string
	ExtraArgs   []string
}

// Launcher starts engine processes. Output is written to stdout and
// stderr until the process exits.
type Launcher interface {
	Launch(ctx context.Context, spec LaunchSpec, stdout, stderr io.Writer) (Process, error)
	// Describe returns a printable command line for spec.
	Describe(spec LaunchSpec) string
}

// waitDelay bounds how long Wait keeps copying output after the process has
// exited, for children that leave descendants holding the pipes.
const waitDelay = 2 * time.Second

// CommandLauncher runs an arbitrary executable with fixed arguments
// followed by the launch spec's ExtraArgs.
type CommandLauncher struct {
	Path    string
	Args    []string
	WorkDir string
	Env     map[string]string
}

// Launch implements Launcher.
func (l *CommandLauncher) Launch(ctx context.Context, spec LaunchSpec, stdout, stderr io.Writer) (Process, error) {
	args := append(append([]string(nil), l.Args...), spec.ExtraArgs...)
	p, err := startProcess(l.Path, args, l.WorkDir, l.Env, stdout, stderr)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Describe implements Launcher.
func (l *CommandLauncher) Describe(spec LaunchSpec) string {
	return formatCommand(l.Path, append(append([]string(nil), l.Args...), spec.ExtraArgs...))
}

// execProcess adapts exec.Cmd to Process.
type execProcess struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser

	done    chan struct{}
	waitErr error

	closeOnce sync.Once
	closeErr  error
}

func startProcess(path string, args []string, dir string, env map[string]string, stdout, stderr io.Writer) (*execProcess, error) {
	cmd := exec.Command(path, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &ExecutionError{Op: "start", Path: path, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &ExecutionError{Op: "start", Path: path, Err: err}
	}

	p := &execProcess{cmd: cmd, stdin: stdin, done: make(chan struct{})}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

func (p *execProcess) WriteLine(line string) error {
	select {
	case <-p.done:
		return io.ErrClosedPipe
	default:
	}
	_, err := io.WriteString(p.stdin, line+"\n")
	return err
}

func (p *execProcess) CloseInput() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.stdin.Close()
		// Wait closes the pipe too once the process is gone.
		if errors.Is(p.closeErr, os.ErrClosed) {
			p.closeErr = nil
		}
	})
	return p.closeErr
}

func (p *execProcess) Wait() (int, error) {
	<-p.done
	if p.waitErr == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(p.waitErr, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if errors.Is(p.waitErr, exec.ErrWaitDelay) {
		return p.cmd.ProcessState.ExitCode(), nil
	}
	return -1, p.waitErr
}

func (p *execProcess) Terminate(grace time.Duration) error {
	select {
	case <-p.done:
		return nil
	default:
	}

	if err := interrupt(p.cmd.Process); err != nil {
		_ = kill(p.cmd.Process)
	}
	select {
	case <-p.done:
		return nil
	case <-time.After(grace):
	}

	if err := kill(p.cmd.Process); err != nil {
		select {
		case <-p.done:
			return nil
		default:
			return fmt.Errorf("killing engine process %d: %w", p.Pid(), err)
		}
	}
	<-p.done
	return nil
}

func (p *execProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// formatCommand quotes arguments containing spaces for display.
func formatCommand(path string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	for _, a := range append([]string{path}, args...) {
		if strings.ContainsAny(a, " \t") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
