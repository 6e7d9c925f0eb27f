package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// Display renders stage progress and diagnostic lines. All output goes to
// one writer, normally stderr, so stdout stays free for results. A nil
// *Display discards everything.
type Display struct {
	mu           sync.Mutex
	out          io.Writer
	capabilities TerminalCapabilities
	currentStage *StageInfo
	spinner      *spinner.Spinner
	symbols      ProgressSymbols
	debug        bool
}

// NewDisplay creates a display writing to out with the given terminal capabilities
func NewDisplay(out io.Writer, caps TerminalCapabilities) *Display {
	if out == nil {
		out = os.Stderr
	}
	return &Display{
		out:          out,
		capabilities: caps,
		symbols:      SelectSymbols(caps),
	}
}

// SetDebug enables [DEBUG] lines
func (p *Display) SetDebug(on bool) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.debug = on
	p.mu.Unlock()
}

// Capabilities returns the terminal capabilities the display was built with
func (p *Display) Capabilities() TerminalCapabilities {
	if p == nil {
		return TerminalCapabilities{}
	}
	return p.capabilities
}

// StartStage begins displaying progress for a stage
func (p *Display) StartStage(stage StageInfo) error {
	if p == nil {
		return nil
	}
	if err := stage.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopSpinner()
	p.currentStage = &stage
	msg := buildStageMessage(stage)

	if p.capabilities.IsTTY {
		p.spinner = spinner.New(
			spinner.CharSets[p.symbols.SpinnerSet],
			100*time.Millisecond,
			writerOption(p.out),
		)
		p.spinner.Suffix = " " + msg
		p.spinner.Start()
		return nil
	}

	fmt.Fprintln(p.out, msg)
	return nil
}

// CompleteStage stops the spinner and displays completion status
func (p *Display) CompleteStage(stage StageInfo) error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopSpinner()
	mark := checkmark(p.symbols, p.capabilities.SupportsColor)
	fmt.Fprintf(p.out, "%s %s\n", mark, stageLabel(stage, "done"))
	p.currentStage = nil
	return nil
}

// FailStage stops the spinner and displays failure status
func (p *Display) FailStage(stage StageInfo, err error) error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopSpinner()
	mark := failureMark(p.symbols, p.capabilities.SupportsColor)
	fmt.Fprintf(p.out, "%s %s: %v\n", mark, stageLabel(stage, "failed"), err)
	p.currentStage = nil
	return nil
}

// StopSpinner stops the spinner without showing completion/failure, for
// example before live engine output is mirrored to the terminal.
func (p *Display) StopSpinner() {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.stopSpinner()
	p.mu.Unlock()
}

// Infof prints an informational line
func (p *Display) Infof(format string, args ...any) {
	if p == nil {
		return
	}
	p.println(fmt.Sprintf(format, args...))
}

// Debugf prints a [DEBUG] line when debug output is enabled
func (p *Display) Debugf(format string, args ...any) {
	if p == nil {
		return
	}
	p.mu.Lock()
	on := p.debug
	p.mu.Unlock()
	if on {
		p.println("[DEBUG] " + fmt.Sprintf(format, args...))
	}
}

// Warnf prints a warning line
func (p *Display) Warnf(format string, args ...any) {
	if p == nil {
		return
	}
	p.println(warningPrefix(p.capabilities.SupportsColor) + fmt.Sprintf(format, args...))
}

// println writes a line while keeping a running spinner on its own line.
func (p *Display) println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	restart := p.spinner != nil
	if restart {
		p.spinner.Stop()
	}
	fmt.Fprintln(p.out, line)
	if restart {
		p.spinner.Start()
	}
}

func (p *Display) stopSpinner() {
	if p.spinner != nil {
		p.spinner.Stop()
		p.spinner = nil
	}
}

// writerOption points the spinner at out. A file is passed as the
// spinner's terminal check target too, so a redirected stdout does not
// suppress a spinner on stderr.
func writerOption(out io.Writer) spinner.Option {
	if f, ok := out.(*os.File); ok {
		return spinner.WithWriterFile(f)
	}
	return spinner.WithWriter(out)
}
