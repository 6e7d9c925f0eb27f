// Package progress renders run progress on stderr: a spinner per stage on
// terminals, plain lines otherwise, plus gated debug lines.
package progress

import apperrors "github.com/cctools/cctest/internal/errors"

// StageStatus is where a stage is in its run.
type StageStatus int

const (
	StagePending StageStatus = iota
	StageInProgress
	StageCompleted
	StageFailed
)

var stageStatusNames = [...]string{
	StagePending:    "pending",
	StageInProgress: "in_progress",
	StageCompleted:  "completed",
	StageFailed:     "failed",
}

func (s StageStatus) String() string {
	if s < 0 || int(s) >= len(stageStatusNames) {
		return "unknown"
	}
	return stageStatusNames[s]
}

// StageInfo describes one stage of a fixture run: compile, execute or
// classify.
type StageInfo struct {
	Name string
	// Number is 1-based and at most TotalStages.
	Number      int
	TotalStages int
	Status      StageStatus
	// Fixture prefixes the line so concurrent runs can be told apart.
	Fixture string
	// Detail is shown in parentheses after the stage name.
	Detail string
}

// Validate rejects stages that cannot be rendered as "[N/T] Name".
func (p StageInfo) Validate() error {
	switch {
	case p.Name == "":
		return apperrors.NewArgumentError("stage name cannot be empty")
	case p.Number <= 0:
		return apperrors.NewArgumentError("stage number must be > 0")
	case p.TotalStages <= 0:
		return apperrors.NewArgumentError("total stages must be > 0")
	case p.Number > p.TotalStages:
		return apperrors.NewArgumentError("stage number cannot exceed total stages")
	}
	return nil
}

// TerminalCapabilities are the features detected on the output stream.
type TerminalCapabilities struct {
	IsTTY           bool
	SupportsColor   bool
	SupportsUnicode bool
	// Width is 0 when unknown.
	Width int
}

// ProgressSymbols are the marks used for stage results. SpinnerSet indexes
// spinner.CharSets.
type ProgressSymbols struct {
	Checkmark  string
	Failure    string
	SpinnerSet int
}
