// Package classify turns the raw output of an engine run into a test
// verdict with per-step detail.
package classify

import (
	"encoding/json"
	"time"
)

// Status is the verdict of one run.
type Status string

const (
	// Pass means every command was accepted and the form completed.
	Pass Status = "pass"
	// Fail means the engine ran normally but rejected a scripted step or
	// never reached form completion.
	Fail Status = "fail"
	// Error means a tooling or configuration problem: launch failure,
	// crash, timeout or an internal engine fault.
	Error Status = "error"
)

// StepStatus is what is known about one script command after the run.
type StepStatus string

const (
	StepAccepted   StepStatus = "accepted"
	StepRejected   StepStatus = "rejected"
	StepDelivered  StepStatus = "delivered"
	StepNotReached StepStatus = "not_reached"
)

// StepResult describes one command of the script, in emission order.
type StepResult struct {
	Index   int        `json:"index"`
	Command string     `json:"command"`
	Path    string     `json:"path,omitempty"`
	Line    int        `json:"line,omitempty"`
	Status  StepStatus `json:"status"`
	Message string     `json:"message,omitempty"`
}

// Outcome is the immutable result of one fixture run.
type Outcome struct {
	RunID      string        `json:"run_id,omitempty"`
	Fixture    string        `json:"fixture"`
	SourcePath string        `json:"source_path,omitempty"`
	Status     Status        `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	FailedStep *StepResult   `json:"failed_step,omitempty"`
	Steps      []StepResult  `json:"steps,omitempty"`
	ExitCode   int           `json:"exit_code"`
	TimedOut   bool          `json:"timed_out,omitempty"`
	Command    string        `json:"command,omitempty"`
	Duration   time.Duration `json:"-"`
	// FormXML is the completed form instance, empty when none was printed.
	FormXML string `json:"-"`
	// RawOutput is the full engine stdout followed by stderr.
	RawOutput string `json:"-"`
	// RawTail is the last lines of engine output for diagnostics.
	RawTail string `json:"raw_tail,omitempty"`
	// Err is the underlying error for Error outcomes.
	Err error `json:"-"`
}

// Passed reports whether the outcome is a Pass.
func (o *Outcome) Passed() bool { return o.Status == Pass }

// MarshalJSON adds derived fields to the JSON form.
func (o *Outcome) MarshalJSON() ([]byte, error) {
	type plain Outcome
	return json.Marshal(struct {
		*plain
		DurationSeconds float64 `json:"duration_seconds"`
		FormXMLBytes    int     `json:"form_xml_size_bytes,omitempty"`
	}{
		plain:           (*plain)(o),
		DurationSeconds: float64(o.Duration.Milliseconds()) / 1000,
		FormXMLBytes:    len(o.FormXML),
	})
}
