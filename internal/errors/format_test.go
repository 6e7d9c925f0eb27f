package errors

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatErrorPlain(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FormatErrorPlain(nil))
	assert.Empty(t, FormatError(nil))

	err := &CLIError{
		Category:    Argument,
		Message:     "no fixture file given",
		Usage:       "cctest run <fixture.yaml>...",
		Remediation: []string{"Pass one or more fixture files", "Create a template with: cctest init"},
	}

	want := "Argument Error: no fixture file given\n" +
		"\nUsage: cctest run <fixture.yaml>...\n" +
		"\nTo fix this:\n" +
		"  1. Pass one or more fixture files\n" +
		"  2. Create a template with: cctest init\n"
	assert.Equal(t, want, FormatErrorPlain(err))
}

func TestFormatError_ContainsParts(t *testing.T) {
	t.Parallel()

	out := FormatError(&CLIError{Category: Configuration, Message: "config error", Remediation: []string{"fix it"}})
	assert.Contains(t, out, "Configuration Error")
	assert.Contains(t, out, "config error")
	assert.Contains(t, out, "To fix this:")
	assert.Contains(t, out, "fix it")
	assert.NotContains(t, out, "Usage:")
}

func TestFprintError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	FprintError(&buf, nil)
	assert.Zero(t, buf.Len())

	FprintError(&buf, &CLIError{Category: Prerequisite, Message: "missing file"})
	assert.Contains(t, buf.String(), "missing file")
}

func TestPrintError_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		PrintError(nil)
		PrintError(&CLIError{Category: Runtime, Message: "test"})
	})
}

func TestFormatSimpleError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FormatSimpleError(nil, Runtime))

	out := FormatSimpleError(stderrors.New("engine crashed"), Runtime)
	assert.Contains(t, out, "Runtime Error")
	assert.Contains(t, out, "engine crashed")

	out = FormatSimpleError(NewPrerequisiteError("no java"), Runtime)
	assert.Contains(t, out, "Prerequisite Error", "a CLIError keeps its own category")
}
