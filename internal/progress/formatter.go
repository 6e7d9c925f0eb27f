package progress

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// formatStageCounter returns the [N/Total] stage counter string
func formatStageCounter(number, total int) string {
	return fmt.Sprintf("[%d/%d]", number, total)
}

// stageLabel renders "[N/T] Name <verb>" with the fixture label and detail
// when present.
func stageLabel(stage StageInfo, verb string) string {
	var b strings.Builder
	if stage.Fixture != "" {
		fmt.Fprintf(&b, "%s: ", stage.Fixture)
	}
	b.WriteString(formatStageCounter(stage.Number, stage.TotalStages))
	b.WriteString(" ")
	b.WriteString(capitalize(stage.Name))
	if verb != "" {
		b.WriteString(" ")
		b.WriteString(verb)
	}
	return b.String()
}

// buildStageMessage constructs the message shown while a stage runs
func buildStageMessage(stage StageInfo) string {
	msg := stageLabel(stage, "")
	if stage.Detail != "" {
		msg += " (" + stage.Detail + ")"
	}
	return msg + "..."
}

// capitalize returns the string with the first letter capitalized
func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// checkmark returns the appropriate checkmark symbol
func checkmark(symbols ProgressSymbols, supportsColor bool) string {
	return paint(symbols.Checkmark, color.FgGreen, supportsColor)
}

// failureMark returns the appropriate failure symbol
func failureMark(symbols ProgressSymbols, supportsColor bool) string {
	return paint(symbols.Failure, color.FgRed, supportsColor)
}

func warningPrefix(supportsColor bool) string {
	return paint("Warning:", color.FgYellow, supportsColor) + " "
}

// paint colors s regardless of the global color.NoColor switch, which
// only looks at stdout; progress goes to stderr.
func paint(s string, attr color.Attribute, supportsColor bool) string {
	if !supportsColor {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}
