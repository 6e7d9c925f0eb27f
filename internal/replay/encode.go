package replay

import (
	"strconv"
	"strings"
)

// DefaultTrailingBlankLines is how many empty lines follow the replay so the
// engine can walk past triggers, calculated fields and the form end screen.
const DefaultTrailingBlankLines = 10

// Line is one line of engine input.
type Line struct {
	Text string
	// Steps are the script command indexes this line delivers; empty for
	// framing lines that carry no command.
	Steps []int
}

// Encoder renders a script in an engine's input syntax.
type Encoder interface {
	Encode(s *Script) []Line
}

// CommCareEncoder targets the commcare-cli "play" session:
//
//	1                                  one line per navigation step
//	                                   blank line past "Form Start"
//	:replay ((/data/a[1]) (VALUE) (x)) ((/data/b[1]) (SKIP)) ...
//	:next                              step off the last replayed question
//	                                   blank lines to reach form completion
//
// An empty Enter on the last replayed question would clear its answer, so
// :next is used to move past it.
type CommCareEncoder struct {
	TrailingBlankLines int
}

// NewCommCareEncoder returns an encoder with default framing.
func NewCommCareEncoder() *CommCareEncoder {
	return &CommCareEncoder{TrailingBlankLines: DefaultTrailingBlankLines}
}

// Encode implements Encoder.
func (e *CommCareEncoder) Encode(s *Script) []Line {
	lines := make([]Line, 0, s.Len()+e.TrailingBlankLines+3)

	var clauses []string
	var answerSteps []int
	for i, c := range s.commands {
		if c.Kind == Navigate {
			lines = append(lines, Line{Text: strconv.Itoa(c.Index), Steps: []int{i}})
			continue
		}
		clauses = append(clauses, Clause(c))
		answerSteps = append(answerSteps, i)
	}

	if len(clauses) == 0 {
		return lines
	}

	lines = append(lines, Line{})
	lines = append(lines, Line{Text: ":replay " + strings.Join(clauses, " "), Steps: answerSteps})
	lines = append(lines, Line{Text: ":next"})
	for i := 0; i < e.TrailingBlankLines; i++ {
		lines = append(lines, Line{})
	}
	return lines
}

// Clause renders one non-navigation command as a replay clause.
func Clause(c Command) string {
	switch c.Kind {
	case Answer:
		return "((" + c.Path + ") (VALUE) (" + c.Value + "))"
	case SkipQuestion:
		return "((" + c.Path + ") (SKIP))"
	case NewRepeat:
		return "((" + c.Path + ") (NEW_REPEAT))"
	default:
		return ""
	}
}

// Render joins encoded lines into the exact bytes written to the engine.
func Render(lines []Line) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Texts returns the text of each line.
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}
