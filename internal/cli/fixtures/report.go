package fixtures

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/cctools/cctest/internal/classify"
	"github.com/cctools/cctest/internal/cli/shared"
	"github.com/cctools/cctest/internal/runner"
)

// statusInvalid labels fixtures that never ran because they did not compile.
const statusInvalid = "invalid"

func writeResults(w io.Writer, format string, reports []runner.Report) error {
	if format == FormatJSON {
		return writeJSON(w, reports)
	}
	if len(reports) == 1 {
		writeVerdict(w, reports[0])
		return nil
	}
	writeTable(w, reports)
	return nil
}

// writeJSON prints one object per fixture as a JSON array.
func writeJSON(w io.Writer, reports []runner.Report) error {
	items := make([]json.RawMessage, 0, len(reports))
	for _, rep := range reports {
		var v any = rep.Outcome
		if rep.Outcome == nil {
			v = map[string]string{
				"fixture":     rep.Job.Fixture.Name,
				"source_path": rep.Job.Fixture.SourcePath,
				"status":      statusInvalid,
				"reason":      errText(rep.Err),
			}
		}
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding result for %s: %w", rep.Job.Fixture.Name, err)
		}
		items = append(items, data)
	}

	out, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// writeVerdict prints the result of a single fixture run.
func writeVerdict(w io.Writer, rep runner.Report) {
	c := shared.NewColors()
	name := rep.Job.Fixture.Name

	o := rep.Outcome
	if o == nil {
		fmt.Fprintf(w, "%s  %s\n", c.Red("INVALID"), name)
		return
	}

	fmt.Fprintf(w, "%s  %s  %s\n", statusLabel(c, o.Status), name, c.Dim("("+formatDuration(o.Duration)+")"))
	if o.Passed() {
		return
	}
	fmt.Fprintf(w, "  %s\n", o.Reason)
	if o.FailedStep != nil {
		fmt.Fprintf(w, "  %s\n", describeStep(o.FailedStep))
	}
	if o.Status == classify.Error && o.RawTail != "" {
		fmt.Fprintln(w, c.Dim("  engine output (last lines):"))
		for _, line := range strings.Split(strings.TrimRight(o.RawTail, "\n"), "\n") {
			fmt.Fprintln(w, c.Dim("    "+line))
		}
	}
}

// writeTable prints a summary table for several fixtures.
func writeTable(w io.Writer, reports []runner.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Fixture", "Status", "Duration", "Detail"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Detail", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	var total time.Duration
	for _, rep := range reports {
		o := rep.Outcome
		if o == nil {
			t.AppendRow(table.Row{rep.Job.Fixture.Name, strings.ToUpper(statusInvalid), "-", errText(rep.Err)})
			continue
		}
		total += o.Duration

		detail := o.Reason
		if o.FailedStep != nil {
			detail += "; " + describeStep(o.FailedStep)
		}
		t.AppendRow(table.Row{o.Fixture, strings.ToUpper(string(o.Status)), formatDuration(o.Duration), detail})
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		summarize(tally(reports), len(reports)),
		formatDuration(total),
		"",
	})
	t.Render()
}

// tally counts reports by status; fixtures that never ran count as invalid.
func tally(reports []runner.Report) map[string]int {
	counts := map[string]int{}
	for _, rep := range reports {
		if rep.Outcome == nil {
			counts[statusInvalid]++
			continue
		}
		counts[string(rep.Outcome.Status)]++
	}
	return counts
}

func summarize(counts map[string]int, total int) string {
	parts := []string{fmt.Sprintf("%d/%d passed", counts[string(classify.Pass)], total)}
	for _, status := range []string{string(classify.Fail), string(classify.Error), statusInvalid} {
		if n := counts[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, status))
		}
	}
	return strings.Join(parts, ", ")
}

func statusLabel(c *shared.Colors, s classify.Status) string {
	switch s {
	case classify.Pass:
		return c.Green("PASS")
	case classify.Fail:
		return c.Red("FAIL")
	default:
		return c.Yellow("ERROR")
	}
}

func describeStep(s *classify.StepResult) string {
	desc := fmt.Sprintf("step %d: %s", s.Index+1, s.Command)
	if s.Line > 0 {
		desc += fmt.Sprintf(" (fixture line %d)", s.Line)
	}
	if s.Message != "" {
		desc += ": " + s.Message
	}
	return desc
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
