package fixture

import (
	"fmt"
	"strings"
)

// Issue is a single validation finding with its source location.
type Issue struct {
	Path    string // fixture key path, e.g. "answers[/data/age]" or "navigation[1]"
	Line    int    // 1-based line number in source file
	Column  int    // 1-based column number in source file
	Message string
	Hint    string
}

// Error implements the error interface.
func (i *Issue) Error() string {
	var sb strings.Builder
	if i.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d", i.Line))
		if i.Column > 0 {
			sb.WriteString(fmt.Sprintf(":%d", i.Column))
		}
		sb.WriteString(": ")
	}
	if i.Path != "" {
		sb.WriteString(i.Path)
		sb.WriteString(": ")
	}
	sb.WriteString(i.Message)
	return sb.String()
}

// ValidationError reports every rule a fixture violates, not just the first.
type ValidationError struct {
	Source string
	Issues []*Issue
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var sb strings.Builder
	if e.Source != "" {
		sb.WriteString(e.Source)
		sb.WriteString(": ")
	}
	if len(e.Issues) == 1 {
		sb.WriteString(e.Issues[0].Error())
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("%d problems", len(e.Issues)))
	for _, issue := range e.Issues {
		sb.WriteString("\n  - ")
		sb.WriteString(issue.Error())
	}
	return sb.String()
}

// FormatFull returns a multi-line description including hints.
func (e *ValidationError) FormatFull() string {
	var sb strings.Builder
	for _, issue := range e.Issues {
		sb.WriteString("  ")
		sb.WriteString(issue.Error())
		sb.WriteString("\n")
		if issue.Hint != "" {
			sb.WriteString("    Hint: ")
			sb.WriteString(issue.Hint)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// collector accumulates issues while a fixture is parsed.
type collector struct {
	issues   []*Issue
	warnings []*Issue
}

func (c *collector) add(issue *Issue) {
	c.issues = append(c.issues, issue)
}

func (c *collector) warn(issue *Issue) {
	c.warnings = append(c.warnings, issue)
}

func (c *collector) err(source string) error {
	if len(c.issues) == 0 {
		return nil
	}
	return &ValidationError{Source: source, Issues: c.issues}
}
