// Package replay compiles a validated fixture into the ordered command
// script a form-execution engine consumes.
//
// Compilation happens in two layers. Compile turns fixture entries into
// logical commands (navigate, answer, skip, new repeat) with fully resolved
// question addresses, binding answers under a repeat group to the instance
// most recently created by a NEW_REPEAT marker. An Encoder then renders the
// logical script into the line-oriented wire syntax of a particular engine.
package replay

import (
	"fmt"
	"strings"
)

// CommandKind is the logical kind of a script command.
type CommandKind int

const (
	// Navigate selects a menu or entity-list entry (1-indexed).
	Navigate CommandKind = iota
	// Answer enters a literal value for a question.
	Answer
	// SkipQuestion leaves a question unanswered.
	SkipQuestion
	// NewRepeat creates a repeat group instance.
	NewRepeat
)

// String returns a short name for the kind.
func (k CommandKind) String() string {
	switch k {
	case Navigate:
		return "nav"
	case Answer:
		return "answer"
	case SkipQuestion:
		return "skip"
	case NewRepeat:
		return "new_repeat"
	default:
		return "unknown"
	}
}

// Command is one logical step of a replay script.
type Command struct {
	Kind CommandKind
	// Index is the selection for Navigate commands.
	Index int
	// Path is the resolved question address, every level below the root
	// carrying a positional index, e.g. /data/household[2]/name[1].
	Path string
	// SourcePath is the path as written in the fixture.
	SourcePath string
	// Value is the literal for Answer commands.
	Value string
	// Instance is the repeat instance created by a NewRepeat command.
	Instance int
	// Line is the fixture line the command came from, 0 if unknown.
	Line int
}

// String renders the command in a compact, stable form used in reports.
func (c Command) String() string {
	switch c.Kind {
	case Navigate:
		return fmt.Sprintf("nav(%d)", c.Index)
	case Answer:
		return fmt.Sprintf("answer(%s, %q)", c.Path, c.Value)
	case SkipQuestion:
		return fmt.Sprintf("skip(%s)", c.Path)
	case NewRepeat:
		return fmt.Sprintf("new_repeat(%s)", c.Path)
	default:
		return "unknown"
	}
}

// Script is an immutable, ordered sequence of commands compiled from one
// fixture for one run attempt.
type Script struct {
	name     string
	commands []Command
}

// Name returns the fixture name the script was compiled from.
func (s *Script) Name() string { return s.name }

// Len returns the number of commands.
func (s *Script) Len() int { return len(s.commands) }

// Command returns the i-th command.
func (s *Script) Command(i int) Command { return s.commands[i] }

// Commands returns a copy of the commands.
func (s *Script) Commands() []Command {
	return append([]Command(nil), s.commands...)
}

// NavigationCount returns the number of leading Navigate commands.
func (s *Script) NavigationCount() int {
	n := 0
	for _, c := range s.commands {
		if c.Kind != Navigate {
			break
		}
		n++
	}
	return n
}

// String lists the commands one per line.
func (s *Script) String() string {
	var sb strings.Builder
	for i, c := range s.commands {
		fmt.Fprintf(&sb, "%3d  %s\n", i+1, c)
	}
	return sb.String()
}
