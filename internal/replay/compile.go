package replay

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cctools/cctest/internal/fixture"
)

// CompileError reports an answer whose address cannot be resolved without
// running the engine, e.g. a question inside a repeat group that appears
// before any NEW_REPEAT for that group.
type CompileError struct {
	Path       string
	RepeatPath string
	Line       int
	// Instance is the explicit instance the answer addressed, 0 if none.
	Instance int
	// Created is the number of instances created before the answer.
	Created int
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	loc := ""
	if e.Line > 0 {
		loc = fmt.Sprintf(" (line %d)", e.Line)
	}
	if e.Instance > 0 && e.Created > 0 {
		return fmt.Sprintf("answer %s%s addresses instance %d of repeat group %s, but only %d NEW_REPEAT for %s appear before it",
			e.Path, loc, e.Instance, e.RepeatPath, e.Created, e.RepeatPath)
	}
	return fmt.Sprintf("answer %s%s is inside repeat group %s, but no NEW_REPEAT for %s appears before it",
		e.Path, loc, e.RepeatPath, e.RepeatPath)
}

// segment is one level of a question path.
type segment struct {
	name  string
	index int // 0 when not written explicitly
}

// compiler holds the per-compilation repeat state.
type compiler struct {
	// repeats holds canonical (index-free) paths that have NEW_REPEAT markers.
	repeats map[string]bool
	// instances counts instances created so far, keyed by the resolved
	// parent address plus the repeat name, so nested repeats count per
	// parent instance.
	instances map[string]int
}

// Compile turns a validated fixture into a Script. Navigation commands come
// first, in order and unchanged; answers follow in fixture order.
//
// Every answer nested under a repeat group is addressed to the instance
// created by the most recent NEW_REPEAT for that group, or to an earlier
// instance named explicitly. The binding depends only on entry order; no
// existing form data is consulted.
func Compile(f *fixture.Fixture) (*Script, error) {
	c := &compiler{
		repeats:   make(map[string]bool),
		instances: make(map[string]int),
	}
	for _, p := range f.RepeatPaths() {
		c.repeats[p] = true
	}

	commands := make([]Command, 0, len(f.Navigation)+len(f.Answers))
	for _, step := range f.Navigation {
		commands = append(commands, Command{Kind: Navigate, Index: step.Index})
	}

	for _, a := range f.Answers {
		cmd, err := c.compileAnswer(a)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}

	return &Script{name: f.Name, commands: commands}, nil
}

func (c *compiler) compileAnswer(a fixture.Answer) (Command, error) {
	segs := parsePath(a.Path)
	isMarker := a.Value.Kind == fixture.KindNewRepeat

	var resolved strings.Builder
	canonical := ""
	cmd := Command{SourcePath: a.Path, Line: a.Line}

	for i, seg := range segs {
		canonical += "/" + seg.name
		parent := resolved.String()
		resolved.WriteString("/" + seg.name)

		// The root element is never indexed.
		if i == 0 {
			continue
		}

		last := i == len(segs)-1
		idx := seg.index
		if c.repeats[canonical] {
			key := parent + "/" + seg.name
			switch {
			case last && isMarker:
				if idx > 0 {
					c.instances[key] = idx
				} else {
					c.instances[key]++
					idx = c.instances[key]
				}
				cmd.Instance = idx
			case last:
				// A non-marker entry on the repeat itself answers the
				// "add another?" prompt that follows the newest instance.
				if idx == 0 {
					idx = c.instances[key] + 1
				}
			default:
				n := c.instances[key]
				if n == 0 || idx > n {
					return Command{}, &CompileError{Path: a.Path, RepeatPath: canonical, Line: a.Line, Instance: idx, Created: n}
				}
				if idx == 0 {
					idx = n
				}
			}
		}
		if idx == 0 {
			idx = 1
		}
		resolved.WriteString("[" + strconv.Itoa(idx) + "]")
	}
	cmd.Path = resolved.String()

	switch a.Value.Kind {
	case fixture.KindLiteral:
		cmd.Kind = Answer
		cmd.Value = a.Value.Text
	case fixture.KindSkip:
		cmd.Kind = SkipQuestion
	case fixture.KindNewRepeat:
		cmd.Kind = NewRepeat
	default:
		return Command{}, fmt.Errorf("answer %s: unknown value kind %d", a.Path, a.Value.Kind)
	}
	return cmd, nil
}

// parsePath splits "/data/g[2]/x" into segments. The input has already been
// validated by the fixture package.
func parsePath(path string) []segment {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	segs := make([]segment, 0, len(parts))
	for _, p := range parts {
		seg := segment{name: p}
		if open := strings.IndexByte(p, '['); open > 0 && strings.HasSuffix(p, "]") {
			if n, err := strconv.Atoi(p[open+1 : len(p)-1]); err == nil {
				seg.name = p[:open]
				seg.index = n
			}
		}
		segs = append(segs, seg)
	}
	return segs
}
