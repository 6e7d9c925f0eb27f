// Package fixture loads and validates declarative form-test fixtures.
//
// A fixture names the CommCare project to run against (domain, app, mobile
// worker), the menu path that reaches a form, and an ordered log of answers.
// The answers section is kept as a list of entries rather than a map: the
// same question path may legitimately appear more than once (one NEW_REPEAT
// marker per repeat instance), and the order of entries drives how the replay
// compiler addresses repeat instances.
package fixture

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTimeout is used when a fixture omits the timeout key.
const DefaultTimeout = 120 * time.Second

// Bare tokens recognized in the answers section. They are only honored as
// plain (unquoted) YAML scalars with this exact casing.
const (
	TokenSkip      = "SKIP"
	TokenNewRepeat = "NEW_REPEAT"
)

// QuestionRoot is the prefix every question path must start with.
const QuestionRoot = "/data/"

// Kind tags an AnswerValue.
type Kind int

const (
	// KindLiteral is a verbatim value: text, number, date, select index or
	// space-separated multi-select index list.
	KindLiteral Kind = iota
	// KindSkip leaves a non-required question unanswered.
	KindSkip
	// KindNewRepeat creates a new instance of the repeat group at the path.
	KindNewRepeat
)

// String returns the fixture token for the kind.
func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindSkip:
		return TokenSkip
	case KindNewRepeat:
		return TokenNewRepeat
	default:
		return "unknown"
	}
}

// AnswerValue is the tagged value of one answer entry.
type AnswerValue struct {
	Kind Kind
	// Text is set for KindLiteral only.
	Text string
}

// Literal returns a literal answer value.
func Literal(text string) AnswerValue { return AnswerValue{Kind: KindLiteral, Text: text} }

// Skip returns the SKIP marker.
func Skip() AnswerValue { return AnswerValue{Kind: KindSkip} }

// NewRepeat returns the NEW_REPEAT marker.
func NewRepeat() AnswerValue { return AnswerValue{Kind: KindNewRepeat} }

// String renders the value the way it would appear in a fixture file.
func (v AnswerValue) String() string {
	if v.Kind == KindLiteral {
		return fmt.Sprintf("%q", v.Text)
	}
	return v.Kind.String()
}

// Answer is one entry of the ordered answers log.
type Answer struct {
	Path  string
	Value AnswerValue
	// Line is the 1-based source line of the key, 0 when built in code.
	Line int
}

// NavigationStep is a 1-indexed menu or entity-list selection.
type NavigationStep struct {
	Index int
}

// Connection identifies where artifacts for the fixture come from. The
// values are only used to resolve the app and restore files, and each one
// names a single directory of the workspace cache.
type Connection struct {
	Domain   string `yaml:"domain" validate:"required,pathsegment"`
	AppID    string `yaml:"app_id" validate:"required,pathsegment"`
	Username string `yaml:"username" validate:"required,pathsegment"`
}

// Key returns the artifact cache key for the app (domain + app).
func (c Connection) Key() string {
	return c.Domain + "/" + c.AppID
}

// UserKey returns the artifact cache key for the user snapshot.
func (c Connection) UserKey() string {
	return c.Domain + "/" + c.AppID + "/" + c.Username
}

// Fixture is a parsed, validated test fixture. It is read-only after Load.
type Fixture struct {
	Name       string
	Connection Connection
	Timeout    time.Duration
	Navigation []NavigationStep
	Answers    []Answer

	// SourcePath is the file the fixture was loaded from, if any.
	SourcePath string
	// Warnings lists non-fatal findings such as meaningless duplicates.
	Warnings []*Issue

	timeoutSet bool
}

// Overrides are command-line replacements for fixture values.
type Overrides struct {
	Domain  string
	Timeout time.Duration
	// DefaultTimeout replaces DefaultTimeout for fixtures that do not set
	// their own timeout. Timeout wins over it.
	DefaultTimeout time.Duration
}

// WithOverrides returns a copy of the fixture with non-zero overrides
// applied. The receiver is not modified.
func (f *Fixture) WithOverrides(o Overrides) *Fixture {
	cp := *f
	cp.Navigation = append([]NavigationStep(nil), f.Navigation...)
	cp.Answers = append([]Answer(nil), f.Answers...)
	cp.Warnings = append([]*Issue(nil), f.Warnings...)
	if o.Domain != "" {
		cp.Connection.Domain = o.Domain
	}
	switch {
	case o.Timeout > 0:
		cp.Timeout = o.Timeout
	case o.DefaultTimeout > 0 && !f.timeoutSet:
		cp.Timeout = o.DefaultTimeout
	}
	return &cp
}

// RepeatPaths returns the distinct paths that carry a NEW_REPEAT marker,
// in order of first appearance.
func (f *Fixture) RepeatPaths() []string {
	seen := make(map[string]bool)
	var paths []string
	for _, a := range f.Answers {
		if a.Value.Kind != KindNewRepeat {
			continue
		}
		p := StripIndexes(a.Path)
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	return paths
}

// StripIndexes removes positional predicates ("[2]") from every segment of
// a question path.
func StripIndexes(path string) string {
	if !strings.Contains(path, "[") {
		return path
	}
	var sb strings.Builder
	depth := 0
	for _, r := range path {
		switch {
		case r == '[':
			depth++
		case r == ']' && depth > 0:
			depth--
		case depth == 0:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
