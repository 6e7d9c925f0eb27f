package classify

import (
	"regexp"
	"strconv"
	"strings"
)

// Grammar holds the output markers of a particular engine. Rejection
// patterns may name the offending step with a "path" or "index" group.
type Grammar struct {
	Faults      []*regexp.Regexp
	Rejections  []*regexp.Regexp
	Completions []*regexp.Regexp
}

// DefaultGrammar returns markers for the commcare-cli play session.
func DefaultGrammar() *Grammar {
	return &Grammar{
		Faults: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^Exception in thread "[^"]*"`),
			regexp.MustCompile(`(?m)^\s*(?:Caused by: )?(?:java|javax|org\.javarosa|org\.commcare)\.[\w.$]+(?:Exception|Error)\b.*$`),
			regexp.MustCompile(`(?i)\bxpath (?:type mismatch|evaluation error|exception)\b.*`),
			regexp.MustCompile(`(?i)\b(?:unable|failed) to (?:parse|read) (?:replay|session)\b.*`),
		},
		Rejections: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:no question|unknown (?:question|path)|could not (?:find|resolve) (?:question|path|reference))\b[^/\n]*(?P<path>/data/[^\s)]+)`),
			regexp.MustCompile(`(?i)\binvalid (?:input|answer|value)\b[^/\n]*(?P<path>/data/[^\s)]+)`),
			regexp.MustCompile(`(?i)\b(?:selection|index|choice) (?P<index>\d+) (?:is )?(?:out of (?:range|bounds)|not valid|invalid)\b.*`),
			regexp.MustCompile(`(?i)\binvalid (?:selection|menu (?:choice|selection))\b\D*(?P<index>\d+)?.*`),
			regexp.MustCompile(`(?i)\banswer (?:was )?rejected\b[^/\n]*(?P<path>/data/[^\s)]+)?.*`),
			regexp.MustCompile(`(?i)\bsorry, this response is (?:invalid|required)\b.*`),
		},
		Completions: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bform (?:entry )?(?:complete|completed|submitted)\b`),
		},
	}
}

// Rejection is a parsed rejection marker.
type Rejection struct {
	Message string
	// Path is the question address the engine named, if any.
	Path string
	// Index is the navigation index the engine named, 0 if none.
	Index int
}

// FindFault returns the first fault marker line in out.
func (g *Grammar) FindFault(out string) (string, bool) {
	for _, re := range g.Faults {
		if m := re.FindString(out); m != "" {
			return strings.TrimSpace(m), true
		}
	}
	return "", false
}

// FindRejection returns the earliest rejection marker in out.
func (g *Grammar) FindRejection(out string) (*Rejection, bool) {
	var best *Rejection
	bestAt := -1
	for _, re := range g.Rejections {
		loc := re.FindStringSubmatchIndex(out)
		if loc == nil || (bestAt >= 0 && loc[0] >= bestAt) {
			continue
		}
		r := &Rejection{Message: strings.TrimSpace(lineAt(out, loc[0]))}
		for i, name := range re.SubexpNames() {
			if loc[2*i] < 0 {
				continue
			}
			val := out[loc[2*i]:loc[2*i+1]]
			switch name {
			case "path":
				r.Path = strings.TrimRight(val, ".,;:")
			case "index":
				r.Index, _ = strconv.Atoi(val)
			}
		}
		best, bestAt = r, loc[0]
	}
	return best, best != nil
}

// Completed reports whether out contains a form completion marker.
func (g *Grammar) Completed(out string) bool {
	for _, re := range g.Completions {
		if re.MatchString(out) {
			return true
		}
	}
	return false
}

// lineAt returns the full line of s containing offset i.
func lineAt(s string, i int) string {
	start := strings.LastIndexByte(s[:i], '\n') + 1
	end := strings.IndexByte(s[i:], '\n')
	if end < 0 {
		return s[start:]
	}
	return s[start : i+end]
}
