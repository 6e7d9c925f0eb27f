package fixture

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// segmentPattern matches one question path segment with an optional
// positional predicate.
var segmentPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-]*(\[[1-9][0-9]*\])?$`)

// knownKeys are the top-level fixture keys.
var knownKeys = map[string]bool{
	"name":       true,
	"domain":     true,
	"app_id":     true,
	"username":   true,
	"timeout":    true,
	"navigation": true,
	"answers":    true,
}

// maxTimeoutSeconds keeps timeout * time.Second within a time.Duration.
const maxTimeoutSeconds = math.MaxInt64 / int64(time.Second)

// header holds the scalar identity fields checked with struct tags.
type header struct {
	Name       string `yaml:"name" validate:"required"`
	Connection `yaml:",inline"`
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("pathsegment", func(fl validator.FieldLevel) bool {
		return IsPathSegment(fl.Field().String())
	})
	return v
}

// IsPathSegment reports whether v can name one directory of the workspace
// cache: no path separators, and neither "." nor "..".
func IsPathSegment(v string) bool {
	return v != "." && v != ".." && !strings.ContainsAny(v, `/\`)
}

// Load reads and validates the fixture at path.
func Load(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("fixture not found: %s: %w", path, err)
		}
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	defer file.Close()

	f, err := ParseReader(file, path)
	if err != nil {
		return nil, err
	}
	f.SourcePath = path
	return f, nil
}

// Parse decodes fixture YAML. The document is walked as a yaml.Node tree so
// that answer entries keep their order and repeated keys are not collapsed.
// On failure the returned error is a *ValidationError listing every problem.
func Parse(data []byte, source string) (*Fixture, error) {
	root, err := decodeRoot(data)
	if err != nil {
		line, col := extractLineColumn(err.Error())
		return nil, &ValidationError{Source: source, Issues: []*Issue{{
			Line:    line,
			Column:  col,
			Message: cleanYAMLError(err.Error()),
		}}}
	}

	c := &collector{}
	if root == nil || root.Kind != yaml.MappingNode {
		c.add(&Issue{
			Line:    nodeLine(root),
			Message: fmt.Sprintf("fixture must be a YAML mapping, got %s", kindName(root)),
		})
		return nil, c.err(source)
	}

	f := &Fixture{Timeout: DefaultTimeout}
	var h header
	keyLines := make(map[string]int)
	seenKeys := make(map[string]bool)

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], resolve(root.Content[i+1])
		key := keyNode.Value
		if seenKeys[key] {
			c.add(&Issue{Path: key, Line: keyNode.Line, Column: keyNode.Column, Message: "key defined more than once"})
			continue
		}
		seenKeys[key] = true
		keyLines[key] = keyNode.Line

		switch key {
		case "name":
			h.Name = stringField(c, key, valNode)
		case "domain":
			h.Domain = stringField(c, key, valNode)
		case "app_id":
			h.AppID = stringField(c, key, valNode)
		case "username":
			h.Username = stringField(c, key, valNode)
		case "timeout":
			if d, ok := parseTimeout(c, valNode); ok {
				f.Timeout = d
				f.timeoutSet = true
			}
		case "navigation":
			f.Navigation = parseNavigation(c, valNode)
		case "answers":
			f.Answers = parseAnswers(c, valNode)
		default:
			if !knownKeys[key] {
				c.warn(&Issue{Path: key, Line: keyNode.Line, Column: keyNode.Column, Message: "unknown key ignored"})
			}
		}
	}

	validateHeader(c, h, keyLines, root.Line)
	checkDuplicates(c, f.Answers)

	if err := c.err(source); err != nil {
		return nil, err
	}

	f.Name = h.Name
	f.Connection = h.Connection
	f.Warnings = c.warnings
	return f, nil
}

// ParseReader is Parse over an io.Reader.
func ParseReader(r io.Reader, source string) (*Fixture, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", source, err)
	}
	return Parse(data, source)
}

func decodeRoot(data []byte) (*yaml.Node, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return resolve(doc.Content[0]), nil
	}
	return resolve(&doc), nil
}

func validateHeader(c *collector, h header, keyLines map[string]int, rootLine int) {
	h.Name = strings.TrimSpace(h.Name)
	h.Domain = strings.TrimSpace(h.Domain)
	h.AppID = strings.TrimSpace(h.AppID)
	h.Username = strings.TrimSpace(h.Username)

	err := structValidator.Struct(h)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.add(&Issue{Line: rootLine, Message: err.Error()})
		return
	}
	for _, fe := range verrs {
		field := fe.Field()
		line, present := keyLines[field]
		issue := &Issue{Path: field, Line: line}
		switch {
		case fe.Tag() == "required" && present:
			issue.Message = "must not be empty"
		case fe.Tag() == "required":
			issue.Line = rootLine
			issue.Message = "missing required field"
			issue.Hint = fmt.Sprintf("add '%s: ...' at the top level of the fixture", field)
		case fe.Tag() == "pathsegment":
			issue.Message = fmt.Sprintf("%q must not contain '/' or '\\' or be '.' or '..'", fe.Value())
			issue.Hint = "the value names a directory in the workspace cache"
		default:
			issue.Message = fmt.Sprintf("failed %q check", fe.Tag())
		}
		c.add(issue)
	}
}

func stringField(c *collector, key string, n *yaml.Node) string {
	if n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		c.add(&Issue{Path: key, Line: n.Line, Column: n.Column, Message: fmt.Sprintf("must be a string, got %s", kindName(n))})
		return ""
	}
	return n.Value
}

func parseTimeout(c *collector, n *yaml.Node) (time.Duration, bool) {
	if n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		c.add(&Issue{Path: "timeout", Line: n.Line, Column: n.Column, Message: "must be a positive integer number of seconds"})
		return 0, false
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(n.Value), 10, 64)
	if err != nil || secs <= 0 {
		c.add(&Issue{
			Path:    "timeout",
			Line:    n.Line,
			Column:  n.Column,
			Message: fmt.Sprintf("must be a positive integer number of seconds, got %q", n.Value),
		})
		return 0, false
	}
	if secs > maxTimeoutSeconds {
		c.add(&Issue{
			Path:    "timeout",
			Line:    n.Line,
			Column:  n.Column,
			Message: fmt.Sprintf("must be at most %d seconds, got %s", maxTimeoutSeconds, n.Value),
		})
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

func parseNavigation(c *collector, n *yaml.Node) []NavigationStep {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		c.add(&Issue{Path: "navigation", Line: n.Line, Column: n.Column, Message: fmt.Sprintf("must be a list, got %s", kindName(n))})
		return nil
	}
	steps := make([]NavigationStep, 0, len(n.Content))
	for i, item := range n.Content {
		item = resolve(item)
		path := fmt.Sprintf("navigation[%d]", i)
		idx, ok := positiveInt(item)
		if !ok {
			c.add(&Issue{
				Path:    path,
				Line:    item.Line,
				Column:  item.Column,
				Message: fmt.Sprintf("must be a positive 1-indexed menu selection, got %s", describe(item)),
				Hint:    `write selections as quoted numbers, e.g. - "1"`,
			})
			continue
		}
		steps = append(steps, NavigationStep{Index: idx})
	}
	return steps
}

func parseAnswers(c *collector, n *yaml.Node) []Answer {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		c.add(&Issue{Path: "answers", Line: n.Line, Column: n.Column, Message: fmt.Sprintf("must be a mapping of question path to value, got %s", kindName(n))})
		return nil
	}
	answers := make([]Answer, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], resolve(n.Content[i+1])
		path := keyNode.Value
		at := fmt.Sprintf("answers[%s]", path)

		pathOK := true
		if msg := checkQuestionPath(path); msg != "" {
			c.add(&Issue{Path: at, Line: keyNode.Line, Column: keyNode.Column, Message: msg})
			pathOK = false
		}
		value, ok := parseAnswerValue(c, at, valNode)
		if !ok || !pathOK {
			continue
		}
		answers = append(answers, Answer{Path: path, Value: value, Line: keyNode.Line})
	}
	return answers
}

// parseAnswerValue interprets one answer value node. SKIP and NEW_REPEAT are
// markers only as plain untagged scalars; a quoted or tagged spelling of
// either token is rejected because the intent is ambiguous.
func parseAnswerValue(c *collector, at string, n *yaml.Node) (AnswerValue, bool) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" && n.Style == 0 {
			c.add(&Issue{Path: at, Line: n.Line, Column: n.Column, Message: "missing answer value", Hint: "use SKIP to leave a question unanswered"})
			return AnswerValue{}, false
		}
		if n.Value == TokenSkip || n.Value == TokenNewRepeat {
			if form := stringForm(n); form != "" {
				c.add(&Issue{
					Path:    at,
					Line:    n.Line,
					Column:  n.Column,
					Message: fmt.Sprintf("%s %q is ambiguous", form, n.Value),
					Hint:    fmt.Sprintf("write %s without quotes or tags for the marker", n.Value),
				})
				return AnswerValue{}, false
			}
			if n.Value == TokenSkip {
				return Skip(), true
			}
			return NewRepeat(), true
		}
		if strings.ContainsAny(n.Value, "\r\n") {
			c.add(&Issue{Path: at, Line: n.Line, Column: n.Column, Message: "answer must be a single line", Hint: "answers are sent to the form engine line by line"})
			return AnswerValue{}, false
		}
		if !balancedParens(n.Value) {
			c.warn(&Issue{
				Path:    at,
				Line:    n.Line,
				Column:  n.Column,
				Message: fmt.Sprintf("unbalanced parentheses in answer %q", n.Value),
				Hint:    "the engine may read part of the value as another replay clause",
			})
		}
		return Literal(n.Value), true
	case yaml.SequenceNode:
		return parseMultiSelect(c, at, n)
	default:
		c.add(&Issue{Path: at, Line: n.Line, Column: n.Column, Message: fmt.Sprintf("answer must be a value, SKIP, NEW_REPEAT or a list of option indexes, got %s", kindName(n))})
		return AnswerValue{}, false
	}
}

// stringForm names the way a scalar was forced to be a string, or "" for a
// plain untagged scalar.
func stringForm(n *yaml.Node) string {
	switch {
	case n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0:
		return "quoted"
	case n.Style&yaml.TaggedStyle != 0:
		return "tagged"
	default:
		return ""
	}
}

func balancedParens(v string) bool {
	depth := 0
	for _, r := range v {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// parseMultiSelect encodes a list of 1-indexed option numbers as the
// space-separated selection the engine expects.
func parseMultiSelect(c *collector, at string, n *yaml.Node) (AnswerValue, bool) {
	if len(n.Content) == 0 {
		c.add(&Issue{Path: at, Line: n.Line, Column: n.Column, Message: "multi-select list must not be empty", Hint: "use SKIP to leave it unanswered"})
		return AnswerValue{}, false
	}
	parts := make([]string, 0, len(n.Content))
	ok := true
	for i, item := range n.Content {
		item = resolve(item)
		idx, valid := positiveInt(item)
		if !valid {
			c.add(&Issue{
				Path:    fmt.Sprintf("%s[%d]", at, i),
				Line:    item.Line,
				Column:  item.Column,
				Message: fmt.Sprintf("multi-select option must be a positive 1-indexed number, got %s", describe(item)),
			})
			ok = false
			continue
		}
		parts = append(parts, strconv.Itoa(idx))
	}
	if !ok {
		return AnswerValue{}, false
	}
	return Literal(strings.Join(parts, " ")), true
}

// checkQuestionPath returns a problem description, or "" for a valid path.
func checkQuestionPath(path string) string {
	if !strings.HasPrefix(path, QuestionRoot) {
		return fmt.Sprintf("question path must start with %s", QuestionRoot)
	}
	if strings.Contains(path, ".") {
		return "question path must not contain '.'"
	}
	for _, seg := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		if seg == "" {
			return "question path has an empty segment"
		}
		if !segmentPattern.MatchString(seg) {
			return fmt.Sprintf("invalid question path segment %q", seg)
		}
	}
	return ""
}

// checkDuplicates warns about entries that repeat a path with the same
// non-repeat value: harmless, but almost always a copy/paste slip.
func checkDuplicates(c *collector, answers []Answer) {
	seen := make(map[string]Answer)
	for _, a := range answers {
		if a.Value.Kind == KindNewRepeat {
			continue
		}
		if prev, ok := seen[a.Path]; ok && prev.Value == a.Value {
			c.warn(&Issue{
				Path:    fmt.Sprintf("answers[%s]", a.Path),
				Line:    a.Line,
				Message: fmt.Sprintf("duplicate answer %s (first given on line %d)", a.Value, prev.Line),
			})
			continue
		}
		seen[a.Path] = a
	}
}

func positiveInt(n *yaml.Node) (int, bool) {
	if n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(n.Value))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func nodeLine(n *yaml.Node) int {
	if n == nil {
		return 0
	}
	return n.Line
}

func kindName(n *yaml.Node) string {
	if n == nil {
		return "empty document"
	}
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "list"
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return "null"
		}
		return "scalar"
	default:
		return "unsupported node"
	}
}

func describe(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode && n.Tag != "!!null" {
		return fmt.Sprintf("%q", n.Value)
	}
	return kindName(n)
}

// extractLineColumn pulls line/column out of a yaml.v3 error message.
func extractLineColumn(errMsg string) (line, column int) {
	var l, c int
	if n, _ := fmt.Sscanf(errMsg, "yaml: line %d: column %d:", &l, &c); n == 2 {
		return l, c
	}
	if n, _ := fmt.Sscanf(errMsg, "yaml: line %d:", &l); n == 1 {
		return l, 0
	}
	return 0, 0
}

// cleanYAMLError removes the "yaml: line X:" prefix.
func cleanYAMLError(errMsg string) string {
	if strings.HasPrefix(errMsg, "yaml:") {
		if idx := strings.LastIndex(errMsg, ": "); idx > 0 {
			return errMsg[idx+2:]
		}
	}
	return errMsg
}
