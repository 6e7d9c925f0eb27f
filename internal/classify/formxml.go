package classify

import (
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"strings"
)

// formStart finds places a printed form instance can begin: an XML
// declaration or a <data> root element.
var formStart = regexp.MustCompile(`<\?xml\s|<data[\s>]`)

// ExtractFormXML returns the first complete, well-formed form instance
// document printed in out, or "" if there is none.
func ExtractFormXML(out string) string {
	for _, loc := range formStart.FindAllStringIndex(out, -1) {
		if doc, ok := readElement(out[loc[0]:]); ok {
			return doc
		}
	}
	return extractByLines(out)
}

// readElement decodes from the start of s through the end of its first root
// element and returns that prefix.
func readElement(s string) (string, bool) {
	dec := xml.NewDecoder(strings.NewReader(s))
	depth := 0
	seenRoot := false
	for {
		tok, err := dec.RawToken()
		if err != nil {
			return "", false
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
			seenRoot = true
		case xml.EndElement:
			depth--
			if depth < 0 {
				return "", false
			}
			if depth == 0 && seenRoot {
				doc := strings.TrimSpace(s[:dec.InputOffset()])
				return doc, WellFormed(doc)
			}
		}
	}
}

// extractByLines is the fallback for output where the document is
// interleaved with prompts: it collects a run of lines that look like
// markup and keeps the first run that parses.
func extractByLines(out string) string {
	var block []string
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		looksLikeMarkup := strings.HasPrefix(trimmed, "<") && strings.HasSuffix(trimmed, ">") && !strings.HasPrefix(trimmed, "<!")
		if !looksLikeMarkup {
			if doc := strings.TrimSpace(strings.Join(block, "\n")); strings.Count(doc, "<") > 3 && WellFormed(doc) {
				return doc
			}
			block = block[:0]
			continue
		}
		block = append(block, line)
	}
	if doc := strings.TrimSpace(strings.Join(block, "\n")); strings.Count(doc, "<") > 3 && WellFormed(doc) {
		return doc
	}
	return ""
}

// WellFormed reports whether doc is a single well-formed XML document.
func WellFormed(doc string) bool {
	dec := xml.NewDecoder(strings.NewReader(doc))
	roots := 0
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return roots == 1 && depth == 0
		}
		if err != nil {
			return false
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && strings.TrimSpace(string(t)) != "" {
				return false
			}
		}
	}
}
