package lang

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Diagnostic is one structured compiler error location.
type Diagnostic struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
}

// DefaultErrorPattern matches gcc/javac style "file:line[:col]: [error:] message" lines.
const DefaultErrorPattern = `^(?P<file>[^:\s]+):(?P<line>\d+):(?:(?P<column>\d+):)?\s*(?:error:\s*)?(?P<message>.+)$`

// Language is a language tag plus the pattern used to pick diagnostics out of compiler output.
type Language struct {
	ID  string
	tag string
	re  *regexp.Regexp
}

// New compiles errorPattern (DefaultErrorPattern when empty). The pattern must
// define the named groups file, line and message; column is optional.
func New(id string, tag string, errorPattern string) (*Language, error) {
	if tag == "" {
		tag = id
	}
	if errorPattern == "" {
		errorPattern = DefaultErrorPattern
	}
	re, err := regexp.Compile(errorPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile error pattern of language %s: %w", id, err)
	}
	for _, group := range []string{"file", "line", "message"} {
		if re.SubexpIndex(group) < 0 {
			return nil, fmt.Errorf("error pattern of language %s lacks group %q", id, group)
		}
	}
	return &Language{ID: id, tag: tag, re: re}, nil
}

// Tag is the language token written into compile, run and unittest directives.
func (l *Language) Tag() string {
	return l.tag
}

// Errors extracts diagnostics from raw compiler output, one per matching line.
func (l *Language) Errors(report string) []Diagnostic {
	var res []Diagnostic
	for _, line := range strings.Split(report, "\n") {
		m := l.re.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		lineNo, err := strconv.Atoi(m[l.re.SubexpIndex("line")])
		if err != nil {
			continue
		}
		d := Diagnostic{
			File:    m[l.re.SubexpIndex("file")],
			Line:    lineNo,
			Message: strings.TrimSpace(m[l.re.SubexpIndex("message")]),
		}
		if i := l.re.SubexpIndex("column"); i >= 0 && m[i] != "" {
			d.Column, _ = strconv.Atoi(m[i])
		}
		res = append(res, d)
	}
	return res
}
