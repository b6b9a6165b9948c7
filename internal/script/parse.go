package script

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrProtocol marks a script line that does not follow the directive grammar.
var ErrProtocol = errors.New("script protocol violation")

// Directive is one parsed script line.
type Directive struct {
	Kind   string
	Dir    string
	Fields []string
}

// minimum field count after the kind, including dir
var minFields = map[string]int{
	KindDebug:    0,
	KindPrepare:  2,
	KindCompile:  3,
	KindRun:      7,
	KindCollect:  2,
	KindUnitTest: 4,
	KindProcess:  2,
}

// ParseLine splits a directive line and checks it against the grammar.
func ParseLine(line string) (Directive, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Directive{}, fmt.Errorf("%w: empty line", ErrProtocol)
	}
	kind := tokens[0]
	want, ok := minFields[kind]
	if !ok {
		return Directive{}, fmt.Errorf("%w: unknown directive %q", ErrProtocol, kind)
	}
	rest := tokens[1:]
	if len(rest) < want {
		return Directive{}, fmt.Errorf("%w: %s needs at least %d fields, got %d", ErrProtocol, kind, want, len(rest))
	}
	if kind == KindDebug {
		if len(rest) != 0 {
			return Directive{}, fmt.Errorf("%w: debug takes no fields", ErrProtocol)
		}
		return Directive{Kind: kind}, nil
	}
	if kind == KindPrepare && rest[1] == "use" && len(rest) < 3 {
		return Directive{}, fmt.Errorf("%w: prepare %s use without sources", ErrProtocol, rest[0])
	}
	if kind == KindRun {
		if _, err := strconv.Atoi(rest[2]); err != nil {
			return Directive{}, fmt.Errorf("%w: run timeout %q", ErrProtocol, rest[2])
		}
		if _, err := strconv.Atoi(rest[3]); err != nil {
			return Directive{}, fmt.Errorf("%w: run max output %q", ErrProtocol, rest[3])
		}
		if _, err := strconv.ParseBool(rest[4]); err != nil {
			return Directive{}, fmt.Errorf("%w: run interleave flag %q", ErrProtocol, rest[4])
		}
	}
	if kind == KindUnitTest {
		if _, err := strconv.Atoi(rest[1]); err != nil {
			return Directive{}, fmt.Errorf("%w: unittest timeout %q", ErrProtocol, rest[1])
		}
	}
	return Directive{Kind: kind, Dir: rest[0], Fields: rest[1:]}, nil
}

// Parse splits a whole script into directives. Blank lines are ignored.
func Parse(text string) ([]Directive, error) {
	var res []Directive
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		d, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		res = append(res, d)
	}
	return res, nil
}
