package script

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var (
	ErrSealed   = errors.New("script is sealed")
	ErrBadToken = errors.New("invalid directive token")
)

// Directive kinds understood by the executor.
const (
	KindDebug    = "debug"
	KindPrepare  = "prepare"
	KindCompile  = "compile"
	KindRun      = "run"
	KindCollect  = "collect"
	KindUnitTest = "unittest"
	KindProcess  = "process"
)

// Submission is the reserved source set holding the learner's files.
const Submission = "submission"

// Builder accumulates newline separated directive lines in call order.
type Builder struct {
	lines  []string
	sealed bool
}

func NewBuilder() *Builder {
	return &Builder{}
}

// RunLine holds the fields of a run directive.
type RunLine struct {
	Dir          string
	RunID        string
	TimeoutSec   int
	MaxOutputLen int
	InterleaveIO bool
	Lang         string
	MainFile     string
	Args         []string
}

func (b *Builder) Debug() error {
	return b.add(KindDebug)
}

// PrepareUse seeds a fresh dir from the named source sets.
func (b *Builder) PrepareUse(dir string, sources ...string) error {
	if len(sources) == 0 {
		return fmt.Errorf("%w: prepare %s needs at least one source", ErrBadToken, dir)
	}
	return b.add(KindPrepare, append([]string{dir, "use"}, sources...)...)
}

// PrepareFrom seeds dir from the previously prepared dir from.
func (b *Builder) PrepareFrom(dir string, from string) error {
	return b.add(KindPrepare, dir, from)
}

func (b *Builder) Compile(dir string, lang string, files ...string) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: compile %s needs at least one file", ErrBadToken, dir)
	}
	return b.add(KindCompile, append([]string{dir, lang}, files...)...)
}

func (b *Builder) Run(r RunLine) error {
	fields := []string{
		r.Dir,
		r.RunID,
		strconv.Itoa(r.TimeoutSec),
		strconv.Itoa(r.MaxOutputLen),
		strconv.FormatBool(r.InterleaveIO),
		r.Lang,
		r.MainFile,
	}
	return b.add(KindRun, append(fields, r.Args...)...)
}

func (b *Builder) Collect(dir string, files ...string) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: collect %s needs at least one file", ErrBadToken, dir)
	}
	return b.add(KindCollect, append([]string{dir}, files...)...)
}

func (b *Builder) UnitTest(dir string, timeoutSec int, lang string, mainFile string, deps ...string) error {
	fields := []string{dir, strconv.Itoa(timeoutSec), lang, mainFile}
	return b.add(KindUnitTest, append(fields, deps...)...)
}

func (b *Builder) Process(dir string, cmd ...string) error {
	if len(cmd) == 0 {
		return fmt.Errorf("%w: process %s needs a command", ErrBadToken, dir)
	}
	return b.add(KindProcess, append([]string{dir}, cmd...)...)
}

// Batch runs fn and drops every line it appended if it returns an error.
func (b *Builder) Batch(fn func(b *Builder) error) error {
	if b.sealed {
		return ErrSealed
	}
	n := len(b.lines)
	if err := fn(b); err != nil {
		b.lines = b.lines[:n]
		return err
	}
	return nil
}

// Lines returns a copy of the directives emitted so far.
func (b *Builder) Lines() []string {
	res := make([]string, len(b.lines))
	copy(res, b.lines)
	return res
}

// Seal finalizes the script and returns its text. Any later append fails with ErrSealed.
func (b *Builder) Seal() []byte {
	b.sealed = true
	var sb strings.Builder
	for _, line := range b.lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

func (b *Builder) Sealed() bool {
	return b.sealed
}

// add validates every token before appending, so a rejected call leaves the script untouched.
func (b *Builder) add(kind string, fields ...string) error {
	if b.sealed {
		return ErrSealed
	}
	for _, f := range fields {
		if err := checkToken(f); err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
	}
	b.lines = append(b.lines, strings.Join(append([]string{kind}, fields...), " "))
	return nil
}

func checkToken(tok string) error {
	if tok == "" {
		return fmt.Errorf("%w: empty token", ErrBadToken)
	}
	if strings.IndexFunc(tok, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q contains whitespace", ErrBadToken, tok)
	}
	return nil
}
