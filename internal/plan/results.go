package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/programme-lv/codecheck/internal/filemap"
	"github.com/programme-lv/codecheck/internal/lang"
)

const (
	// ErrorsFile is written into a compile dir when compilation failed.
	ErrorsFile = "_errors"
	// RunFile holds the captured output of a run, under the run id.
	RunFile = "_run"

	// CompilationFailed is reported when the compiler could not be invoked at all.
	CompilationFailed = "Compilation Failed"
)

// ErrNotFound is returned when a run produced no captured output.
var ErrNotFound = errors.New("output not found")

//go:generate mockgen -destination=mocks/collaborators.go -package=mocks . Report,Score,Language

// Report receives human readable grading feedback.
type Report interface {
	Error(msg string)
	SystemError(msg string)
	Errors(diagnostics []lang.Diagnostic)
}

// Score is invalidated when a submission can not be graded.
type Score interface {
	SetInvalid()
}

// Executed reports whether outputs are available.
func (p *Plan) Executed() bool {
	return p.outputs != nil
}

func (p *Plan) output(path string) ([]byte, bool) {
	if p.outputs == nil {
		return nil, false
	}
	return p.outputs.Get(path)
}

// Outputs lists the output paths in archive order.
func (p *Plan) Outputs() []string {
	if p.outputs == nil {
		return nil
	}
	return p.outputs.Keys()
}

// Compiled reports whether compileDir has no _errors output.
func (p *Plan) Compiled(compileDir string) bool {
	_, failed := p.output(filemap.Join(compileDir, ErrorsFile))
	return !failed
}

// OutErr returns the captured output of runID. It fails with ErrNotFound when
// the executor never produced one.
func (p *Plan) OutErr(runID string) (string, error) {
	key := filemap.Join(runID, RunFile)
	data, ok := p.output(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return string(data), nil
}

// FileString looks up a staged input file.
func (p *Plan) FileString(key string, file string) (string, bool) {
	data, ok := p.files.Get(filemap.Join(key, file))
	if !ok {
		return "", false
	}
	return string(data), true
}

// OutputString looks up an output file by its path elements.
func (p *Plan) OutputString(key string, parts ...string) (string, bool) {
	data, ok := p.OutputBytes(key, parts...)
	if !ok {
		return "", false
	}
	return string(data), true
}

func (p *Plan) OutputBytes(key string, parts ...string) ([]byte, bool) {
	return p.output(filemap.Join(append([]string{key}, parts...)...))
}

// CheckCompiled reports a failed compilation of the learner's code to report
// and invalidates score. It returns true when compileDir compiled.
func (p *Plan) CheckCompiled(compileDir string, report Report, score Score) bool {
	return p.checkCompiled(compileDir, report.Error, report, score)
}

// CheckSolutionCompiled is CheckCompiled for the reference solution: failures are
// the system's fault and go to SystemError.
func (p *Plan) CheckSolutionCompiled(compileDir string, report Report, score Score) bool {
	return p.checkCompiled(compileDir, report.SystemError, report, score)
}

func (p *Plan) checkCompiled(compileDir string, emit func(string), report Report, score Score) bool {
	errorReport, failed := p.OutputString(compileDir, ErrorsFile)
	if !failed {
		return true
	}
	if strings.TrimSpace(errorReport) == "" {
		emit(CompilationFailed)
	} else {
		emit(errorReport)
		report.Errors(p.lang.Errors(errorReport))
	}
	p.logger.Info("compilation failed", "dir", compileDir)
	score.SetInvalid()
	return false
}
