package report

import (
	"sync"

	"github.com/programme-lv/codecheck/api"
	"github.com/programme-lv/codecheck/internal/lang"
)

// Collector gathers the feedback a plan produces while it is graded. It
// satisfies both the report and the score side of a plan's compile checks.
type Collector struct {
	mu           sync.Mutex
	errors       []string
	systemErrors []string
	diagnostics  []lang.Diagnostic
	runs         []api.RunOutput
	invalid      bool
}

func NewCollector() *Collector {
	return &Collector{}
}

// Error records feedback attributed to the submission.
func (c *Collector) Error(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, msg)
}

// SystemError records a failure that is not the learner's fault.
func (c *Collector) SystemError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.systemErrors = append(c.systemErrors, msg)
}

func (c *Collector) Errors(diagnostics []lang.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diagnostics = append(c.diagnostics, diagnostics...)
}

func (c *Collector) SetInvalid() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalid = true
}

// Run records the captured output of a run. A nil output means none was returned.
func (c *Collector) Run(runID string, output *string) {
	if output != nil {
		trimmed := trimStrToRect(*output, api.MaxRunOutputHeight, api.MaxRunOutputWidth)
		output = &trimmed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = append(c.runs, api.RunOutput{RunID: runID, Output: output})
}

func (c *Collector) Invalid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalid
}

// Status is SystemError once any system error was recorded, otherwise Invalid
// if the score was invalidated, otherwise Graded.
func (c *Collector) Status() api.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status()
}

func (c *Collector) status() api.Status {
	switch {
	case len(c.systemErrors) > 0:
		return api.SystemError
	case c.invalid:
		return api.Invalid
	default:
		return api.Graded
	}
}

// Feedback snapshots the collected state into a publishable message.
func (c *Collector) Feedback(planID string, job string) api.Feedback {
	c.mu.Lock()
	defer c.mu.Unlock()

	fb := api.NewFeedback(planID, job, c.status())
	fb.Errors = append([]string{}, c.errors...)
	fb.SystemErrors = append([]string{}, c.systemErrors...)
	fb.Runs = append([]api.RunOutput{}, c.runs...)
	fb.Diagnostics = make([]api.Diagnostic, 0, len(c.diagnostics))
	for _, d := range c.diagnostics {
		fb.Diagnostics = append(fb.Diagnostics, api.Diagnostic{
			File:    d.File,
			Line:    d.Line,
			Column:  d.Column,
			Message: d.Message,
		})
	}
	return fb
}
