package plan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/programme-lv/codecheck/internal/dispatch"
	"github.com/programme-lv/codecheck/internal/filemap"
	"github.com/programme-lv/codecheck/internal/lang"
	"github.com/programme-lv/codecheck/internal/logging"
	"github.com/programme-lv/codecheck/internal/script"
)

const (
	// MinTimeoutSeconds is the smallest timeout written into run and unittest directives.
	MinTimeoutSeconds = 3

	// DefaultMaxOutputLen is used when a run does not set MaxOutputLen.
	DefaultMaxOutputLen = 100_000

	// ScriptPath is the input entry holding the directive script.
	ScriptPath = "script"
)

// ErrSealed is returned by builder calls once Execute has started.
var ErrSealed = script.ErrSealed

// Language supplies the tag used in directives and parses compiler output.
type Language interface {
	Tag() string
	Errors(report string) []lang.Diagnostic
}

// Plan is the description of the files to send and the actions to run for one
// graded submission. A plan is built and executed by a single goroutine.
type Plan struct {
	id     string
	lang   Language
	debug  bool
	logger *slog.Logger

	files   *filemap.Map
	outputs *filemap.Map
	script  *script.Builder
	nextID  int
	budget  time.Duration
	tasks   []func()
}

type Option func(*Plan)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Plan) { p.logger = logger }
}

func WithID(id string) Option {
	return func(p *Plan) { p.id = id }
}

func New(language Language, debug bool, opts ...Option) *Plan {
	p := &Plan{
		id:     uuid.NewString(),
		lang:   language,
		debug:  debug,
		files:  filemap.New(),
		script: script.NewBuilder(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.WithPlan(p.id)
	}
	if debug {
		_ = p.script.Debug()
	}
	return p
}

func (p *Plan) ID() string {
	return p.id
}

func (p *Plan) Debug() bool {
	return p.debug
}

// NextID returns prefix followed by a per-plan counter starting at 1.
func (p *Plan) NextID(prefix string) string {
	p.nextID++
	return fmt.Sprintf("%s%d", prefix, p.nextID)
}

// Script returns the directive lines emitted so far.
func (p *Plan) Script() []string {
	return p.script.Lines()
}

// Budget is the sum of the per-action timeouts of all run and unittest directives.
func (p *Plan) Budget() time.Duration {
	return p.budget
}

// TimeoutSeconds converts a millisecond timeout to whole seconds, rounding up,
// with a floor of MinTimeoutSeconds.
func TimeoutSeconds(millis int) int {
	secs := 0
	if millis > 0 {
		secs = (millis + 999) / 1000
	}
	return max(MinTimeoutSeconds, secs)
}

// AddFile stages a file into the request. A later call for the same path overwrites it.
func (p *Plan) AddFile(path string, contents []byte) error {
	if p.script.Sealed() {
		return ErrSealed
	}
	if err := checkInputPath(path); err != nil {
		return err
	}
	p.files.Put(path, contents)
	return nil
}

func (p *Plan) AddFileString(path string, contents string) error {
	return p.AddFile(path, []byte(contents))
}

// AddFiles stages every entry of m, in m's order.
func (p *Plan) AddFiles(m *filemap.Map) error {
	if p.script.Sealed() {
		return ErrSealed
	}
	for _, key := range m.Keys() {
		if err := checkInputPath(key); err != nil {
			return err
		}
	}
	p.files.Merge(m)
	return nil
}

// checkInputPath rejects paths that can not be archived and the reserved script entry.
func checkInputPath(path string) error {
	if err := filemap.CheckPath(path); err != nil {
		return err
	}
	if filemap.Clean(path) == ScriptPath {
		return fmt.Errorf("%w: %q is reserved for the directive script", filemap.ErrBadPath, path)
	}
	return nil
}

// Files returns the staged input paths in staging order. The script entry is
// only present once Execute has sealed the plan.
func (p *Plan) Files() []string {
	return p.files.Keys()
}

// File returns the staged contents of an input path.
func (p *Plan) File(path string) ([]byte, bool) {
	return p.files.Get(path)
}

// AddTask registers a callback that runs after a successful Execute, in registration order.
func (p *Plan) AddTask(task func()) error {
	if p.script.Sealed() {
		return ErrSealed
	}
	p.tasks = append(p.tasks, task)
	return nil
}

// Compile prepares dir from sourceDirs and compiles sourceFiles followed by dependents.
func (p *Plan) Compile(dir string, sourceDirs []string, sourceFiles []string, dependents []string) error {
	files := make([]string, 0, len(sourceFiles)+len(dependents))
	files = append(files, sourceFiles...)
	files = append(files, dependents...)
	return p.script.Batch(func(b *script.Builder) error {
		if err := b.PrepareUse(dir, sourceDirs...); err != nil {
			return err
		}
		return b.Compile(dir, p.lang.Tag(), files...)
	})
}

// RunConfig describes one program run. Zero values pick the defaults noted per field.
type RunConfig struct {
	CompileDir string
	// RunDir defaults to CompileDir. A different dir is seeded from CompileDir.
	RunDir string
	// RunID defaults to RunDir. Runs sharing a dir need distinct ids, see NextID.
	RunID    string
	MainFile string
	Input    string
	Args     []string

	TimeoutMillis int
	// MaxOutputLen defaults to DefaultMaxOutputLen.
	MaxOutputLen int
	InterleaveIO bool

	// Collect lists output files produced in RunDir to copy back.
	Collect []string
}

func (c RunConfig) withDefaults() RunConfig {
	if c.RunDir == "" {
		c.RunDir = c.CompileDir
	}
	if c.RunID == "" {
		c.RunID = c.RunDir
	}
	if c.MaxOutputLen <= 0 {
		c.MaxOutputLen = DefaultMaxOutputLen
	}
	return c
}

// Run stages the input as in/<runID> and emits the run directive, preceded by a
// prepare when the run dir differs from the compile dir and followed by a collect
// when output files are requested.
func (p *Plan) Run(cfg RunConfig) error {
	if p.script.Sealed() {
		return ErrSealed
	}
	cfg = cfg.withDefaults()
	if err := filemap.CheckPath(cfg.RunID); err != nil {
		return fmt.Errorf("bad run id: %w", err)
	}
	timeout := TimeoutSeconds(cfg.TimeoutMillis)
	err := p.script.Batch(func(b *script.Builder) error {
		if cfg.CompileDir != cfg.RunDir {
			if err := b.PrepareFrom(cfg.RunDir, cfg.CompileDir); err != nil {
				return err
			}
		}
		err := b.Run(script.RunLine{
			Dir:          cfg.RunDir,
			RunID:        cfg.RunID,
			TimeoutSec:   timeout,
			MaxOutputLen: cfg.MaxOutputLen,
			InterleaveIO: cfg.InterleaveIO,
			Lang:         p.lang.Tag(),
			MainFile:     cfg.MainFile,
			Args:         cfg.Args,
		})
		if err != nil {
			return err
		}
		if len(cfg.Collect) > 0 {
			return b.Collect(cfg.RunDir, cfg.Collect...)
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.files.PutString(filemap.Join("in", cfg.RunID), cfg.Input)
	p.budget += time.Duration(timeout) * time.Second
	return nil
}

type UnitTestConfig struct {
	Dir           string
	MainFile      string
	Dependents    []string
	TimeoutMillis int
}

// UnitTest prepares dir from the submission and runs the unit test harness in it.
func (p *Plan) UnitTest(cfg UnitTestConfig) error {
	timeout := TimeoutSeconds(cfg.TimeoutMillis)
	err := p.script.Batch(func(b *script.Builder) error {
		if err := b.PrepareUse(cfg.Dir, script.Submission); err != nil {
			return err
		}
		return b.UnitTest(cfg.Dir, timeout, p.lang.Tag(), cfg.MainFile, cfg.Dependents...)
	})
	if err != nil {
		return err
	}
	p.budget += time.Duration(timeout) * time.Second
	return nil
}

// Process prepares dir from the submission and runs a named post-processing command in it.
func (p *Plan) Process(dir string, cmd ...string) error {
	return p.script.Batch(func(b *script.Builder) error {
		if err := b.PrepareUse(dir, script.Submission); err != nil {
			return err
		}
		return b.Process(dir, cmd...)
	})
}

// Execute seals the plan, dispatches it and stores the returned outputs. Deferred
// tasks run afterwards, only when dispatch succeeded. A plan executes at most once.
func (p *Plan) Execute(ctx context.Context, executor dispatch.Executor) error {
	if p.script.Sealed() {
		return ErrSealed
	}
	p.files.Put(ScriptPath, p.script.Seal())

	p.logger.Debug("Packaging request archive...", "files", p.files.Len())
	archive, err := filemap.Zip(p.files)
	if err != nil {
		return fmt.Errorf("failed to package plan: %w", err)
	}

	p.logger.Info("Dispatching plan...", "directives", len(p.script.Lines()), "budget", p.budget)
	outputs, err := executor.Execute(ctx, &dispatch.Job{
		PlanID:  p.id,
		Archive: archive,
		Debug:   p.debug,
		Budget:  p.budget,
	})
	if err != nil {
		return fmt.Errorf("failed to execute plan: %w", err)
	}
	p.outputs = outputs
	p.logger.Info("Plan executed", "outputs", outputs.Len())

	for _, task := range p.tasks {
		task()
	}
	return nil
}
