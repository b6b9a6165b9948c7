package jobspec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/programme-lv/codecheck/internal/filemap"
	"github.com/programme-lv/codecheck/internal/lang"
	"github.com/programme-lv/codecheck/internal/plan"
	"github.com/programme-lv/codecheck/internal/script"
)

// Step kinds
const (
	StepCompile  = "compile"
	StepRun      = "run"
	StepUnitTest = "unittest"
	StepProcess  = "process"
)

// Compile check modes
const (
	CheckLearner  = "learner"
	CheckSolution = "solution"
	CheckNone     = "none"
)

// CasePrefix prefixes the generated ids of run cases.
const CasePrefix = "case"

// SpecFile is a [[files]] entry. Exactly one of Content, Source and Dir is set.
type SpecFile struct {
	// Path is the destination in the request, or the prefix for Dir.
	Path    string  `toml:"path"`
	Content *string `toml:"content"`
	// Source and Dir are local paths, relative to the job file.
	Source string `toml:"source"`
	Dir    string `toml:"dir"`
}

// SpecCase is one input of a run step that lists several.
type SpecCase struct {
	Input string   `toml:"input"`
	Args  []string `toml:"args"`
}

// SpecStep is a [[steps]] entry. Which fields apply depends on Kind.
type SpecStep struct {
	Kind string `toml:"kind"`

	// compile, unittest, process
	Dir        string   `toml:"dir"`
	Sources    []string `toml:"sources"`
	Files      []string `toml:"files"`
	Dependents []string `toml:"dependents"`
	Check      string   `toml:"check"`

	// run
	CompileDir   string     `toml:"compile_dir"`
	RunDir       string     `toml:"run_dir"`
	RunID        string     `toml:"run_id"`
	Input        string     `toml:"input"`
	Args         []string   `toml:"args"`
	MaxOutputLen int        `toml:"max_output_len"`
	InterleaveIO bool       `toml:"interleave_io"`
	Collect      []string   `toml:"collect"`
	Cases        []SpecCase `toml:"cases"`

	// run, unittest
	Main      string `toml:"main"`
	TimeoutMs int    `toml:"timeout_ms"`

	// process
	Command []string `toml:"command"`
}

type specRoot struct {
	Name      string              `toml:"name"`
	Language  string              `toml:"language"`
	Languages []lang.SpecLanguage `toml:"languages"`
	Files     []SpecFile          `toml:"files"`
	Steps     []SpecStep          `toml:"steps"`
}

// Job is a validated job file, ready to be built into plans.
type Job struct {
	Name     string
	Language *lang.Language

	files *filemap.Map
	steps []SpecStep
}

// Parse reads a job file and resolves its language against registry. Languages
// declared inline in the file take precedence over the registry.
func Parse(path string, registry *lang.Registry) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}
	var root specRoot
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	job := &Job{
		Name:  root.Name,
		files: filemap.New(),
		steps: root.Steps,
	}
	if job.Name == "" {
		job.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	job.Language, err = resolveLanguage(root, registry)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i, f := range root.Files {
		if err := stageFile(job.files, base, f); err != nil {
			return nil, fmt.Errorf("file %d: %w", i+1, err)
		}
	}

	if len(root.Steps) == 0 {
		return nil, fmt.Errorf("job %s has no steps", job.Name)
	}
	runIDs := mapset.NewSet[string]()
	for i, s := range root.Steps {
		if err := validateStep(s); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, s.Kind, err)
		}
		if s.Kind == StepRun && len(s.Cases) == 0 && !runIDs.Add(runID(s)) {
			return nil, fmt.Errorf("step %d (%s): duplicate run id: %s", i+1, s.Kind, runID(s))
		}
	}
	return job, nil
}

func resolveLanguage(root specRoot, registry *lang.Registry) (*lang.Language, error) {
	if root.Language == "" {
		return nil, fmt.Errorf("job is missing language")
	}
	inline, err := lang.FromSpecs(root.Languages)
	if err != nil {
		return nil, err
	}
	if l, ok := inline.Get(root.Language); ok {
		return l, nil
	}
	if registry != nil {
		if l, ok := registry.Get(root.Language); ok {
			return l, nil
		}
	}
	return nil, fmt.Errorf("unknown language id: %s", root.Language)
}

func stageFile(files *filemap.Map, base string, f SpecFile) error {
	set := 0
	for _, ok := range []bool{f.Content != nil, f.Source != "", f.Dir != ""} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("exactly one of content, source and dir must be set (path=%q)", f.Path)
	}

	if f.Dir != "" {
		staged := filemap.New()
		if err := staged.LoadDir(localPath(base, f.Dir), f.Path); err != nil {
			return fmt.Errorf("failed to stage dir %s: %w", f.Dir, err)
		}
		for _, k := range staged.Keys() {
			if k == plan.ScriptPath {
				return fmt.Errorf("path %q is reserved", k)
			}
		}
		files.Merge(staged)
		return nil
	}

	if f.Path == "" {
		return fmt.Errorf("file is missing path")
	}
	if err := filemap.CheckPath(f.Path); err != nil {
		return err
	}
	if filemap.Clean(f.Path) == plan.ScriptPath {
		return fmt.Errorf("path %q is reserved", f.Path)
	}
	if f.Content != nil {
		files.PutString(f.Path, *f.Content)
		return nil
	}
	data, err := filemap.ReadFile(localPath(base, f.Source))
	if err != nil {
		return err
	}
	files.Put(f.Path, data)
	return nil
}

func localPath(base string, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func validateStep(s SpecStep) error {
	switch s.Kind {
	case StepCompile:
		if s.Dir == "" || len(s.Files) == 0 {
			return fmt.Errorf("compile step requires dir and files")
		}
		switch s.Check {
		case "", CheckLearner, CheckSolution, CheckNone:
		default:
			return fmt.Errorf("unknown compile check: %s", s.Check)
		}
	case StepRun:
		if s.CompileDir == "" || s.Main == "" {
			return fmt.Errorf("run step requires compile_dir and main")
		}
		if len(s.Cases) > 0 && (s.Input != "" || s.RunID != "") {
			return fmt.Errorf("run step with cases can not set input or run_id")
		}
	case StepUnitTest:
		if s.Dir == "" || s.Main == "" {
			return fmt.Errorf("unittest step requires dir and main")
		}
	case StepProcess:
		if s.Dir == "" || len(s.Command) == 0 {
			return fmt.Errorf("process step requires dir and command")
		}
	default:
		return fmt.Errorf("unknown step kind: %q", s.Kind)
	}
	return nil
}

func runID(s SpecStep) string {
	switch {
	case s.RunID != "":
		return s.RunID
	case s.RunDir != "":
		return s.RunDir
	default:
		return s.CompileDir
	}
}

// Files returns the staged input files.
func (j *Job) Files() *filemap.Map {
	return j.files
}

// Steps returns the number of declared steps.
func (j *Job) Steps() int {
	return len(j.steps)
}

// Sink receives the grading results of a built plan.
type Sink interface {
	plan.Report
	plan.Score
	Run(runID string, output *string)
}

// Build turns the job into a fresh plan. Compile checks and run output
// collection are registered as plan tasks and feed sink once the plan executed.
func (j *Job) Build(sink Sink, debug bool, opts ...plan.Option) (*plan.Plan, error) {
	p := plan.New(j.Language, debug, opts...)
	if err := p.AddFiles(j.files); err != nil {
		return nil, err
	}

	used := mapset.NewSet[string]()
	for i, s := range j.steps {
		if err := j.buildStep(p, s, sink, used); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, s.Kind, err)
		}
	}
	return p, nil
}

func (j *Job) buildStep(p *plan.Plan, s SpecStep, sink Sink, used mapset.Set[string]) error {
	switch s.Kind {
	case StepCompile:
		sources := s.Sources
		if len(sources) == 0 {
			sources = []string{script.Submission}
		}
		if err := p.Compile(s.Dir, sources, s.Files, s.Dependents); err != nil {
			return err
		}
		return addCheck(p, s, sink)

	case StepRun:
		for _, cfg := range runConfigs(p, s) {
			if !used.Add(cfg.RunID) {
				return fmt.Errorf("duplicate run id: %s", cfg.RunID)
			}
			if err := p.Run(cfg); err != nil {
				return err
			}
			id := cfg.RunID
			err := p.AddTask(func() {
				out, err := p.OutErr(id)
				if err != nil {
					sink.Run(id, nil)
					return
				}
				sink.Run(id, &out)
			})
			if err != nil {
				return err
			}
		}
		return nil

	case StepUnitTest:
		return p.UnitTest(plan.UnitTestConfig{
			Dir:           s.Dir,
			MainFile:      s.Main,
			Dependents:    s.Dependents,
			TimeoutMillis: s.TimeoutMs,
		})

	case StepProcess:
		return p.Process(s.Dir, s.Command...)
	}
	return fmt.Errorf("unknown step kind: %q", s.Kind)
}

func addCheck(p *plan.Plan, s SpecStep, sink Sink) error {
	switch s.Check {
	case CheckNone:
		return nil
	case CheckSolution:
		return p.AddTask(func() { p.CheckSolutionCompiled(s.Dir, sink, sink) })
	default:
		return p.AddTask(func() { p.CheckCompiled(s.Dir, sink, sink) })
	}
}

func runConfigs(p *plan.Plan, s SpecStep) []plan.RunConfig {
	base := plan.RunConfig{
		CompileDir:    s.CompileDir,
		RunDir:        s.RunDir,
		RunID:         runID(s),
		MainFile:      s.Main,
		Input:         s.Input,
		Args:          s.Args,
		TimeoutMillis: s.TimeoutMs,
		MaxOutputLen:  s.MaxOutputLen,
		InterleaveIO:  s.InterleaveIO,
		Collect:       s.Collect,
	}
	if len(s.Cases) == 0 {
		return []plan.RunConfig{base}
	}

	cfgs := make([]plan.RunConfig, 0, len(s.Cases))
	for _, c := range s.Cases {
		cfg := base
		cfg.RunID = p.NextID(CasePrefix)
		cfg.Input = c.Input
		if len(c.Args) > 0 {
			cfg.Args = c.Args
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs
}
