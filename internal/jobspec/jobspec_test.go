package jobspec_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/programme-lv/codecheck/api"
	"github.com/programme-lv/codecheck/internal/dispatch"
	"github.com/programme-lv/codecheck/internal/filemap"
	"github.com/programme-lv/codecheck/internal/jobspec"
	"github.com/programme-lv/codecheck/internal/lang"
	"github.com/programme-lv/codecheck/internal/logging"
	"github.com/programme-lv/codecheck/internal/plan"
	"github.com/programme-lv/codecheck/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sumJob = `
name = "sum"
language = "java"

[[files]]
path = "submission/Main.java"
content = "class Main {}"

[[files]]
path = "expected/Check.java"
source = "Check.java"

[[steps]]
kind = "compile"
dir = "sub"
files = ["Main.java"]

[[steps]]
kind = "run"
compile_dir = "sub"
main = "Main"
timeout_ms = 1000

  [[steps.cases]]
  input = "1 2"

  [[steps.cases]]
  input = "3 4"
  args = ["-x"]

[[steps]]
kind = "unittest"
dir = "ut"
main = "MainTest.java"
dependents = ["Main.java"]
timeout_ms = 4500

[[steps]]
kind = "process"
dir = "style"
command = ["checkstyle"]
`

type fakeExecutor struct {
	outputs *filemap.Map
}

func (f *fakeExecutor) Execute(context.Context, *dispatch.Job) (*filemap.Map, error) {
	return f.outputs, nil
}

func writeJob(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "job.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func javaRegistry(t *testing.T) *lang.Registry {
	t.Helper()
	reg, err := lang.FromSpecs([]lang.SpecLanguage{{ID: "java"}})
	require.NoError(t, err)
	return reg
}

func parseSum(t *testing.T) *jobspec.Job {
	t.Helper()
	path := writeJob(t, sumJob)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "Check.java"), []byte("class Check {}"), 0o644))

	job, err := jobspec.Parse(path, javaRegistry(t))
	require.NoError(t, err)
	return job
}

func TestParseStagesFiles(t *testing.T) {
	job := parseSum(t)
	assert.Equal(t, "sum", job.Name)
	assert.Equal(t, "java", job.Language.Tag())
	assert.Equal(t, 4, job.Steps())
	assert.Equal(t, []string{"submission/Main.java", "expected/Check.java"}, job.Files().Keys())

	data, ok := job.Files().Get("expected/Check.java")
	require.True(t, ok)
	assert.Equal(t, "class Check {}", string(data))
}

func TestBuildEmitsDirectives(t *testing.T) {
	job := parseSum(t)
	p, err := job.Build(report.NewCollector(), false, plan.WithLogger(logging.Discard()))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"prepare sub use submission",
		"compile sub java Main.java",
		"run sub case1 3 100000 false java Main",
		"run sub case2 3 100000 false java Main -x",
		"prepare ut use submission",
		"unittest ut 5 java MainTest.java Main.java",
		"prepare style use submission",
		"process style checkstyle",
	}, p.Script())

	in, ok := p.FileString("in", "case2")
	require.True(t, ok)
	assert.Equal(t, "3 4", in)
}

func TestBuildGradesAfterExecute(t *testing.T) {
	job := parseSum(t)
	collector := report.NewCollector()
	p, err := job.Build(collector, false, plan.WithLogger(logging.Discard()), plan.WithID("p1"))
	require.NoError(t, err)

	outputs := filemap.New()
	outputs.PutString("case1/_run", "3\n")
	require.NoError(t, p.Execute(context.Background(), &fakeExecutor{outputs: outputs}))

	fb := collector.Feedback(p.ID(), job.Name)
	assert.Equal(t, api.Graded, fb.Status)
	require.Len(t, fb.Runs, 2)
	assert.Equal(t, "case1", fb.Runs[0].RunID)
	require.NotNil(t, fb.Runs[0].Output)
	assert.Equal(t, "3\n", *fb.Runs[0].Output)
	assert.Equal(t, "case2", fb.Runs[1].RunID)
	assert.Nil(t, fb.Runs[1].Output)
}

func TestBuildReportsCompileFailure(t *testing.T) {
	job := parseSum(t)
	collector := report.NewCollector()
	p, err := job.Build(collector, false, plan.WithLogger(logging.Discard()))
	require.NoError(t, err)

	outputs := filemap.New()
	outputs.PutString("sub/_errors", "Main.java:1: error: class expected")
	require.NoError(t, p.Execute(context.Background(), &fakeExecutor{outputs: outputs}))

	fb := collector.Feedback(p.ID(), job.Name)
	assert.Equal(t, api.Invalid, fb.Status)
	assert.Equal(t, []string{"Main.java:1: error: class expected"}, fb.Errors)
	assert.Equal(t, []api.Diagnostic{{File: "Main.java", Line: 1, Message: "class expected"}}, fb.Diagnostics)
}

func TestSolutionCheckIsSystemError(t *testing.T) {
	path := writeJob(t, `
language = "java"

[[steps]]
kind = "compile"
dir = "solution"
sources = ["expected"]
files = ["Sol.java"]
check = "solution"
`)
	job, err := jobspec.Parse(path, javaRegistry(t))
	require.NoError(t, err)
	assert.Equal(t, "job", job.Name)

	collector := report.NewCollector()
	p, err := job.Build(collector, true, plan.WithLogger(logging.Discard()))
	require.NoError(t, err)
	assert.Equal(t, []string{"debug", "prepare solution use expected", "compile solution java Sol.java"}, p.Script())

	outputs := filemap.New()
	outputs.PutString("solution/_errors", "")
	require.NoError(t, p.Execute(context.Background(), &fakeExecutor{outputs: outputs}))

	fb := collector.Feedback(p.ID(), job.Name)
	assert.Equal(t, api.SystemError, fb.Status)
	assert.Equal(t, []string{plan.CompilationFailed}, fb.SystemErrors)
	assert.Empty(t, fb.Errors)
}

func TestInlineLanguage(t *testing.T) {
	path := writeJob(t, `
language = "py"

[[languages]]
id = "py"
tag = "python3"

[[steps]]
kind = "run"
compile_dir = "sub"
run_id = "only"
main = "main.py"
`)
	job, err := jobspec.Parse(path, nil)
	require.NoError(t, err)

	p, err := job.Build(report.NewCollector(), false, plan.WithLogger(logging.Discard()))
	require.NoError(t, err)
	assert.Equal(t, []string{"run sub only 3 100000 false python3 main.py"}, p.Script())
}

func TestParseRejectsInvalidJobs(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown language",
			body: "language = \"cobol\"\n[[steps]]\nkind = \"process\"\ndir = \"d\"\ncommand = [\"x\"]\n",
			want: "unknown language id",
		},
		{
			name: "missing language",
			body: "[[steps]]\nkind = \"process\"\ndir = \"d\"\ncommand = [\"x\"]\n",
			want: "missing language",
		},
		{
			name: "unknown step",
			body: "language = \"java\"\n[[steps]]\nkind = \"deploy\"\n",
			want: "unknown step kind",
		},
		{
			name: "no steps",
			body: "language = \"java\"\n",
			want: "has no steps",
		},
		{
			name: "duplicate run id",
			body: "language = \"java\"\n" +
				"[[steps]]\nkind = \"run\"\ncompile_dir = \"sub\"\nmain = \"Main\"\n" +
				"[[steps]]\nkind = \"run\"\ncompile_dir = \"sub\"\nmain = \"Main\"\n",
			want: "duplicate run id: sub",
		},
		{
			name: "reserved path",
			body: "language = \"java\"\n[[files]]\npath = \"script\"\ncontent = \"x\"\n" +
				"[[steps]]\nkind = \"process\"\ndir = \"d\"\ncommand = [\"x\"]\n",
			want: "reserved",
		},
		{
			name: "escaping path",
			body: "language = \"java\"\n[[files]]\npath = \"../../etc/passwd\"\ncontent = \"x\"\n" +
				"[[steps]]\nkind = \"process\"\ndir = \"d\"\ncommand = [\"x\"]\n",
			want: "escapes its root",
		},
		{
			name: "ambiguous file",
			body: "language = \"java\"\n[[files]]\npath = \"a\"\ncontent = \"x\"\nsource = \"a.txt\"\n" +
				"[[steps]]\nkind = \"process\"\ndir = \"d\"\ncommand = [\"x\"]\n",
			want: "exactly one of",
		},
		{
			name: "bad check",
			body: "language = \"java\"\n[[steps]]\nkind = \"compile\"\ndir = \"d\"\nfiles = [\"a\"]\ncheck = \"maybe\"\n",
			want: "unknown compile check",
		},
		{
			name: "incomplete run",
			body: "language = \"java\"\n[[steps]]\nkind = \"run\"\nmain = \"Main\"\n",
			want: "requires compile_dir and main",
		},
		{
			name: "broken toml",
			body: "language = \n",
			want: "failed to parse TOML",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jobspec.Parse(writeJob(t, tt.body), javaRegistry(t))
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestBuildRejectsGeneratedIDCollision(t *testing.T) {
	path := writeJob(t, `
language = "java"

[[steps]]
kind = "run"
compile_dir = "sub"
run_id = "case1"
main = "Main"

[[steps]]
kind = "run"
compile_dir = "sub"
main = "Main"

  [[steps.cases]]
  input = "x"
`)
	job, err := jobspec.Parse(path, javaRegistry(t))
	require.NoError(t, err)

	_, err = job.Build(report.NewCollector(), false, plan.WithLogger(logging.Discard()))
	require.Error(t, err)
	assert.ErrorContains(t, err, "duplicate run id: case1")
}

func TestParseStagesDirectory(t *testing.T) {
	path := writeJob(t, `
language = "java"

[[files]]
path = "tests"
dir = "cases"

[[steps]]
kind = "process"
dir = "d"
command = ["x"]
`)
	cases := filepath.Join(filepath.Dir(path), "cases")
	require.NoError(t, os.MkdirAll(filepath.Join(cases, "1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cases, "1", "in.txt"), []byte("5"), 0o644))

	job, err := jobspec.Parse(path, javaRegistry(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"tests/1/in.txt"}, job.Files().Keys())
}
