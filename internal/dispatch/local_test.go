package dispatch_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/programme-lv/codecheck/internal/dispatch"
	"github.com/programme-lv/codecheck/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner writes a shell script that records the request archive it was given,
// copies a canned response archive and prints its path after some log noise.
func fakeRunner(t *testing.T) (dir string, command string) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "canned.zip"), responseArchive(t), 0o644))

	body := fmt.Sprintf(`#!/bin/sh
echo "$1" > %[1]s/request-path
cp "$1" %[1]s/seen.zip
cp %[1]s/canned.zip %[1]s/response.zip
echo "preparing sub"
echo "compiling"
echo %[1]s/response.zip
echo ""
`, dir)
	runner := filepath.Join(dir, "runner.sh")
	require.NoError(t, os.WriteFile(runner, []byte(body), 0o755))
	return dir, "/bin/sh " + runner
}

func TestLocalExecuteAndCleanup(t *testing.T) {
	dir, command := fakeRunner(t)
	local := dispatch.NewLocal(dispatch.Config{ScriptCommand: command, TempDir: t.TempDir()}, logging.Discard())

	job := requestJob(t)
	out, err := local.Execute(context.Background(), job)
	require.NoError(t, err)

	got, ok := out.Get("run1/_run")
	require.True(t, ok)
	assert.Equal(t, "Hello, World!\n", string(got))

	seen, err := os.ReadFile(filepath.Join(dir, "seen.zip"))
	require.NoError(t, err)
	assert.Equal(t, job.Archive, seen)

	requestPath, err := os.ReadFile(filepath.Join(dir, "request-path"))
	require.NoError(t, err)
	assert.NoFileExists(t, strings.TrimSpace(string(requestPath)))
	assert.NoFileExists(t, filepath.Join(dir, "response.zip"))
}

func TestLocalDebugKeepsArchives(t *testing.T) {
	dir, command := fakeRunner(t)
	local := dispatch.NewLocal(dispatch.Config{ScriptCommand: command, TempDir: t.TempDir()}, logging.Discard())

	job := requestJob(t)
	job.Debug = true
	_, err := local.Execute(context.Background(), job)
	require.NoError(t, err)

	requestPath, err := os.ReadFile(filepath.Join(dir, "request-path"))
	require.NoError(t, err)
	assert.FileExists(t, strings.TrimSpace(string(requestPath)))
	assert.FileExists(t, filepath.Join(dir, "response.zip"))
}

func TestLocalRemovesRequestOnProtocolViolation(t *testing.T) {
	dir := t.TempDir()
	runner := filepath.Join(dir, "runner.sh")
	body := fmt.Sprintf("#!/bin/sh\necho \"$1\" > %s/request-path\necho oops >&2\n", dir)
	require.NoError(t, os.WriteFile(runner, []byte(body), 0o755))

	local := dispatch.NewLocal(dispatch.Config{ScriptCommand: "/bin/sh " + runner, TempDir: t.TempDir()}, logging.Discard())
	_, err := local.Execute(context.Background(), requestJob(t))
	require.ErrorIs(t, err, dispatch.ErrProtocol)
	assert.Contains(t, err.Error(), "oops")

	requestPath, err := os.ReadFile(filepath.Join(dir, "request-path"))
	require.NoError(t, err)
	assert.NoFileExists(t, strings.TrimSpace(string(requestPath)))
}

func TestLocalMissingResponseArchive(t *testing.T) {
	dir := t.TempDir()
	runner := filepath.Join(dir, "runner.sh")
	body := fmt.Sprintf("#!/bin/sh\necho %s/missing.zip\nexit 3\n", dir)
	require.NoError(t, os.WriteFile(runner, []byte(body), 0o755))

	local := dispatch.NewLocal(dispatch.Config{ScriptCommand: "/bin/sh " + runner, TempDir: t.TempDir()}, logging.Discard())
	_, err := local.Execute(context.Background(), requestJob(t))
	require.ErrorContains(t, err, "failed to read response archive")
}

func TestLocalTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the outer ceiling")
	}
	dir := t.TempDir()
	runner := filepath.Join(dir, "runner.sh")
	require.NoError(t, os.WriteFile(runner, []byte("#!/bin/sh\nexec sleep 30\n"), 0o755))

	local := dispatch.NewLocal(dispatch.Config{
		ScriptCommand: "/bin/sh " + runner,
		LocalTimeout:  100 * time.Millisecond,
		TempDir:       t.TempDir(),
	}, logging.Discard())

	start := time.Now()
	_, err := local.Execute(context.Background(), requestJob(t))
	require.ErrorIs(t, err, dispatch.ErrLocalTimeout)
	// the ceiling never drops below budget plus grace
	assert.GreaterOrEqual(t, time.Since(start), dispatch.Grace)
}

func TestLocalWithoutCommand(t *testing.T) {
	local := dispatch.NewLocal(dispatch.Config{}, logging.Discard())
	_, err := local.Execute(context.Background(), requestJob(t))
	require.Error(t, err)
}

func TestResponsePath(t *testing.T) {
	p, err := dispatch.ResponsePath("log line\nanother\n/tmp/resp.zip\n\n  \n")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/resp.zip", p)

	_, err = dispatch.ResponsePath("\n \n")
	require.ErrorIs(t, err, dispatch.ErrProtocol)
}
