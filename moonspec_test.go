package moonspec

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonspec/moonspec/logging"
	"github.com/moonspec/moonspec/reporting"
)

// writeWorker writes an sh script standing in for the external test runner.
func writeWorker(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("sh worker scripts are not portable to windows")
	}
	path := filepath.Join(t.TempDir(), "worker.sh")
	script := `#!/bin/sh
results=""
while [ $# -gt 0 ]; do
	case "$1" in
		--results) results="$2"; shift 2 ;;
		*) shift ;;
	esac
done
` + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func newServiceConfig(t *testing.T, workerCmd string) *Config {
	t.Helper()
	testDir := t.TempDir()
	for _, name := range []string{"alpha_spec.lua", "beta_spec.lua"} {
		require.NoError(t, os.WriteFile(filepath.Join(testDir, name), []byte("-- lua\n"), 0o644))
	}
	return &Config{
		TestDir:       testDir,
		WorkerCommand: workerCmd,
		Workers:       2,
		Timeout:       30 * time.Second,
		LogDir:        t.TempDir(),
		RunOnce:       true,
		Log:           zerolog.Nop(),
	}
}

func newTestService(t *testing.T, cfg *Config) (*Service, *bytes.Buffer) {
	t.Helper()
	svc, err := New(cfg, "test")
	require.NoError(t, err)
	var report bytes.Buffer
	svc.sink = reporting.NewTextSink(&report)
	return svc, &report
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, "test")
	assert.Error(t, err)
}

func TestService_Start_PassingRun(t *testing.T) {
	worker := writeWorker(t, `printf '%s' '{"total":2,"passed":2,"failed":0}' > "$results"`)
	cfg := newServiceConfig(t, worker)
	svc, report := newTestService(t, cfg)

	require.NoError(t, svc.Start(context.Background()))

	result := svc.Result()
	require.NotNil(t, result)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 4, result.Passed)
	assert.True(t, result.Success())
	assert.Len(t, result.Files, 2)

	assert.Contains(t, report.String(), "TOTAL")

	// Per-run directory with logs and summary.
	entries, err := os.ReadDir(cfg.LogDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	runDir := filepath.Join(cfg.LogDir, entries[0].Name())
	assert.Contains(t, entries[0].Name(), logging.RunDirectoryPrefix)

	_, err = os.Stat(filepath.Join(runDir, "summary.log"))
	assert.NoError(t, err)
}

func TestService_Start_FailingRun(t *testing.T) {
	worker := writeWorker(t,
		`printf '%s' '{"total":2,"passed":1,"failed":1,"error_details":[{"message":"boom"}]}' > "$results"; exit 1`)
	cfg := newServiceConfig(t, worker)
	svc, _ := newTestService(t, cfg)

	err := svc.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsTestFailureError(err))
	assert.False(t, IsRuntimeError(err))

	result := svc.Result()
	require.NotNil(t, result)
	assert.Equal(t, 2, result.Failed)
	assert.False(t, result.Success())
}

func TestService_Start_SpawnFailureIsTestFailure(t *testing.T) {
	cfg := newServiceConfig(t, filepath.Join(t.TempDir(), "missing-worker"))
	svc, _ := newTestService(t, cfg)

	// A worker that cannot start yields per-file error records, which is a
	// failed run rather than an operational error.
	err := svc.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsTestFailureError(err))

	result := svc.Result()
	require.NotNil(t, result)
	assert.Len(t, result.Errors, 2)
}

func TestService_Start_MissingTestDirIsRuntimeError(t *testing.T) {
	worker := writeWorker(t, `printf '%s' '{"total":0}' > "$results"`)
	cfg := newServiceConfig(t, worker)
	cfg.TestDir = filepath.Join(cfg.TestDir, "absent")
	svc, _ := newTestService(t, cfg)

	err := svc.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsRuntimeError(err))
}

func TestService_Start_KeepPayloads(t *testing.T) {
	worker := writeWorker(t, `printf '%s' '{"total":1,"passed":1}' > "$results"`)
	cfg := newServiceConfig(t, worker)
	cfg.KeepPayloads = true
	svc, _ := newTestService(t, cfg)

	require.NoError(t, svc.Start(context.Background()))

	entries, err := os.ReadDir(cfg.LogDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	payloadDir := filepath.Join(cfg.LogDir, entries[0].Name(), "payloads")
	payloads, err := os.ReadDir(payloadDir)
	require.NoError(t, err)
	assert.Len(t, payloads, 2)
}
