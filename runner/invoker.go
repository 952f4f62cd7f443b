package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/moonspec/moonspec/types"
)

var _ Invoker = (*processInvoker)(nil)

// Invoker executes one external worker process per test file and reports the
// raw outcome. Every failure mode (spawn error, timeout, crash) is surfaced
// through the WorkerOutcome rather than an error return: a single WorkItem
// always produces exactly one outcome.
type Invoker interface {
	Invoke(ctx context.Context, item types.WorkItem) types.WorkerOutcome
}

// InvokerConfig holds configuration for creating a process invoker.
type InvokerConfig struct {
	// WorkerCommand is the external test-runner binary or script.
	WorkerCommand string
	// WorkDir is the directory worker processes run in. Empty means the
	// current directory.
	WorkDir string
	// Store, when non-nil, retains a copy of each structured result payload
	// for debugging before the scratch file is removed.
	Store PayloadStore
	Log   zerolog.Logger
}

// processInvoker implements Invoker by spawning one OS process per WorkItem.
type processInvoker struct {
	workerCmd string
	workDir   string
	store     PayloadStore
	log       zerolog.Logger
}

// NewProcessInvoker creates an invoker that runs the configured worker
// command against each test file.
func NewProcessInvoker(cfg InvokerConfig) (Invoker, error) {
	if cfg.WorkerCommand == "" {
		return nil, fmt.Errorf("worker command cannot be empty")
	}
	return &processInvoker{
		workerCmd: cfg.WorkerCommand,
		workDir:   cfg.WorkDir,
		store:     cfg.Store,
		log:       cfg.Log.With().Str("component", "invoker").Logger(),
	}, nil
}

// Invoke runs the worker process for one test file. The worker gets two
// separate output channels: its console stream is captured to a scratch log
// file, and its structured result goes to a uniquely named scratch JSON file
// named on the command line. The console stream is never parsed for counts.
func (iv *processInvoker) Invoke(ctx context.Context, item types.WorkItem) types.WorkerOutcome {
	outcome := types.WorkerOutcome{File: item.File, ExitCode: -1}

	resultPath := filepath.Join(os.TempDir(), resultScratchPrefix+uuid.New().String()+".json")
	defer func() {
		_ = os.Remove(resultPath)
	}()

	logFile, err := os.CreateTemp("", logScratchPattern)
	if err != nil {
		outcome.SpawnFailed = true
		outcome.FailureNote = fmt.Sprintf("failed to create scratch log file: %v", err)
		return outcome
	}
	logPath := logFile.Name()
	defer func() {
		_ = logFile.Close()
		_ = os.Remove(logPath)
	}()

	runCtx := ctx
	if item.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, item.Timeout)
		defer cancel()
	}

	args := buildWorkerArgs(item, resultPath)
	cmd := exec.CommandContext(runCtx, iv.workerCmd, args...)
	cmd.Dir = iv.workDir
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	iv.log.Debug().
		Str("file", item.File).
		Str("command", cmd.String()).
		Dur("timeout", item.Timeout).
		Msg("Spawning worker")

	start := time.Now()
	runErr := cmd.Run()
	outcome.Elapsed = time.Since(start)

	_ = logFile.Sync()
	outcome.Log = readScratchLog(logPath)

	// A deadline hit means the process was killed; report a timeout rather
	// than whatever partial result it may have left behind.
	if runCtx.Err() == context.DeadlineExceeded {
		outcome.TimedOut = true
		outcome.FailureNote = fmt.Sprintf("worker timed out after %v and was killed", item.Timeout)
		if exitCode := exitCodeOf(runErr); exitCode >= 0 {
			outcome.ExitCode = exitCode
		}
		iv.log.Warn().Str("file", item.File).Dur("timeout", item.Timeout).Msg("Worker timed out")
		return outcome
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
		} else {
			outcome.SpawnFailed = true
			outcome.FailureNote = fmt.Sprintf("failed to start worker: %v", runErr)
			iv.log.Error().Err(runErr).Str("file", item.File).Msg("Worker spawn failed")
			return outcome
		}
	} else {
		outcome.ExitCode = 0
	}

	payload, readErr := os.ReadFile(resultPath)
	if readErr != nil {
		iv.log.Debug().Str("file", item.File).Msg("Worker left no structured result file")
		return outcome
	}
	outcome.Payload = payload

	if iv.store != nil {
		if err := iv.store.Store(item.File, payload); err != nil {
			iv.log.Error().Err(err).Str("file", item.File).Msg("Failed to retain worker payload")
		}
	}

	return outcome
}

// buildWorkerArgs constructs the command line for one worker invocation.
func buildWorkerArgs(item types.WorkItem, resultPath string) []string {
	args := []string{ResultsFlag, resultPath}
	if item.Coverage {
		args = append(args, CoverageFlag)
	}
	if len(item.Tags) > 0 {
		args = append(args, TagsFlag, strings.Join(item.Tags, ","))
	}
	if item.FilterPattern != "" {
		args = append(args, FilterFlag, item.FilterPattern)
	}
	return append(args, item.File)
}

func readScratchLog(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(bytes.ToValidUTF8(data, []byte("?")))
}

func exitCodeOf(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
