// Package moonspec wires test-file discovery, the parallel worker
// orchestrator, file logging and reporting into a runnable service.
package moonspec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/moonspec/moonspec/logging"
	"github.com/moonspec/moonspec/metrics"
	"github.com/moonspec/moonspec/reporting"
	"github.com/moonspec/moonspec/runner"
	"github.com/moonspec/moonspec/testlist"
	"github.com/moonspec/moonspec/types"
)

// Service runs the test orchestration loop: discover files, run them through
// the orchestrator, persist logs, render the report.
type Service struct {
	config    *Config
	version   string
	log       zerolog.Logger
	scheduler RunScheduler
	sink      reporting.Sink
	result    *types.RunResult // most recent run, nil before the first run
}

// New creates the service.
func New(config *Config, version string) (*Service, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	log := config.Log.With().Str("component", "service").Logger()
	log.Debug().
		Str("testdir", config.TestDir).
		Str("worker_cmd", config.WorkerCommand).
		Int("workers", config.Workers).
		Dur("run_interval", config.RunInterval).
		Bool("run_once", config.RunOnce).
		Msg("Creating service")

	return &Service{
		config:    config,
		version:   version,
		log:       log,
		scheduler: NewIntervalScheduler(config.RunInterval, config.RunOnce, config.Log),
		sink:      reporting.NewTextSink(os.Stdout),
	}, nil
}

// Result returns the most recent run result.
func (s *Service) Result() *types.RunResult {
	return s.result
}

// Start runs tests once or on the configured interval. In run-once mode it
// returns a TestFailureError when the run did not pass, so the CLI can map
// it to exit code 1. Operational failures come back as RuntimeError.
func (s *Service) Start(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("Runtime panic during test run")
			err = NewRuntimeError(fmt.Errorf("panic: %v", r))
		}
	}()

	s.scheduler.RegisterCallback(func() error {
		return s.runTests(ctx)
	})

	if s.config.RunOnce {
		s.log.Info().Msg("Starting moonspec in run-once mode")
		if err := s.scheduler.Start(ctx); err != nil {
			return NewRuntimeError(err)
		}
		if s.result != nil && !s.result.Success() {
			return NewTestFailureError(fmt.Sprintf("%d failed test(s), %d error record(s)",
				s.result.Failed, len(s.result.Errors)))
		}
		return nil
	}

	s.log.Info().Dur("interval", s.config.RunInterval).Msg("Starting moonspec in continuous mode")
	if err := s.scheduler.Start(ctx); err != nil {
		return NewRuntimeError(err)
	}
	<-ctx.Done()
	return s.scheduler.Stop()
}

// runTests performs a single complete run.
func (s *Service) runTests(ctx context.Context) error {
	files, err := testlist.Discover(s.config.TestDir, s.config.Patterns, s.config.Excludes)
	if err != nil {
		return fmt.Errorf("test discovery failed: %w", err)
	}
	s.log.Info().Int("files", len(files)).Str("testdir", s.config.TestDir).Msg("Discovered test files")

	runID := uuid.New().String()
	fileLogger, err := logging.NewFileLogger(s.config.LogDir, runID)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}

	var store runner.PayloadStore
	if s.config.KeepPayloads {
		store, err = runner.NewDirPayloadStore(fileLogger.PayloadDir())
		if err != nil {
			return fmt.Errorf("failed to create payload store: %w", err)
		}
	}

	invoker, err := runner.NewProcessInvoker(runner.InvokerConfig{
		WorkerCommand: s.config.WorkerCommand,
		WorkDir:       s.config.TestDir,
		Store:         store,
		Log:           s.config.Log,
	})
	if err != nil {
		return fmt.Errorf("failed to create invoker: %w", err)
	}

	orch, err := runner.NewOrchestrator(runner.Config{
		RunConfig: s.config.RunConfig(),
		Invoker:   invoker,
		Log:       s.config.Log,
		RunID:     runID,
	})
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	result, err := orch.Run(ctx, files)
	if err != nil {
		metrics.RecordError("run_failed")
		return fmt.Errorf("test run failed: %w", err)
	}
	s.result = result

	s.persistLogs(fileLogger, result)

	if err := s.sink.Consume(result); err != nil {
		s.log.Error().Err(err).Msg("Failed to render results")
	}
	metrics.RecordRunResult(result)

	s.log.Info().Str("run_dir", fileLogger.RunDir()).Msg("Test logs written")
	return nil
}

// persistLogs writes per-file worker output and the run summary under the
// run directory. Log persistence problems are reported but never fail a run.
func (s *Service) persistLogs(fileLogger *logging.FileLogger, result *types.RunResult) {
	for _, file := range result.Files {
		failed := !result.Summaries[file].Success
		if err := fileLogger.WriteTestLog(file, result.Logs[file], failed); err != nil {
			s.log.Error().Err(err).Str("file", file).Msg("Failed to persist worker log")
			metrics.RecordError("log_write_failed")
		}
	}

	var sb strings.Builder
	if err := reporting.NewTextSink(&sb).Consume(result); err == nil {
		if err := fileLogger.WriteSummary(sb.String()); err != nil {
			s.log.Error().Err(err).Msg("Failed to persist run summary")
			metrics.RecordError("log_write_failed")
		}
	}
}
