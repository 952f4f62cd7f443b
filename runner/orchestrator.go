package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/moonspec/moonspec/metrics"
	"github.com/moonspec/moonspec/types"
)

// Orchestrator dispatches test files to worker invocations, bounded by the
// configured concurrency, and folds completed results into a single
// RunResult. Files are dispatched in list order; completion order is not
// guaranteed when running concurrently, and folding is insensitive to it.
type Orchestrator struct {
	cfg     types.RunConfig
	invoker Invoker
	decoder *Decoder
	log     zerolog.Logger
	tracer  trace.Tracer
	output  io.Writer
	runID   string
}

// Config holds configuration for creating an orchestrator.
type Config struct {
	RunConfig types.RunConfig
	Invoker   Invoker
	Log       zerolog.Logger
	// Output receives streamed worker logs when ShowWorkerOutput is set.
	// Defaults to stdout.
	Output io.Writer
	// RunID identifies the run in logs, metrics and the result. Generated
	// when empty.
	RunID string
}

// workResult pairs a completed work item with its decoded summary.
type workResult struct {
	Item    types.WorkItem
	Outcome types.WorkerOutcome
	Summary types.TestSummary
}

// NewOrchestrator validates the configuration and creates an orchestrator.
// Out-of-range worker counts and timeouts are clamped here, before any
// dispatch happens.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Invoker == nil {
		return nil, fmt.Errorf("invoker is required")
	}

	rc := cfg.RunConfig
	if rc.Workers < 1 {
		cfg.Log.Warn().Int("workers", rc.Workers).Msg("Worker count below 1, clamping to 1")
		rc.Workers = 1
	}
	if rc.Workers > MaxReasonableWorkers {
		cfg.Log.Warn().Int("workers", rc.Workers).
			Int("recommended_max", MaxReasonableWorkers).
			Msg("Very high worker count requested")
	}
	if rc.Timeout < time.Second {
		cfg.Log.Warn().Dur("timeout", rc.Timeout).Dur("default", DefaultTimeout).
			Msg("Timeout below 1s, using default")
		rc.Timeout = DefaultTimeout
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	runID := cfg.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	log := cfg.Log.With().Str("component", "orchestrator").Logger()
	return &Orchestrator{
		cfg:     rc,
		invoker: cfg.Invoker,
		decoder: NewDecoder(cfg.Log),
		log:     log,
		tracer:  otel.Tracer("moonspec orchestrator"),
		output:  output,
		runID:   runID,
	}, nil
}

// RunID returns the identifier the orchestrator stamps on its results.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// Run executes all test files and returns the aggregated result. An empty
// file list returns a zero-valued result immediately. Run itself only fails
// on a cancelled context; per-file failures are folded into the result.
func (o *Orchestrator) Run(ctx context.Context, files []string) (*types.RunResult, error) {
	start := time.Now()
	agg := NewAggregator(o.log, o.runID, o.cfg.AggregateCoverage)

	if len(files) == 0 {
		o.log.Debug().Msg("No test files to run")
		return agg.Finalize(time.Since(start)), nil
	}

	ctx, span := o.tracer.Start(ctx, "test run")
	defer span.End()

	o.log.Info().
		Str("run_id", o.runID).
		Int("files", len(files)).
		Int("workers", o.cfg.Workers).
		Bool("fail_fast", o.cfg.FailFast).
		Msg("Starting test run")

	var err error
	if o.cfg.Workers == 1 {
		err = o.runSerial(ctx, files, agg)
	} else {
		err = o.runParallel(ctx, files, agg)
	}
	if err != nil {
		return nil, err
	}

	result := agg.Finalize(time.Since(start))
	o.log.Info().
		Str("run_id", o.runID).
		Int("total", result.Total).
		Int("passed", result.Passed).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Dur("wall_clock", result.WallClock).
		Bool("success", result.Success()).
		Msg("Test run complete")

	return result, nil
}

// runSerial processes files one at a time in list order, which makes
// fail-fast exact: nothing past the failing file is ever invoked.
func (o *Orchestrator) runSerial(ctx context.Context, files []string, agg *Aggregator) error {
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run cancelled: %w", err)
		}

		res := o.process(ctx, o.cfg.WorkItemFor(file))
		o.fold(agg, res)

		if o.cfg.FailFast && !res.Summary.Success {
			o.log.Warn().Str("file", file).Msg("Stopping dispatch after failure (fail-fast)")
			return nil
		}
	}
	return nil
}

// runParallel fans files out to a bounded worker pool. The work channel is
// unbuffered so that on fail-fast at most the in-flight items drain; their
// results are still folded. Folding happens only in this goroutine's collect
// loop, so the accumulator has a single owner.
func (o *Orchestrator) runParallel(ctx context.Context, files []string, agg *Aggregator) error {
	dispatchCtx, stopDispatch := context.WithCancel(ctx)
	defer stopDispatch()

	workChan := make(chan types.WorkItem)
	resultChan := make(chan workResult, o.cfg.Workers)

	var wg sync.WaitGroup
	for i := 0; i < o.cfg.Workers; i++ {
		wg.Add(1)
		go o.worker(ctx, &wg, workChan, resultChan)
	}

	go func() {
		defer close(workChan)
		for _, file := range files {
			select {
			case workChan <- o.cfg.WorkItemFor(file):
			case <-dispatchCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	completed := 0
	for res := range resultChan {
		completed++
		o.fold(agg, res)
		o.log.Debug().
			Str("file", res.Item.File).
			Int("completed", completed).
			Int("scheduled", len(files)).
			Msg("File completed")

		if o.cfg.FailFast && !res.Summary.Success {
			o.log.Warn().Str("file", res.Item.File).Msg("Stopping dispatch after failure (fail-fast)")
			stopDispatch()
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled: %w", err)
	}
	return nil
}

// worker receives work items, runs them, and reports results until the work
// channel closes or the run context is cancelled.
func (o *Orchestrator) worker(ctx context.Context, wg *sync.WaitGroup, workChan <-chan types.WorkItem, resultChan chan<- workResult) {
	defer wg.Done()

	for {
		select {
		case item, ok := <-workChan:
			if !ok {
				return
			}
			res := o.process(ctx, item)
			select {
			case resultChan <- res:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// process runs one work item through the invoker and decoder.
func (o *Orchestrator) process(ctx context.Context, item types.WorkItem) workResult {
	ctx, span := o.tracer.Start(ctx, fmt.Sprintf("test file %s", item.File))
	defer span.End()

	outcome := o.invoker.Invoke(ctx, item)
	summary := o.decoder.Decode(outcome)
	return workResult{Item: item, Outcome: outcome, Summary: summary}
}

// fold streams the worker log if configured, then merges the result into the
// accumulator. Streamed output is in completion order.
func (o *Orchestrator) fold(agg *Aggregator, res workResult) {
	if o.cfg.ShowWorkerOutput && res.Outcome.Log != "" {
		fmt.Fprint(o.output, res.Outcome.Log)
	}
	agg.Fold(res.Item.File, res.Summary, res.Outcome)
	metrics.RecordFileResult(o.runID, res.Item.File, res.Summary, res.Outcome.Elapsed)
}
