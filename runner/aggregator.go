package runner

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/moonspec/moonspec/types"
)

// Aggregator folds per-file test summaries into a run-wide RunResult.
// Folding is a pure accumulation and never fails. The accumulator has exactly
// one owner: callers must serialize Fold calls, which the orchestrator does
// by folding only from its single collect loop. The folded totals are
// insensitive to completion order.
type Aggregator struct {
	log               zerolog.Logger
	aggregateCoverage bool
	result            *types.RunResult
}

// NewAggregator creates an aggregator with a zero-valued accumulator.
func NewAggregator(log zerolog.Logger, runID string, aggregateCoverage bool) *Aggregator {
	return &Aggregator{
		log:               log.With().Str("component", "aggregator").Logger(),
		aggregateCoverage: aggregateCoverage,
		result: &types.RunResult{
			RunID:     runID,
			Logs:      make(map[string]string),
			Summaries: make(map[string]types.TestSummary),
			FileTimes: make(map[string]time.Duration),
			Coverage:  make(types.CoverageMap),
		},
	}
}

// Fold merges one file's summary and its raw outcome into the accumulator.
func (a *Aggregator) Fold(file string, summary types.TestSummary, outcome types.WorkerOutcome) {
	r := a.result

	r.Total += summary.Total
	r.Passed += summary.Passed
	r.Failed += summary.Failed
	r.Skipped += summary.Skipped
	r.Pending += summary.Pending
	r.Elapsed += outcome.Elapsed

	r.Files = append(r.Files, file)
	r.Logs[file] = outcome.Log
	r.Summaries[file] = summary
	r.FileTimes[file] = outcome.Elapsed

	switch {
	case len(summary.Errors) > 0:
		for _, e := range summary.Errors {
			e.File = file
			r.Errors = append(r.Errors, e)
		}
	case !summary.Success && summary.Failed > 0:
		// Worker reported failures but no detail records
		r.Errors = append(r.Errors, types.TestError{
			File:    file,
			Message: "one or more tests failed",
		})
	}

	if a.aggregateCoverage && len(summary.Coverage) > 0 {
		r.Coverage.Merge(summary.Coverage)
	}

	a.log.Debug().
		Str("file", file).
		Bool("success", summary.Success).
		Int("total", summary.Total).
		Int("failed", summary.Failed).
		Msg("Folded file result")
}

// Finalize stamps the run-level wall-clock time and returns the accumulated
// result. The result must not be mutated afterwards.
func (a *Aggregator) Finalize(wallClock time.Duration) *types.RunResult {
	a.result.WallClock = wallClock
	return a.result
}
