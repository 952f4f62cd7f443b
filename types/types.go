package types

import (
	"time"
)

// RunConfig is the immutable per-run configuration snapshot handed to the
// orchestrator. It is assembled and validated once at startup; nothing in the
// dispatch path re-validates it.
type RunConfig struct {
	Workers           int           // max concurrent worker processes
	Timeout           time.Duration // per-file wall-clock limit
	FailFast          bool          // stop dispatching after the first failing result
	ShowWorkerOutput  bool          // stream captured worker logs in completion order
	AggregateCoverage bool          // merge per-file coverage fragments into the run result
	CoverageEnabled   bool          // pass the coverage flag through to workers
	Tags              []string      // tag filters passed through to workers
	FilterPattern     string        // test-name pattern passed through to workers
	WorkerCommand     string        // external test-runner binary or script
}

// WorkItemFor derives the per-file work item from the run configuration.
func (c RunConfig) WorkItemFor(file string) WorkItem {
	return WorkItem{
		File:          file,
		Timeout:       c.Timeout,
		Coverage:      c.CoverageEnabled,
		Tags:          c.Tags,
		FilterPattern: c.FilterPattern,
	}
}

// WorkItem is one test file plus the slice of configuration a single worker
// invocation needs. It is created when dispatch begins and owned exclusively
// by the invocation that processes it.
type WorkItem struct {
	File          string
	Timeout       time.Duration
	Coverage      bool
	Tags          []string
	FilterPattern string
}

// WorkerOutcome is the raw product of one worker invocation: exit status,
// elapsed wall time, the captured console log, and the structured result
// payload if the worker wrote one. Produced exactly once per WorkItem and
// never mutated afterwards.
type WorkerOutcome struct {
	File        string
	ExitCode    int
	Elapsed     time.Duration
	Log         string
	Payload     []byte // raw structured result; nil when the worker produced none
	TimedOut    bool
	SpawnFailed bool
	FailureNote string // diagnostic detail for spawn failures and timeouts
}

// HasPayload reports whether the worker produced a structured result.
func (o *WorkerOutcome) HasPayload() bool {
	return len(o.Payload) > 0
}

// TestError is a single error record. File is empty inside a TestSummary and
// filled in by the aggregator when the record is folded into the run result.
type TestError struct {
	File      string
	Message   string
	Traceback string
}

// TestSummary is the typed view of one worker's results, derived
// deterministically from a WorkerOutcome by the decoder.
type TestSummary struct {
	Total    int
	Passed   int
	Failed   int
	Skipped  int
	Pending  int
	Success  bool
	Errors   []TestError
	Coverage CoverageMap
}

// RunResult accumulates per-file summaries into the run-wide totals. It is
// mutated by exactly one owner (the aggregator, on the orchestrator's fold
// path) and read-only once the run completes.
type RunResult struct {
	RunID     string
	Total     int
	Passed    int
	Failed    int
	Skipped   int
	Pending   int
	Elapsed   time.Duration // sum of per-file wall times
	WallClock time.Duration // wall time across the whole run
	Errors    []TestError
	Files     []string          // processed files, in fold order
	Logs      map[string]string // file -> raw captured console output
	Summaries map[string]TestSummary
	FileTimes map[string]time.Duration
	Coverage  CoverageMap
}

// Success reports overall run success. A run passes only when no test failed
// and no error records were collected; a file whose worker never produced a
// decodable result contributes an error record rather than a failure count,
// and must not turn the run green.
func (r *RunResult) Success() bool {
	return r.Failed == 0 && len(r.Errors) == 0
}
