// Package runner provides the components that execute Lua test files in
// isolated worker processes and aggregate their results.
//
// The main components are:
//   - Invoker: spawns one external worker process per test file, enforces the
//     wall-clock timeout and captures console output and the structured
//     result payload
//   - Decoder: turns a raw WorkerOutcome into a typed TestSummary, treating
//     missing or malformed payloads as hard failures
//   - Aggregator: folds per-file summaries into the run-wide RunResult,
//     including the merged coverage map
//   - Orchestrator: dispatches files across a bounded worker pool, applies
//     the fail-fast policy and streams worker output in completion order
//   - PayloadStore: optionally retains raw result payloads for debugging
package runner
