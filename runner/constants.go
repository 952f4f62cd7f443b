package runner

import "time"

// Execution defaults and the worker command-line contract
const (
	// DefaultTimeout is the per-file wall-clock limit applied when the
	// configuration does not set one.
	DefaultTimeout = 5 * time.Minute

	// DefaultWorkers is the worker-pool size used when the configuration
	// does not set one.
	DefaultWorkers = 4

	// DefaultWorkerCommand is the external test-runner invoked per file.
	DefaultWorkerCommand = "moonspec-worker"

	// Flags passed through to the worker process
	ResultsFlag  = "--results"
	CoverageFlag = "--coverage"
	TagsFlag     = "--tags"
	FilterFlag   = "--filter"

	// Scratch file naming
	resultScratchPrefix = "moonspec-result-"
	logScratchPattern   = "moonspec-worker-*.log"

	// MaxReasonableWorkers caps requested concurrency before we warn about
	// resource exhaustion.
	MaxReasonableWorkers = 32
)
