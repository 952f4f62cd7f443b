package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/moonspec/moonspec/types"
)

const MetricsNamespace = "moonspec"

var (
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of orchestrator errors",
	}, []string{
		"error",
	})

	filesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "files_total",
		Help:      "Count of test files executed",
	}, []string{
		"run_id",
		"result",
	})

	testsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "tests_total",
		Help:      "Count of individual tests by status",
	}, []string{
		"run_id",
		"status",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of the most recent test run",
	}, []string{
		"run_id",
		"result",
	})

	runDurationSeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of the most recent test run",
	}, []string{
		"run_id",
	})
)

// RecordError increments the error counter for a named error condition.
func RecordError(errName string) {
	errorsTotal.WithLabelValues(errName).Inc()
}

// RecordFileResult records the outcome of one test file's worker invocation.
func RecordFileResult(runID, file string, summary types.TestSummary, elapsed time.Duration) {
	result := "pass"
	if !summary.Success {
		result = "fail"
	}
	filesTotal.WithLabelValues(runID, result).Inc()

	testsTotal.WithLabelValues(runID, "pass").Add(float64(summary.Passed))
	testsTotal.WithLabelValues(runID, "fail").Add(float64(summary.Failed))
	testsTotal.WithLabelValues(runID, "skip").Add(float64(summary.Skipped))
	testsTotal.WithLabelValues(runID, "pending").Add(float64(summary.Pending))
}

// RecordRunResult records the aggregate outcome of a completed run.
func RecordRunResult(result *types.RunResult) {
	passed := 0.0
	failed := 1.0
	if result.Success() {
		passed = 1.0
		failed = 0.0
	}
	runResults.WithLabelValues(result.RunID, "pass").Set(passed)
	runResults.WithLabelValues(result.RunID, "fail").Set(failed)
	runDurationSeconds.WithLabelValues(result.RunID).Set(result.WallClock.Seconds())
}
