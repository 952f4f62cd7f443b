package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/moonspec/moonspec/runner"
)

const EnvVarPrefix = "MOONSPEC"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	TestDir = &cli.StringFlag{
		Name:     "testdir",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVars("TESTDIR"),
		Usage:    "Path to the directory from which to discover test files",
	}
	WorkerCommand = &cli.StringFlag{
		Name:    "worker-cmd",
		Value:   runner.DefaultWorkerCommand,
		EnvVars: prefixEnvVars("WORKER_CMD"),
		Usage:   "External test-runner command invoked once per test file",
	}
	Workers = &cli.IntFlag{
		Name:    "workers",
		Value:   runner.DefaultWorkers,
		EnvVars: prefixEnvVars("WORKERS"),
		Usage:   "Maximum number of concurrent worker processes",
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   runner.DefaultTimeout,
		EnvVars: prefixEnvVars("TIMEOUT"),
		Usage:   "Per-file wall-clock limit (e.g. '90s', '5m')",
	}
	FailFast = &cli.BoolFlag{
		Name:    "fail-fast",
		Value:   false,
		EnvVars: prefixEnvVars("FAIL_FAST"),
		Usage:   "Stop dispatching new files after the first failing result",
	}
	ShowOutput = &cli.BoolFlag{
		Name:    "show-output",
		Value:   false,
		EnvVars: prefixEnvVars("SHOW_OUTPUT"),
		Usage:   "Stream each file's captured worker output as it completes",
	}
	Coverage = &cli.BoolFlag{
		Name:    "coverage",
		Value:   false,
		EnvVars: prefixEnvVars("COVERAGE"),
		Usage:   "Pass the coverage flag through to workers",
	}
	AggregateCoverage = &cli.BoolFlag{
		Name:    "aggregate-coverage",
		Value:   false,
		EnvVars: prefixEnvVars("AGGREGATE_COVERAGE"),
		Usage:   "Merge per-file coverage fragments into the run result",
	}
	Tags = &cli.StringSliceFlag{
		Name:    "tags",
		EnvVars: prefixEnvVars("TAGS"),
		Usage:   "Tag filters passed through to workers",
	}
	Filter = &cli.StringFlag{
		Name:    "filter",
		Value:   "",
		EnvVars: prefixEnvVars("FILTER"),
		Usage:   "Test-name pattern passed through to workers",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "logs",
		EnvVars: prefixEnvVars("LOGDIR"),
		Usage:   "Directory to store per-run test logs",
	}
	KeepPayloads = &cli.BoolFlag{
		Name:    "keep-payloads",
		Value:   false,
		EnvVars: prefixEnvVars("KEEP_PAYLOADS"),
		Usage:   "Retain raw worker result payloads under the run log directory",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVars("RUN_INTERVAL"),
		Usage:   "Interval between test runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "Log level (trace, debug, info, warn, error)",
	}
	ConfigFile = &cli.StringFlag{
		Name:    "config",
		Value:   "",
		EnvVars: prefixEnvVars("CONFIG"),
		Usage:   "Path to a moonspec.yaml with project defaults",
	}
)

var requiredFlags = []cli.Flag{
	TestDir,
}

var optionalFlags = []cli.Flag{
	WorkerCommand,
	Workers,
	Timeout,
	FailFast,
	ShowOutput,
	Coverage,
	AggregateCoverage,
	Tags,
	Filter,
	LogDir,
	KeepPayloads,
	RunInterval,
	LogLevel,
	ConfigFile,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
