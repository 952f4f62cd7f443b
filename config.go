package moonspec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/moonspec/moonspec/flags"
	"github.com/moonspec/moonspec/runner"
	"github.com/moonspec/moonspec/types"
)

// ProjectConfigName is the per-project defaults file picked up from the test
// directory when no --config flag is given.
const ProjectConfigName = "moonspec.yaml"

// Config holds the application configuration. It is assembled once at
// startup; the orchestrator receives an immutable snapshot per run.
type Config struct {
	TestDir           string
	Patterns          []string // test filename globs; empty means defaults
	Excludes          []string // globs for files and directories to skip
	WorkerCommand     string
	Workers           int
	Timeout           time.Duration
	FailFast          bool
	ShowWorkerOutput  bool
	CoverageEnabled   bool
	AggregateCoverage bool
	Tags              []string
	FilterPattern     string
	LogDir            string
	KeepPayloads      bool
	RunInterval       time.Duration // interval between runs; 0 means run once
	RunOnce           bool
	Log               zerolog.Logger
}

// fileConfig mirrors the moonspec.yaml project defaults file. Pointer fields
// distinguish "absent" from explicit false.
type fileConfig struct {
	WorkerCommand     string   `yaml:"worker_command"`
	Workers           int      `yaml:"workers"`
	TimeoutSeconds    int      `yaml:"timeout_seconds"`
	FailFast          *bool    `yaml:"fail_fast"`
	ShowOutput        *bool    `yaml:"show_output"`
	Coverage          *bool    `yaml:"coverage"`
	AggregateCoverage *bool    `yaml:"aggregate_coverage"`
	Tags              []string `yaml:"tags"`
	Filter            string   `yaml:"filter"`
	Patterns          []string `yaml:"patterns"`
	Excludes          []string `yaml:"exclude"`
}

// NewConfig builds the configuration from CLI flags and an optional project
// defaults file. Explicit CLI flags win over file values, which win over
// flag defaults. Invalid worker counts and timeouts are clamped here, before
// any dispatch begins.
func NewConfig(ctx *cli.Context, log zerolog.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	testDir, err := filepath.Abs(ctx.String(flags.TestDir.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve test directory: %w", err)
	}
	if info, statErr := os.Stat(testDir); statErr != nil || !info.IsDir() {
		return nil, fmt.Errorf("test directory %s is not a directory", testDir)
	}

	logDir, err := filepath.Abs(ctx.String(flags.LogDir.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve log directory: %w", err)
	}

	cfg := &Config{
		TestDir:           testDir,
		WorkerCommand:     ctx.String(flags.WorkerCommand.Name),
		Workers:           ctx.Int(flags.Workers.Name),
		Timeout:           ctx.Duration(flags.Timeout.Name),
		FailFast:          ctx.Bool(flags.FailFast.Name),
		ShowWorkerOutput:  ctx.Bool(flags.ShowOutput.Name),
		CoverageEnabled:   ctx.Bool(flags.Coverage.Name),
		AggregateCoverage: ctx.Bool(flags.AggregateCoverage.Name),
		Tags:              ctx.StringSlice(flags.Tags.Name),
		FilterPattern:     ctx.String(flags.Filter.Name),
		LogDir:            logDir,
		KeepPayloads:      ctx.Bool(flags.KeepPayloads.Name),
		RunInterval:       ctx.Duration(flags.RunInterval.Name),
		Log:               log,
	}
	cfg.RunOnce = cfg.RunInterval == 0

	if err := cfg.applyProjectFile(ctx); err != nil {
		return nil, err
	}

	if cfg.WorkerCommand == "" {
		return nil, errors.New("worker command cannot be empty")
	}
	if cfg.Workers < 1 {
		log.Warn().Int("workers", cfg.Workers).Msg("Worker count below 1, clamping to 1")
		cfg.Workers = 1
	}
	if cfg.Timeout < time.Second {
		log.Warn().Dur("timeout", cfg.Timeout).Dur("default", runner.DefaultTimeout).
			Msg("Timeout below 1s, using default")
		cfg.Timeout = runner.DefaultTimeout
	}

	return cfg, nil
}

// applyProjectFile loads project defaults from the --config path, or from
// moonspec.yaml in the test directory if present. File values only fill in
// settings the command line left at their defaults.
func (c *Config) applyProjectFile(ctx *cli.Context) error {
	path := ctx.String(flags.ConfigFile.Name)
	if path == "" {
		candidate := filepath.Join(c.TestDir, ProjectConfigName)
		if _, err := os.Stat(candidate); err != nil {
			return nil
		}
		path = candidate
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.Log.Debug().Str("path", path).Msg("Applying project config file")

	if fc.WorkerCommand != "" && !ctx.IsSet(flags.WorkerCommand.Name) {
		c.WorkerCommand = fc.WorkerCommand
	}
	if fc.Workers != 0 && !ctx.IsSet(flags.Workers.Name) {
		c.Workers = fc.Workers
	}
	if fc.TimeoutSeconds != 0 && !ctx.IsSet(flags.Timeout.Name) {
		c.Timeout = time.Duration(fc.TimeoutSeconds) * time.Second
	}
	if fc.FailFast != nil && !ctx.IsSet(flags.FailFast.Name) {
		c.FailFast = *fc.FailFast
	}
	if fc.ShowOutput != nil && !ctx.IsSet(flags.ShowOutput.Name) {
		c.ShowWorkerOutput = *fc.ShowOutput
	}
	if fc.Coverage != nil && !ctx.IsSet(flags.Coverage.Name) {
		c.CoverageEnabled = *fc.Coverage
	}
	if fc.AggregateCoverage != nil && !ctx.IsSet(flags.AggregateCoverage.Name) {
		c.AggregateCoverage = *fc.AggregateCoverage
	}
	if len(fc.Tags) > 0 && !ctx.IsSet(flags.Tags.Name) {
		c.Tags = fc.Tags
	}
	if fc.Filter != "" && !ctx.IsSet(flags.Filter.Name) {
		c.FilterPattern = fc.Filter
	}
	if len(fc.Patterns) > 0 {
		c.Patterns = fc.Patterns
	}
	if len(fc.Excludes) > 0 {
		c.Excludes = fc.Excludes
	}

	return nil
}

// RunConfig returns the immutable per-run snapshot handed to the
// orchestrator.
func (c *Config) RunConfig() types.RunConfig {
	return types.RunConfig{
		Workers:           c.Workers,
		Timeout:           c.Timeout,
		FailFast:          c.FailFast,
		ShowWorkerOutput:  c.ShowWorkerOutput,
		AggregateCoverage: c.AggregateCoverage,
		CoverageEnabled:   c.CoverageEnabled,
		Tags:              c.Tags,
		FilterPattern:     c.FilterPattern,
		WorkerCommand:     c.WorkerCommand,
	}
}
