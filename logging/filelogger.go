package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/acarl005/stripansi"
)

const (
	// RunDirectoryPrefix is the standard prefix for per-run log directories.
	RunDirectoryPrefix = "testrun-"

	logsDirName     = "logs"
	failedDirName   = "failed"
	payloadsDirName = "payloads"
	summaryFileName = "summary.log"
)

// FileLogger persists worker output to files under a per-run directory:
//
//	<base>/testrun-<runID>/logs/<file>.log      every test file's output
//	<base>/testrun-<runID>/failed/<file>.log    copies for failing files
//	<base>/testrun-<runID>/payloads/            raw result payloads (optional)
//	<base>/testrun-<runID>/summary.log          run summary
//
// Captured output is stripped of ANSI escape sequences before being written.
type FileLogger struct {
	runDir    string
	logDir    string
	failedDir string
	runID     string

	mu sync.Mutex
}

// NewFileLogger creates the run directory layout under baseDir.
func NewFileLogger(baseDir, runID string) (*FileLogger, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("log base directory cannot be empty")
	}
	if runID == "" {
		return nil, fmt.Errorf("run ID cannot be empty")
	}

	runDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	logDir := filepath.Join(runDir, logsDirName)
	failedDir := filepath.Join(runDir, failedDirName)
	for _, dir := range []string{runDir, logDir, failedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}

	return &FileLogger{
		runDir:    runDir,
		logDir:    logDir,
		failedDir: failedDir,
		runID:     runID,
	}, nil
}

// RunID returns the run identifier this logger writes under.
func (l *FileLogger) RunID() string {
	return l.runID
}

// RunDir returns the per-run directory.
func (l *FileLogger) RunDir() string {
	return l.runDir
}

// PayloadDir returns the directory for retained worker payloads. The
// directory itself is created by the payload store when retention is on.
func (l *FileLogger) PayloadDir() string {
	return filepath.Join(l.runDir, payloadsDirName)
}

// WriteTestLog writes one test file's captured console output. Failing files
// additionally get a copy under failed/ for quick triage.
func (l *FileLogger) WriteTestLog(testFile, output string, failed bool) error {
	clean := stripansi.Strip(output)
	name := logFileName(testFile)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.WriteFile(filepath.Join(l.logDir, name), []byte(clean), 0o644); err != nil {
		return fmt.Errorf("failed to write log for %s: %w", testFile, err)
	}
	if failed {
		if err := os.WriteFile(filepath.Join(l.failedDir, name), []byte(clean), 0o644); err != nil {
			return fmt.Errorf("failed to write failed-test log for %s: %w", testFile, err)
		}
	}
	return nil
}

// WriteSummary writes the run summary file.
func (l *FileLogger) WriteSummary(text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.WriteFile(filepath.Join(l.runDir, summaryFileName), []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}
	return nil
}

// logFileName flattens a test file path into a single log filename.
func logFileName(testFile string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(testFile)
	return name + ".log"
}
