package reporting

import (
	"time"

	"github.com/moonspec/moonspec/types"
)

// FileStatus is the rendered status of one test file.
type FileStatus string

const (
	FileStatusPass FileStatus = "pass"
	FileStatusFail FileStatus = "fail"
)

// ReportFileItem is one test file's row in a report.
type ReportFileItem struct {
	File     string
	Status   FileStatus
	Total    int
	Passed   int
	Failed   int
	Skipped  int
	Pending  int
	Duration time.Duration
}

// ReportData is the format-independent view of a finished run that every
// sink renders from.
type ReportData struct {
	RunID     string
	Total     int
	Passed    int
	Failed    int
	Skipped   int
	Pending   int
	PassRate  float64
	Elapsed   time.Duration
	WallClock time.Duration
	Success   bool

	Files  []ReportFileItem
	Errors []types.TestError

	CoverageFiles int
	CoverageLines int
}

// BuildReportData flattens a RunResult into report rows, preserving the
// order files were folded in.
func BuildReportData(result *types.RunResult) ReportData {
	data := ReportData{
		RunID:         result.RunID,
		Total:         result.Total,
		Passed:        result.Passed,
		Failed:        result.Failed,
		Skipped:       result.Skipped,
		Pending:       result.Pending,
		Elapsed:       result.Elapsed,
		WallClock:     result.WallClock,
		Success:       result.Success(),
		Errors:        result.Errors,
		CoverageFiles: len(result.Coverage),
		CoverageLines: result.Coverage.TotalLines(),
	}

	if result.Total > 0 {
		data.PassRate = float64(result.Passed) / float64(result.Total)
	}

	for _, file := range result.Files {
		summary := result.Summaries[file]
		status := FileStatusPass
		if !summary.Success {
			status = FileStatusFail
		}
		data.Files = append(data.Files, ReportFileItem{
			File:     file,
			Status:   status,
			Total:    summary.Total,
			Passed:   summary.Passed,
			Failed:   summary.Failed,
			Skipped:  summary.Skipped,
			Pending:  summary.Pending,
			Duration: result.FileTimes[file],
		})
	}

	return data
}
