package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonspec/moonspec/types"
)

func sampleResult() *types.RunResult {
	return &types.RunResult{
		RunID:     "run-1",
		Total:     5,
		Passed:    4,
		Failed:    1,
		Elapsed:   3 * time.Second,
		WallClock: 2 * time.Second,
		Errors:    []types.TestError{{File: "b.lua", Message: "boom"}},
		Files:     []string{"a.lua", "b.lua"},
		Summaries: map[string]types.TestSummary{
			"a.lua": {Total: 3, Passed: 3, Success: true},
			"b.lua": {Total: 2, Passed: 1, Failed: 1, Success: false},
		},
		FileTimes: map[string]time.Duration{
			"a.lua": time.Second,
			"b.lua": 2 * time.Second,
		},
		Coverage: types.CoverageMap{
			"src/core.lua": {1: 1, 2: 3},
		},
	}
}

func TestBuildReportData(t *testing.T) {
	data := BuildReportData(sampleResult())

	assert.Equal(t, "run-1", data.RunID)
	assert.Equal(t, 5, data.Total)
	assert.Equal(t, 4, data.Passed)
	assert.Equal(t, 1, data.Failed)
	assert.InDelta(t, 0.8, data.PassRate, 0.001)
	assert.False(t, data.Success)
	require.Len(t, data.Errors, 1)

	require.Len(t, data.Files, 2)
	assert.Equal(t, ReportFileItem{
		File:     "a.lua",
		Status:   FileStatusPass,
		Total:    3,
		Passed:   3,
		Duration: time.Second,
	}, data.Files[0])
	assert.Equal(t, FileStatusFail, data.Files[1].Status)

	assert.Equal(t, 1, data.CoverageFiles)
	assert.Equal(t, 2, data.CoverageLines)
}

func TestBuildReportData_EmptyRun(t *testing.T) {
	data := BuildReportData(&types.RunResult{RunID: "run-2"})

	assert.Zero(t, data.Total)
	assert.Zero(t, data.PassRate)
	assert.True(t, data.Success)
	assert.Empty(t, data.Files)
	assert.Zero(t, data.CoverageFiles)
}
