package runner

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/moonspec/moonspec/types"
)

// Decoder turns a WorkerOutcome into a typed TestSummary. Decoding is total:
// any outcome shape yields a summary, and an absent or malformed structured
// result is a hard failure, never a silent pass.
type Decoder struct {
	log zerolog.Logger
}

// NewDecoder creates a decoder.
func NewDecoder(log zerolog.Logger) *Decoder {
	return &Decoder{log: log.With().Str("component", "decoder").Logger()}
}

// workerPayload mirrors the JSON object a worker writes to its result file.
// Count fields are raw so alternative key names and non-numeric values can be
// resolved leniently.
type workerPayload struct {
	Total        json.RawMessage           `json:"total"`
	Passed       *int                      `json:"passed"`
	Passes       *int                      `json:"passes"`
	Failed       *int                      `json:"failed"`
	Errors       json.RawMessage           `json:"errors"`
	FailedCount  *int                      `json:"failed_count"`
	Skipped      *int                      `json:"skipped"`
	Pending      *int                      `json:"pending"`
	ErrorDetails []payloadErrorDetail      `json:"error_details"`
	Coverage     map[string]map[string]int `json:"coverage"`
}

type payloadErrorDetail struct {
	Message   string `json:"message"`
	Traceback string `json:"traceback"`
}

// Decode derives the test summary for one worker outcome.
func (d *Decoder) Decode(outcome types.WorkerOutcome) types.TestSummary {
	if !outcome.HasPayload() {
		msg := "worker produced no result file"
		if outcome.FailureNote != "" {
			msg = outcome.FailureNote
		}
		d.log.Warn().Str("file", outcome.File).Msg(msg)
		return failureSummary(msg)
	}

	var payload workerPayload
	if err := json.Unmarshal(outcome.Payload, &payload); err != nil {
		msg := fmt.Sprintf("malformed worker result: %v", err)
		d.log.Warn().Str("file", outcome.File).Err(err).Msg("Failed to parse worker result")
		return failureSummary(msg)
	}

	summary := types.TestSummary{
		Passed:  firstCount(payload.Passed, payload.Passes),
		Skipped: valueOrZero(payload.Skipped),
		Pending: valueOrZero(payload.Pending),
	}

	if payload.Failed != nil {
		summary.Failed = *payload.Failed
	} else if n, ok := rawInt(payload.Errors); ok {
		summary.Failed = n
	} else {
		summary.Failed = valueOrZero(payload.FailedCount)
	}

	if n, ok := rawInt(payload.Total); ok {
		summary.Total = n
	} else {
		summary.Total = summary.Passed + summary.Failed + summary.Skipped
	}

	for _, detail := range payload.ErrorDetails {
		summary.Errors = append(summary.Errors, types.TestError{
			Message:   detail.Message,
			Traceback: detail.Traceback,
		})
	}

	summary.Coverage = decodeCoverage(payload.Coverage, d.log, outcome.File)

	if summary.Total > 0 {
		summary.Success = summary.Failed == 0
	} else {
		// No tests counted: fall back to the process exit status. A clean
		// parse with zero counts but a non-zero exit usually means an
		// environment problem rather than a test outcome.
		summary.Success = outcome.ExitCode == 0
		if outcome.ExitCode != 0 {
			d.log.Warn().
				Str("file", outcome.File).
				Int("exit_code", outcome.ExitCode).
				Msg("Worker reported zero tests but exited non-zero")
		}
	}

	return summary
}

// failureSummary is the summary for an outcome with no usable structured
// result: all counts zero, one error record, success false.
func failureSummary(msg string) types.TestSummary {
	return types.TestSummary{
		Success: false,
		Errors:  []types.TestError{{Message: msg}},
	}
}

// decodeCoverage converts the JSON coverage fragment (string line keys, as
// Lua JSON encoders emit object keys) into the typed map. Non-numeric line
// keys are dropped.
func decodeCoverage(raw map[string]map[string]int, log zerolog.Logger, file string) types.CoverageMap {
	if len(raw) == 0 {
		return nil
	}
	coverage := make(types.CoverageMap, len(raw))
	for path, lines := range raw {
		counts := make(types.LineCounts, len(lines))
		for key, count := range lines {
			line, err := strconv.Atoi(key)
			if err != nil {
				log.Debug().Str("file", file).Str("line_key", key).Msg("Dropping non-numeric coverage line key")
				continue
			}
			counts[line] = count
		}
		if len(counts) > 0 {
			coverage[path] = counts
		}
	}
	if len(coverage) == 0 {
		return nil
	}
	return coverage
}

func firstCount(values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

func valueOrZero(v *int) int {
	if v != nil {
		return *v
	}
	return 0
}

// rawInt extracts an integer from a raw JSON value, tolerating numbers with a
// fractional zero part. It reports false for absent or non-numeric values.
func rawInt(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return int(f), true
}
