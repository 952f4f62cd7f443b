package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/moonspec/moonspec/types"
)

// Sink consumes a finished run result and renders it somewhere.
type Sink interface {
	Consume(result *types.RunResult) error
}

var _ Sink = (*TextSink)(nil)

// TextSink renders a run result as a console table followed by error details
// and a coverage summary.
type TextSink struct {
	out io.Writer
}

// NewTextSink creates a text sink writing to out.
func NewTextSink(out io.Writer) *TextSink {
	return &TextSink{out: out}
}

// Consume renders the result.
func (s *TextSink) Consume(result *types.RunResult) error {
	data := BuildReportData(result)

	t := table.NewWriter()
	t.SetOutputMirror(s.out)
	t.SetTitle(fmt.Sprintf("Test Run Results (%s)", formatDuration(data.WallClock)))

	t.AppendHeader(table.Row{"File", "Tests", "Passed", "Failed", "Skipped", "Pending", "Duration", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "File", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
		{Name: "Pending", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})

	for _, item := range data.Files {
		t.AppendRow(table.Row{
			item.File,
			item.Total,
			item.Passed,
			item.Failed,
			item.Skipped,
			item.Pending,
			formatDuration(item.Duration),
			statusString(item.Status),
		})
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		data.Total,
		data.Passed,
		data.Failed,
		data.Skipped,
		data.Pending,
		formatDuration(data.Elapsed),
		overallStatus(data.Success),
	})
	t.Render()

	if len(data.Errors) > 0 {
		fmt.Fprintf(s.out, "\nErrors (%d):\n", len(data.Errors))
		for _, e := range data.Errors {
			fmt.Fprintf(s.out, "  %s: %s\n", e.File, e.Message)
			if e.Traceback != "" {
				fmt.Fprintf(s.out, "%s\n", indent(e.Traceback, "    "))
			}
		}
	}

	if data.CoverageFiles > 0 {
		fmt.Fprintf(s.out, "\nCoverage: %d files, %d lines executed\n",
			data.CoverageFiles, data.CoverageLines)
	}

	return nil
}

func statusString(status FileStatus) string {
	if status == FileStatusPass {
		return "PASS"
	}
	return "FAIL"
}

func overallStatus(success bool) string {
	if success {
		return "PASS"
	}
	return "FAIL"
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
