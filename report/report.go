// Package report renders an execution plan and its cost summary for
// terminal output: a markdown table of plan rows, and a colorized cost
// breakdown with human-readable byte sizes.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/mpalomo/wlsim"
)

// Formatter renders plan and cost output, auto-detecting color support the
// way a CLI normally would.
type Formatter struct {
	writer   io.Writer
	useColor bool
}

// NewFormatter builds a Formatter writing to w. If w is nil, it defaults to
// os.Stdout. Color is enabled only when w is a terminal file descriptor.
func NewFormatter(w io.Writer) *Formatter {
	if w == nil {
		w = os.Stdout
	}
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isTerminal(f.Fd())
	}
	return &Formatter{writer: w, useColor: useColor}
}

var planColumns = []string{
	"fingerprint", "kind", "hour", "execution", "trigger",
	"triggered_by", "bytes_scanned", "result_size", "was_cached",
	"cache_reads", "cache_writes",
}

// FormatPlan renders plan as a markdown table.
func (f *Formatter) FormatPlan(plan []wlsim.PlanRow) string {
	if len(plan) == 0 {
		return "_empty plan_"
	}

	sb := &strings.Builder{}
	alignment := make([]tw.Align, len(planColumns))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(sb,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(planColumns)

	for _, row := range plan {
		table.Append([]string{
			string(row.Fingerprint),
			string(row.Kind),
			fmt.Sprintf("%d", row.Hour),
			string(row.Execution),
			f.colorizeTrigger(row.ExecutionTrigger),
			string(row.TriggeredBy),
			humanize.Bytes(uint64(max0(row.BytesScanned))),
			humanize.Bytes(uint64(max0(row.ResultSize))),
			fmt.Sprintf("%t", row.WasCached),
			fmt.Sprintf("%d", row.CacheReads),
			fmt.Sprintf("%d", row.CacheWrites),
		})
	}

	table.Render()
	sb.WriteString(fmt.Sprintf("\n_%d rows_\n", len(plan)))
	return sb.String()
}

// PrintPlan renders and writes plan to the formatter's writer.
func (f *Formatter) PrintPlan(plan []wlsim.PlanRow) {
	fmt.Fprintln(f.writer, f.FormatPlan(plan))
}

// CostSummary is the aggregate cost breakdown of one run.
type CostSummary struct {
	ComputeCost float64
	StorageCost float64
	PendingCost float64
	TotalCost   float64
	CacheUsage  int64
}

// FormatCostSummary renders a colorized cost breakdown.
func (f *Formatter) FormatCostSummary(s CostSummary) string {
	line := func(label string, value float64) string {
		text := fmt.Sprintf("%-14s $%.4f", label, value)
		if !f.useColor {
			return text
		}
		return color.CyanString(text)
	}

	var sb strings.Builder
	sb.WriteString(line("compute", s.ComputeCost) + "\n")
	sb.WriteString(line("storage", s.StorageCost) + "\n")
	sb.WriteString(line("pending", s.PendingCost) + "\n")

	total := fmt.Sprintf("%-14s $%.4f", "total", s.TotalCost)
	if f.useColor {
		total = color.New(color.FgGreen, color.Bold).Sprint(total)
	}
	sb.WriteString(total + "\n")
	sb.WriteString(fmt.Sprintf("cache usage    %s\n", humanize.Bytes(uint64(max0(s.CacheUsage)))))

	return sb.String()
}

// PrintCostSummary renders and writes s to the formatter's writer.
func (f *Formatter) PrintCostSummary(s CostSummary) {
	fmt.Fprint(f.writer, f.FormatCostSummary(s))
}

func (f *Formatter) colorizeTrigger(trigger wlsim.Trigger) string {
	text := string(trigger)
	if !f.useColor {
		return text
	}
	switch trigger {
	case wlsim.Immediate:
		return color.GreenString(text)
	case wlsim.TriggeredByRead, wlsim.TriggeredByWrite:
		return color.YellowString(text)
	case wlsim.Deferred:
		return color.MagentaString(text)
	case wlsim.Pending:
		return color.RedString(text)
	default:
		return text
	}
}

func max0(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// isTerminal is a simplified terminal check mirroring stdout/stderr's
// well-known file descriptors.
func isTerminal(fd uintptr) bool {
	return fd == uintptr(1) || fd == uintptr(2)
}
