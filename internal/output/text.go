package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jacobarthurs/plangraph/internal/analyzer"
)

const (
	colorReset = "\033[0m"
	colorCyan  = "\033[36m"
	colorBold  = "\033[1m"
	colorDim   = "\033[2m"
)

type textWriter struct {
	w   io.Writer
	err error
}

func (tw *textWriter) printf(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.w, format, args...)
}

func (tw *textWriter) heading(title string) {
	tw.printf("%s%s%s%s\n\n", colorBold, colorCyan, title, colorReset)
}

func RenderAnalysisText(w io.Writer, report Report) error {
	tw := &textWriter{w: w}
	result := report.AnalysisResult

	tw.heading("Plan Summary")
	if result.PlanningTime > 0 {
		tw.printf("  Planning Time:  %.3f ms\n", result.PlanningTime)
	}
	if result.ExecutionTime > 0 {
		tw.printf("  Execution Time: %.3f ms\n", result.ExecutionTime)
	}
	tw.printf("  Nodes:          %d\n", len(result.Nodes))
	tw.printf("  Depth:          %d\n", result.Depth())
	tw.printf("\n")

	if len(result.LayoutNodes) == 0 {
		return tw.err
	}

	tw.heading("Plan Tree")
	tw.renderNode(result, 0, 0)

	if len(report.Legend) > 0 {
		tw.printf("\n")
		tw.heading(fmt.Sprintf("Node Types (%d)", len(report.Legend)))

		width := 0
		for _, e := range report.Legend {
			width = max(width, len(e.Type))
		}
		for _, e := range report.Legend {
			tw.printf("  %-*s  %s%s%s\n", width, e.Type, colorDim, e.Description, colorReset)
		}
	}

	return tw.err
}

func (tw *textWriter) renderNode(result analyzer.AnalysisResult, id, depth int) {
	n := result.LayoutNodes[id]
	cost := result.CostSeries[id]
	tm := result.TimeSeries[id]
	indent := strings.Repeat("  ", depth+1)

	tw.printf("%s%s %s(cost=%.2f..%.2f", indent, n.Label, colorDim, cost.Startup, cost.Total)
	if tm.Total > 0 {
		tw.printf(" time=%.3f..%.3f ms", tm.Startup, tm.Total)
	}
	if n.Loops > 1 {
		tw.printf(" loops=%d", n.Loops)
	}
	tw.printf(" rank=%d)%s\n", n.Rank, colorReset)

	for _, child := range n.Children {
		tw.renderNode(result, child, depth+1)
	}
}
