package output

import (
	"io"
	"strings"

	"github.com/jacobarthurs/plangraph/internal/analyzer"
)

var mermaidEscaper = strings.NewReplacer(`"`, "#quot;", "<", "#lt;", ">", "#gt;")

// RenderMermaid writes the data-flow graph as a top-down Mermaid flowchart,
// inputs above the operators that consume them.
func RenderMermaid(w io.Writer, result analyzer.AnalysisResult) error {
	tw := &textWriter{w: w}

	tw.printf("graph TD\n")
	for _, n := range result.LayoutNodes {
		tw.printf("  n%d[\"%s\"]\n", n.ID, mermaidEscaper.Replace(n.Label))
	}
	for _, e := range result.LayoutEdges {
		tw.printf("  n%d --> n%d\n", e.Source, e.Target)
	}

	return tw.err
}
