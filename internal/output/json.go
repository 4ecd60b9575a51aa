package output

import (
	"encoding/json"
	"io"

	"github.com/jacobarthurs/plangraph/internal/analyzer"
	"github.com/jacobarthurs/plangraph/internal/glossary"
)

// Report is an analysis plus the legend of the operator types it contains.
type Report struct {
	analyzer.AnalysisResult
	Legend []glossary.Entry `json:"legend"`
}

func NewReport(result analyzer.AnalysisResult) Report {
	return Report{
		AnalysisResult: result,
		Legend:         glossary.Legend(result.UniqueTypes),
	}
}

func RenderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
