// Package analyzer turns an ingested EXPLAIN document into a flattened,
// laid out plan graph.
package analyzer

import (
	"github.com/jacobarthurs/plangraph/internal/layout"
	"github.com/jacobarthurs/plangraph/internal/plan"
)

type Options struct {
	// MaxNodes bounds the plan size for both flattening and layout. Zero
	// disables the check.
	MaxNodes int
	Layout   layout.Options
}

func DefaultOptions() Options {
	return Options{
		MaxNodes: layout.DefaultMaxNodes,
		Layout:   layout.DefaultOptions(),
	}
}

func AnalyzeJSON(data []byte, opts Options) (AnalysisResult, error) {
	doc, err := plan.IngestLimit(data, opts.MaxNodes)
	if err != nil {
		return AnalysisResult{}, err
	}
	return Analyze(doc, opts)
}

// Analyze flattens the plan, lays out its data-flow graph and packages both.
// Errors from either stage are returned unchanged and no partial result is
// produced.
func Analyze(doc plan.Document, opts Options) (AnalysisResult, error) {
	flat, err := Flatten(doc.Root, FlattenOptions{MaxNodes: opts.MaxNodes})
	if err != nil {
		return AnalysisResult{}, err
	}

	layoutNodes := make([]layout.Node, len(flat.Nodes))
	for i, n := range flat.Nodes {
		layoutNodes[i] = layout.Node{ID: n.ID, Label: Label(n)}
	}

	flowEdges := make([]FlowEdge, len(flat.Edges))
	layoutEdges := make([]layout.Edge, len(flat.Edges))
	for i, e := range flat.Edges {
		flowEdges[i] = FlowEdge{ID: e.ID, Source: e.Target, Target: e.Source, Animated: true}
		layoutEdges[i] = layout.Edge{Source: e.Target, Target: e.Source}
	}

	lopts := opts.Layout
	lopts.MaxNodes = opts.MaxNodes
	placements, err := layout.Layout(layoutNodes, layoutEdges, lopts)
	if err != nil {
		return AnalysisResult{}, err
	}

	positioned := make([]LayoutNode, len(placements))
	for i, p := range placements {
		positioned[i] = LayoutNode{
			Node:     flat.Nodes[p.ID],
			Label:    p.Label,
			Rank:     p.Rank,
			Order:    p.Order,
			Position: p.Position,
		}
	}

	return AnalysisResult{
		Nodes:         flat.Nodes,
		Edges:         flat.Edges,
		CostSeries:    flat.CostSeries,
		TimeSeries:    flat.TimeSeries,
		UniqueTypes:   flat.UniqueTypes,
		PlanningTime:  doc.PlanningTime,
		ExecutionTime: doc.ExecutionTime,
		LayoutNodes:   positioned,
		LayoutEdges:   flowEdges,
	}, nil
}
