package analyzer

import (
	"github.com/jacobarthurs/plangraph/internal/layout"
	"github.com/jacobarthurs/plangraph/internal/plan"
)

// Node is one operator of a flattened plan, addressed by its position in
// the node arena.
type Node struct {
	ID       int           `json:"id"`
	Type     string        `json:"type"`
	Relation string        `json:"relation"`
	Index    string        `json:"index"`
	Loops    int64         `json:"loops"`
	Children []int         `json:"children"`
	Details  *plan.Details `json:"details"`
}

// Edge links a parent operator to one of its inputs.
type Edge struct {
	ID     string `json:"id"`
	Source int    `json:"source"`
	Target int    `json:"target"`
}

// FlowEdge links an input operator to the operator consuming its rows.
type FlowEdge struct {
	ID       string `json:"id"`
	Source   int    `json:"source"`
	Target   int    `json:"target"`
	Animated bool   `json:"animated"`
}

// MetricSample is a startup/total pair for one node. The cost series holds
// estimated costs, the time series actual times in milliseconds.
type MetricSample struct {
	Node    string  `json:"node"`
	Startup float64 `json:"startup"`
	Total   float64 `json:"total"`
}

type LayoutNode struct {
	Node
	Label    string       `json:"label"`
	Rank     int          `json:"rank"`
	Order    int          `json:"order"`
	Position layout.Point `json:"position"`
}

type AnalysisResult struct {
	Nodes         []Node         `json:"nodes"`
	Edges         []Edge         `json:"edges"`
	CostSeries    []MetricSample `json:"costSeries"`
	TimeSeries    []MetricSample `json:"timeSeries"`
	UniqueTypes   []string       `json:"uniqueTypes"`
	PlanningTime  float64        `json:"planningTime"`
	ExecutionTime float64        `json:"executionTime"`
	LayoutNodes   []LayoutNode   `json:"layoutNodes"`
	LayoutEdges   []FlowEdge     `json:"layoutEdges"`
}

// Depth is the number of operator levels in the plan.
func (r AnalysisResult) Depth() int {
	depth := 0
	for _, n := range r.LayoutNodes {
		depth = max(depth, n.Rank+1)
	}
	return depth
}
