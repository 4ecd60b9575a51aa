package analyzer

import (
	"fmt"
	"strconv"

	"github.com/jacobarthurs/plangraph/internal/plan"
)

type FlattenOptions struct {
	// MaxNodes caps how many ids may be allocated. Zero means no limit.
	MaxNodes int
}

// Flattened is the node arena of a plan tree plus everything collected
// while walking it.
type Flattened struct {
	Nodes       []Node
	Edges       []Edge
	CostSeries  []MetricSample
	TimeSeries  []MetricSample
	UniqueTypes []string
}

type queued struct {
	node   *plan.Node
	id     int
	parent int
}

// Flatten walks the tree breadth first and assigns ids in discovery order,
// so Nodes[k].ID == k and every child id is greater than its parent's.
func Flatten(root *plan.Node, opts FlattenOptions) (Flattened, error) {
	if root == nil {
		return Flattened{}, fmt.Errorf("%w: plan has no root operator", plan.ErrStructural)
	}

	out := Flattened{
		Nodes:       []Node{},
		Edges:       []Edge{},
		CostSeries:  []MetricSample{},
		TimeSeries:  []MetricSample{},
		UniqueTypes: []string{},
	}
	seen := make(map[string]bool)

	queue := []queued{{node: root, id: 0, parent: -1}}
	nextID := 1

	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		queue[head] = queued{}
		src := cur.node

		if src.NodeType == nil {
			return Flattened{}, fmt.Errorf("%w: node %d: missing %q", plan.ErrValidation, cur.id, plan.KeyNodeType)
		}

		out.Nodes = append(out.Nodes, Node{
			ID:       cur.id,
			Type:     *src.NodeType,
			Relation: src.RelationName,
			Index:    src.IndexName,
			Loops:    src.ActualLoops,
			Children: make([]int, 0, len(src.Plans)),
			Details:  src.Details,
		})
		if cur.parent >= 0 {
			parent := &out.Nodes[cur.parent]
			parent.Children = append(parent.Children, cur.id)
		}

		key := strconv.Itoa(cur.id)
		out.CostSeries = append(out.CostSeries, MetricSample{Node: key, Startup: src.StartupCost, Total: src.TotalCost})
		out.TimeSeries = append(out.TimeSeries, MetricSample{Node: key, Startup: src.ActualStartupTime, Total: src.ActualTotalTime})

		if !seen[*src.NodeType] {
			seen[*src.NodeType] = true
			out.UniqueTypes = append(out.UniqueTypes, *src.NodeType)
		}

		for i := range src.Plans {
			childID := nextID
			if opts.MaxNodes > 0 && childID >= opts.MaxNodes {
				return Flattened{}, fmt.Errorf("%w: plan has more than %d nodes", plan.ErrResourceLimit, opts.MaxNodes)
			}
			nextID++

			out.Edges = append(out.Edges, Edge{ID: edgeID(cur.id, childID), Source: cur.id, Target: childID})
			queue = append(queue, queued{node: &src.Plans[i], id: childID, parent: cur.id})
		}
	}

	return out, nil
}

func edgeID(source, target int) string {
	return "e" + strconv.Itoa(source) + "-" + strconv.Itoa(target)
}
