// Package layout assigns layered, top-to-bottom positions to the nodes of a
// directed acyclic graph.
//
// Every node gets a rank so that each edge points from a lower rank to a
// higher one (longest path from the sources), an order within its rank, and a
// pixel position derived from both. Ranks grow downwards and every layer is
// centered on x = 0.
package layout

import (
	"fmt"

	"github.com/jacobarthurs/plangraph/internal/plan"
)

const (
	DefaultNodeWidth  = 300
	DefaultNodeHeight = 100
	DefaultNodeGap    = 50
	DefaultRankGap    = 50
	DefaultMaxNodes   = 10000
)

type Node struct {
	ID    int
	Label string
}

// Edge points from a producer to its consumer.
type Edge struct {
	Source int
	Target int
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Placement is the computed position of one input node.
type Placement struct {
	ID       int
	Label    string
	Rank     int
	Order    int
	Position Point
}

type Options struct {
	NodeWidth  float64
	NodeHeight float64
	NodeGap    float64
	RankGap    float64
	Ordering   Ordering
	// MaxNodes bounds both the node and the edge count. Zero disables the check.
	MaxNodes int
}

func DefaultOptions() Options {
	return Options{
		NodeWidth:  DefaultNodeWidth,
		NodeHeight: DefaultNodeHeight,
		NodeGap:    DefaultNodeGap,
		RankGap:    DefaultRankGap,
		Ordering:   OrderByID,
		MaxNodes:   DefaultMaxNodes,
	}
}

// withDefaults fills zero geometry with the defaults.
func (o Options) withDefaults() Options {
	if o.NodeWidth == 0 {
		o.NodeWidth = DefaultNodeWidth
	}
	if o.NodeHeight == 0 {
		o.NodeHeight = DefaultNodeHeight
	}
	if o.NodeGap == 0 {
		o.NodeGap = DefaultNodeGap
	}
	if o.RankGap == 0 {
		o.RankGap = DefaultRankGap
	}
	if o.Ordering == "" {
		o.Ordering = OrderByID
	}
	return o
}

// Layout ranks, orders and positions nodes. The result has one placement per
// node, in input order. A cycle, a duplicate node id or an edge to an unknown
// node fails with plan.ErrStructural.
func Layout(nodes []Node, edges []Edge, opts Options) ([]Placement, error) {
	opts = opts.withDefaults()

	if opts.MaxNodes > 0 && (len(nodes) > opts.MaxNodes || len(edges) > opts.MaxNodes) {
		return nil, fmt.Errorf("%w: graph has %d nodes and %d edges, limit is %d",
			plan.ErrResourceLimit, len(nodes), len(edges), opts.MaxNodes)
	}

	g, err := newGraph(nodes, edges)
	if err != nil {
		return nil, err
	}

	ranks, err := g.assignRanks()
	if err != nil {
		return nil, err
	}

	layers, err := g.orderLayers(ranks, opts.Ordering)
	if err != nil {
		return nil, err
	}

	placements := make([]Placement, len(nodes))
	for rank, layer := range layers {
		width := float64(len(layer))*opts.NodeWidth + float64(len(layer)-1)*opts.NodeGap
		for order, idx := range layer {
			placements[idx] = Placement{
				ID:    nodes[idx].ID,
				Label: nodes[idx].Label,
				Rank:  rank,
				Order: order,
				Position: Point{
					X: float64(order)*(opts.NodeWidth+opts.NodeGap) - width/2,
					Y: float64(rank) * (opts.NodeHeight + opts.RankGap),
				},
			}
		}
	}

	return placements, nil
}

// graph is an index-addressed adjacency view of the input.
type graph struct {
	ids   []int
	succ  [][]int
	pred  [][]int
	index map[int]int
}

func newGraph(nodes []Node, edges []Edge) (*graph, error) {
	g := &graph{
		ids:   make([]int, len(nodes)),
		succ:  make([][]int, len(nodes)),
		pred:  make([][]int, len(nodes)),
		index: make(map[int]int, len(nodes)),
	}

	for i, n := range nodes {
		if _, dup := g.index[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %d", plan.ErrStructural, n.ID)
		}
		g.index[n.ID] = i
		g.ids[i] = n.ID
	}

	for _, e := range edges {
		src, ok := g.index[e.Source]
		if !ok {
			return nil, fmt.Errorf("%w: edge %d->%d references unknown node %d", plan.ErrStructural, e.Source, e.Target, e.Source)
		}
		dst, ok := g.index[e.Target]
		if !ok {
			return nil, fmt.Errorf("%w: edge %d->%d references unknown node %d", plan.ErrStructural, e.Source, e.Target, e.Target)
		}
		g.succ[src] = append(g.succ[src], dst)
		g.pred[dst] = append(g.pred[dst], src)
	}

	return g, nil
}
