package layout

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/jacobarthurs/plangraph/internal/plan"
)

// maxReportedCycleNodes caps how many unranked ids an error message lists.
const maxReportedCycleNodes = 8

// assignRanks labels every node with the length of the longest path reaching
// it from a source. Nodes are consumed in Kahn order, so each is visited once
// and a cycle leaves nodes unvisited instead of looping.
func (g *graph) assignRanks() ([]int, error) {
	n := len(g.ids)
	ranks := make([]int, n)
	indegree := make([]int, n)
	for i := range n {
		indegree[i] = len(g.pred[i])
	}

	queue := make([]int, 0, n)
	for i := range n {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	slices.SortFunc(queue, func(a, b int) int { return cmp.Compare(g.ids[a], g.ids[b]) })

	visited := 0
	for head := 0; head < len(queue); head++ {
		u := queue[head]
		visited++
		for _, v := range g.succ[u] {
			ranks[v] = max(ranks[v], ranks[u]+1)
			indegree[v]--
			if indegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}

	if visited < n {
		var stuck []int
		for i := range n {
			if indegree[i] > 0 {
				stuck = append(stuck, g.ids[i])
			}
		}
		slices.Sort(stuck)
		if len(stuck) > maxReportedCycleNodes {
			stuck = stuck[:maxReportedCycleNodes]
		}
		return nil, fmt.Errorf("%w: graph contains a cycle through nodes %v", plan.ErrStructural, stuck)
	}

	return ranks, nil
}
