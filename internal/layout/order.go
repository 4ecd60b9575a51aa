package layout

import (
	"cmp"
	"fmt"
	"slices"
)

// Ordering selects how nodes are arranged inside a rank.
type Ordering string

const (
	// OrderByID sorts every rank by ascending node id.
	OrderByID Ordering = "id"
	// OrderBarycenter sorts rank 0 by id, then each higher rank by the mean
	// relative position of its predecessors, ties broken by id.
	OrderBarycenter Ordering = "barycenter"
)

func ParseOrdering(s string) (Ordering, error) {
	switch o := Ordering(s); o {
	case OrderByID, OrderBarycenter:
		return o, nil
	case "":
		return OrderByID, nil
	default:
		return "", fmt.Errorf("unknown ordering %q: must be %q or %q", s, OrderByID, OrderBarycenter)
	}
}

// orderLayers groups node indices by rank and orders each group.
func (g *graph) orderLayers(ranks []int, ordering Ordering) ([][]int, error) {
	if _, err := ParseOrdering(string(ordering)); err != nil {
		return nil, err
	}

	maxRank := -1
	for _, r := range ranks {
		maxRank = max(maxRank, r)
	}

	layers := make([][]int, maxRank+1)
	for i, r := range ranks {
		layers[r] = append(layers[r], i)
	}

	byID := func(a, b int) int { return cmp.Compare(g.ids[a], g.ids[b]) }
	for _, layer := range layers {
		slices.SortFunc(layer, byID)
	}

	if ordering != OrderBarycenter || len(layers) == 0 {
		return layers, nil
	}

	// relative position of every node inside its own layer, in [0, 1)
	position := make([]float64, len(ranks))
	place := func(layer []int) {
		for order, idx := range layer {
			position[idx] = (float64(order) + 0.5) / float64(len(layer))
		}
	}
	place(layers[0])

	for r := 1; r < len(layers); r++ {
		layer := layers[r]
		center := make(map[int]float64, len(layer))
		for _, idx := range layer {
			var sum float64
			for _, p := range g.pred[idx] {
				sum += position[p]
			}
			center[idx] = sum / float64(len(g.pred[idx]))
		}
		slices.SortStableFunc(layer, func(a, b int) int {
			if c := cmp.Compare(center[a], center[b]); c != 0 {
				return c
			}
			return byID(a, b)
		})
		place(layer)
	}

	return layers, nil
}
