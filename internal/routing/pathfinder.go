package routing

import (
	"container/heap"
	"context"
	"fmt"
	"math"

	"github.com/saferoute/saferoute/internal/graph"
)

// cancelCheckInterval is how many settled nodes pass between context checks.
const cancelCheckInterval = 1024

// PathFinder runs a label-setting shortest-path search over a graph.
type PathFinder struct {
	cost CostModel
}

// NewPathFinder creates a path finder for the given cost model.
func NewPathFinder(cost CostModel) PathFinder {
	return PathFinder{cost: cost}
}

// ShortestPath returns the minimum-cost node sequence from origin to dest.
//
// Parallel segments between a node pair are alternatives: each relaxation uses the cheapest one.
// Equal-cost frontier entries are settled in node ID order, so identical inputs yield identical paths.
// The search stops with an error matching both ErrNoPathFound and ctx.Err() when ctx ends.
func (f PathFinder) ShortestPath(ctx context.Context, g *graph.Graph, risks RiskLookup, origin, dest graph.NodeID, p Preference) ([]graph.NodeID, error) {
	src, ok := g.IndexOf(origin)
	if !ok {
		return nil, fmt.Errorf("origin %d: %w", origin, graph.ErrUnknownNode)
	}
	dst, ok := g.IndexOf(dest)
	if !ok {
		return nil, fmt.Errorf("destination %d: %w", dest, graph.ErrUnknownNode)
	}
	if src == dst {
		return []graph.NodeID{origin}, nil
	}
	if risks == nil {
		risks = NoRisk
	}

	n := g.NodeCount()
	best := make([]float64, n)
	prev := make([]int32, n)
	settled := make([]bool, n)
	for i := range best {
		best[i] = math.Inf(1)
		prev[i] = -1
	}
	best[src] = 0

	pq := &frontier{{cost: 0, index: src, id: origin}}
	pops := 0

	for pq.Len() > 0 {
		item := heap.Pop(pq).(frontierItem)
		if settled[item.index] || item.cost > best[item.index] {
			continue
		}
		settled[item.index] = true

		if item.index == dst {
			return reconstruct(g, prev, dst), nil
		}

		pops++
		if pops%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrNoPathFound, err)
			}
		}

		out := g.SegmentsAt(item.index)
		for lo := 0; lo < len(out); {
			hi := lo + 1
			for hi < len(out) && out[hi].To == out[lo].To {
				hi++
			}
			next := out[lo].ToIndex
			if !settled[next] {
				_, c, _ := f.cost.cheapestParallel(item.id, out[lo:hi], risks, p)
				if alt := item.cost + c; alt < best[next] {
					best[next] = alt
					prev[next] = item.index
					heap.Push(pq, frontierItem{cost: alt, index: next, id: out[lo].To})
				}
			}
			lo = hi
		}
	}

	return nil, fmt.Errorf("%w: %d -> %d", ErrNoPathFound, origin, dest)
}

func reconstruct(g *graph.Graph, prev []int32, dst int32) []graph.NodeID {
	var rev []graph.NodeID
	for at := dst; at != -1; at = prev[at] {
		rev = append(rev, g.NodeAt(at).ID)
	}
	path := make([]graph.NodeID, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}

type frontierItem struct {
	cost  float64
	index int32
	id    graph.NodeID
}

// frontier is a min-heap on (cost, node ID).
type frontier []frontierItem

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].cost != f[j].cost {
		return f[i].cost < f[j].cost
	}
	return f[i].id < f[j].id
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(frontierItem)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}
