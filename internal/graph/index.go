package graph

import (
	"math"

	"github.com/dhconnelly/rtreego"
)

// pointTolerance is the half-width, in planar units, of the box each node occupies in the R-tree.
const pointTolerance = 0.01

type indexedNode struct {
	location rtreego.Point
	id       NodeID
}

func (n *indexedNode) Bounds() rtreego.Rect {
	return n.location.ToRect(pointTolerance)
}

// NodeIndex answers nearest-node queries over a fixed set of planar points.
// Results match an exhaustive scan, with ties going to the smallest node ID.
type NodeIndex struct {
	tree *rtreego.Rtree
	size int
}

// NewNodeIndex bulk-loads an R-tree over the given nodes.
func NewNodeIndex(nodes []Node) *NodeIndex {
	objs := make([]rtreego.Spatial, 0, len(nodes))
	for _, n := range nodes {
		objs = append(objs, &indexedNode{location: rtreego.Point{n.X, n.Y}, id: n.ID})
	}
	return &NodeIndex{
		tree: rtreego.NewTree(2, 25, 50, objs...),
		size: len(nodes),
	}
}

// Len returns the number of indexed nodes.
func (idx *NodeIndex) Len() int {
	return idx.size
}

// Nearest returns the node closest to (x, y) by Euclidean distance, and that distance.
//
// The R-tree measures distance to node boxes rather than node points, so its answer is only
// a seed: every node within the seed's distance is then rescored exactly.
func (idx *NodeIndex) Nearest(x, y float64) (NodeID, float64, error) {
	if idx == nil || idx.size == 0 {
		return 0, 0, ErrEmpty
	}
	query := rtreego.Point{x, y}

	seed, ok := idx.tree.NearestNeighbor(query).(*indexedNode)
	if !ok || seed == nil {
		return 0, 0, ErrEmpty
	}
	radius := math.Sqrt(squaredDistance(seed.location, x, y))

	best := seed
	bestDist := squaredDistance(seed.location, x, y)
	for _, s := range idx.tree.SearchIntersect(query.ToRect(radius + 2*pointTolerance)) {
		n := s.(*indexedNode)
		d := squaredDistance(n.location, x, y)
		if d < bestDist || (d == bestDist && n.id < best.id) {
			best, bestDist = n, d
		}
	}
	return best.id, math.Sqrt(bestDist), nil
}

func squaredDistance(p rtreego.Point, x, y float64) float64 {
	dx := p[0] - x
	dy := p[1] - y
	return dx*dx + dy*dy
}
