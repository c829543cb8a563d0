// Package graph provides the immutable road and footpath multigraph used by the routing engine.
//
// A Graph is built once through a Builder (or loaded from a snapshot) and is then shared read-only
// across concurrent requests. Nothing in this package mutates a Graph after Build returns.
package graph

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Sentinel errors for graph construction and lookups.
var (
	// ErrEmpty indicates the graph has no nodes.
	ErrEmpty = errors.New("graph has no nodes")
	// ErrUnknownNode indicates a node identity that is not part of the graph.
	ErrUnknownNode = errors.New("unknown node")
	// ErrDuplicateNode indicates a node identity was added twice.
	ErrDuplicateNode = errors.New("duplicate node")
	// ErrDuplicateSegment indicates a (from, to, parallel) key was added twice.
	ErrDuplicateSegment = errors.New("duplicate segment")
	// ErrInvalidLength indicates a negative, infinite or NaN segment length.
	ErrInvalidLength = errors.New("invalid segment length")
	// ErrInvalidCoordinate indicates a non-finite node coordinate.
	ErrInvalidCoordinate = errors.New("invalid node coordinate")
	// ErrInvalidParallel indicates a parallel index outside [0, MaxParallel].
	ErrInvalidParallel = errors.New("invalid parallel index")
)

// MaxParallel is the largest parallel index a graph can hold; snapshots store it as int32.
const MaxParallel = math.MaxInt32

// NodeID is the stable identity of a graph node (an OSM node id for OSM-derived graphs).
type NodeID int64

// SegmentKey identifies a directed segment: the ordered node pair plus its parallel index.
// It is also the lookup key into risk data.
type SegmentKey struct {
	From     NodeID
	To       NodeID
	Parallel int
}

// Reverse returns the key of the same physical segment in the opposite direction.
func (k SegmentKey) Reverse() SegmentKey {
	return SegmentKey{From: k.To, To: k.From, Parallel: k.Parallel}
}

// Undirected returns the key oriented from the smaller node id, so both directions
// of a segment share one value.
func (k SegmentKey) Undirected() SegmentKey {
	if k.To < k.From {
		return k.Reverse()
	}
	return k
}

func (k SegmentKey) String() string {
	return fmt.Sprintf("(%d,%d,%d)", k.From, k.To, k.Parallel)
}

// Node is a graph vertex with a planar coordinate in the graph's CRS.
type Node struct {
	ID NodeID
	X  float64
	Y  float64
}

// Segment is a directed edge leaving some node.
// Segments leaving a node are ordered by (To, Parallel), so parallel segments are contiguous.
type Segment struct {
	To       NodeID
	Parallel int
	// Length in meters. Only meaningful when HasLength is true.
	Length    float64
	HasLength bool

	// ToIndex is the dense index of To, used by search code to avoid map lookups.
	ToIndex int32
}

// Graph is an immutable directed multigraph stored in compressed sparse row form.
type Graph struct {
	crs      string
	nodes    []Node
	index    map[NodeID]int32
	offsets  []int32
	segments []Segment
	spatial  *NodeIndex
}

// CRS returns the projected coordinate reference system the node coordinates are expressed in.
func (g *Graph) CRS() string {
	return g.crs
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// SegmentCount returns the number of directed segments.
func (g *Graph) SegmentCount() int {
	return len(g.segments)
}

// Node returns the node with the given identity.
func (g *Graph) Node(id NodeID) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// IndexOf returns the dense index of a node.
func (g *Graph) IndexOf(id NodeID) (int32, bool) {
	i, ok := g.index[id]
	return i, ok
}

// NodeAt returns the node at a dense index.
func (g *Graph) NodeAt(i int32) Node {
	return g.nodes[i]
}

// SegmentsAt returns the segments leaving the node at dense index i.
// The returned slice is shared and must not be modified.
func (g *Graph) SegmentsAt(i int32) []Segment {
	return g.segments[g.offsets[i]:g.offsets[i+1]]
}

// Outgoing returns the segments leaving a node, or nil if the node is unknown.
func (g *Graph) Outgoing(id NodeID) []Segment {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.SegmentsAt(i)
}

// Parallel returns every segment from one node to another, ordered by parallel index.
func (g *Graph) Parallel(from, to NodeID) []Segment {
	out := g.Outgoing(from)
	lo := sort.Search(len(out), func(i int) bool { return out[i].To >= to })
	hi := lo
	for hi < len(out) && out[hi].To == to {
		hi++
	}
	return out[lo:hi]
}

// Nearest returns the node closest to the planar point (x, y).
func (g *Graph) Nearest(x, y float64) (NodeID, float64, error) {
	return g.spatial.Nearest(x, y)
}

// ForEachSegment calls fn for every directed segment in node order.
func (g *Graph) ForEachSegment(fn func(from NodeID, s Segment)) {
	for i, n := range g.nodes {
		for _, s := range g.SegmentsAt(int32(i)) { //nolint:gosec // node count is bounded by int32 at build time
			fn(n.ID, s)
		}
	}
}

// Builder accumulates nodes and segments and produces an immutable Graph.
type Builder struct {
	crs      string
	nodes    map[NodeID]Node
	segments map[SegmentKey]Segment
}

// NewBuilder creates a builder for a graph in the given CRS.
func NewBuilder(crs string) *Builder {
	return &Builder{
		crs:      crs,
		nodes:    make(map[NodeID]Node),
		segments: make(map[SegmentKey]Segment),
	}
}

// AddNode adds a node with a planar coordinate.
func (b *Builder) AddNode(id NodeID, x, y float64) error {
	if !finite(x) || !finite(y) {
		return fmt.Errorf("%w: node %d (%v, %v)", ErrInvalidCoordinate, id, x, y)
	}
	if _, ok := b.nodes[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateNode, id)
	}
	b.nodes[id] = Node{ID: id, X: x, Y: y}
	return nil
}

// AddSegment adds a directed segment with a known length in meters.
// Lengths must be non-negative; shortest-path search depends on it.
func (b *Builder) AddSegment(key SegmentKey, length float64) error {
	if !finite(length) || length < 0 {
		return fmt.Errorf("%w: %s length %v", ErrInvalidLength, key, length)
	}
	return b.addSegment(key, Segment{To: key.To, Parallel: key.Parallel, Length: length, HasLength: true})
}

// AddSegmentWithoutLength adds a directed segment whose length is unknown.
func (b *Builder) AddSegmentWithoutLength(key SegmentKey) error {
	return b.addSegment(key, Segment{To: key.To, Parallel: key.Parallel})
}

func (b *Builder) addSegment(key SegmentKey, s Segment) error {
	if key.Parallel < 0 || key.Parallel > MaxParallel {
		return fmt.Errorf("%w: %s", ErrInvalidParallel, key)
	}
	if _, ok := b.segments[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSegment, key)
	}
	b.segments[key] = s
	return nil
}

// Build validates the accumulated data and returns the immutable graph with its spatial index.
func (b *Builder) Build() (*Graph, error) {
	if len(b.nodes) > math.MaxInt32 {
		return nil, fmt.Errorf("too many nodes: %d", len(b.nodes))
	}

	nodes := make([]Node, 0, len(b.nodes))
	for _, n := range b.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	index := make(map[NodeID]int32, len(nodes))
	for i, n := range nodes {
		index[n.ID] = int32(i) //nolint:gosec // bounded above
	}

	keys := make([]SegmentKey, 0, len(b.segments))
	for k := range b.segments {
		if _, ok := index[k.From]; !ok {
			return nil, fmt.Errorf("%w: segment %s starts at %d", ErrUnknownNode, k, k.From)
		}
		if _, ok := index[k.To]; !ok {
			return nil, fmt.Errorf("%w: segment %s ends at %d", ErrUnknownNode, k, k.To)
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, c := keys[i], keys[j]
		if a.From != c.From {
			return a.From < c.From
		}
		if a.To != c.To {
			return a.To < c.To
		}
		return a.Parallel < c.Parallel
	})

	offsets := make([]int32, len(nodes)+1)
	segments := make([]Segment, len(keys))
	for i, k := range keys {
		s := b.segments[k]
		s.ToIndex = index[k.To]
		segments[i] = s
		offsets[index[k.From]+1]++
	}
	for i := 1; i < len(offsets); i++ {
		offsets[i] += offsets[i-1]
	}

	return &Graph{
		crs:      b.crs,
		nodes:    nodes,
		index:    index,
		offsets:  offsets,
		segments: segments,
		spatial:  NewNodeIndex(nodes),
	}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
