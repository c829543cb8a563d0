// Package risk holds per-segment risk probabilities and the loaders that populate them.
package risk

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/saferoute/saferoute/internal/graph"
)

// ErrInvalidRisk indicates a risk value outside [0, 1].
var ErrInvalidRisk = errors.New("risk must be within [0, 1]")

// Entry is one risk observation for a segment.
type Entry struct {
	From     graph.NodeID
	To       graph.NodeID
	Parallel int
	Risk     float64
}

// Key returns the segment identity of the entry.
func (e Entry) Key() graph.SegmentKey {
	return graph.SegmentKey{From: e.From, To: e.To, Parallel: e.Parallel}
}

// Validate checks the risk value.
func (e Entry) Validate() error {
	if math.IsNaN(e.Risk) || e.Risk < 0 || e.Risk > 1 {
		return fmt.Errorf("%w: %s = %v", ErrInvalidRisk, e.Key(), e.Risk)
	}
	return nil
}

// Index is an immutable, symmetric segment -> risk lookup.
// Every entry is stored under both directions of its segment, so Lookup(u,v,k) == Lookup(v,u,k).
type Index struct {
	values map[graph.SegmentKey]float64
}

// NewIndex builds an index from entries. Later entries win over earlier ones for the same
// undirected segment.
func NewIndex(entries []Entry) (*Index, error) {
	values := make(map[graph.SegmentKey]float64, 2*len(entries))
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		k := e.Key()
		values[k] = e.Risk
		values[k.Reverse()] = e.Risk
	}
	return &Index{values: values}, nil
}

// Empty returns an index with no entries; every lookup reports no data.
func Empty() *Index {
	return &Index{values: map[graph.SegmentKey]float64{}}
}

// Lookup returns the risk for a directed segment and whether any data exists for it.
func (idx *Index) Lookup(from, to graph.NodeID, parallel int) (float64, bool) {
	if idx == nil {
		return 0, false
	}
	v, ok := idx.values[graph.SegmentKey{From: from, To: to, Parallel: parallel}]
	return v, ok
}

// Len returns the number of directed keys held, which is twice the number of distinct
// undirected segments apart from self-loops.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.values)
}

// Segments returns the number of distinct undirected segments with risk data.
func (idx *Index) Segments() int {
	if idx == nil {
		return 0
	}
	n := 0
	for k := range idx.values {
		if k.From <= k.To {
			n++
		}
	}
	return n
}

// Holder publishes the current Index to concurrent readers.
// Readers take a snapshot with Load and keep using it for the whole request.
type Holder struct {
	current atomic.Pointer[Index]
}

// NewHolder creates a holder seeded with idx; a nil idx is replaced by an empty index.
func NewHolder(idx *Index) *Holder {
	h := &Holder{}
	h.Store(idx)
	return h
}

// Load returns the current index.
func (h *Holder) Load() *Index {
	return h.current.Load()
}

// Store replaces the current index.
func (h *Holder) Store(idx *Index) {
	if idx == nil {
		idx = Empty()
	}
	h.current.Store(idx)
}
