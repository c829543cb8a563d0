package routing

import (
	"errors"
	"fmt"
	"math"

	"github.com/saferoute/saferoute/internal/graph"
)

// DefaultSegmentLength is the cost length of a segment with no recorded length.
const DefaultSegmentLength = 1.0

// Weights are the risk multipliers for the balanced and safest preferences.
type Weights struct {
	Balanced float64
	Safest   float64
}

var (
	// DefaultWeights is the calibration pair used unless configured otherwise.
	DefaultWeights = Weights{Balanced: 0.5, Safest: 2.0}
	// LiveWeights is the steeper pair some deployments run with.
	LiveWeights = Weights{Balanced: 1.0, Safest: 4.0}
)

// Validate checks that both weights are finite and non-negative and that safest outweighs balanced.
func (w Weights) Validate() error {
	if !validWeight(w.Balanced) {
		return fmt.Errorf("invalid balanced weight %v", w.Balanced)
	}
	if !validWeight(w.Safest) {
		return fmt.Errorf("invalid safest weight %v", w.Safest)
	}
	if w.Safest <= w.Balanced {
		return errors.New("safest weight must be greater than balanced weight")
	}
	return nil
}

func validWeight(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// CostModel turns segment length and risk into a traversal cost.
type CostModel struct {
	weights Weights
}

// NewCostModel creates a cost model with the given weights.
func NewCostModel(w Weights) CostModel {
	return CostModel{weights: w}
}

// Weights returns the model's weights.
func (m CostModel) Weights() Weights {
	return m.weights
}

// Cost returns the cost of traversing length meters at the given risk.
//
//	fastest:  length
//	balanced: length * (1 + Wb*risk)
//	safest:   length * (1 + Ws*risk)
//
// Any other preference costs the same as fastest.
func (m CostModel) Cost(length, risk float64, p Preference) float64 {
	switch p {
	case PreferenceBalanced:
		return length * (1 + m.weights.Balanced*risk)
	case PreferenceSafest:
		return length * (1 + m.weights.Safest*risk)
	default:
		return length
	}
}

// SegmentCost is Cost for a graph segment, substituting DefaultSegmentLength for a missing length
// and 0 for missing risk.
func (m CostModel) SegmentCost(from graph.NodeID, s graph.Segment, risks RiskLookup, p Preference) (cost, risk float64) {
	length := DefaultSegmentLength
	if s.HasLength {
		length = s.Length
	}
	risk, _ = risks.Lookup(from, s.To, s.Parallel)
	return m.Cost(length, risk, p), risk
}

// cheapestParallel picks the lowest-cost segment among parallel alternatives. The first minimum
// in parallel-index order wins. It returns -1 for an empty slice.
func (m CostModel) cheapestParallel(from graph.NodeID, parallel []graph.Segment, risks RiskLookup, p Preference) (best int, cost, risk float64) {
	best = -1
	cost = math.Inf(1)
	for i, s := range parallel {
		c, r := m.SegmentCost(from, s, risks, p)
		if c < cost {
			best, cost, risk = i, c, r
		}
	}
	return best, cost, risk
}
