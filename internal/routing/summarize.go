package routing

import (
	"fmt"

	"github.com/saferoute/saferoute/internal/geo"
	"github.com/saferoute/saferoute/internal/graph"
)

// MarkerEvery throttles markers: only the 1st, (1+MarkerEvery)th, ... high-risk segment gets one.
const MarkerEvery = 3

// Speeds are the assumed average speeds per mode in km/h.
type Speeds struct {
	Drive float64
	Walk  float64
}

// DefaultSpeeds are the fixed duration-estimate speeds.
var DefaultSpeeds = Speeds{Drive: 25.0, Walk: 4.8}

// For returns the speed for a mode.
func (s Speeds) For(m Mode) float64 {
	if m == ModeWalk {
		return s.Walk
	}
	return s.Drive
}

// Validate checks that both speeds are positive.
func (s Speeds) Validate() error {
	if !(s.Drive > 0) || !(s.Walk > 0) {
		return fmt.Errorf("speeds must be positive: drive=%v walk=%v", s.Drive, s.Walk)
	}
	return nil
}

// Summarizer turns a node path into a RouteResult.
type Summarizer struct {
	cost   CostModel
	speeds Speeds
}

// NewSummarizer creates a summarizer.
func NewSummarizer(cost CostModel, speeds Speeds) Summarizer {
	return Summarizer{cost: cost, speeds: speeds}
}

// Summarize walks path, picks the cheapest parallel segment per hop the same way the path finder
// does, and aggregates distance, duration, risk and markers. Geometry is reprojected with proj.
func (s Summarizer) Summarize(g *graph.Graph, risks RiskLookup, proj geo.Projector, path []graph.NodeID, mode Mode, p Preference) (*RouteResult, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrNoPathFound)
	}
	if risks == nil {
		risks = NoRisk
	}

	res := &RouteResult{
		Mode:            mode,
		Preference:      p,
		OriginNode:      path[0],
		DestinationNode: path[len(path)-1],
		Geometry:        make([]geo.LatLon, 0, len(path)),
		Markers:         []RiskMarker{},
		Segments:        make([]SegmentSummary, 0, len(path)-1),
	}

	nodes := make([]graph.Node, len(path))
	for i, id := range path {
		n, ok := g.Node(id)
		if !ok {
			return nil, fmt.Errorf("path node %d: %w", id, graph.ErrUnknownNode)
		}
		nodes[i] = n
		lat, lon := proj.ToGeographic(n.X, n.Y)
		res.Geometry = append(res.Geometry, geo.LatLon{Lat: lat, Lon: lon})
	}

	var meters, riskSum float64
	for i := 0; i+1 < len(path); i++ {
		u, v := nodes[i], nodes[i+1]
		parallel := g.Parallel(u.ID, v.ID)
		best, _, r := s.cost.cheapestParallel(u.ID, parallel, risks, p)
		if best < 0 {
			continue
		}
		seg := parallel[best]

		length := 0.0
		if seg.HasLength {
			length = seg.Length
		}
		meters += length
		riskSum += r
		res.Segments = append(res.Segments, SegmentSummary{
			Key:          graph.SegmentKey{From: u.ID, To: v.ID, Parallel: seg.Parallel},
			Risk:         r,
			LengthMeters: length,
		})

		if r >= HighRiskThreshold {
			res.HighRiskSegments++
			if res.HighRiskSegments%MarkerEvery == 1 {
				lat, lon := proj.ToGeographic((u.X+v.X)/2, (u.Y+v.Y)/2)
				res.Markers = append(res.Markers, RiskMarker{
					Point: geo.LatLon{Lat: lat, Lon: lon},
					Risk:  r,
					Level: LevelFor(r),
				})
			}
		}
	}

	if n := len(res.Segments); n > 0 {
		res.AvgRisk = riskSum / float64(n)
	}
	res.RiskLevel = LevelFor(res.AvgRisk)
	res.DistanceKm = meters / 1000
	res.DurationMin = res.DistanceKm / s.speeds.For(mode) * 60
	return res, nil
}
