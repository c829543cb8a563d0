// Package routing computes risk-weighted routes over the drive and walk networks.
package routing

import (
	"errors"
	"fmt"

	"github.com/saferoute/saferoute/internal/geo"
	"github.com/saferoute/saferoute/internal/graph"
)

// Sentinel errors for route computation.
var (
	// ErrOutOfCoverage indicates the origin or destination lies outside the supported region.
	ErrOutOfCoverage = errors.New("location outside coverage region")
	// ErrNoPathFound indicates the network does not connect the two points for the requested mode,
	// or the search ran out of time.
	ErrNoPathFound = errors.New("no route found between the given points")
	// ErrNoNodesAvailable indicates the network for the requested mode is missing or empty.
	ErrNoNodesAvailable = errors.New("no network nodes available")
	// ErrInvalidMode indicates a travel mode other than drive or walk.
	ErrInvalidMode = errors.New("invalid travel mode")
)

// Mode is the travel mode, which selects the network.
type Mode string

const (
	// ModeDrive routes over the road network.
	ModeDrive Mode = "drive"
	// ModeWalk routes over the footpath network.
	ModeWalk Mode = "walk"
)

// ParseMode validates a travel mode. Only the exact values "drive" and "walk" are accepted.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDrive, ModeWalk:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Preference selects how risk trades off against distance.
type Preference string

const (
	// PreferenceFastest ignores risk.
	PreferenceFastest Preference = "fastest"
	// PreferenceBalanced applies the balanced risk weight.
	PreferenceBalanced Preference = "balanced"
	// PreferenceSafest applies the safest risk weight.
	PreferenceSafest Preference = "safest"
)

// ParsePreference maps a string to a Preference. Unrecognized values, including the empty
// string, select PreferenceFastest; preference input is never rejected.
func ParsePreference(s string) Preference {
	switch Preference(s) {
	case PreferenceBalanced:
		return PreferenceBalanced
	case PreferenceSafest:
		return PreferenceSafest
	default:
		return PreferenceFastest
	}
}

// RiskLevel is a qualitative risk bucket.
type RiskLevel string

// Risk levels and their lower bounds.
const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"

	HighRiskThreshold   = 0.6
	MediumRiskThreshold = 0.3
)

// LevelFor buckets a risk value.
func LevelFor(risk float64) RiskLevel {
	switch {
	case risk >= HighRiskThreshold:
		return RiskLevelHigh
	case risk >= MediumRiskThreshold:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// RouteRequest is a routing query in geographic coordinates.
type RouteRequest struct {
	Origin      geo.LatLon
	Destination geo.LatLon
	Mode        string
	Preference  string
}

// RiskMarker flags a high-risk stretch of the route.
type RiskMarker struct {
	Point geo.LatLon
	Risk  float64
	Level RiskLevel
}

// SegmentSummary describes the segment chosen for one hop of the route.
type SegmentSummary struct {
	Key          graph.SegmentKey
	Risk         float64
	LengthMeters float64
}

// RouteResult is a computed route and its safety profile.
type RouteResult struct {
	Mode       Mode
	Preference Preference

	OriginNode      graph.NodeID
	DestinationNode graph.NodeID

	// Geometry holds every path node, snapped endpoints included.
	Geometry []geo.LatLon

	DistanceKm       float64
	DurationMin      float64
	AvgRisk          float64
	RiskLevel        RiskLevel
	HighRiskSegments int
	Markers          []RiskMarker
	Segments         []SegmentSummary
}

// GraphProvider supplies the prebuilt network for a mode.
type GraphProvider interface {
	Graph(mode Mode) (*graph.Graph, bool)
}

// Graphs is a fixed mode -> graph mapping.
type Graphs map[Mode]*graph.Graph

// Graph implements GraphProvider.
func (g Graphs) Graph(mode Mode) (*graph.Graph, bool) {
	gr, ok := g[mode]
	return gr, ok && gr != nil
}

// RiskLookup returns the risk of a directed segment, reporting false when no data exists.
type RiskLookup interface {
	Lookup(from, to graph.NodeID, parallel int) (float64, bool)
}

// RiskProvider returns the risk data a single query should use from start to finish.
type RiskProvider interface {
	Risk() RiskLookup
}

// RiskProviderFunc adapts a function to RiskProvider.
type RiskProviderFunc func() RiskLookup

// Risk implements RiskProvider.
func (f RiskProviderFunc) Risk() RiskLookup {
	return f()
}

type noRisk struct{}

func (noRisk) Lookup(graph.NodeID, graph.NodeID, int) (float64, bool) { return 0, false }

// NoRisk is a RiskLookup with no data; every segment has risk 0.
var NoRisk RiskLookup = noRisk{}
