package routing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/saferoute/saferoute/internal/geo"
	"github.com/saferoute/saferoute/internal/graph"
	"github.com/saferoute/saferoute/internal/risk"
)

// Central London, used as the planar origin of the test networks.
const (
	baseLat = 51.5074
	baseLon = -0.1278
)

type testNetwork struct {
	b      *graph.Builder
	x0, y0 float64
	risks  []risk.Entry
}

func newTestNetwork() *testNetwork {
	x0, y0 := geo.WebMercator{}.ToPlanar(baseLat, baseLon)
	return &testNetwork{b: graph.NewBuilder(geo.CRSWebMercator), x0: x0, y0: y0}
}

// node places a node at an offset in meters (planar units) from the base point.
func (n *testNetwork) node(t *testing.T, id graph.NodeID, dx, dy float64) {
	t.Helper()
	require.NoError(t, n.b.AddNode(id, n.x0+dx, n.y0+dy))
}

// road adds a two-way segment with the same risk in both directions.
func (n *testNetwork) road(t *testing.T, u, v graph.NodeID, parallel int, length, r float64) {
	t.Helper()
	require.NoError(t, n.b.AddSegment(graph.SegmentKey{From: u, To: v, Parallel: parallel}, length))
	require.NoError(t, n.b.AddSegment(graph.SegmentKey{From: v, To: u, Parallel: parallel}, length))
	if r != 0 {
		n.risks = append(n.risks, risk.Entry{From: u, To: v, Parallel: parallel, Risk: r})
	}
}

func (n *testNetwork) build(t *testing.T) (*graph.Graph, *risk.Index) {
	t.Helper()
	g, err := n.b.Build()
	require.NoError(t, err)
	idx, err := risk.NewIndex(n.risks)
	require.NoError(t, err)
	return g, idx
}

// latLonOf returns the geographic position of a node so requests snap to it exactly.
func latLonOf(t *testing.T, g *graph.Graph, id graph.NodeID) geo.LatLon {
	t.Helper()
	n, ok := g.Node(id)
	require.True(t, ok)
	lat, lon := geo.WebMercator{}.ToGeographic(n.X, n.Y)
	return geo.LatLon{Lat: lat, Lon: lon}
}

const (
	nodeA graph.NodeID = 100
	nodeB graph.NodeID = 200
	nodeC graph.NodeID = 300
	nodeD graph.NodeID = 400
)

// lineNetwork is A-B-C, 100 m per segment, risk(A,B)=0 and risk(B,C)=0.8.
func lineNetwork(t *testing.T) *testNetwork {
	t.Helper()
	n := newTestNetwork()
	n.node(t, nodeA, 0, 0)
	n.node(t, nodeB, 100, 0)
	n.node(t, nodeC, 200, 0)
	n.road(t, nodeA, nodeB, 0, 100, 0)
	n.road(t, nodeB, nodeC, 0, 100, 0.8)
	return n
}

// detourNetwork extends lineNetwork with a risk-free 150 m detour B-D-C.
func detourNetwork(t *testing.T) *testNetwork {
	t.Helper()
	n := lineNetwork(t)
	n.node(t, nodeD, 150, 60)
	n.road(t, nodeB, nodeD, 0, 75, 0)
	n.road(t, nodeD, nodeC, 0, 75, 0)
	return n
}
