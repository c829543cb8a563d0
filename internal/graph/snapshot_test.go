package graph_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/saferoute/internal/graph"
)

func TestSnapshotRoundTrip(t *testing.T) {
	g := buildLine(t)

	var buf bytes.Buffer
	require.NoError(t, graph.WriteSnapshot(&buf, g))

	loaded, err := graph.ReadSnapshot(&buf)
	require.NoError(t, err)

	assert.Equal(t, g.CRS(), loaded.CRS())
	assert.Equal(t, g.NodeCount(), loaded.NodeCount())
	assert.Equal(t, g.SegmentCount(), loaded.SegmentCount())
	assert.Equal(t, g.Parallel(2, 3), loaded.Parallel(2, 3))
	assert.Equal(t, g.Parallel(3, 2), loaded.Parallel(3, 2))

	id, _, err := loaded.Nearest(190, 5)
	require.NoError(t, err)
	assert.Equal(t, graph.NodeID(3), id)
}

func TestSnapshotRoundTripKeepsLargestParallel(t *testing.T) {
	b := graph.NewBuilder("EPSG:3857")
	require.NoError(t, b.AddNode(1, 0, 0))
	require.NoError(t, b.AddNode(2, 10, 0))
	require.NoError(t, b.AddSegment(graph.SegmentKey{From: 1, To: 2, Parallel: graph.MaxParallel}, 10))
	g, err := b.Build()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, graph.WriteSnapshot(&buf, g))
	loaded, err := graph.ReadSnapshot(&buf)
	require.NoError(t, err)

	segs := loaded.Parallel(1, 2)
	require.Len(t, segs, 1)
	assert.Equal(t, graph.MaxParallel, segs[0].Parallel)
}

func TestSnapshotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walk.graph")
	g := buildLine(t)

	require.NoError(t, graph.WriteSnapshotFile(path, g))
	loaded, err := graph.ReadSnapshotFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.NodeCount())

	_, err = graph.ReadSnapshotFile(filepath.Join(t.TempDir(), "missing.graph"))
	assert.Error(t, err)
}

func TestReadSnapshotRejectsGarbage(t *testing.T) {
	_, err := graph.ReadSnapshot(strings.NewReader("definitely not zstd"))
	assert.Error(t, err)
}

func TestLoadCSV(t *testing.T) {
	nodes := "osmid,y,x,street_count\n1,51.5,-0.1,3\n2,51.501,-0.1,2\n3,51.502,-0.1,1\n"
	edges := "u,v,key,osmid,length\n1,2,0,99,111.2\n2,1,0,99,111.2\n2,3,0,100,\n"

	project := func(lat, lon float64) (float64, float64) { return lon * 1000, lat * 1000 }
	g, err := graph.LoadCSV(strings.NewReader(nodes), strings.NewReader(edges), "EPSG:3857", project)
	require.NoError(t, err)

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 3, g.SegmentCount())

	n, ok := g.Node(2)
	require.True(t, ok)
	assert.InDelta(t, -100.0, n.X, 1e-9)
	assert.InDelta(t, 51501.0, n.Y, 1e-9)

	par := g.Parallel(2, 3)
	require.Len(t, par, 1)
	assert.False(t, par[0].HasLength)
}

func TestLoadCSVErrors(t *testing.T) {
	project := func(lat, lon float64) (float64, float64) { return lon, lat }

	_, err := graph.LoadCSV(strings.NewReader("id,x,y\n1,0,0\n"), strings.NewReader("u,v,key\n"), "EPSG:3857", project)
	assert.ErrorContains(t, err, "osmid")

	_, err = graph.LoadCSV(
		strings.NewReader("osmid,x,y\n1,0,0\n"),
		strings.NewReader("u,v,key,length\n1,2,0,5\n"),
		"EPSG:3857", project,
	)
	assert.ErrorIs(t, err, graph.ErrUnknownNode)

	_, err = graph.LoadCSV(
		strings.NewReader("osmid,x,y\n1,0,0\n2,1,1\n"),
		strings.NewReader("u,v,key,length\n1,2,0,-5\n"),
		"EPSG:3857", project,
	)
	assert.ErrorIs(t, err, graph.ErrInvalidLength)
}
