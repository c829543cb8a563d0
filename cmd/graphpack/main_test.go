package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/saferoute/internal/geo"
	"github.com/saferoute/saferoute/internal/graph"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRun_WritesSnapshot(t *testing.T) {
	dir := t.TempDir()
	nodes := writeFile(t, dir, "nodes.csv", "osmid,x,y\n1,-0.1276,51.5072\n2,-0.1270,51.5075\n")
	edges := writeFile(t, dir, "edges.csv", "u,v,key,length\n1,2,0,52.3\n2,1,0,52.3\n")
	out := filepath.Join(dir, "walk.graph")

	err := run([]string{"-nodes", nodes, "-edges", edges, "-out", out}, io.Discard, zerolog.Nop())
	require.NoError(t, err)

	g, err := graph.ReadSnapshotFile(out)
	require.NoError(t, err)
	assert.Equal(t, geo.CRSWebMercator, g.CRS())
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 2, g.SegmentCount())

	n, ok := g.Node(1)
	require.True(t, ok)
	x, y := geo.WebMercator{}.ToPlanar(51.5072, -0.1276)
	assert.InDelta(t, x, n.X, 1e-6)
	assert.InDelta(t, y, n.Y, 1e-6)
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	nodes := writeFile(t, dir, "nodes.csv", "osmid,x,y\n1,-0.1276,51.5072\n")
	badEdges := writeFile(t, dir, "edges.csv", "u,v,key\n1,99,0\n")

	tests := []struct {
		name string
		args []string
	}{
		{"missing flags", []string{"-nodes", nodes}},
		{"unknown flag", []string{"-bogus"}},
		{"missing nodes file", []string{"-nodes", filepath.Join(dir, "nope.csv"), "-edges", badEdges, "-out", filepath.Join(dir, "x")}},
		{"edge to unknown node", []string{"-nodes", nodes, "-edges", badEdges, "-out", filepath.Join(dir, "x")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, run(tt.args, io.Discard, zerolog.Nop()))
		})
	}
}
