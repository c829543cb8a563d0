// Command graphpack converts node and edge CSV exports into a graph snapshot
// that the API loads at startup.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/geo"
	"github.com/saferoute/saferoute/internal/graph"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := run(os.Args[1:], os.Stderr, log); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Error().Err(err).Msg("graphpack failed")
		os.Exit(1)
	}
}

func run(args []string, stderr io.Writer, log zerolog.Logger) error {
	fs := flag.NewFlagSet("graphpack", flag.ContinueOnError)
	fs.SetOutput(stderr)
	nodesPath := fs.String("nodes", "", "node CSV with osmid,x,y in WGS84")
	edgesPath := fs.String("edges", "", "edge CSV with u,v,key[,length]")
	outPath := fs.String("out", "", "snapshot file to write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *nodesPath == "" || *edgesPath == "" || *outPath == "" {
		fs.Usage()
		return errors.New("-nodes, -edges and -out are required")
	}

	nodes, err := os.Open(*nodesPath)
	if err != nil {
		return fmt.Errorf("open nodes: %w", err)
	}
	defer func() { _ = nodes.Close() }()

	edges, err := os.Open(*edgesPath)
	if err != nil {
		return fmt.Errorf("open edges: %w", err)
	}
	defer func() { _ = edges.Close() }()

	proj := geo.WebMercator{}
	g, err := graph.LoadCSV(nodes, edges, proj.CRS(), proj.ToPlanar)
	if err != nil {
		return err
	}

	if err := graph.WriteSnapshotFile(*outPath, g); err != nil {
		return err
	}

	log.Info().
		Str("out", *outPath).
		Str("crs", g.CRS()).
		Int("nodes", g.NodeCount()).
		Int("segments", g.SegmentCount()).
		Msg("snapshot written")
	return nil
}
