package graph

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ProjectFunc maps a geographic coordinate to the graph's planar CRS.
type ProjectFunc func(lat, lon float64) (x, y float64)

// LoadCSV builds a graph from node and edge exports.
//
// The nodes file needs the columns osmid, x (longitude) and y (latitude).
// The edges file needs u, v and key, and optionally length in meters; an empty
// length cell produces a segment without a known length.
func LoadCSV(nodes, edges io.Reader, crs string, project ProjectFunc) (*Graph, error) {
	b := NewBuilder(crs)

	err := readCSV(nodes, []string{"osmid", "x", "y"}, func(line int, rec map[string]string) error {
		id, err := strconv.ParseInt(rec["osmid"], 10, 64)
		if err != nil {
			return fmt.Errorf("nodes line %d: osmid: %w", line, err)
		}
		lon, err := strconv.ParseFloat(rec["x"], 64)
		if err != nil {
			return fmt.Errorf("nodes line %d: x: %w", line, err)
		}
		lat, err := strconv.ParseFloat(rec["y"], 64)
		if err != nil {
			return fmt.Errorf("nodes line %d: y: %w", line, err)
		}
		x, y := project(lat, lon)
		return b.AddNode(NodeID(id), x, y)
	})
	if err != nil {
		return nil, err
	}

	err = readCSV(edges, []string{"u", "v", "key"}, func(line int, rec map[string]string) error {
		u, err := strconv.ParseInt(rec["u"], 10, 64)
		if err != nil {
			return fmt.Errorf("edges line %d: u: %w", line, err)
		}
		v, err := strconv.ParseInt(rec["v"], 10, 64)
		if err != nil {
			return fmt.Errorf("edges line %d: v: %w", line, err)
		}
		k, err := strconv.Atoi(rec["key"])
		if err != nil {
			return fmt.Errorf("edges line %d: key: %w", line, err)
		}
		key := SegmentKey{From: NodeID(u), To: NodeID(v), Parallel: k}

		raw := strings.TrimSpace(rec["length"])
		if raw == "" {
			return b.AddSegmentWithoutLength(key)
		}
		length, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("edges line %d: length: %w", line, err)
		}
		return b.AddSegment(key, length)
	})
	if err != nil {
		return nil, err
	}

	return b.Build()
}

func readCSV(r io.Reader, required []string, fn func(line int, rec map[string]string) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return fmt.Errorf("missing column %q", name)
		}
	}

	rec := make(map[string]string, len(cols))
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		for name, i := range cols {
			if i < len(row) {
				rec[name] = strings.TrimSpace(row[i])
			} else {
				rec[name] = ""
			}
		}
		if err := fn(line, rec); err != nil {
			return err
		}
	}
}
