package risk

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/saferoute/saferoute/internal/graph"
)

var requiredColumns = []string{"u", "v", "k", "risk_proba"}

// ReadCSV parses risk entries from a CSV with the columns u, v, k and risk_proba.
// Other columns are ignored. Any malformed row fails the whole read.
func ReadCSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read risk header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	idx := make([]int, len(requiredColumns))
	for i, name := range requiredColumns {
		c, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("risk csv: missing column %q", name)
		}
		idx[i] = c
	}

	var entries []Entry
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("risk csv line %d: %w", line, err)
		}
		field := func(i int) string {
			if idx[i] >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx[i]])
		}

		u, err := strconv.ParseInt(field(0), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("risk csv line %d: u: %w", line, err)
		}
		v, err := strconv.ParseInt(field(1), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("risk csv line %d: v: %w", line, err)
		}
		k, err := strconv.Atoi(field(2))
		if err != nil {
			return nil, fmt.Errorf("risk csv line %d: k: %w", line, err)
		}
		p, err := strconv.ParseFloat(field(3), 64)
		if err != nil {
			return nil, fmt.Errorf("risk csv line %d: risk_proba: %w", line, err)
		}

		e := Entry{From: graph.NodeID(u), To: graph.NodeID(v), Parallel: k, Risk: p}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("risk csv line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
}

// LoadCSVFile reads a risk CSV from disk and builds an Index.
func LoadCSVFile(path string) (*Index, error) {
	f, err := os.Open(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("open risk csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	entries, err := ReadCSV(f)
	if err != nil {
		return nil, err
	}
	return NewIndex(entries)
}
