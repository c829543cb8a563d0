package graph

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kelindar/binary"
	"github.com/klauspost/compress/zstd"
)

// SnapshotVersion is bumped whenever the snapshot layout changes.
const SnapshotVersion = 1

// ErrSnapshotVersion indicates a snapshot written by an incompatible version.
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// snapshot is the columnar on-disk form of a Graph.
type snapshot struct {
	Version int
	CRS     string

	NodeIDs []int64
	NodeX   []float64
	NodeY   []float64

	SegFrom      []int64
	SegTo        []int64
	SegParallel  []int32
	SegLength    []float64
	SegHasLength []bool
}

// WriteSnapshot encodes g as a zstd-compressed binary snapshot.
func WriteSnapshot(w io.Writer, g *Graph) error {
	s := snapshot{
		Version:      SnapshotVersion,
		CRS:          g.crs,
		NodeIDs:      make([]int64, 0, len(g.nodes)),
		NodeX:        make([]float64, 0, len(g.nodes)),
		NodeY:        make([]float64, 0, len(g.nodes)),
		SegFrom:      make([]int64, 0, len(g.segments)),
		SegTo:        make([]int64, 0, len(g.segments)),
		SegParallel:  make([]int32, 0, len(g.segments)),
		SegLength:    make([]float64, 0, len(g.segments)),
		SegHasLength: make([]bool, 0, len(g.segments)),
	}
	for _, n := range g.nodes {
		s.NodeIDs = append(s.NodeIDs, int64(n.ID))
		s.NodeX = append(s.NodeX, n.X)
		s.NodeY = append(s.NodeY, n.Y)
	}
	g.ForEachSegment(func(from NodeID, seg Segment) {
		s.SegFrom = append(s.SegFrom, int64(from))
		s.SegTo = append(s.SegTo, int64(seg.To))
		s.SegParallel = append(s.SegParallel, int32(seg.Parallel)) //nolint:gosec // Builder bounds Parallel to MaxParallel
		s.SegLength = append(s.SegLength, seg.Length)
		s.SegHasLength = append(s.SegHasLength, seg.HasLength)
	})

	encoded, err := binary.Marshal(&s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	if _, err := io.Copy(enc, bytes.NewReader(encoded)); err != nil {
		enc.Close()
		return fmt.Errorf("compress snapshot: %w", err)
	}
	return enc.Close()
}

// ReadSnapshot decodes a snapshot produced by WriteSnapshot and rebuilds the graph.
func ReadSnapshot(r io.Reader) (*Graph, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}

	var s snapshot
	if err := binary.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotVersion, s.Version)
	}
	if len(s.NodeX) != len(s.NodeIDs) || len(s.NodeY) != len(s.NodeIDs) {
		return nil, errors.New("decode snapshot: node columns have mismatched lengths")
	}
	n := len(s.SegFrom)
	if len(s.SegTo) != n || len(s.SegParallel) != n || len(s.SegLength) != n || len(s.SegHasLength) != n {
		return nil, errors.New("decode snapshot: segment columns have mismatched lengths")
	}

	b := NewBuilder(s.CRS)
	for i, id := range s.NodeIDs {
		if err := b.AddNode(NodeID(id), s.NodeX[i], s.NodeY[i]); err != nil {
			return nil, err
		}
	}
	for i := range s.SegFrom {
		key := SegmentKey{From: NodeID(s.SegFrom[i]), To: NodeID(s.SegTo[i]), Parallel: int(s.SegParallel[i])}
		if s.SegHasLength[i] {
			err = b.AddSegment(key, s.SegLength[i])
		} else {
			err = b.AddSegmentWithoutLength(key)
		}
		if err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// WriteSnapshotFile writes g to path, replacing any existing file only once the write succeeds.
func WriteSnapshotFile(path string, g *Graph) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp) //nolint:gosec // path is operator supplied
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	if err := WriteSnapshot(f, g); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close snapshot file: %w", err)
	}
	return os.Rename(tmp, path)
}

// ReadSnapshotFile loads a graph snapshot from path.
func ReadSnapshotFile(path string) (*Graph, error) {
	f, err := os.Open(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer func() { _ = f.Close() }()

	g, err := ReadSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return g, nil
}
