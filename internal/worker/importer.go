package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/graph"
	"github.com/saferoute/saferoute/internal/risk"
)

// ErrMissingSource is returned when an import job names no source file.
var ErrMissingSource = errors.New("risk import: source path is required")

// RiskStore persists a full replacement of the segment risk table.
type RiskStore interface {
	ReplaceAll(ctx context.Context, entries []risk.Entry) (int64, error)
}

// OpenFunc opens an import source for reading.
type OpenFunc func(path string) (io.ReadCloser, error)

// RiskImportJob loads a risk CSV and replaces the stored risk entries with it.
type RiskImportJob struct {
	store  RiskStore
	holder *risk.Holder
	open   OpenFunc
	logger zerolog.Logger
	now    func() time.Time

	metrics *ImportMetrics
}

// ImportMetrics tracks import job statistics.
type ImportMetrics struct {
	mu sync.RWMutex

	TotalImports      int64
	SuccessfulImports int64
	FailedImports     int64

	LastImportAt       time.Time
	LastImportDuration time.Duration
	LastRowCount       int64
}

// MetricsSnapshot is a point-in-time copy of ImportMetrics.
type MetricsSnapshot struct {
	TotalImports       int64
	SuccessfulImports  int64
	FailedImports      int64
	LastImportAt       time.Time
	LastImportDuration time.Duration
	LastRowCount       int64
}

// RiskImportJobConfig holds configuration for creating a RiskImportJob.
type RiskImportJobConfig struct {
	Store RiskStore

	// Holder, when set, is swapped to the imported index after a successful write.
	Holder *risk.Holder

	// Open defaults to opening a local file.
	Open OpenFunc

	Logger zerolog.Logger
}

// NewRiskImportJob creates a new import job.
func NewRiskImportJob(cfg RiskImportJobConfig) *RiskImportJob {
	open := cfg.Open
	if open == nil {
		open = openFile
	}
	return &RiskImportJob{
		store:   cfg.Store,
		holder:  cfg.Holder,
		open:    open,
		logger:  cfg.Logger,
		now:     time.Now,
		metrics: &ImportMetrics{},
	}
}

// ImportResult describes a finished import.
type ImportResult struct {
	Source   string
	Rows     int64
	Duration time.Duration
}

// Run imports the CSV at sourcePath. The whole file is parsed and checked before
// anything is written, so a malformed row leaves the stored entries untouched.
func (j *RiskImportJob) Run(ctx context.Context, sourcePath string) (*ImportResult, error) {
	start := j.now()
	result, err := j.run(ctx, sourcePath)
	j.record(start, result, err)
	return result, err
}

func (j *RiskImportJob) run(ctx context.Context, sourcePath string) (*ImportResult, error) {
	if sourcePath == "" {
		return nil, ErrMissingSource
	}

	f, err := j.open(sourcePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &parseError{Source: sourcePath, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", sourcePath, err)
	}
	entries, err := risk.ReadCSV(f)
	_ = f.Close()
	if err != nil {
		return nil, &parseError{Source: sourcePath, Err: err}
	}

	idx, err := risk.NewIndex(entries)
	if err != nil {
		return nil, &parseError{Source: sourcePath, Err: err}
	}

	rows, err := j.store.ReplaceAll(ctx, dedupe(entries))
	if err != nil {
		return nil, fmt.Errorf("store risk entries: %w", err)
	}

	if j.holder != nil {
		j.holder.Store(idx)
	}

	j.logger.Info().
		Str("source", sourcePath).
		Int64("rows", rows).
		Msg("risk entries imported")

	return &ImportResult{Source: sourcePath, Rows: rows}, nil
}

func (j *RiskImportJob) record(start time.Time, result *ImportResult, err error) {
	elapsed := j.now().Sub(start)
	if result != nil {
		result.Duration = elapsed
	}

	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalImports++
	j.metrics.LastImportAt = start
	j.metrics.LastImportDuration = elapsed
	if err != nil {
		j.metrics.FailedImports++
		return
	}
	j.metrics.SuccessfulImports++
	j.metrics.LastRowCount = result.Rows
}

// Metrics returns a copy of the current import metrics.
func (j *RiskImportJob) Metrics() MetricsSnapshot {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return MetricsSnapshot{
		TotalImports:       j.metrics.TotalImports,
		SuccessfulImports:  j.metrics.SuccessfulImports,
		FailedImports:      j.metrics.FailedImports,
		LastImportAt:       j.metrics.LastImportAt,
		LastImportDuration: j.metrics.LastImportDuration,
		LastRowCount:       j.metrics.LastRowCount,
	}
}

// dedupe keeps one row per undirected segment, the last one seen in either direction,
// so the stored rows rebuild the same Index in any load order. Order of first
// appearance is preserved.
func dedupe(entries []risk.Entry) []risk.Entry {
	pos := make(map[graph.SegmentKey]int, len(entries))
	out := make([]risk.Entry, 0, len(entries))
	for _, e := range entries {
		k := e.Key().Undirected()
		if i, ok := pos[k]; ok {
			out[i] = e
			continue
		}
		pos[k] = len(out)
		out = append(out, e)
	}
	return out
}

// parseError is an import failure caused by the source content.
type parseError struct {
	Source string
	Err    error
}

func (e *parseError) Error() string {
	return fmt.Sprintf("import %s: %v", e.Source, e.Err)
}

func (e *parseError) Unwrap() error {
	return e.Err
}

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path) //nolint:gosec // path comes from an operator-published job
}
