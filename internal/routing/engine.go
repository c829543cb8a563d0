package routing

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/saferoute/saferoute/internal/geo"
	"github.com/saferoute/saferoute/internal/graph"
)

const instrumentationName = "github.com/saferoute/saferoute/internal/routing"

// DefaultSearchTimeout bounds a single computation when no timeout is configured.
const DefaultSearchTimeout = 5 * time.Second

// EngineConfig holds configuration for the routing engine.
type EngineConfig struct {
	// Graphs supplies the network per mode.
	Graphs GraphProvider

	// Risk supplies per-segment risk. Nil means no risk data.
	Risk RiskProvider

	// Region is the coverage region endpoints must fall in (default: Greater London).
	Region *geo.Region

	// Weights for the balanced and safest preferences (default: DefaultWeights).
	Weights Weights

	// Speeds used for the duration estimate (default: DefaultSpeeds).
	Speeds Speeds

	// SearchTimeout is the wall-clock budget per computation (default: 5s).
	SearchTimeout time.Duration

	// MaxConcurrent bounds simultaneous computations (default: 2 * GOMAXPROCS).
	MaxConcurrent int

	// Logger for engine operations.
	Logger zerolog.Logger
}

// Engine snaps endpoints, searches and summarizes routes.
// It holds no mutable state beyond its semaphore and is safe for concurrent use.
type Engine struct {
	graphs     GraphProvider
	risk       RiskProvider
	region     geo.Region
	finder     PathFinder
	summarizer Summarizer
	timeout    time.Duration
	sem        *semaphore.Weighted
	logger     zerolog.Logger

	tracer   trace.Tracer
	duration metric.Float64Histogram
	total    metric.Int64Counter
}

// NewEngine creates an engine. It fails if the weights or speeds are invalid.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Graphs == nil {
		return nil, errors.New("routing engine requires a graph provider")
	}

	weights := cfg.Weights
	if weights == (Weights{}) {
		weights = DefaultWeights
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	speeds := cfg.Speeds
	if speeds == (Speeds{}) {
		speeds = DefaultSpeeds
	}
	if err := speeds.Validate(); err != nil {
		return nil, err
	}

	region := geo.GreaterLondon()
	if cfg.Region != nil {
		region = *cfg.Region
	}

	timeout := cfg.SearchTimeout
	if timeout <= 0 {
		timeout = DefaultSearchTimeout
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 2 * runtime.GOMAXPROCS(0)
	}

	riskProvider := cfg.Risk
	if riskProvider == nil {
		riskProvider = RiskProviderFunc(func() RiskLookup { return NoRisk })
	}

	meter := otel.Meter(instrumentationName)
	duration, err := meter.Float64Histogram(
		"routing.compute.duration",
		metric.WithDescription("Duration of route computations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	total, err := meter.Int64Counter(
		"routing.compute.total",
		metric.WithDescription("Total number of route computations"),
		metric.WithUnit("{computation}"),
	)
	if err != nil {
		return nil, err
	}

	cost := NewCostModel(weights)
	return &Engine{
		graphs:     cfg.Graphs,
		risk:       riskProvider,
		region:     region,
		finder:     NewPathFinder(cost),
		summarizer: NewSummarizer(cost, speeds),
		timeout:    timeout,
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
		logger:     cfg.Logger,
		tracer:     otel.Tracer(instrumentationName),
		duration:   duration,
		total:      total,
	}, nil
}

// Region returns the engine's coverage region.
func (e *Engine) Region() geo.Region {
	return e.region
}

// Compute resolves a route request.
//
// Mode is validated and coverage is checked before any graph work; preference never fails.
// The result echoes the mode and the effective preference.
func (e *Engine) Compute(ctx context.Context, req RouteRequest) (*RouteResult, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "routing.Compute",
		trace.WithAttributes(
			attribute.String("routing.mode", req.Mode),
			attribute.String("routing.preference", req.Preference),
		),
	)
	defer span.End()

	res, err := e.compute(ctx, req)

	outcome := outcomeOf(err)
	attrs := metric.WithAttributes(
		attribute.String("mode", req.Mode),
		attribute.String("outcome", outcome),
	)
	e.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	e.total.Add(ctx, 1, attrs)

	span.SetAttributes(attribute.String("routing.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		if outcome == "error" {
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}
	span.SetAttributes(
		attribute.Float64("routing.distance_km", res.DistanceKm),
		attribute.Int("routing.path_nodes", len(res.Geometry)),
	)
	return res, nil
}

func (e *Engine) compute(ctx context.Context, req RouteRequest) (*RouteResult, error) {
	mode, err := ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	pref := ParsePreference(req.Preference)

	if !e.region.Contains(req.Origin.Lat, req.Origin.Lon) {
		return nil, fmt.Errorf("%w: origin (%v, %v)", ErrOutOfCoverage, req.Origin.Lat, req.Origin.Lon)
	}
	if !e.region.Contains(req.Destination.Lat, req.Destination.Lon) {
		return nil, fmt.Errorf("%w: destination (%v, %v)", ErrOutOfCoverage, req.Destination.Lat, req.Destination.Lon)
	}

	g, ok := e.graphs.Graph(mode)
	if !ok || g.NodeCount() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoNodesAvailable, mode)
	}
	proj, err := geo.ForCRS(g.CRS())
	if err != nil {
		return nil, fmt.Errorf("%s graph: %w", mode, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoPathFound, err)
	}
	defer e.sem.Release(1)

	origin, err := snap(g, proj, req.Origin)
	if err != nil {
		return nil, err
	}
	dest, err := snap(g, proj, req.Destination)
	if err != nil {
		return nil, err
	}

	// Every lookup for this query goes to the same risk snapshot.
	risks := e.risk.Risk()
	if risks == nil {
		risks = NoRisk
	}

	path, err := e.finder.ShortestPath(ctx, g, risks, origin, dest, pref)
	if err != nil {
		e.logger.Debug().Err(err).
			Str("mode", string(mode)).
			Int64("origin_node", int64(origin)).
			Int64("dest_node", int64(dest)).
			Msg("route search failed")
		return nil, err
	}

	e.logger.Debug().
		Str("mode", string(mode)).
		Str("preference", string(pref)).
		Int64("origin_node", int64(origin)).
		Int64("dest_node", int64(dest)).
		Int("path_nodes", len(path)).
		Msg("route found")

	return e.summarizer.Summarize(g, risks, proj, path, mode, pref)
}

func snap(g *graph.Graph, proj geo.Projector, p geo.LatLon) (graph.NodeID, error) {
	x, y := proj.ToPlanar(p.Lat, p.Lon)
	id, _, err := g.Nearest(x, y)
	if err != nil {
		if errors.Is(err, graph.ErrEmpty) {
			return 0, fmt.Errorf("%w: %w", ErrNoNodesAvailable, err)
		}
		return 0, err
	}
	return id, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrOutOfCoverage):
		return "out_of_coverage"
	case errors.Is(err, ErrInvalidMode):
		return "invalid_mode"
	case errors.Is(err, ErrNoPathFound):
		return "no_path"
	default:
		return "error"
	}
}
