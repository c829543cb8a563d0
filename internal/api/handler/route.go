package handler

import (
	"context"
	"errors"
	"math"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/api/models"
	"github.com/saferoute/saferoute/internal/api/response"
	"github.com/saferoute/saferoute/internal/geo"
	"github.com/saferoute/saferoute/internal/routing"
	"github.com/saferoute/saferoute/pkg/polyline"
)

// RouteComputer computes a single route.
type RouteComputer interface {
	Compute(ctx context.Context, req routing.RouteRequest) (*routing.RouteResult, error)
}

// RouteHandler handles routing endpoints.
type RouteHandler struct {
	engine RouteComputer
	logger zerolog.Logger
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(engine RouteComputer, logger zerolog.Logger) *RouteHandler {
	return &RouteHandler{
		engine: engine,
		logger: logger,
	}
}

// ComputeRoute handles POST /v1/routes:compute.
func (h *RouteHandler) ComputeRoute(w http.ResponseWriter, r *http.Request) {
	var input models.RouteComputeRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	result, err := h.engine.Compute(r.Context(), routing.RouteRequest{
		Origin:      geo.LatLon{Lat: input.Origin.Lat, Lon: input.Origin.Lon},
		Destination: geo.LatLon{Lat: input.Destination.Lat, Lon: input.Destination.Lon},
		Mode:        input.Mode,
		Preference:  input.Preference,
	})
	if err != nil {
		h.writeComputeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toRouteResponse(result, input.IncludeSegments))
}

func (h *RouteHandler) writeComputeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, routing.ErrInvalidMode):
		response.BadRequest(w, r, "validation error", []models.FieldError{
			{Field: "mode", Message: "must be one of: drive, walk", Code: "INVALID_ENUM"},
		})
	case errors.Is(err, routing.ErrOutOfCoverage):
		response.OutOfCoverage(w, r, "origin or destination is outside the supported coverage region")
	case errors.Is(err, routing.ErrNoPathFound):
		response.NoRoute(w, r, "no route connects the given points for this mode")
	case errors.Is(err, routing.ErrNoNodesAvailable):
		h.logger.Error().Err(err).Msg("routing network unavailable")
		response.InternalError(w, r, "routing network is not available")
	default:
		h.logger.Error().Err(err).Msg("route computation failed")
		response.InternalError(w, r, "route computation failed")
	}
}

func toRouteResponse(res *routing.RouteResult, includeSegments bool) models.RouteComputeResponse {
	geometry := make([][2]float64, len(res.Geometry))
	coords := make([]polyline.Coordinate, len(res.Geometry))
	for i, p := range res.Geometry {
		geometry[i] = [2]float64{p.Lat, p.Lon}
		coords[i] = polyline.Coordinate{Lat: p.Lat, Lon: p.Lon}
	}

	markers := make([]models.RiskMarker, len(res.Markers))
	for i, m := range res.Markers {
		markers[i] = models.RiskMarker{
			Lat:   m.Point.Lat,
			Lon:   m.Point.Lon,
			Risk:  round(m.Risk, 3),
			Level: string(m.Level),
		}
	}

	resp := models.RouteComputeResponse{
		Mode:             string(res.Mode),
		Preference:       string(res.Preference),
		DistanceKm:       round(res.DistanceKm, 3),
		DurationMin:      round(res.DurationMin, 1),
		AvgRisk:          round(res.AvgRisk, 3),
		RiskLevel:        string(res.RiskLevel),
		HighRiskSegments: res.HighRiskSegments,
		Geometry:         geometry,
		GeometryPolyline: polyline.Encode(coords),
		RiskMarkers:      markers,
	}

	if includeSegments {
		resp.Segments = make([]models.RouteSegment, len(res.Segments))
		for i, s := range res.Segments {
			resp.Segments[i] = models.RouteSegment{
				From:     int64(s.Key.From),
				To:       int64(s.Key.To),
				Parallel: s.Key.Parallel,
				Risk:     round(s.Risk, 3),
				LengthM:  round(s.LengthMeters, 1),
			}
		}
	}
	return resp
}

// round rounds half away from zero to the given number of decimal places.
func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
