package models

// RouteComputeRequest is the request body for POST /v1/routes:compute.
type RouteComputeRequest struct {
	Origin      *Point `json:"origin" validate:"required"`
	Destination *Point `json:"destination" validate:"required"`
	Mode        string `json:"mode" validate:"required,oneof=drive walk"`

	// Preference is fastest, balanced or safest. Anything else is treated as fastest.
	Preference string `json:"preference,omitempty"`

	// IncludeSegments adds the per-hop segment list to the response.
	IncludeSegments bool `json:"includeSegments,omitempty"`
}

// RouteComputeResponse is the computed route.
type RouteComputeResponse struct {
	Mode             string         `json:"mode"`
	Preference       string         `json:"preference"`
	DistanceKm       float64        `json:"distanceKm"`
	DurationMin      float64        `json:"durationMin"`
	AvgRisk          float64        `json:"avgRisk"`
	RiskLevel        string         `json:"riskLevel"`
	HighRiskSegments int            `json:"highRiskSegments"`
	Geometry         [][2]float64   `json:"geometry"`
	GeometryPolyline string         `json:"geometryPolyline"`
	RiskMarkers      []RiskMarker   `json:"riskMarkers"`
	Segments         []RouteSegment `json:"segments,omitempty"`
}

// RiskMarker flags a high-risk point along the route.
type RiskMarker struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Risk  float64 `json:"risk"`
	Level string  `json:"level"`
}

// RouteSegment is the network segment used for one hop.
type RouteSegment struct {
	From     int64   `json:"u"`
	To       int64   `json:"v"`
	Parallel int     `json:"k"`
	Risk     float64 `json:"risk"`
	LengthM  float64 `json:"lengthM"`
}
