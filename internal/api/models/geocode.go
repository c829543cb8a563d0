package models

// GeocodeRequest is the request body for POST /v1/geocode.
type GeocodeRequest struct {
	Query string `json:"query" validate:"required,min=2,max=120"`
	Limit *int   `json:"limit,omitempty" validate:"omitempty,gte=1,lte=10"`
}

// GeocodeResponse lists matches inside the coverage region.
type GeocodeResponse struct {
	Results []GeocodeResult `json:"results"`
	Message string          `json:"message,omitempty"`
}

// GeocodeResult is one place match.
type GeocodeResult struct {
	DisplayName string  `json:"displayName"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}
