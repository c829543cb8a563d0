package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/api/models"
	"github.com/saferoute/saferoute/internal/api/response"
	"github.com/saferoute/saferoute/internal/geocoding"
)

// PlaceSearcher resolves free-text queries to places inside the coverage region.
type PlaceSearcher interface {
	Search(ctx context.Context, query string, limit int) (*geocoding.Result, error)
}

// GeocodeHandler handles place search.
type GeocodeHandler struct {
	geocoder PlaceSearcher
	logger   zerolog.Logger
}

// NewGeocodeHandler creates a new GeocodeHandler.
func NewGeocodeHandler(geocoder PlaceSearcher, logger zerolog.Logger) *GeocodeHandler {
	return &GeocodeHandler{
		geocoder: geocoder,
		logger:   logger,
	}
}

// Geocode handles POST /v1/geocode.
func (h *GeocodeHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	var input models.GeocodeRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	limit := geocoding.DefaultLimit
	if input.Limit != nil {
		limit = *input.Limit
	}

	result, err := h.geocoder.Search(r.Context(), input.Query, limit)
	if err != nil {
		if errors.Is(err, geocoding.ErrInvalidQuery) {
			response.BadRequest(w, r, "validation error", []models.FieldError{
				{Field: "query", Message: "must not be blank", Code: "REQUIRED"},
			})
			return
		}
		h.logger.Warn().Err(err).Msg("geocoding failed")
		response.ProviderError(w, r, "geocoding service is unavailable, try again later")
		return
	}

	resp := models.GeocodeResponse{
		Results: make([]models.GeocodeResult, len(result.Places)),
		Message: result.Message,
	}
	for i, p := range result.Places {
		resp.Results[i] = models.GeocodeResult{
			DisplayName: p.DisplayName,
			Lat:         p.Lat,
			Lon:         p.Lon,
		}
	}
	response.JSON(w, r, http.StatusOK, resp)
}
