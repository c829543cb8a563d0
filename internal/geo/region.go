package geo

import (
	"fmt"
	"os"
	"strconv"

	"github.com/golang/geo/s2"
)

// Greater London bounds used when no coverage region is configured.
const (
	LondonMinLat = 51.2868
	LondonMaxLat = 51.6919
	LondonMinLon = -0.5103
	LondonMaxLon = 0.3340
)

// Region is a latitude/longitude rectangle; its edges count as inside.
type Region struct {
	rect s2.Rect
}

// NewRegion creates a region from its bounds in degrees.
func NewRegion(minLat, minLon, maxLat, maxLon float64) (Region, error) {
	if minLat > maxLat || minLon > maxLon {
		return Region{}, fmt.Errorf("invalid region: min (%v, %v) exceeds max (%v, %v)", minLat, minLon, maxLat, maxLon)
	}
	if minLat < -90 || maxLat > 90 || minLon < -180 || maxLon > 180 {
		return Region{}, fmt.Errorf("invalid region: bounds out of range")
	}
	rect := s2.RectFromLatLng(s2.LatLngFromDegrees(minLat, minLon))
	rect = rect.AddPoint(s2.LatLngFromDegrees(maxLat, maxLon))
	return Region{rect: rect}, nil
}

// GreaterLondon returns the default coverage region.
func GreaterLondon() Region {
	r, _ := NewRegion(LondonMinLat, LondonMinLon, LondonMaxLat, LondonMaxLon)
	return r
}

// Contains reports whether the coordinate lies inside the region.
func (r Region) Contains(lat, lon float64) bool {
	return r.rect.ContainsLatLng(s2.LatLngFromDegrees(lat, lon))
}

// Bounds returns (minLat, minLon, maxLat, maxLon) in degrees.
func (r Region) Bounds() (float64, float64, float64, float64) {
	return r.rect.Lo().Lat.Degrees(), r.rect.Lo().Lng.Degrees(),
		r.rect.Hi().Lat.Degrees(), r.rect.Hi().Lng.Degrees()
}

// RegionFromEnv reads COVERAGE_MIN_LAT, COVERAGE_MIN_LON, COVERAGE_MAX_LAT and COVERAGE_MAX_LON,
// falling back to Greater London for each unset value.
func RegionFromEnv() (Region, error) {
	minLat, err := floatEnv("COVERAGE_MIN_LAT", LondonMinLat)
	if err != nil {
		return Region{}, err
	}
	minLon, err := floatEnv("COVERAGE_MIN_LON", LondonMinLon)
	if err != nil {
		return Region{}, err
	}
	maxLat, err := floatEnv("COVERAGE_MAX_LAT", LondonMaxLat)
	if err != nil {
		return Region{}, err
	}
	maxLon, err := floatEnv("COVERAGE_MAX_LON", LondonMaxLon)
	if err != nil {
		return Region{}, err
	}
	return NewRegion(minLat, minLon, maxLat, maxLon)
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
