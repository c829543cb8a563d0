// Package geo holds coordinate reprojection and the coverage region check.
package geo

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// CRSWebMercator is the identifier of the spherical Web Mercator projection.
const CRSWebMercator = "EPSG:3857"

// ErrUnsupportedCRS is returned when no projector exists for a graph's declared CRS.
var ErrUnsupportedCRS = errors.New("unsupported coordinate reference system")

// LatLon is a WGS84 coordinate in degrees.
type LatLon struct {
	Lat float64
	Lon float64
}

// Projector converts between WGS84 and a planar CRS.
type Projector interface {
	ToPlanar(lat, lon float64) (x, y float64)
	ToGeographic(x, y float64) (lat, lon float64)
	CRS() string
}

// WebMercator projects to and from EPSG:3857.
type WebMercator struct{}

// ToPlanar implements Projector.
func (WebMercator) ToPlanar(lat, lon float64) (float64, float64) {
	p := project.WGS84.ToMercator(orb.Point{lon, lat})
	return p.X(), p.Y()
}

// ToGeographic implements Projector.
func (WebMercator) ToGeographic(x, y float64) (float64, float64) {
	p := project.Mercator.ToWGS84(orb.Point{x, y})
	return p.Lat(), p.Lon()
}

// CRS implements Projector.
func (WebMercator) CRS() string {
	return CRSWebMercator
}

// ForCRS returns the projector for a CRS identifier.
func ForCRS(crs string) (Projector, error) {
	switch crs {
	case CRSWebMercator, "EPSG:900913", "EPSG:102100":
		return WebMercator{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCRS, crs)
	}
}
