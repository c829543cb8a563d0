// Package polyline converts route geometry to and from Google's encoded polyline format
// at precision 5. See https://developers.google.com/maps/documentation/utilities/polylinealgorithm.
package polyline

import (
	"fmt"

	gopolyline "github.com/twpayne/go-polyline"
)

// Coordinate represents a geographic point with latitude and longitude.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Encode encodes coordinates into a polyline string. An empty input yields "".
func Encode(coords []Coordinate) string {
	if len(coords) == 0 {
		return ""
	}
	pairs := make([][]float64, len(coords))
	for i, c := range coords {
		pairs[i] = []float64{c.Lat, c.Lon}
	}
	return string(gopolyline.EncodeCoords(pairs))
}

// Decode decodes a polyline string. An empty string yields nil.
func Decode(encoded string) ([]Coordinate, error) {
	if encoded == "" {
		return nil, nil
	}
	pairs, rest, err := gopolyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("decode polyline: %d trailing bytes", len(rest))
	}
	coords := make([]Coordinate, len(pairs))
	for i, p := range pairs {
		coords[i] = Coordinate{Lat: p[0], Lon: p[1]}
	}
	return coords, nil
}
