package geo

import (
	"encoding/json"
	"errors"
	"fmt"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"

	"saneamento-dashboard/model"
)

const geohashPrecision = 6

var errNoGeometry = errors.New("feature has no usable geometry")

type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Centroid averages the outer-ring vertices of a Polygon or MultiPolygon on
// the unit sphere. It is only used to lay states out on the tile map, so the
// vertex mean is precise enough.
func (f Feature) Centroid() (model.LatLng, error) {
	if len(f.Geometry) == 0 || string(f.Geometry) == "null" {
		return model.LatLng{}, errNoGeometry
	}
	var g rawGeometry
	if err := json.Unmarshal(f.Geometry, &g); err != nil {
		return model.LatLng{}, fmt.Errorf("decode geometry: %w", err)
	}

	var rings [][][]float64
	switch g.Type {
	case "Polygon":
		var polygon [][][]float64
		if err := json.Unmarshal(g.Coordinates, &polygon); err != nil {
			return model.LatLng{}, fmt.Errorf("decode polygon: %w", err)
		}
		if len(polygon) > 0 {
			rings = append(rings, polygon[0])
		}
	case "MultiPolygon":
		var multi [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &multi); err != nil {
			return model.LatLng{}, fmt.Errorf("decode multipolygon: %w", err)
		}
		for _, polygon := range multi {
			if len(polygon) > 0 {
				rings = append(rings, polygon[0])
			}
		}
	default:
		return model.LatLng{}, fmt.Errorf("unsupported geometry type %q", g.Type)
	}

	var sum r3.Vector
	n := 0
	for _, ring := range rings {
		for i, position := range ring {
			if len(position) < 2 {
				continue
			}
			// GeoJSON rings repeat the first position at the end.
			if i == len(ring)-1 && i > 0 && samePosition(position, ring[0]) {
				continue
			}
			p := s2.PointFromLatLng(s2.LatLngFromDegrees(position[1], position[0]))
			sum = sum.Add(p.Vector)
			n++
		}
	}
	if n == 0 || sum.Norm() == 0 {
		return model.LatLng{}, errNoGeometry
	}

	ll := s2.LatLngFromPoint(s2.Point{Vector: sum.Normalize()})
	return model.LatLng{Lat: ll.Lat.Degrees(), Lng: ll.Lng.Degrees()}, nil
}

// Geohash encodes a centroid truncated to six characters (cells of roughly a
// kilometre).
func Geohash(c model.LatLng) string {
	hash := geohash.Encode(c.Lat, c.Lng)
	if len(hash) > geohashPrecision {
		hash = hash[:geohashPrecision]
	}
	return hash
}

func samePosition(a, b []float64) bool {
	return len(a) >= 2 && len(b) >= 2 && a[0] == b[0] && a[1] == b[1]
}
