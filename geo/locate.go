package geo

import (
	"github.com/golang/geo/s2"

	"saneamento-dashboard/model"
)

const earthRadiusKm = 6371.0

// DistanceKm is the great-circle distance between two positions.
func DistanceKm(a, b model.LatLng) float64 {
	angle := s2.LatLngFromDegrees(a.Lat, a.Lng).Distance(s2.LatLngFromDegrees(b.Lat, b.Lng))
	return angle.Radians() * earthRadiusKm
}

// ClosestFeature returns the feature whose centroid is nearest to p.
// Features without a centroid are skipped; ties keep the earlier feature.
func ClosestFeature(features []model.GeoFeature, p model.LatLng) (model.GeoFeature, bool) {
	var (
		best     model.GeoFeature
		bestDist = -1.0
	)
	for _, f := range features {
		if f.Centroid == nil {
			continue
		}
		d := DistanceKm(*f.Centroid, p)
		if bestDist < 0 || d < bestDist {
			best, bestDist = f, d
		}
	}
	return best, bestDist >= 0
}
