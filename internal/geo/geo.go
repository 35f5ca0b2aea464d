// Package geo holds the spatial helpers shared by the store, the query engine
// and the geocode cache: great-circle distance, bounding boxes for range-index
// pruning and cache-key rounding.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometres between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	φ1 := radians(lat1)
	φ2 := radians(lat2)
	dφ := radians(lat2 - lat1)
	dλ := radians(lon2 - lon1)

	a := math.Sin(dφ/2)*math.Sin(dφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(dλ/2)*math.Sin(dλ/2)
	if a > 1 {
		a = 1
	}
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// BoundingBox is an inclusive lat/lon rectangle.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains reports whether the point lies inside the box.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// BoundingBoxAround returns a box guaranteed to contain every point within
// radiusKm of the center. Near the poles or across the antimeridian the
// longitude range widens to the full [-180, 180].
func BoundingBoxAround(lat, lon, radiusKm float64) BoundingBox {
	// Small pad so points exactly on the circle survive float error.
	dLat := radiusKm/EarthRadiusKm*180/math.Pi + 1e-9

	box := BoundingBox{
		MinLat: math.Max(lat-dLat, -90),
		MaxLat: math.Min(lat+dLat, 90),
		MinLon: -180,
		MaxLon: 180,
	}
	if box.MinLat <= -90 || box.MaxLat >= 90 {
		return box
	}

	// Widest longitude span is at the latitude edge closest to a pole.
	edge := math.Max(math.Abs(box.MinLat), math.Abs(box.MaxLat))
	cosEdge := math.Cos(radians(edge))
	if cosEdge <= 0 {
		return box
	}
	dLon := dLat / cosEdge
	if lon-dLon < -180 || lon+dLon > 180 {
		return box
	}
	box.MinLon = lon - dLon
	box.MaxLon = lon + dLon
	return box
}

// Round4 rounds a coordinate to 4 decimal places (~11 m).
func Round4(v float64) float64 {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

// CacheKey builds the geocode cache key "lat:lon" with both parts rounded to 4
// decimal places, so nearby requests share one entry.
func CacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f:%.4f", Round4(lat), Round4(lon))
}

// ValidCoordinate reports whether lat/lon are finite and inside WGS84 bounds.
func ValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
