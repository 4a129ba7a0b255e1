// Package geo implements spherical-cap ("within radius of a point") math
// used by the nearby issue search.
package geo

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the equatorial radius used to turn distances into angles.
const EarthRadiusMeters = 6378137.0

// CapAngle converts a radius in kilometers into the cap's angular radius in radians.
func CapAngle(radiusKm float64) float64 {
	return radiusKm * 1000 / EarthRadiusMeters
}

// Box is a lat/lng bounding box in degrees. A cap covering a pole spans
// every longitude; one crossing the antimeridian has MinLng > MaxLng and
// WrapsLng set.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
	WrapsLng       bool
}

// Cap returns the spherical cap of radiusKm around (lat, lng).
func Cap(lat, lng, radiusKm float64) s2.Cap {
	return s2.CapFromCenterAngle(point(lat, lng), s1.Angle(CapAngle(radiusKm))*s1.Radian)
}

// BoundingBox returns a box that contains every point of the cap around (lat, lng).
func BoundingBox(lat, lng, radiusKm float64) Box {
	r := Cap(lat, lng, radiusKm).RectBound()

	b := Box{
		MinLat: clamp(r.Lo().Lat.Degrees(), -90, 90),
		MaxLat: clamp(r.Hi().Lat.Degrees(), -90, 90),
	}
	if r.Lng.IsFull() {
		b.MinLng, b.MaxLng = -180, 180
		return b
	}
	b.MinLng = clamp(r.Lo().Lng.Degrees(), -180, 180)
	b.MaxLng = clamp(r.Hi().Lng.Degrees(), -180, 180)
	b.WrapsLng = r.Lng.IsInverted()
	return b
}

// Angle returns the great-circle central angle between two points, in radians.
func Angle(lat1, lng1, lat2, lng2 float64) float64 {
	return point(lat1, lng1).Distance(point(lat2, lng2)).Radians()
}

// WithinCap reports whether (lat, lng) lies in the cap of radiusKm around (cLat, cLng).
func WithinCap(cLat, cLng, radiusKm, lat, lng float64) bool {
	return Cap(cLat, cLng, radiusKm).ContainsPoint(point(lat, lng))
}

// ValidPoint reports whether lat/lng are finite and in range.
func ValidPoint(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func point(lat, lng float64) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lng))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
