package geo

import (
	"math"
	"testing"
)

func TestCapAngle(t *testing.T) {
	got := CapAngle(6378.137)
	if math.Abs(got-1) > 1e-12 {
		t.Fatalf("one earth radius should be 1 rad, got %v", got)
	}
}

func TestWithinCap(t *testing.T) {
	// Bengaluru MG Road and Indiranagar are roughly 3.7 km apart.
	const (
		lat1, lng1 = 12.9756, 77.6066
		lat2, lng2 = 12.9784, 77.6408
	)
	if !WithinCap(lat1, lng1, 5, lat2, lng2) {
		t.Fatalf("expected point inside a 5 km cap")
	}
	if WithinCap(lat1, lng1, 2, lat2, lng2) {
		t.Fatalf("expected point outside a 2 km cap")
	}
	if !WithinCap(lat1, lng1, 0, lat1, lng1) {
		t.Fatalf("center must lie in a zero-radius cap")
	}
}

func TestBoundingBoxContainsCap(t *testing.T) {
	cLat, cLng, r := 12.97, 77.59, 10.0
	b := BoundingBox(cLat, cLng, r)
	if b.WrapsLng {
		t.Fatalf("did not expect wrap near 77E")
	}
	for bearing := 0.0; bearing < 360; bearing += 15 {
		lat, lng := destination(cLat, cLng, bearing, r*0.999)
		if lat < b.MinLat || lat > b.MaxLat || lng < b.MinLng || lng > b.MaxLng {
			t.Fatalf("bearing %v: point (%v,%v) outside box %+v", bearing, lat, lng, b)
		}
	}
}

func TestBoundingBoxEdges(t *testing.T) {
	polar := BoundingBox(89.9, 0, 50)
	if polar.MinLng != -180 || polar.MaxLng != 180 || polar.MaxLat != 90 {
		t.Fatalf("polar cap should span all longitudes: %+v", polar)
	}

	wrap := BoundingBox(0, 179.99, 10)
	if !wrap.WrapsLng {
		t.Fatalf("expected antimeridian wrap: %+v", wrap)
	}
	if wrap.MinLng < 179 || wrap.MaxLng > -179 {
		t.Fatalf("unexpected wrapped range: %+v", wrap)
	}
}

func TestAngleMatchesHaversine(t *testing.T) {
	pts := [][4]float64{
		{12.9756, 77.6066, 12.9784, 77.6408},
		{-33.86, 151.21, 51.5, -0.12},
		{0, 179.99, 0, -179.99},
	}
	for _, p := range pts {
		got := Angle(p[0], p[1], p[2], p[3])
		want := haversine(p[0], p[1], p[2], p[3])
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("%v: got %v want %v", p, got, want)
		}
	}
}

func TestWithinCapAcrossAntimeridian(t *testing.T) {
	if !WithinCap(0, 179.99, 10, 0, -179.99) {
		t.Fatalf("points 2.2 km apart across 180 should be within 10 km")
	}
	b := BoundingBox(0, 179.99, 10)
	if !b.WrapsLng || !(-179.99 >= b.MinLng || -179.99 <= b.MaxLng) {
		t.Fatalf("wrapped box must cover the far side: %+v", b)
	}
}

func TestValidPoint(t *testing.T) {
	if !ValidPoint(12.97, 77.59) {
		t.Fatalf("expected valid")
	}
	if ValidPoint(91, 0) || ValidPoint(0, -181) || ValidPoint(math.NaN(), 0) {
		t.Fatalf("expected invalid")
	}
}

func destination(lat, lng, bearingDeg, km float64) (float64, float64) {
	ang := CapAngle(km)
	p1, l1, th := rad(lat), rad(lng), rad(bearingDeg)
	p2 := math.Asin(math.Sin(p1)*math.Cos(ang) + math.Cos(p1)*math.Sin(ang)*math.Cos(th))
	l2 := l1 + math.Atan2(math.Sin(th)*math.Sin(ang)*math.Cos(p1), math.Cos(ang)-math.Sin(p1)*math.Sin(p2))
	return deg(p2), deg(l2)
}

func haversine(lat1, lng1, lat2, lng2 float64) float64 {
	p1, p2 := rad(lat1), rad(lat2)
	dp, dl := p2-p1, rad(lng2-lng1)
	h := math.Sin(dp/2)*math.Sin(dp/2) + math.Cos(p1)*math.Cos(p2)*math.Sin(dl/2)*math.Sin(dl/2)
	return 2 * math.Asin(math.Min(1, math.Sqrt(h)))
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }
