package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tokyo := Point{Lat: 35.6812, Lon: 139.7671}

	if d := Distance(tokyo, tokyo); d != 0 {
		t.Errorf("distance to self = %f, want 0", d)
	}

	// One degree of latitude is roughly 111.2 km.
	north := Point{Lat: tokyo.Lat + 1, Lon: tokyo.Lon}
	d := Distance(tokyo, north)
	if math.Abs(d-111195) > 200 {
		t.Errorf("one degree of latitude = %f m, want ~111195", d)
	}

	if back := Distance(north, tokyo); math.Abs(back-d) > 1e-6 {
		t.Errorf("distance not symmetric: %f vs %f", d, back)
	}
}

func TestClampRadius(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{-5, MinRadiusMeters},
		{0, MinRadiusMeters},
		{9.4, MinRadiusMeters},
		{10, 10},
		{523.6, 524},
		{10000, 10000},
		{10000.4, 10000},
		{250000, MaxRadiusMeters},
		{math.Inf(1), MaxRadiusMeters},
		{math.Inf(-1), MinRadiusMeters},
		{math.NaN(), MaxRadiusMeters},
	}
	for _, tt := range tests {
		if got := ClampRadius(tt.in); got != tt.want {
			t.Errorf("ClampRadius(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSearchRadiusCapped(t *testing.T) {
	vp := Viewport{
		Center: Point{Lat: 35, Lon: 139},
		Bounds: Bounds{
			NorthEast: Point{Lat: 36, Lon: 140},
			SouthWest: Point{Lat: 34, Lon: 138},
		},
	}
	if r := SearchRadius(vp); r != MaxRadiusMeters {
		t.Errorf("SearchRadius = %f, want %d", r, MaxRadiusMeters)
	}

	small := Viewport{
		Center: Point{Lat: 35.6812, Lon: 139.7671},
		Bounds: Bounds{NorthEast: Point{Lat: 35.6832, Lon: 139.7691}},
	}
	r := SearchRadius(small)
	if r <= 0 || r >= 1000 {
		t.Errorf("SearchRadius for small viewport = %f, want (0, 1000)", r)
	}
}

func TestPointValid(t *testing.T) {
	if !(Point{Lat: 35, Lon: 139}).Valid() {
		t.Error("expected valid point")
	}
	if (Point{Lat: 91, Lon: 0}).Valid() {
		t.Error("latitude 91 should be invalid")
	}
	if (Point{Lat: 0, Lon: math.NaN()}).Valid() {
		t.Error("NaN longitude should be invalid")
	}
}

func TestOSMEditURL(t *testing.T) {
	got := OSMEditURL(13, Point{Lat: 35.6812, Lon: 139.7671})
	want := "https://www.openstreetmap.org/edit#map=13/35.6812/139.7671"
	if got != want {
		t.Errorf("OSMEditURL = %q, want %q", got, want)
	}
}
