// Package geo holds the coordinate types shared by the map, the search
// client and the server, plus the distance math used to size searches.
package geo

import (
	"fmt"
	"math"
	"net/url"
)

const earthRadiusMeters = 6371000

// Search radius bounds enforced by the wiki geosearch API.
const (
	MinRadiusMeters = 10
	MaxRadiusMeters = 10000
)

// Point is a WGS 84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies inside the WGS 84 coordinate range.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180 &&
		!math.IsNaN(p.Lat) && !math.IsNaN(p.Lon)
}

func (p Point) String() string {
	return fmt.Sprintf("%g|%g", p.Lat, p.Lon)
}

// Bounds is the rectangle visible on the map.
type Bounds struct {
	NorthEast Point `json:"north_east"`
	SouthWest Point `json:"south_west"`
}

// Viewport is the visible map region as reported by the map widget.
type Viewport struct {
	Center Point  `json:"center"`
	Bounds Bounds `json:"bounds"`
	Zoom   int    `json:"zoom"`
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	phi1, phi2 := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	dPhi, dLambda := (b.Lat-a.Lat)*math.Pi/180, (b.Lon-a.Lon)*math.Pi/180
	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) + math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// ClampRadius rounds r to whole meters and forces it into
// [MinRadiusMeters, MaxRadiusMeters]. NaN maps to the maximum.
func ClampRadius(r float64) int {
	if math.IsNaN(r) {
		return MaxRadiusMeters
	}
	r = math.Round(r)
	if r < MinRadiusMeters {
		return MinRadiusMeters
	}
	if r > MaxRadiusMeters {
		return MaxRadiusMeters
	}
	return int(r)
}

// SearchRadius derives the search radius for a viewport: the distance from
// the center to the north-east corner, capped at MaxRadiusMeters.
func SearchRadius(vp Viewport) float64 {
	return math.Min(Distance(vp.Center, vp.Bounds.NorthEast), MaxRadiusMeters)
}

// OSMEditURL links to the OpenStreetMap editor at the given map position.
func OSMEditURL(zoom int, center Point) string {
	u := url.URL{
		Scheme:   "https",
		Host:     "www.openstreetmap.org",
		Path:     "/edit",
		Fragment: fmt.Sprintf("map=%d/%g/%g", zoom, center.Lat, center.Lon),
	}
	return u.String()
}
