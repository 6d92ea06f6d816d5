// Package route defines routes through waypoints and their derived geometry.
package route

import (
	"math"

	"github.com/google/uuid"

	"github.com/dshills/waymark/internal/chart/waypoint"
)

// EarthRadiusNM is the mean earth radius in nautical miles.
const EarthRadiusNM = 3440.065

// BBox is a latitude/longitude bounding box.
type BBox struct {
	MinLat, MinLon float64
	MaxLat, MaxLon float64
}

// IsEmpty reports whether the box was never extended.
func (b BBox) IsEmpty() bool {
	return b.MinLat > b.MaxLat
}

// Contains reports whether pos lies inside the box.
func (b BBox) Contains(pos waypoint.Position) bool {
	return !b.IsEmpty() &&
		pos.Lat >= b.MinLat && pos.Lat <= b.MaxLat &&
		pos.Lon >= b.MinLon && pos.Lon <= b.MaxLon
}

func emptyBBox() BBox {
	return BBox{MinLat: 1, MaxLat: -1}
}

// Route is an ordered sequence of waypoints.
// A waypoint may appear in several routes, and more than once in one route.
type Route struct {
	GUID   string
	Name   string
	Points []*waypoint.Waypoint

	// Derived geometry, refreshed by Recompute.
	BBox   BBox
	Legs   []float64 // great-circle leg lengths in nautical miles
	Length float64   // sum of Legs
}

// New creates a route through the given points and computes its geometry.
func New(name string, points ...*waypoint.Waypoint) *Route {
	r := &Route{
		GUID:   uuid.NewString(),
		Name:   name,
		Points: points,
	}
	r.Recompute()
	return r
}

// Contains reports whether the route references the waypoint.
func (r *Route) Contains(w *waypoint.Waypoint) bool {
	for _, p := range r.Points {
		if p == w {
			return true
		}
	}
	return false
}

// Recompute refreshes the bounding box and the segment distances.
func (r *Route) Recompute() {
	r.CalculateBBox()
	r.UpdateSegmentDistances()
}

// CalculateBBox recomputes the bounding box from the current point positions.
func (r *Route) CalculateBBox() {
	box := emptyBBox()
	for i, p := range r.Points {
		pos := p.Position
		if i == 0 {
			box = BBox{MinLat: pos.Lat, MaxLat: pos.Lat, MinLon: pos.Lon, MaxLon: pos.Lon}
			continue
		}
		box.MinLat = math.Min(box.MinLat, pos.Lat)
		box.MaxLat = math.Max(box.MaxLat, pos.Lat)
		box.MinLon = math.Min(box.MinLon, pos.Lon)
		box.MaxLon = math.Max(box.MaxLon, pos.Lon)
	}
	r.BBox = box
}

// UpdateSegmentDistances recomputes leg lengths and the total length.
func (r *Route) UpdateSegmentDistances() {
	r.Legs = r.Legs[:0]
	r.Length = 0
	for i := 1; i < len(r.Points); i++ {
		d := Distance(r.Points[i-1].Position, r.Points[i].Position)
		r.Legs = append(r.Legs, d)
		r.Length += d
	}
}

// Distance returns the great-circle distance between two positions in
// nautical miles.
func Distance(a, b waypoint.Position) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusNM * math.Asin(math.Min(1, math.Sqrt(h)))
}
