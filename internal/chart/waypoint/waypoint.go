// Package waypoint defines chart waypoints and the managed waypoint list.
package waypoint

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// DefaultIcon is the icon assigned to waypoints created without one.
const DefaultIcon = "circle"

// Position is a geographic position in decimal degrees.
// Position is an immutable value type.
type Position struct {
	Lat float64
	Lon float64
}

// NewPosition creates a position, normalizing the longitude into [-180, 180).
func NewPosition(lat, lon float64) Position {
	return Position{Lat: lat, Lon: normalizeLon(lon)}
}

// IsValid reports whether the latitude and longitude are finite and in range.
func (p Position) IsValid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// String returns the position formatted as "lat,lon".
func (p Position) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

func normalizeLon(lon float64) float64 {
	if lon >= -180 && lon < 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// Waypoint is a positioned point of interest on the chart.
//
// A Waypoint is a live domain object: it is referenced by pointer from the
// managed list, the spatial index, routes and the undo history. Identity is
// pointer identity; GUID is the persisted identity.
type Waypoint struct {
	GUID     string
	Name     string
	Icon     string
	Position Position
	Created  time.Time

	discarded bool
}

// New creates a waypoint with a fresh GUID.
func New(name string, pos Position) *Waypoint {
	return &Waypoint{
		GUID:     uuid.NewString(),
		Name:     name,
		Icon:     DefaultIcon,
		Position: pos,
		Created:  time.Now().UTC(),
	}
}

// Restore recreates a waypoint loaded from storage.
func Restore(guid, name, icon string, pos Position, created time.Time) *Waypoint {
	if icon == "" {
		icon = DefaultIcon
	}
	return &Waypoint{
		GUID:     guid,
		Name:     name,
		Icon:     icon,
		Position: pos,
		Created:  created,
	}
}

// Discard marks the waypoint as permanently released.
// It panics if the waypoint was already discarded.
func (w *Waypoint) Discard() {
	if w.discarded {
		panic(fmt.Sprintf("waypoint %s discarded twice", w.GUID))
	}
	w.discarded = true
}

// Discarded reports whether Discard has been called.
func (w *Waypoint) Discarded() bool {
	return w.discarded
}

// String returns a short human-readable form.
func (w *Waypoint) String() string {
	if w.Name != "" {
		return fmt.Sprintf("%s (%s)", w.Name, w.Position)
	}
	return fmt.Sprintf("%s (%s)", w.GUID, w.Position)
}
