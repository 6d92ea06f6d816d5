// Package spatial provides a grid-bucketed spatial index for looking up
// waypoints near a position.
//
// Each indexed waypoint owns exactly one live Entry. Entries handed out by
// Insert stay valid as handles after the waypoint is removed and re-inserted:
// Update on a stale entry is redirected to the waypoint's live entry.
package spatial

import (
	"math"
	"sort"

	"github.com/dshills/waymark/internal/chart/waypoint"
)

// DefaultCellSize is the default grid cell edge in degrees.
const DefaultCellSize = 0.25

// Entry is a selectable point in the index.
type Entry struct {
	Lat      float64
	Lon      float64
	Waypoint *waypoint.Waypoint

	cell cellKey
	live bool
}

// Position returns the entry's indexed position.
func (e *Entry) Position() waypoint.Position {
	return waypoint.Position{Lat: e.Lat, Lon: e.Lon}
}

// Live reports whether the entry is currently in an index.
func (e *Entry) Live() bool {
	return e.live
}

type cellKey struct {
	row, col int
}

// Index maps grid cells to the entries located in them.
// Index is not safe for concurrent use.
type Index struct {
	cellSize float64
	cells    map[cellKey][]*Entry
	byPoint  map[*waypoint.Waypoint]*Entry
}

// Option configures an Index.
type Option func(*Index)

// WithCellSize sets the grid cell edge in degrees.
func WithCellSize(deg float64) Option {
	return func(ix *Index) {
		if deg > 0 {
			ix.cellSize = deg
		}
	}
}

// New creates an empty index.
func New(opts ...Option) *Index {
	ix := &Index{
		cellSize: DefaultCellSize,
		cells:    make(map[cellKey][]*Entry),
		byPoint:  make(map[*waypoint.Waypoint]*Entry),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

func (ix *Index) keyFor(lat, lon float64) cellKey {
	return cellKey{
		row: int(math.Floor(lat / ix.cellSize)),
		col: int(math.Floor(lon / ix.cellSize)),
	}
}

// Insert adds a waypoint at the given position and returns its entry.
// Inserting an already indexed waypoint moves its existing entry.
func (ix *Index) Insert(pos waypoint.Position, w *waypoint.Waypoint) *Entry {
	if e, ok := ix.byPoint[w]; ok {
		ix.relocate(e, pos)
		return e
	}

	e := &Entry{Lat: pos.Lat, Lon: pos.Lon, Waypoint: w, live: true}
	e.cell = ix.keyFor(pos.Lat, pos.Lon)
	ix.cells[e.cell] = append(ix.cells[e.cell], e)
	ix.byPoint[w] = e
	return e
}

// Remove removes the waypoint's entry. Returns false if it was not indexed.
func (ix *Index) Remove(w *waypoint.Waypoint) bool {
	e, ok := ix.byPoint[w]
	if !ok {
		return false
	}
	ix.unlink(e)
	delete(ix.byPoint, w)
	e.live = false
	return true
}

// Update moves an entry to a new position.
//
// A stale entry (one whose waypoint was removed and re-inserted) is
// redirected to the waypoint's live entry. An entry whose waypoint is not
// indexed only has its coordinates updated.
func (ix *Index) Update(e *Entry, pos waypoint.Position) {
	if e == nil {
		return
	}
	if live, ok := ix.byPoint[e.Waypoint]; ok {
		if live != e {
			e.Lat, e.Lon = pos.Lat, pos.Lon
		}
		ix.relocate(live, pos)
		return
	}
	e.Lat, e.Lon = pos.Lat, pos.Lon
}

func (ix *Index) relocate(e *Entry, pos waypoint.Position) {
	key := ix.keyFor(pos.Lat, pos.Lon)
	if key != e.cell {
		ix.unlink(e)
		e.cell = key
		ix.cells[key] = append(ix.cells[key], e)
	}
	e.Lat, e.Lon = pos.Lat, pos.Lon
}

func (ix *Index) unlink(e *Entry) {
	bucket := ix.cells[e.cell]
	for i, item := range bucket {
		if item == e {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(ix.cells, e.cell)
		return
	}
	ix.cells[e.cell] = bucket
}

// Lookup returns the live entry for a waypoint.
func (ix *Index) Lookup(w *waypoint.Waypoint) (*Entry, bool) {
	e, ok := ix.byPoint[w]
	return e, ok
}

// Has reports whether the waypoint is indexed.
func (ix *Index) Has(w *waypoint.Waypoint) bool {
	_, ok := ix.byPoint[w]
	return ok
}

// Count returns the number of indexed entries.
func (ix *Index) Count() int {
	return len(ix.byPoint)
}

// Near returns entries within radius degrees of pos, nearest first.
func (ix *Index) Near(pos waypoint.Position, radius float64) []*Entry {
	if radius < 0 {
		return nil
	}
	minKey := ix.keyFor(pos.Lat-radius, pos.Lon-radius)
	maxKey := ix.keyFor(pos.Lat+radius, pos.Lon+radius)

	type hit struct {
		e    *Entry
		dist float64
	}
	var hits []hit
	for row := minKey.row; row <= maxKey.row; row++ {
		for col := minKey.col; col <= maxKey.col; col++ {
			for _, e := range ix.cells[cellKey{row, col}] {
				d := math.Hypot(e.Lat-pos.Lat, e.Lon-pos.Lon)
				if d <= radius {
					hits = append(hits, hit{e, d})
				}
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	result := make([]*Entry, len(hits))
	for i, h := range hits {
		result[i] = h.e
	}
	return result
}

// Clear removes all entries.
func (ix *Index) Clear() {
	for _, e := range ix.byPoint {
		e.live = false
	}
	ix.cells = make(map[cellKey][]*Entry)
	ix.byPoint = make(map[*waypoint.Waypoint]*Entry)
}
