// Package store defines persistence for waypoints and routes.
package store

import (
	"context"
	"errors"

	"github.com/dshills/waymark/internal/chart/route"
	"github.com/dshills/waymark/internal/chart/waypoint"
)

// Common errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrClosed        = errors.New("store is closed")
)

// RouteRecord is the persisted form of a route.
type RouteRecord struct {
	GUID   string
	Name   string
	Points []string // waypoint GUIDs in order
	BBox   route.BBox
	Length float64
}

// NewRouteRecord converts a route to its persisted form.
func NewRouteRecord(r *route.Route) RouteRecord {
	rec := RouteRecord{
		GUID:   r.GUID,
		Name:   r.Name,
		BBox:   r.BBox,
		Length: r.Length,
	}
	for _, p := range r.Points {
		rec.Points = append(rec.Points, p.GUID)
	}
	return rec
}

// Store persists waypoints and routes.
type Store interface {
	// AddWaypoint inserts a waypoint. Adding an existing GUID replaces it.
	AddWaypoint(ctx context.Context, w *waypoint.Waypoint) error

	// UpdateWaypoint writes a waypoint's current fields. Unknown GUIDs
	// return ErrNotFound.
	UpdateWaypoint(ctx context.Context, w *waypoint.Waypoint) error

	// DeleteWaypoint removes a waypoint by GUID. Missing GUIDs are not an error.
	DeleteWaypoint(ctx context.Context, guid string) error

	// Waypoints returns every stored waypoint.
	Waypoints(ctx context.Context) ([]*waypoint.Waypoint, error)

	// UpdateRoute inserts or replaces a route.
	UpdateRoute(ctx context.Context, r RouteRecord) error

	// Routes returns every stored route.
	Routes(ctx context.Context) ([]RouteRecord, error)

	// Close releases resources.
	Close() error
}

// Resolve rebuilds routes from their records using the given waypoints.
// Points whose GUID is unknown are skipped.
func Resolve(records []RouteRecord, points []*waypoint.Waypoint) []*route.Route {
	byGUID := make(map[string]*waypoint.Waypoint, len(points))
	for _, p := range points {
		byGUID[p.GUID] = p
	}

	routes := make([]*route.Route, 0, len(records))
	for _, rec := range records {
		r := &route.Route{GUID: rec.GUID, Name: rec.Name}
		for _, guid := range rec.Points {
			if p, ok := byGUID[guid]; ok {
				r.Points = append(r.Points, p)
			}
		}
		r.Recompute()
		routes = append(routes, r)
	}
	return routes
}
