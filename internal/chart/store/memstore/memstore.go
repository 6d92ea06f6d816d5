// Package memstore provides an in-memory Store.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/waymark/internal/chart/store"
	"github.com/dshills/waymark/internal/chart/waypoint"
)

// Store keeps waypoints and routes in memory.
type Store struct {
	mu        sync.Mutex
	waypoints map[string]waypoint.Waypoint
	routes    map[string]store.RouteRecord
	closed    bool
}

// New creates an empty store.
func New() *Store {
	return &Store{
		waypoints: make(map[string]waypoint.Waypoint),
		routes:    make(map[string]store.RouteRecord),
	}
}

var _ store.Store = (*Store)(nil)

// AddWaypoint inserts or replaces a waypoint.
func (s *Store) AddWaypoint(ctx context.Context, w *waypoint.Waypoint) error {
	return s.put(ctx, w, false)
}

// UpdateWaypoint writes an existing waypoint.
func (s *Store) UpdateWaypoint(ctx context.Context, w *waypoint.Waypoint) error {
	return s.put(ctx, w, true)
}

func (s *Store) put(ctx context.Context, w *waypoint.Waypoint, mustExist bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	if mustExist {
		if _, ok := s.waypoints[w.GUID]; !ok {
			return fmt.Errorf("update waypoint %s: %w", w.GUID, store.ErrNotFound)
		}
	}
	s.waypoints[w.GUID] = *w
	return nil
}

// DeleteWaypoint removes a waypoint.
func (s *Store) DeleteWaypoint(ctx context.Context, guid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	delete(s.waypoints, guid)
	return nil
}

// Waypoint returns a copy of one stored waypoint.
func (s *Store) Waypoint(guid string) (waypoint.Waypoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.waypoints[guid]
	return w, ok
}

// Waypoints returns copies of every stored waypoint, ordered by creation time.
func (s *Store) Waypoints(ctx context.Context) ([]*waypoint.Waypoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	result := make([]*waypoint.Waypoint, 0, len(s.waypoints))
	for _, w := range s.waypoints {
		result = append(result, waypoint.Restore(w.GUID, w.Name, w.Icon, w.Position, w.Created))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Created.Equal(result[j].Created) {
			return result[i].GUID < result[j].GUID
		}
		return result[i].Created.Before(result[j].Created)
	})
	return result, nil
}

// UpdateRoute inserts or replaces a route.
func (s *Store) UpdateRoute(ctx context.Context, r store.RouteRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	r.Points = append([]string(nil), r.Points...)
	s.routes[r.GUID] = r
	return nil
}

// Routes returns every stored route, ordered by GUID.
func (s *Store) Routes(ctx context.Context) ([]store.RouteRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	result := make([]store.RouteRecord, 0, len(s.routes))
	for _, r := range s.routes {
		r.Points = append([]string(nil), r.Points...)
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].GUID < result[j].GUID })
	return result, nil
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
