// Package yamlfile stores waypoints and routes in a single YAML document.
//
// Every mutation rewrites the whole file through a temporary sibling and a
// rename, so a crash never leaves a half-written document behind.
package yamlfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/waymark/internal/chart/route"
	"github.com/dshills/waymark/internal/chart/store"
	"github.com/dshills/waymark/internal/chart/waypoint"
)

// FormatVersion is written to the document header.
const FormatVersion = 1

type document struct {
	Version   int             `yaml:"version"`
	Waypoints []waypointEntry `yaml:"waypoints"`
	Routes    []routeEntry    `yaml:"routes"`
}

type waypointEntry struct {
	GUID    string    `yaml:"guid"`
	Name    string    `yaml:"name,omitempty"`
	Icon    string    `yaml:"icon,omitempty"`
	Lat     float64   `yaml:"lat"`
	Lon     float64   `yaml:"lon"`
	Created time.Time `yaml:"created"`
}

type routeEntry struct {
	GUID   string   `yaml:"guid"`
	Name   string   `yaml:"name,omitempty"`
	Points []string `yaml:"points"`
	MinLat float64  `yaml:"min_lat"`
	MinLon float64  `yaml:"min_lon"`
	MaxLat float64  `yaml:"max_lat"`
	MaxLon float64  `yaml:"max_lon"`
	Length float64  `yaml:"length_nm"`
}

// Store is a file-backed chart store.
type Store struct {
	mu        sync.Mutex
	path      string
	waypoints map[string]waypointEntry
	routes    map[string]routeEntry
	closed    bool
}

var _ store.Store = (*Store)(nil)

// Open loads path, or starts empty when the file does not exist yet.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	s := &Store{
		path:      filepath.Clean(path),
		waypoints: make(map[string]waypointEntry),
		routes:    make(map[string]routeEntry),
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if doc.Version > FormatVersion {
		return nil, fmt.Errorf("parse %s: unsupported version %d", s.path, doc.Version)
	}
	for _, w := range doc.Waypoints {
		if w.GUID == "" {
			return nil, fmt.Errorf("parse %s: waypoint without guid", s.path)
		}
		s.waypoints[w.GUID] = w
	}
	for _, r := range doc.Routes {
		if r.GUID == "" {
			return nil, fmt.Errorf("parse %s: route without guid", s.path)
		}
		s.routes[r.GUID] = r
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return store.ErrClosed
	}
	return nil
}

// AddWaypoint inserts or replaces a waypoint.
func (s *Store) AddWaypoint(ctx context.Context, w *waypoint.Waypoint) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	prev, had := s.waypoints[w.GUID]
	s.waypoints[w.GUID] = toEntry(w)
	if err := s.flush(); err != nil {
		if had {
			s.waypoints[w.GUID] = prev
		} else {
			delete(s.waypoints, w.GUID)
		}
		return err
	}
	return nil
}

// UpdateWaypoint rewrites an existing waypoint.
func (s *Store) UpdateWaypoint(ctx context.Context, w *waypoint.Waypoint) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	prev, had := s.waypoints[w.GUID]
	if !had {
		return fmt.Errorf("update waypoint %s: %w", w.GUID, store.ErrNotFound)
	}
	s.waypoints[w.GUID] = toEntry(w)
	if err := s.flush(); err != nil {
		s.waypoints[w.GUID] = prev
		return err
	}
	return nil
}

// DeleteWaypoint removes a waypoint.
func (s *Store) DeleteWaypoint(ctx context.Context, guid string) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	prev, had := s.waypoints[guid]
	if !had {
		return nil
	}
	delete(s.waypoints, guid)
	if err := s.flush(); err != nil {
		s.waypoints[guid] = prev
		return err
	}
	return nil
}

// Waypoints returns every waypoint ordered by creation time.
func (s *Store) Waypoints(ctx context.Context) ([]*waypoint.Waypoint, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	entries := s.sortedWaypoints()
	result := make([]*waypoint.Waypoint, 0, len(entries))
	for _, e := range entries {
		result = append(result, waypoint.Restore(e.GUID, e.Name, e.Icon,
			waypoint.Position{Lat: e.Lat, Lon: e.Lon}, e.Created))
	}
	return result, nil
}

// UpdateRoute inserts or replaces a route.
func (s *Store) UpdateRoute(ctx context.Context, r store.RouteRecord) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	prev, had := s.routes[r.GUID]
	s.routes[r.GUID] = routeEntry{
		GUID:   r.GUID,
		Name:   r.Name,
		Points: append([]string(nil), r.Points...),
		MinLat: r.BBox.MinLat,
		MinLon: r.BBox.MinLon,
		MaxLat: r.BBox.MaxLat,
		MaxLon: r.BBox.MaxLon,
		Length: r.Length,
	}
	if err := s.flush(); err != nil {
		if had {
			s.routes[r.GUID] = prev
		} else {
			delete(s.routes, r.GUID)
		}
		return err
	}
	return nil
}

// Routes returns every route ordered by GUID.
func (s *Store) Routes(ctx context.Context) ([]store.RouteRecord, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	entries := s.sortedRoutes()
	result := make([]store.RouteRecord, 0, len(entries))
	for _, e := range entries {
		result = append(result, store.RouteRecord{
			GUID:   e.GUID,
			Name:   e.Name,
			Points: append([]string(nil), e.Points...),
			BBox:   route.BBox{MinLat: e.MinLat, MinLon: e.MinLon, MaxLat: e.MaxLat, MaxLon: e.MaxLon},
			Length: e.Length,
		})
	}
	return result, nil
}

// Close marks the store closed. The file is already current.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func toEntry(w *waypoint.Waypoint) waypointEntry {
	return waypointEntry{
		GUID:    w.GUID,
		Name:    w.Name,
		Icon:    w.Icon,
		Lat:     w.Position.Lat,
		Lon:     w.Position.Lon,
		Created: w.Created.UTC(),
	}
}

func (s *Store) sortedWaypoints() []waypointEntry {
	entries := make([]waypointEntry, 0, len(s.waypoints))
	for _, e := range s.waypoints {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Created.Equal(entries[j].Created) {
			return entries[i].GUID < entries[j].GUID
		}
		return entries[i].Created.Before(entries[j].Created)
	})
	return entries
}

func (s *Store) sortedRoutes() []routeEntry {
	entries := make([]routeEntry, 0, len(s.routes))
	for _, e := range s.routes {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].GUID < entries[j].GUID })
	return entries
}

// flush writes the document atomically. Callers hold s.mu.
func (s *Store) flush() error {
	doc := document{
		Version:   FormatVersion,
		Waypoints: s.sortedWaypoints(),
		Routes:    s.sortedRoutes(),
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}
