// Package sqlite provides a SQLite-backed chart Store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dshills/waymark/internal/chart/store"
	"github.com/dshills/waymark/internal/chart/store/sqlite/migrations"
	"github.com/dshills/waymark/internal/chart/waypoint"
)

// Store persists waypoints and routes in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ store.Store = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite chart store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// AddWaypoint inserts or replaces one waypoint.
func (s *Store) AddWaypoint(ctx context.Context, w *waypoint.Waypoint) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(w.GUID) == "" {
		return fmt.Errorf("waypoint guid is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO waypoints (guid, name, icon, lat, lon, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(guid) DO UPDATE SET
		   name = excluded.name,
		   icon = excluded.icon,
		   lat = excluded.lat,
		   lon = excluded.lon`,
		w.GUID, w.Name, w.Icon, w.Position.Lat, w.Position.Lon, toMillis(w.Created),
	)
	if err != nil {
		return fmt.Errorf("add waypoint %s: %w", w.GUID, err)
	}
	return nil
}

// UpdateWaypoint writes the waypoint's name, icon and position.
func (s *Store) UpdateWaypoint(ctx context.Context, w *waypoint.Waypoint) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE waypoints SET name = ?, icon = ?, lat = ?, lon = ? WHERE guid = ?`,
		w.Name, w.Icon, w.Position.Lat, w.Position.Lon, w.GUID,
	)
	if err != nil {
		return fmt.Errorf("update waypoint %s: %w", w.GUID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update waypoint %s: %w", w.GUID, err)
	}
	if n == 0 {
		return fmt.Errorf("update waypoint %s: %w", w.GUID, store.ErrNotFound)
	}
	return nil
}

// DeleteWaypoint removes one waypoint.
func (s *Store) DeleteWaypoint(ctx context.Context, guid string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM waypoints WHERE guid = ?`, guid); err != nil {
		return fmt.Errorf("delete waypoint %s: %w", guid, err)
	}
	return nil
}

// Waypoints returns every waypoint ordered by creation time.
func (s *Store) Waypoints(ctx context.Context) ([]*waypoint.Waypoint, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT guid, name, icon, lat, lon, created_at FROM waypoints ORDER BY created_at, guid`)
	if err != nil {
		return nil, fmt.Errorf("list waypoints: %w", err)
	}
	defer rows.Close()

	var result []*waypoint.Waypoint
	for rows.Next() {
		var (
			guid, name, icon string
			lat, lon         float64
			created          int64
		)
		if err := rows.Scan(&guid, &name, &icon, &lat, &lon, &created); err != nil {
			return nil, fmt.Errorf("scan waypoint: %w", err)
		}
		result = append(result, waypoint.Restore(guid, name, icon, waypoint.Position{Lat: lat, Lon: lon}, fromMillis(created)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate waypoints: %w", err)
	}
	return result, nil
}

// UpdateRoute inserts or replaces a route and its point list.
func (s *Store) UpdateRoute(ctx context.Context, r store.RouteRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(r.GUID) == "" {
		return fmt.Errorf("route guid is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin route update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO routes (guid, name, min_lat, min_lon, max_lat, max_lon, length_nm)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(guid) DO UPDATE SET
		   name = excluded.name,
		   min_lat = excluded.min_lat,
		   min_lon = excluded.min_lon,
		   max_lat = excluded.max_lat,
		   max_lon = excluded.max_lon,
		   length_nm = excluded.length_nm`,
		r.GUID, r.Name, r.BBox.MinLat, r.BBox.MinLon, r.BBox.MaxLat, r.BBox.MaxLon, r.Length,
	); err != nil {
		return fmt.Errorf("upsert route %s: %w", r.GUID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM route_points WHERE route_guid = ?`, r.GUID); err != nil {
		return fmt.Errorf("clear route points %s: %w", r.GUID, err)
	}
	for i, guid := range r.Points {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO route_points (route_guid, seq, waypoint_guid) VALUES (?, ?, ?)`,
			r.GUID, i, guid,
		); err != nil {
			return fmt.Errorf("insert route point %s/%d: %w", r.GUID, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit route %s: %w", r.GUID, err)
	}
	return nil
}

// Routes returns every route ordered by GUID.
func (s *Store) Routes(ctx context.Context) ([]store.RouteRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT guid, name, min_lat, min_lon, max_lat, max_lon, length_nm FROM routes ORDER BY guid`)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	var result []store.RouteRecord
	for rows.Next() {
		var rec store.RouteRecord
		if err := rows.Scan(&rec.GUID, &rec.Name,
			&rec.BBox.MinLat, &rec.BBox.MinLon, &rec.BBox.MaxLat, &rec.BBox.MaxLon, &rec.Length,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan route: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate routes: %w", err)
	}
	rows.Close()

	for i := range result {
		points, err := s.routePoints(ctx, result[i].GUID)
		if err != nil {
			return nil, err
		}
		result[i].Points = points
	}
	return result, nil
}

func (s *Store) routePoints(ctx context.Context, guid string) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT waypoint_guid FROM route_points WHERE route_guid = ? ORDER BY seq`, guid)
	if err != nil {
		return nil, fmt.Errorf("list route points %s: %w", guid, err)
	}
	defer rows.Close()

	var points []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan route point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate route points %s: %w", guid, err)
	}
	return points, nil
}
