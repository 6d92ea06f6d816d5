// Package storetest holds conformance tests shared by every Store backend.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dshills/waymark/internal/chart/route"
	"github.com/dshills/waymark/internal/chart/store"
	"github.com/dshills/waymark/internal/chart/waypoint"
)

// Opener creates a store for one test. Reopen, when non-nil, opens a second
// handle on the same backing data after the first is closed.
type Opener struct {
	Open   func(t *testing.T) store.Store
	Reopen func(t *testing.T) store.Store
}

var base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func point(guid, name string, lat, lon float64, offset time.Duration) *waypoint.Waypoint {
	return waypoint.Restore(guid, name, "", waypoint.Position{Lat: lat, Lon: lon}, base.Add(offset))
}

// Run exercises the Store contract.
func Run(t *testing.T, o Opener) {
	t.Run("AddAndList", func(t *testing.T) { testAddAndList(t, o) })
	t.Run("AddReplaces", func(t *testing.T) { testAddReplaces(t, o) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, o) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, o) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, o) })
	t.Run("Routes", func(t *testing.T) { testRoutes(t, o) })
	t.Run("CanceledContext", func(t *testing.T) { testCanceled(t, o) })
	if o.Reopen != nil {
		t.Run("Reopen", func(t *testing.T) { testReopen(t, o) })
	}
}

func testAddAndList(t *testing.T, o Opener) {
	ctx := context.Background()
	s := o.Open(t)
	defer s.Close()

	b := point("b", "Bravo", 59.5, 10.5, time.Minute)
	a := point("a", "Alpha", 59.0, 10.0, 0)
	for _, w := range []*waypoint.Waypoint{b, a} {
		if err := s.AddWaypoint(ctx, w); err != nil {
			t.Fatalf("AddWaypoint(%s): %v", w.GUID, err)
		}
	}

	got, err := s.Waypoints(ctx)
	if err != nil {
		t.Fatalf("Waypoints: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].GUID != "a" || got[1].GUID != "b" {
		t.Errorf("order = %s,%s, want a,b", got[0].GUID, got[1].GUID)
	}
	if got[0].Name != "Alpha" || got[0].Position != a.Position {
		t.Errorf("got %+v, want name Alpha at %s", got[0], a.Position)
	}
	if got[0].Icon != waypoint.DefaultIcon {
		t.Errorf("Icon = %q, want %q", got[0].Icon, waypoint.DefaultIcon)
	}
	if !got[0].Created.Equal(a.Created) {
		t.Errorf("Created = %v, want %v", got[0].Created, a.Created)
	}
	if got[0] == a {
		t.Error("Waypoints returned the stored pointer, want a fresh copy")
	}
}

func testAddReplaces(t *testing.T, o Opener) {
	ctx := context.Background()
	s := o.Open(t)
	defer s.Close()

	w := point("a", "Alpha", 1, 2, 0)
	if err := s.AddWaypoint(ctx, w); err != nil {
		t.Fatal(err)
	}
	w.Name = "Alpha 2"
	if err := s.AddWaypoint(ctx, w); err != nil {
		t.Fatal(err)
	}
	got, err := s.Waypoints(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Alpha 2" {
		t.Errorf("got %v, want one waypoint named Alpha 2", got)
	}
}

func testUpdate(t *testing.T, o Opener) {
	ctx := context.Background()
	s := o.Open(t)
	defer s.Close()

	w := point("a", "Alpha", 1, 2, 0)
	if err := s.AddWaypoint(ctx, w); err != nil {
		t.Fatal(err)
	}
	w.Position = waypoint.Position{Lat: 3, Lon: 4}
	if err := s.UpdateWaypoint(ctx, w); err != nil {
		t.Fatalf("UpdateWaypoint: %v", err)
	}
	got, err := s.Waypoints(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Position != w.Position {
		t.Errorf("Position = %s, want %s", got[0].Position, w.Position)
	}
}

func testUpdateMissing(t *testing.T, o Opener) {
	s := o.Open(t)
	defer s.Close()

	err := s.UpdateWaypoint(context.Background(), point("ghost", "", 0, 0, 0))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateWaypoint(missing) = %v, want ErrNotFound", err)
	}
}

func testDelete(t *testing.T, o Opener) {
	ctx := context.Background()
	s := o.Open(t)
	defer s.Close()

	if err := s.AddWaypoint(ctx, point("a", "", 0, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteWaypoint(ctx, "a"); err != nil {
		t.Fatalf("DeleteWaypoint: %v", err)
	}
	if err := s.DeleteWaypoint(ctx, "a"); err != nil {
		t.Errorf("DeleteWaypoint(missing) = %v, want nil", err)
	}
	got, err := s.Waypoints(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func testRoutes(t *testing.T, o Opener) {
	ctx := context.Background()
	s := o.Open(t)
	defer s.Close()

	a := point("a", "", 59, 10, 0)
	b := point("b", "", 60, 11, time.Second)
	for _, w := range []*waypoint.Waypoint{a, b} {
		if err := s.AddWaypoint(ctx, w); err != nil {
			t.Fatal(err)
		}
	}
	r := route.New("Passage", a, b)
	r.GUID = "r1"
	if err := s.UpdateRoute(ctx, store.NewRouteRecord(r)); err != nil {
		t.Fatalf("UpdateRoute: %v", err)
	}

	r.Points = []*waypoint.Waypoint{b, a, b}
	r.Recompute()
	if err := s.UpdateRoute(ctx, store.NewRouteRecord(r)); err != nil {
		t.Fatalf("UpdateRoute(again): %v", err)
	}

	got, err := s.Routes(ctx)
	if err != nil {
		t.Fatalf("Routes: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	rec := got[0]
	if rec.Name != "Passage" {
		t.Errorf("Name = %q, want Passage", rec.Name)
	}
	want := []string{"b", "a", "b"}
	if len(rec.Points) != len(want) {
		t.Fatalf("Points = %v, want %v", rec.Points, want)
	}
	for i := range want {
		if rec.Points[i] != want[i] {
			t.Errorf("Points[%d] = %s, want %s", i, rec.Points[i], want[i])
		}
	}
	if rec.BBox != r.BBox {
		t.Errorf("BBox = %+v, want %+v", rec.BBox, r.BBox)
	}
	if diff := rec.Length - r.Length; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Length = %v, want %v", rec.Length, r.Length)
	}

	resolved := store.Resolve(got, []*waypoint.Waypoint{a, b})
	if len(resolved) != 1 || len(resolved[0].Points) != 3 {
		t.Errorf("Resolve = %v, want one route of three points", resolved)
	}
}

func testCanceled(t *testing.T, o Opener) {
	s := o.Open(t)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.AddWaypoint(ctx, point("a", "", 0, 0, 0)); !errors.Is(err, context.Canceled) {
		t.Errorf("AddWaypoint(canceled) = %v, want context.Canceled", err)
	}
	if _, err := s.Waypoints(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Waypoints(canceled) = %v, want context.Canceled", err)
	}
}

func testReopen(t *testing.T, o Opener) {
	ctx := context.Background()
	s := o.Open(t)

	a := point("a", "Alpha", 59, 10, 0)
	if err := s.AddWaypoint(ctx, a); err != nil {
		t.Fatal(err)
	}
	r := route.New("Leg", a)
	r.GUID = "r1"
	if err := s.UpdateRoute(ctx, store.NewRouteRecord(r)); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2 := o.Reopen(t)
	defer s2.Close()
	wps, err := s2.Waypoints(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(wps) != 1 || wps[0].Name != "Alpha" || wps[0].Position != a.Position {
		t.Errorf("Waypoints after reopen = %v", wps)
	}
	routes, err := s2.Routes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(routes) != 1 || routes[0].GUID != "r1" || len(routes[0].Points) != 1 {
		t.Errorf("Routes after reopen = %+v", routes)
	}
}
