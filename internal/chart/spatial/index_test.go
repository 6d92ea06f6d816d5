package spatial

import (
	"testing"

	"github.com/dshills/waymark/internal/chart/waypoint"
)

func TestInsertAndNear(t *testing.T) {
	ix := New(WithCellSize(1))
	a := waypoint.New("a", waypoint.Position{Lat: 10, Lon: 10})
	b := waypoint.New("b", waypoint.Position{Lat: 10.5, Lon: 10.5})
	c := waypoint.New("c", waypoint.Position{Lat: 40, Lon: 40})

	ix.Insert(a.Position, a)
	ix.Insert(b.Position, b)
	ix.Insert(c.Position, c)

	if ix.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", ix.Count())
	}

	hits := ix.Near(waypoint.Position{Lat: 10.1, Lon: 10.1}, 1)
	if len(hits) != 2 {
		t.Fatalf("Near() returned %d entries, want 2", len(hits))
	}
	if hits[0].Waypoint != a || hits[1].Waypoint != b {
		t.Error("Near() should order nearest first")
	}
}

func TestInsertExistingMovesEntry(t *testing.T) {
	ix := New()
	a := waypoint.New("a", waypoint.Position{})
	e1 := ix.Insert(waypoint.Position{}, a)
	e2 := ix.Insert(waypoint.Position{Lat: 5, Lon: 5}, a)
	if e1 != e2 {
		t.Error("re-insert should reuse the live entry")
	}
	if ix.Count() != 1 {
		t.Errorf("Count() = %d, want 1", ix.Count())
	}
	if len(ix.Near(waypoint.Position{}, 0.1)) != 0 {
		t.Error("entry should have left its old cell")
	}
}

func TestRemove(t *testing.T) {
	ix := New()
	a := waypoint.New("a", waypoint.Position{})
	e := ix.Insert(a.Position, a)

	if !ix.Remove(a) {
		t.Fatal("Remove should succeed")
	}
	if ix.Remove(a) {
		t.Error("second Remove should fail")
	}
	if e.Live() {
		t.Error("removed entry should not be live")
	}
	if ix.Has(a) || len(ix.Near(waypoint.Position{}, 1)) != 0 {
		t.Error("waypoint should be gone")
	}
}

func TestUpdateRedirectsStaleEntry(t *testing.T) {
	ix := New(WithCellSize(1))
	a := waypoint.New("a", waypoint.Position{})
	stale := ix.Insert(a.Position, a)
	ix.Remove(a)
	live := ix.Insert(a.Position, a)

	target := waypoint.Position{Lat: 3, Lon: 3}
	ix.Update(stale, target)

	if live.Position() != target {
		t.Errorf("live entry at %v, want %v", live.Position(), target)
	}
	if stale.Position() != target {
		t.Errorf("stale entry at %v, want %v", stale.Position(), target)
	}
	hits := ix.Near(target, 0.01)
	if len(hits) != 1 || hits[0] != live {
		t.Error("live entry should be found at the new position")
	}
}

func TestUpdateDetachedEntry(t *testing.T) {
	ix := New()
	a := waypoint.New("a", waypoint.Position{})
	e := ix.Insert(a.Position, a)
	ix.Remove(a)

	ix.Update(e, waypoint.Position{Lat: 1, Lon: 1})
	if e.Lat != 1 || e.Lon != 1 {
		t.Error("detached entry coordinates should follow Update")
	}
	if ix.Count() != 0 {
		t.Error("Update must not re-index a detached waypoint")
	}
}

func TestClear(t *testing.T) {
	ix := New()
	a := waypoint.New("a", waypoint.Position{})
	e := ix.Insert(a.Position, a)
	ix.Clear()
	if ix.Count() != 0 || e.Live() {
		t.Error("Clear should drop every entry")
	}
}
