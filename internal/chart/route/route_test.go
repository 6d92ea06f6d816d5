package route

import (
	"math"
	"testing"

	"github.com/dshills/waymark/internal/chart/waypoint"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b waypoint.Position
		want float64
	}{
		{"same point", waypoint.Position{}, waypoint.Position{}, 0},
		{"one degree of latitude", waypoint.Position{}, waypoint.Position{Lat: 1}, 60.04},
		{"one degree of longitude at equator", waypoint.Position{}, waypoint.Position{Lon: 1}, 60.04},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); math.Abs(got-tt.want) > 0.01 {
				t.Errorf("Distance() = %.4f, want %.2f", got, tt.want)
			}
		})
	}
}

func TestRecompute(t *testing.T) {
	a := waypoint.New("a", waypoint.Position{Lat: 0, Lon: 0})
	b := waypoint.New("b", waypoint.Position{Lat: 1, Lon: 2})
	c := waypoint.New("c", waypoint.Position{Lat: -1, Lon: 1})
	r := New("r", a, b, c)

	want := BBox{MinLat: -1, MinLon: 0, MaxLat: 1, MaxLon: 2}
	if r.BBox != want {
		t.Errorf("BBox = %+v, want %+v", r.BBox, want)
	}
	if len(r.Legs) != 2 {
		t.Fatalf("len(Legs) = %d, want 2", len(r.Legs))
	}
	if math.Abs(r.Length-(r.Legs[0]+r.Legs[1])) > 1e-9 {
		t.Error("Length should be the sum of Legs")
	}

	b.Position = waypoint.Position{Lat: 5, Lon: 5}
	r.Recompute()
	if r.BBox.MaxLat != 5 || r.BBox.MaxLon != 5 {
		t.Errorf("BBox not refreshed: %+v", r.BBox)
	}
	if !r.BBox.Contains(waypoint.Position{Lat: 2, Lon: 2}) {
		t.Error("BBox should contain interior point")
	}
}

func TestEmptyRoute(t *testing.T) {
	r := New("empty")
	if !r.BBox.IsEmpty() {
		t.Error("empty route should have empty BBox")
	}
	if r.Length != 0 || len(r.Legs) != 0 {
		t.Error("empty route should have no legs")
	}
	if r.BBox.Contains(waypoint.Position{}) {
		t.Error("empty BBox contains nothing")
	}
}

func TestManagerRoutesContaining(t *testing.T) {
	a := waypoint.New("a", waypoint.Position{})
	b := waypoint.New("b", waypoint.Position{Lat: 1})
	c := waypoint.New("c", waypoint.Position{Lat: 2})

	m := NewManager()
	r1 := New("r1", a, b)
	r2 := New("r2", b, c)
	m.Add(r1)
	m.Add(r2)
	m.Add(r1)

	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	if got := m.RoutesContaining(b); len(got) != 2 {
		t.Errorf("RoutesContaining(b) = %d routes, want 2", len(got))
	}
	if got := m.RoutesContaining(a); len(got) != 1 || got[0] != r1 {
		t.Error("RoutesContaining(a) should return r1 only")
	}
	if got, ok := m.Find(r2.GUID); !ok || got != r2 {
		t.Error("Find(r2) failed")
	}
	if !m.Remove(r1) || m.Remove(r1) {
		t.Error("Remove should succeed once")
	}
	if got := m.RoutesContaining(a); len(got) != 0 {
		t.Error("a should no longer be routed")
	}
}
