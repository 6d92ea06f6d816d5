package yamlfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/waymark/internal/chart/store"
	"github.com/dshills/waymark/internal/chart/store/storetest"
	"github.com/dshills/waymark/internal/chart/waypoint"
)

func openAt(t *testing.T, path string) store.Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestConformance(t *testing.T) {
	var path string
	storetest.Run(t, storetest.Opener{
		Open: func(t *testing.T) store.Store {
			path = filepath.Join(t.TempDir(), "nav", "objects.yaml")
			return openAt(t, path)
		},
		Reopen: func(t *testing.T) store.Store { return openAt(t, path) },
	})
}

func TestOpenMissingFileIsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := s.Waypoints(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestOpenRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "waypoints: [", "parse"},
		{"future version", "version: 99\n", "unsupported version"},
		{"missing guid", "version: 1\nwaypoints:\n  - name: x\n    lat: 1\n    lon: 2\n", "without guid"},
		{"route without guid", "version: 1\nroutes:\n  - name: r\n", "route without guid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Open(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Open = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestFlushLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "objects.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := s.AddWaypoint(context.Background(), waypoint.New("p", waypoint.Position{Lat: float64(i)})); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "objects.yaml" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("dir = %v, want only objects.yaml", names)
	}
}

func TestFlushFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "charts")
	s, err := Open(filepath.Join(dir, "objects.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	w := waypoint.New("p", waypoint.Position{Lat: 1, Lon: 1})
	if err := s.AddWaypoint(ctx, w); err != nil {
		t.Fatal(err)
	}

	// Replace the document's directory with a regular file so every
	// later write fails.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	moved := *w
	moved.Position = waypoint.Position{Lat: 2, Lon: 2}
	if err := s.UpdateWaypoint(ctx, &moved); err == nil {
		t.Fatal("UpdateWaypoint: expected write error")
	}
	if err := s.AddWaypoint(ctx, waypoint.New("q", waypoint.Position{})); err == nil {
		t.Fatal("AddWaypoint: expected write error")
	}
	if err := s.DeleteWaypoint(ctx, w.GUID); err == nil {
		t.Fatal("DeleteWaypoint: expected write error")
	}

	got, err := s.Waypoints(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].GUID != w.GUID {
		t.Fatalf("Waypoints = %v after failed writes, want only %s", got, w.GUID)
	}
	if got[0].Position != w.Position {
		t.Errorf("Position = %s, want %s", got[0].Position, w.Position)
	}
}
