package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/waymark/internal/config"
	"github.com/dshills/waymark/internal/script"
)

// execute runs the root command with args and an isolated config file.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "missing.toml")
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfgPath, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeScript(t *testing.T, code string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.lua")
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "waymark "+version) {
		t.Errorf("output = %q", out)
	}
}

func TestRunThenList(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		file    string
	}{
		{"yaml", config.BackendYAML, "navobj.yaml"},
		{"sqlite", config.BackendSQLite, "chart.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storePath := filepath.Join(t.TempDir(), tt.file)
			storeArgs := []string{"--store-backend", tt.backend, "--store-path", storePath}

			path := writeScript(t, `
				local a = chart.create("Harbour", 59.91, 10.75)
				local b = chart.create("Skerry", 59.80, 10.60)
				chart.create("Mistake", 0, 0)
				chart.undo()
				chart.route("Out", a, b)
				print(#chart.list())
			`)
			out, err := execute(t, append([]string{"run", path}, storeArgs...)...)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if out != "2\n" {
				t.Errorf("run output = %q, want 2", out)
			}

			out, err = execute(t, append([]string{"list", "--routes"}, storeArgs...)...)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			for _, want := range []string{"Harbour", "Skerry", "Out"} {
				if !strings.Contains(out, want) {
					t.Errorf("list output missing %q:\n%s", want, out)
				}
			}
			if strings.Contains(out, "Mistake") {
				t.Errorf("undone waypoint was persisted:\n%s", out)
			}
		})
	}
}

func TestRunScriptError(t *testing.T) {
	path := writeScript(t, `chart.move("nope", 1, 1)`)
	_, err := execute(t, "run", path)
	if err == nil || !strings.Contains(err.Error(), "waypoint not found") {
		t.Errorf("run error = %v, want waypoint not found", err)
	}
}

func TestRunTimeout(t *testing.T) {
	path := writeScript(t, `while true do end`)
	_, err := execute(t, "run", "--timeout", "50ms", path)
	if !errors.Is(err, script.ErrExecutionTimeout) {
		t.Errorf("run error = %v, want ErrExecutionTimeout", err)
	}
}

func TestRunArgs(t *testing.T) {
	if _, err := execute(t, "run"); err == nil {
		t.Error("run without a script should fail")
	}
}

func TestUnknownBackend(t *testing.T) {
	_, err := execute(t, "list", "--store-backend", "floppy")
	if !errors.Is(err, config.ErrUnknownBackend) {
		t.Errorf("list error = %v, want ErrUnknownBackend", err)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "navobj.yaml")
	cfgPath := filepath.Join(dir, "config.toml")
	cfg := "[store]\nbackend = \"yaml\"\npath = \"" + filepath.ToSlash(storePath) + "\"\n\n[history]\nmax_depth = 1\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	path := writeScript(t, `
		local id = chart.create("A", 1, 1)
		chart.move(id, 2, 2)
		assert(chart.undo())
		assert(not chart.undo(), "max_depth from config not applied")
	`)
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", cfgPath, "--log-level", "error", "run", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("run: %v\n%s", err, out.String())
	}
	if _, err := os.Stat(storePath); err != nil {
		t.Errorf("store file not written: %v", err)
	}
}

func TestRunTrace(t *testing.T) {
	path := writeScript(t, `
		local id = chart.create("Buoy", 10, 20)
		chart.move(id, 11, 21)
		chart.undo()
	`)
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.toml"), "--log-level", "error", "run", "--trace", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("run: %v", err)
	}

	trace := errOut.String()
	for _, want := range []string{
		"chart.loaded 0 waypoints, 0 routes",
		"chart.waypoint.created",
		`"Buoy" at 11.000000,21.000000`,
		"chart.history.undone Move Waypoint",
	} {
		if !strings.Contains(trace, want) {
			t.Errorf("trace missing %q:\n%s", want, trace)
		}
	}
}
