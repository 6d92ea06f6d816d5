package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/dshills/waymark/internal/logging"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.History.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want %d", cfg.History.MaxDepth, DefaultMaxDepth)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("Backend = %q, want memory", cfg.Store.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate(default) = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := LoadWith(filepath.Join(t.TempDir(), "absent.toml"), map[string]string{})
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.History.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want default", cfg.History.MaxDepth)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", `
locale = "de-DE"

[history]
max_depth = 25

[store]
backend = "sqlite"
path = "/tmp/chart.db"

[logging]
level = "debug"
`)
	cfg, err := LoadWith(path, map[string]string{})
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.History.MaxDepth != 25 {
		t.Errorf("MaxDepth = %d, want 25", cfg.History.MaxDepth)
	}
	if cfg.Store.Backend != BackendSQLite || cfg.Store.Path != "/tmp/chart.db" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.LogLevel() != logging.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel())
	}
	if cfg.Language() != language.MustParse("de-DE") {
		t.Errorf("Language = %v, want de-DE", cfg.Language())
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", "[history]\nmax_depth = 3\n")
	cfg, err := LoadWith(path, map[string]string{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.History.MaxDepth != 3 {
		t.Errorf("MaxDepth = %d, want 3", cfg.History.MaxDepth)
	}
	if cfg.Store.Backend != BackendMemory || cfg.Locale != "en-US" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", "[history]\nmax_depth = 3\n")
	cfg, err := LoadWith(path, map[string]string{
		"WAYMARK_MAX_DEPTH":     "7",
		"WAYMARK_STORE_BACKEND": "yaml",
		"WAYMARK_STORE_PATH":    "/tmp/nav.yaml",
		"WAYMARK_LOG_LEVEL":     "warn",
		"WAYMARK_LOCALE":        "nb-NO",
	})
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.History.MaxDepth != 7 {
		t.Errorf("MaxDepth = %d, want 7", cfg.History.MaxDepth)
	}
	if cfg.Store.Backend != BackendYAML || cfg.Store.Path != "/tmp/nav.yaml" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Logging.Level != "warn" || cfg.Locale != "nb-NO" {
		t.Errorf("Logging = %+v, Locale = %q", cfg.Logging, cfg.Locale)
	}
}

func TestEnvBadInteger(t *testing.T) {
	_, err := LoadWith("", map[string]string{"WAYMARK_MAX_DEPTH": "lots"})
	if err == nil || !strings.Contains(err.Error(), "parse env") {
		t.Errorf("LoadWith = %v, want parse env error", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantLine int
		contains string
	}{
		{"syntax", "[history\nmax_depth = 3\n", 1, ""},
		{"wrong type", "[history]\nmax_depth = \"ten\"\n", 0, ""},
		{"unknown key", "[history]\nmax_depth = 3\nsize = 4\n", 0, "size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.toml", tt.body)
			_, err := LoadWith(path, map[string]string{})
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("LoadWith = %v, want *ParseError", err)
			}
			if perr.Path != path {
				t.Errorf("Path = %q, want %q", perr.Path, path)
			}
			if tt.wantLine > 0 && perr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d (%v)", perr.Line, tt.wantLine, perr)
			}
			if tt.contains != "" && !strings.Contains(perr.Error(), tt.contains) {
				t.Errorf("Error() = %q, want it to contain %q", perr.Error(), tt.contains)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"zero depth", func(c *Config) { c.History.MaxDepth = 0 }, "history.max_depth"},
		{"negative depth", func(c *Config) { c.History.MaxDepth = -4 }, "history.max_depth"},
		{"sqlite without path", func(c *Config) { c.Store.Backend = BackendSQLite }, "store.path"},
		{"yaml without path", func(c *Config) { c.Store.Backend = BackendYAML }, "store.path"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad locale", func(c *Config) { c.Locale = "not a tag!" }, "locale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("Validate = %v, want ErrValidationFailed", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Path != tt.path {
				t.Errorf("Validate = %v, want failure at %s", err, tt.path)
			}
		})
	}
}

func TestValidateUnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = "postgres"
	if err := cfg.Validate(); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Validate = %v, want ErrUnknownBackend", err)
	}
}

func TestValidateJoinsFailures(t *testing.T) {
	cfg := Default()
	cfg.History.MaxDepth = 0
	cfg.Logging.Level = "loud"
	err := cfg.Validate()
	for _, want := range []string{"history.max_depth", "logging.level"} {
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("Validate = %v, want mention of %s", err, want)
		}
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/chart.db"); got != filepath.Join(home, "chart.db") {
		t.Errorf("expandHome = %q", got)
	}
	if got := expandHome("/abs/chart.db"); got != "/abs/chart.db" {
		t.Errorf("expandHome(abs) = %q", got)
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", "[history]\nmax_depth = 3\n")

	got := make(chan *Config, 4)
	w, err := Watch(path, func(cfg *Config, err error) {
		if err == nil {
			got <- cfg
		}
	}, WithDebounce(20*time.Millisecond), WithEnviron(map[string]string{}))
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	writeFile(t, dir, "config.toml", "[history]\nmax_depth = 6\n")

	select {
	case cfg := <-got:
		if cfg.History.MaxDepth != 6 {
			t.Errorf("MaxDepth = %d, want 6", cfg.History.MaxDepth)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within 5s")
	}
}

func TestWatchReportsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", "")

	errs := make(chan error, 4)
	w, err := Watch(path, func(cfg *Config, err error) {
		if err != nil {
			errs <- err
		}
	}, WithDebounce(10*time.Millisecond), WithEnviron(map[string]string{}))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	writeFile(t, dir, "config.toml", "[history]\nmax_depth = 0\n")

	select {
	case err := <-errs:
		if !errors.Is(err, ErrValidationFailed) {
			t.Errorf("reload error = %v, want ErrValidationFailed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within 5s")
	}
}

func TestWatchIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", "")

	calls := make(chan struct{}, 4)
	w, err := Watch(path, func(*Config, error) { calls <- struct{}{} },
		WithDebounce(5*time.Millisecond), WithEnviron(map[string]string{}))
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, dir, "other.toml", "x = 1\n")

	select {
	case <-calls:
		t.Error("reload fired for a sibling file")
	case <-time.After(200 * time.Millisecond):
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := w.Close(); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("second Close = %v, want ErrWatcherClosed", err)
	}
}
