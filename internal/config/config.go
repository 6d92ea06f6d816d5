package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"github.com/dshills/waymark/internal/logging"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "WAYMARK_"

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendYAML   = "yaml"
)

// DefaultMaxDepth is the number of undoable actions kept by default.
const DefaultMaxDepth = 10

// Config is the resolved waymark configuration.
type Config struct {
	History HistoryConfig `toml:"history"`
	Store   StoreConfig   `toml:"store"`
	Logging LoggingConfig `toml:"logging"`

	// Locale selects the language of action descriptions (BCP 47).
	Locale string `toml:"locale" env:"LOCALE"`
}

// HistoryConfig configures the undo history.
type HistoryConfig struct {
	// MaxDepth is the maximum number of undoable actions.
	MaxDepth int `toml:"max_depth" env:"MAX_DEPTH"`
}

// StoreConfig selects where waypoints and routes are persisted.
type StoreConfig struct {
	// Backend is one of "memory", "sqlite" or "yaml".
	Backend string `toml:"backend" env:"STORE_BACKEND"`
	// Path is the database or document path. Unused by the memory backend.
	Path string `toml:"path" env:"STORE_PATH"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `toml:"level" env:"LOG_LEVEL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		History: HistoryConfig{MaxDepth: DefaultMaxDepth},
		Store:   StoreConfig{Backend: BackendMemory},
		Logging: LoggingConfig{Level: "info"},
		Locale:  "en-US",
	}
}

// DefaultPath returns the user configuration file path, or "" when the
// user config directory is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "waymark", "config.toml")
}

// Load resolves the configuration from defaults, the TOML file at path and
// the process environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	return LoadWith(path, nil)
}

// LoadWith is Load with an explicit environment. A nil environ reads the
// process environment.
func LoadWith(path string, environ map[string]string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults only
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := decodeTOML(path, data, cfg); err != nil {
				return nil, err
			}
		}
	}

	if err := applyEnv(cfg, environ); err != nil {
		return nil, err
	}
	cfg.Store.Path = expandHome(cfg.Store.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeTOML overlays data onto cfg. Unknown keys are rejected.
func decodeTOML(source string, data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}

		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) && len(serr.Errors) > 0 {
			perr.Line, perr.Column = serr.Errors[0].Position()
			perr.Message = "unknown key " + strings.Join(serr.Errors[0].Key(), ".")
		}
		return perr
	}
	return nil
}

func applyEnv(cfg *Config, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Validate checks every setting and returns the failures joined.
func (c *Config) Validate() error {
	var errs []error

	if c.History.MaxDepth < 1 {
		errs = append(errs, &ValidationError{
			Path:    "history.max_depth",
			Message: "must be at least 1",
			Value:   c.History.MaxDepth,
		})
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite, BackendYAML:
		if strings.TrimSpace(c.Store.Path) == "" {
			errs = append(errs, &ValidationError{
				Path:    "store.path",
				Message: "required for the " + c.Store.Backend + " backend",
				Value:   c.Store.Path,
			})
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend %q: %w", c.Store.Backend, ErrUnknownBackend))
	}

	if _, ok := logging.LookupLevel(c.Logging.Level); !ok {
		errs = append(errs, &ValidationError{
			Path:    "logging.level",
			Message: "must be debug, info, warn or error",
			Value:   c.Logging.Level,
		})
	}

	if _, err := language.Parse(c.Locale); err != nil {
		errs = append(errs, &ValidationError{
			Path:    "locale",
			Message: "not a BCP 47 language tag",
			Value:   c.Locale,
		})
	}

	return errors.Join(errs...)
}

// LogLevel returns the parsed logging level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}

// Language returns the parsed locale tag.
func (c *Config) Language() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}
