// Package config loads waymark's configuration.
//
// Configuration is resolved in layers, later layers overriding earlier ones:
//
//	┌──────────────────────────────┐
//	│  3. Environment (WAYMARK_*)  │  ← Highest priority
//	├──────────────────────────────┤
//	│  2. TOML file                │  ← --config or ~/.config/waymark/config.toml
//	├──────────────────────────────┤
//	│  1. Built-in defaults        │  ← Lowest priority
//	└──────────────────────────────┘
//
// The resolved Config is validated before it is returned.
//
// # Example file
//
//	locale = "de-DE"
//
//	[history]
//	max_depth = 25
//
//	[store]
//	backend = "sqlite"
//	path = "~/.local/share/waymark/chart.db"
//
//	[logging]
//	level = "debug"
//
// # Live reload
//
// A Watcher reloads the file when it changes and hands the new Config to a
// callback. Only history.max_depth is meant to change at runtime; the other
// settings take effect on the next start.
package config
