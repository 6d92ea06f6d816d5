package migrations

import "embed"

// FS contains embedded SQLite migrations for chart storage.
//
//go:embed *.sql
var FS embed.FS
