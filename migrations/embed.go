// Package migrations holds the SQL schema migrations of the order tables.
package migrations

import "embed"

// FS contains every migration file, named <version>_<name>.(up|down).sql
//
//go:embed *.sql
var FS embed.FS
