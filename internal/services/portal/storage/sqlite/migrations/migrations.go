// Package migrations embeds the portal token schema.
package migrations

import "embed"

// FS holds the portal SQLite migrations.
//
//go:embed *.sql
var FS embed.FS
