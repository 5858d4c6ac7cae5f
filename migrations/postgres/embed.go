// Package migrations embeds SQL migration files.
package migrations

import "embed"

// PostgresFS contiene las migraciones (*_up.sql / *_down.sql) del schema de simguard.
//
//go:embed *.sql
var PostgresFS embed.FS
