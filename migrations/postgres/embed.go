// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contiene las migraciones *_up.sql / *_down.sql de la base principal.
//
//go:embed *.sql
var FS embed.FS
