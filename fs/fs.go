// Package appfs embeds the files shipped with the binaries.
package appfs

import "embed"

// MigrationsDir is the goose migrations directory within FS.
const MigrationsDir = "migrations"

//go:embed migrations/*.sql
var FS embed.FS
