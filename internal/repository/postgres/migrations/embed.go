package migrations

import "embed"

// FS holds the goose migrations for PostgreSQL.
//
//go:embed *.sql
var FS embed.FS
