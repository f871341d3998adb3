// Package migrations holds the goose schema migrations for the server
// database. SQL migrations are embedded; Go migrations register themselves
// on import.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
