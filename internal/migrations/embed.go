// Package migrations embeds the goose SQL migrations for the optional
// Postgres-backed profile and audit stores.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
