// Package migrations embeds the goose SQL migrations for Postgres.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
