// Package migrations embebe el esquema SQL para el store de Postgres.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
