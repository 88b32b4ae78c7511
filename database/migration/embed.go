// Package migration embeds the SQL migrations applied by golang-migrate.
package migration

import "embed"

//go:embed *.sql
var FS embed.FS
