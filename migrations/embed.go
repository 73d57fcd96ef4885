// Package migrations embeds the SQL schema migrations applied by cmd/migrate
// and, when AUTO_MIGRATE is set, by the server at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
