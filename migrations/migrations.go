// Package migrations embeds the SQL schema so the binary and the tests run
// the same migrations without a migrations directory on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
