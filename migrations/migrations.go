// Package migrations embeds the SQL schema applied by the usage worker.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
