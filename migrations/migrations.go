// AngelaMos | 2026
// migrations.go

// Package migrations embeds the SQL schema applied by blogsyctl migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
