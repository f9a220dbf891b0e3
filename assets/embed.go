// Package assets bundles the files shipped with the binaries.
package assets

import "embed"

// FS holds email templates and SQL migrations.
//
//go:embed templates migrations
var FS embed.FS

const (
	EmailTemplatesDir = "templates/email"
	MigrationsDir     = "migrations"
)
