// Package portal provides embedded assets for production builds.
package portal

import "embed"

// Embedded assets for production builds.
// In dev mode (IsDev=true), templates and static files are read from disk instead.

//go:embed all:web/static
var StaticFS embed.FS

//go:embed all:web/templates
var TemplateFS embed.FS
