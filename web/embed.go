// web/embed.go

// Package web carries the page templates and browser assets.
package web

import "embed"

// Assets holds templates/*.html and static/*.
//
//go:embed templates static
var Assets embed.FS
