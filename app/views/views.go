// Package views holds the embedded HTML templates for the
// server-rendered pages.
package views

import "embed"

//go:embed *.html posts/*.html auth/*.html
var FS embed.FS
