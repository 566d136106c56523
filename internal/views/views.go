// Package views embeds the admin console templates.
package views

import "embed"

//go:embed admin/*.html
var FS embed.FS
