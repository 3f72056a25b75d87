// Package templates embeds the built-in governance program table.
package templates

import "embed"

//go:embed programs.yaml
var FS embed.FS
