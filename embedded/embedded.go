// Package embedded bundles the default theme into the bengal binary so
// `bengal new site` and `bengal theme update` work without a network
// fetch or a separate theme repository checkout.
package embedded

import "embed"

//go:embed themes
var themesFS embed.FS

// DefaultTheme is the embedded default theme tree, rooted so that
// fs.WalkDir(DefaultTheme, "themes", ...) yields "themes/default/...".
var DefaultTheme = themesFS
