package parley

import _ "embed"

// Version is the release version, read from the VERSION file.
// Callers should strings.TrimSpace it before display.
//
//go:embed VERSION
var Version string
