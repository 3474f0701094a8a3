// Package web holds the HTML templates compiled into the binary.
package web

import "embed"

// Views contains the page templates under views/.
//
//go:embed views/*.html
var Views embed.FS
