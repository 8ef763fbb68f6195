package web

import "embed"

// Static embeds public assets served under /static.
//
//go:embed static
var Static embed.FS
