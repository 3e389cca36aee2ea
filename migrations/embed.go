// Package migrations embeds the goose SQL migrations so tests and tooling
// apply the same schema the deployment applies.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
