// Package worksafe exposes assets embedded into the binary.
package worksafe

import _ "embed"

// ConfigTemplate is the annotated configuration template materialized by
// the install wizard.
//
//go:embed configs/worksafe.env
var ConfigTemplate string
