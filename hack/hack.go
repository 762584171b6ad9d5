// Package hack holds files shipped inside the binary.
package hack

import _ "embed"

// SystemdUnitTemplate is the unit installed by "moonframe install".
// /path/to/moonframe is replaced with the executable path.
//
//go:embed moonframe.service
var SystemdUnitTemplate string
