// Package module holds the cross module plumbing used at bootstrap: the minimal Module contract,
// port lookup, and the name keyed registry
package module

import (
	phttp "unievents/internal/platform/net/http"
)

// Module is the part of modkit.Module this package needs. It lives here so a module can import
// module without importing modkit.
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
