package modkit

import (
	phttp "unievents/internal/platform/net/http"
)

// Module is the surface every API module shares: routes, a port set for cross wiring, and a name
type Module interface {
	// MountRoutes mounts the module under its prefix on r
	MountRoutes(r phttp.Router)
	// Ports returns the module's port set; other modules look into it with module.PortsOf
	Ports() any
	Name() string
}

// Builder constructs a Module from shared deps and options
type Builder func(Deps, ...Option) Module
