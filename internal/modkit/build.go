package modkit

import (
	"net/http"

	phttp "unievents/internal/platform/net/http"
	str "unievents/internal/platform/strings"
)

// Built is the resolved option set
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	Ports  any
	// Register runs after the module's own routes; never nil
	Register func(phttp.Router)
}

// Build applies opts in order
func Build(opts ...Option) Built {
	var c buildCfg
	for _, o := range opts {
		o(&c)
	}
	if c.register == nil {
		c.register = func(phttp.Router) {}
	}
	return Built{
		Name:     c.name,
		Prefix:   c.prefix,
		Mw:       append([]func(http.Handler) http.Handler(nil), c.mw...),
		Ports:    c.ports,
		Register: c.register,
	}
}

// Base implements Module for the common case: one prefix, its middlewares, then the routes
type Base struct {
	b      Built
	ports  any
	routes func(phttp.Router)
}

// NewBase wraps b; routes mounts the module's own endpoints and ports is what Ports returns
func NewBase(b Built, ports any, routes func(phttp.Router)) *Base {
	return &Base{b: b, ports: ports, routes: routes}
}

// MountRoutes implements Module
func (m *Base) MountRoutes(r phttp.Router) {
	r.Route(m.Prefix(), func(rr phttp.Router) {
		if len(m.b.Mw) > 0 {
			rr.Use(m.b.Mw...)
		}
		if m.routes != nil {
			m.routes(rr)
		}
		m.b.Register(rr)
	})
}

// Name implements Module
func (m *Base) Name() string { return str.MustString(m.b.Name, "module name") }

// Prefix is the mount path, always with a leading slash
func (m *Base) Prefix() string { return str.MustPrefix(m.b.Prefix) }

// Ports implements Module
func (m *Base) Ports() any { return m.ports }
