// Package module wires the reconcile job as a modkit.Module without routes
package module

import (
	"fmt"

	"unievents/internal/modkit"
	phttp "unievents/internal/platform/net/http"
	catalog "unievents/internal/services/catalog/domain"
	catrepo "unievents/internal/services/catalog/repo"
	catsvc "unievents/internal/services/catalog/service"
	"unievents/internal/services/reconcile/domain"
	"unievents/internal/services/reconcile/service"
)

// Ports exported by the reconcile module
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements modkit.Module for reconcile
type Module struct {
	opts  Options
	ports Ports
}

var kinds = map[string]catalog.Kind{
	catalog.Departments.Collection: catalog.Departments,
	catalog.Categories.Collection:  catalog.Categories,
}

// New builds the module from deps.Cfg. An unknown collection name is an error.
func New(deps modkit.Deps) (*Module, error) {
	opts := FromConfig(deps.Cfg)
	finders := make([]domain.Finder, 0, len(opts.Collections))
	for _, name := range opts.Collections {
		k, ok := kinds[name]
		if !ok {
			return nil, fmt.Errorf("reconcile: unknown collection %q", name)
		}
		finders = append(finders, catsvc.New(k, deps.Docs, catrepo.New(k)))
	}
	return &Module{opts: opts, ports: Ports{Runner: service.New(finders...)}}, nil
}

// Options returns the options the module was built with
func (m *Module) Options() Options { return m.opts }

// Name returns the module name
func (m *Module) Name() string { return "reconcile" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// MountRoutes is a no-op: reconcile has no HTTP routes
func (m *Module) MountRoutes(phttp.Router) {}
