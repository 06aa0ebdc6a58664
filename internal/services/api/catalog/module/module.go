// Package module mounts a catalog collection under its own prefix
package module

import (
	modkit "unievents/internal/modkit"
	phttp "unievents/internal/platform/net/http"
	cathttp "unievents/internal/services/api/catalog/http"
	"unievents/internal/services/catalog/domain"
	catrepo "unievents/internal/services/catalog/repo"
	catsvc "unievents/internal/services/catalog/service"
)

// Ports is what other modules may look up under this module's name
type Ports struct {
	Catalog domain.ServicePort
}

// New builds the module for kind; name and prefix default to the collection name.
// WithPorts may inject a ready service, which tests use.
func New(kind domain.Kind, deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName(kind.Collection),
		modkit.WithPrefix("/" + kind.Collection),
	}, opts...)...)

	ports, _ := b.Ports.(Ports)
	if ports.Catalog == nil {
		ports.Catalog = catsvc.New(kind, deps.Docs, catrepo.New(kind))
	}

	return modkit.NewBase(b, ports, func(r phttp.Router) {
		cathttp.Register(r, ports.Catalog, deps.Auth)
	})
}
