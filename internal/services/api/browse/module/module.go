// Package module mounts browse sessions under /browse
package module

import (
	"context"

	modkit "unievents/internal/modkit"
	phttp "unievents/internal/platform/net/http"
	browsehttp "unievents/internal/services/api/browse/http"
	discsvc "unievents/internal/services/discovery/service"
	evsvc "unievents/internal/services/events/service"
)

// Ports is what other modules may look up under "browse"
type Ports struct {
	// Lister feeds session results; the events join when nil
	Lister   discsvc.Lister
	Sessions *discsvc.Browser
}

// New constructs the browse module. Sessions live until ctx ends. The quiet period is read from
// CORE_DISCOVERY_QUIET and the idle expiry from CORE_DISCOVERY_IDLE.
func New(ctx context.Context, deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("browse"),
		modkit.WithPrefix("/browse"),
	}, opts...)...)

	ports, _ := b.Ports.(Ports)
	if ports.Lister == nil {
		ports.Lister = evsvc.NewJoiner(deps.Docs)
	}
	if ports.Sessions == nil {
		idle := deps.Cfg.Prefix("CORE_DISCOVERY_").MayDuration("IDLE", discsvc.DefaultIdle)
		ports.Sessions = discsvc.NewBrowser(ctx, discsvc.PlannerFromConfig(deps.Cfg), ports.Lister, idle)
	}

	return modkit.NewBase(b, ports, func(r phttp.Router) {
		browsehttp.Register(r, ports.Sessions)
	})
}
