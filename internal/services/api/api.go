// Package api assembles the HTTP API from its modules
package api

import (
	"context"
	"time"

	"unievents/internal/modkit"
	"unievents/internal/modkit/httpkit"
	"unievents/internal/modkit/module"
	"unievents/internal/platform/config"
	"unievents/internal/platform/logger"
	phttp "unievents/internal/platform/net/http"
	"unievents/internal/platform/net/middleware"
	"unievents/internal/platform/store"

	browsemod "unievents/internal/services/api/browse/module"
	catmod "unievents/internal/services/api/catalog/module"
	evmod "unievents/internal/services/api/events/module"
	memod "unievents/internal/services/api/me/module"
	metamod "unievents/internal/services/api/meta/module"
	catalog "unievents/internal/services/catalog/domain"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	Auth           middleware.AuthPort
	Origins        []string
	EnableProfiler bool
}

// Mount mounts every module under /api/v1. Browse sessions live until ctx ends.
func Mount(ctx context.Context, r phttp.Router, opt Options) []modkit.Module {
	deps := modkit.Deps{
		Log:     opt.Logger,
		Cfg:     opt.Config,
		Docs:    opt.Store.Docs,
		Auth:    opt.Auth,
		Started: time.Now(),
		Probes:  opt.Store.Probes(),
	}

	// events owns the join; browse sessions read through the same one
	events := evmod.New(deps)
	joins := module.MustPortsOf[evmod.Ports](events).Joins

	mods := []modkit.Module{
		metamod.New(deps),
		catmod.New(catalog.Departments, deps),
		catmod.New(catalog.Categories, deps),
		events,
		browsemod.New(ctx, deps, modkit.WithPorts(browsemod.Ports{Lister: joins})),
		memod.New(deps),
	}

	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.Origins...), func(api httpkit.Router) {
		for _, m := range mods {
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	deps.Logger("api").Info().Int("modules", len(mods)).Bool("profiler", opt.EnableProfiler).Msg("api mounted")
	return mods
}
