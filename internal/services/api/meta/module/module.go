// Package module wires the meta endpoints into the API
package module

import (
	"time"

	modkit "unievents/internal/modkit"
	phttp "unievents/internal/platform/net/http"
	metahttp "unievents/internal/services/api/meta/http"
)

// ServiceName is reported by health, version and service
const ServiceName = "unievents-api"

// New constructs the meta module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	started := deps.Started
	if started.IsZero() {
		started = time.Now()
	}
	return modkit.NewBase(b, nil, func(r phttp.Router) {
		metahttp.Register(r, metahttp.Deps{
			ServiceName: ServiceName,
			StartedAt:   started,
			Probes:      deps.Probes,
		})
	})
}
