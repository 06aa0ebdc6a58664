// Package module mounts the events API under /events
package module

import (
	modkit "unievents/internal/modkit"
	phttp "unievents/internal/platform/net/http"
	evhttp "unievents/internal/services/api/events/http"
	"unievents/internal/services/events/domain"
	evrepo "unievents/internal/services/events/repo"
	evsvc "unievents/internal/services/events/service"
)

// Ports is what other modules may look up under "events"
type Ports struct {
	Events domain.ServicePort
	Joins  domain.JoinPort
}

// New constructs the events module; WithPorts may inject either service
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("events"),
		modkit.WithPrefix("/events"),
	}, opts...)...)

	ports, _ := b.Ports.(Ports)
	if ports.Events == nil {
		ports.Events = evsvc.New(deps.Docs, evrepo.New())
	}
	if ports.Joins == nil {
		ports.Joins = evsvc.NewJoiner(deps.Docs)
	}

	return modkit.NewBase(b, ports, func(r phttp.Router) {
		evhttp.Register(r, ports.Events, ports.Joins, deps.Auth)
	})
}
