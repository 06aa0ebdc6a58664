// Package module mounts the signed in user's routes under /me
package module

import (
	modkit "unievents/internal/modkit"
	phttp "unievents/internal/platform/net/http"
	mehttp "unievents/internal/services/api/me/http"
	identity "unievents/internal/services/identity/domain"
	idsvc "unievents/internal/services/identity/service"
	"unievents/internal/services/membership/domain"
	memsvc "unievents/internal/services/membership/service"
)

// Ports is what other modules may look up under "me"
type Ports struct {
	Memberships *memsvc.Svc
}

// New constructs the module. Each request gets the membership service bound to a fixed
// identity for the token's user.
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("me"),
		modkit.WithPrefix("/me"),
	}, opts...)...)

	ports, _ := b.Ports.(Ports)
	if ports.Memberships == nil {
		ports.Memberships = memsvc.New(deps.Docs, idsvc.NewSession(deps.Docs))
	}
	forUser := func(userID string) domain.ServicePort {
		return ports.Memberships.As(idsvc.Fixed(identity.Identity{UserID: userID, Role: identity.RoleStudent}))
	}

	return modkit.NewBase(b, ports, func(r phttp.Router) {
		mehttp.Register(r, forUser, deps.Auth)
	})
}
