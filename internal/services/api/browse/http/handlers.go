// Package http exposes browse sessions: server held filters whose settled plans drive a live
// result stream
package http

import (
	"context"
	stdhttp "net/http"

	"unievents/internal/core/live"
	"unievents/internal/modkit/httpkit"
	"unievents/internal/services/discovery/domain"
)

// Sessions is the browse session store
type Sessions interface {
	Open(initial domain.FilterState) (string, domain.FilterState)
	Apply(id string, p domain.Patch) (domain.FilterState, error)
	State(id string) (domain.FilterState, error)
	Live(ctx context.Context, id string) (<-chan live.Update[domain.Results], error)
	Restart(id string) error
	Close(id string) error
}

// Opened is returned when a session starts
type Opened struct {
	ID    string             `json:"id"`
	State domain.FilterState `json:"state"`
}

// Register mounts the browse routes
func Register(r httpkit.Router, s Sessions) {
	h := &handlers{s: s}

	r.Get("/{sid}/live", httpkit.Live(h.live))
	httpkit.OneShot(r, 0, func(r httpkit.Router) {
		r.Post("/", httpkit.JSON(h.open))
		r.Get("/{sid}", httpkit.Call(h.state))
		r.Patch("/{sid}", httpkit.JSON(h.apply))
		r.Post("/{sid}/restart", httpkit.Call(h.restart))
		r.Delete("/{sid}", httpkit.Call(h.close))
	})
}

type handlers struct {
	s Sessions
}

func (h *handlers) open(_ *stdhttp.Request, in domain.FilterState) (any, error) {
	id, st := h.s.Open(in)
	return httpkit.Created(Opened{ID: id, State: st}), nil
}

func (h *handlers) state(r *stdhttp.Request) (any, error) {
	return h.s.State(httpkit.Param(r, "sid"))
}

func (h *handlers) apply(r *stdhttp.Request, p domain.Patch) (any, error) {
	return h.s.Apply(httpkit.Param(r, "sid"), p)
}

func (h *handlers) restart(r *stdhttp.Request) (any, error) {
	if err := h.s.Restart(httpkit.Param(r, "sid")); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

func (h *handlers) close(r *stdhttp.Request) (any, error) {
	if err := h.s.Close(httpkit.Param(r, "sid")); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

func (h *handlers) live(r *stdhttp.Request) (<-chan live.Update[domain.Results], error) {
	return h.s.Live(r.Context(), httpkit.Param(r, "sid"))
}
