// Package http serves events with their department and category resolved
package http

import (
	stdhttp "net/http"

	"unievents/internal/core/live"
	"unievents/internal/core/normalize"
	"unievents/internal/modkit/httpkit"
	perr "unievents/internal/platform/errors"
	"unievents/internal/platform/net/middleware"
	"unievents/internal/services/events/domain"
)

// BatchInput carries events to insert
type BatchInput struct {
	Items []domain.Input `json:"items" validate:"required,min=1,max=500,dive"`
}

// IDsInput carries ids to delete
type IDsInput struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500"`
}

// Created lists the ids of inserted events in input order
type Created struct {
	IDs []string `json:"ids"`
}

// Register mounts the events routes; writes sit behind auth
func Register(r httpkit.Router, svc domain.ServicePort, joins domain.JoinPort, auth middleware.AuthPort) {
	h := &handlers{svc: svc, joins: joins}

	r.Get("/live", httpkit.Live(h.liveList))
	r.Get("/{id}/live", httpkit.Live(h.liveOne))
	httpkit.OneShot(r, 0, func(r httpkit.Router) {
		r.Get("/", httpkit.Call(h.list))
		r.Get("/{id}", httpkit.Call(h.get))

		httpkit.Protected(r, auth, func(r httpkit.Router) {
			r.Post("/", httpkit.JSON(h.insert))
			r.Put("/{id}", httpkit.JSON(h.update))
			r.Delete("/{id}", httpkit.Call(h.delete))
			r.Post("/delete", httpkit.JSON(h.deleteMany))
		})
	})
}

type handlers struct {
	svc   domain.ServicePort
	joins domain.JoinPort
}

// filter reads q, from, to, departmentId and categoryId; q is matched as a normalized title prefix
func filter(r *stdhttp.Request) (domain.Filter, error) {
	from, err := httpkit.QueryTime(r, "from")
	if err != nil {
		return domain.Filter{}, err
	}
	to, err := httpkit.QueryTime(r, "to")
	if err != nil {
		return domain.Filter{}, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return domain.Filter{}, perr.WithField(perr.InvalidArgf("to must not be before from"), "to")
	}
	return domain.Filter{
		Prefix:       normalize.Normalize(httpkit.QueryString(r, "q")),
		From:         from,
		To:           to,
		DepartmentID: httpkit.QueryString(r, "departmentId"),
		CategoryID:   httpkit.QueryString(r, "categoryId"),
	}, nil
}

func (h *handlers) list(r *stdhttp.Request) (any, error) {
	f, err := filter(r)
	if err != nil {
		return nil, err
	}
	evs, err := h.svc.List(r.Context(), f)
	if err != nil {
		return nil, err
	}
	return h.joins.ResolveAll(r.Context(), evs)
}

func (h *handlers) liveList(r *stdhttp.Request) (<-chan live.Update[[]domain.EventWithRefs], error) {
	f, err := filter(r)
	if err != nil {
		return nil, err
	}
	return h.joins.ObserveList(r.Context(), f), nil
}

func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id := httpkit.Param(r, "id")
	ev, err := h.svc.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, perr.NotFoundf("event %q not found", id)
	}
	return h.joins.Resolve(r.Context(), *ev)
}

// liveOne streams null while the event does not exist
func (h *handlers) liveOne(r *stdhttp.Request) (<-chan live.Update[*domain.EventWithRefs], error) {
	id := httpkit.Param(r, "id")
	if id == "" {
		return nil, perr.InvalidArgf("event id is required")
	}
	return h.joins.Observe(r.Context(), id), nil
}

func (h *handlers) insert(r *stdhttp.Request, in BatchInput) (any, error) {
	ids, err := h.svc.Insert(r.Context(), in.Items...)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(Created{IDs: ids}), nil
}

func (h *handlers) update(r *stdhttp.Request, in domain.Input) (any, error) {
	in.ID = httpkit.Param(r, "id")
	if err := h.svc.Update(r.Context(), in); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

func (h *handlers) delete(r *stdhttp.Request) (any, error) {
	if err := h.svc.Delete(r.Context(), httpkit.Param(r, "id")); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

func (h *handlers) deleteMany(r *stdhttp.Request, in IDsInput) (any, error) {
	if err := h.svc.Delete(r.Context(), in.IDs...); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}
