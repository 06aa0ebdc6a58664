// Package http serves one catalog collection: departments or categories
package http

import (
	stdhttp "net/http"

	"unievents/internal/core/live"
	"unievents/internal/modkit/httpkit"
	perr "unievents/internal/platform/errors"
	"unievents/internal/platform/net/middleware"
	"unievents/internal/services/catalog/domain"
)

// BatchInput carries entries to insert
type BatchInput struct {
	Items []domain.Input `json:"items" validate:"required,min=1,max=500,dive"`
}

// IDsInput carries ids to delete
type IDsInput struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500"`
}

// Created lists the ids of inserted entries in input order
type Created struct {
	IDs []string `json:"ids"`
}

// Register mounts the collection routes; writes sit behind auth
func Register(r httpkit.Router, svc domain.ServicePort, auth middleware.AuthPort) {
	h := &handlers{svc: svc}

	r.Get("/live", httpkit.Live(h.live))
	httpkit.OneShot(r, 0, func(r httpkit.Router) {
		r.Get("/", httpkit.Call(h.list))
		r.Get("/duplicates", httpkit.Call(h.duplicates))
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
	svc domain.ServicePort
}

func (h *handlers) list(r *stdhttp.Request) (any, error) {
	return h.svc.List(r.Context(), httpkit.QueryString(r, "prefix"))
}

func (h *handlers) live(r *stdhttp.Request) (<-chan live.Update[[]domain.Entry], error) {
	return h.svc.Observe(r.Context(), httpkit.QueryString(r, "prefix")), nil
}

func (h *handlers) duplicates(r *stdhttp.Request) (any, error) {
	groups, err := h.svc.Duplicates(r.Context())
	if groups == nil {
		groups = [][]domain.Entry{}
	}
	return groups, err
}

func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id := httpkit.Param(r, "id")
	e, err := h.svc.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, perr.NotFoundf("%s %q not found", h.svc.Kind().Label, id)
	}
	return e, nil
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
