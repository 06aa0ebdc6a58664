// Package http serves the signed in user's memberships. Every route needs a bearer token.
package http

import (
	"context"
	stdhttp "net/http"

	"unievents/internal/core/live"
	"unievents/internal/modkit/httpkit"
	"unievents/internal/platform/net/middleware"
	"unievents/internal/services/membership/domain"
)

// ForUser returns the membership service acting as userID
type ForUser func(userID string) domain.ServicePort

// JoinInput lists events to join; repeats create repeated memberships
type JoinInput struct {
	EventIDs []string `json:"eventIds" validate:"required,min=1,max=500,dive,notblank"`
}

// UnjoinInput lists memberships to delete
type UnjoinInput struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

// Joined lists the membership ids created, in input order
type Joined struct {
	IDs []string `json:"ids"`
}

// Register mounts the routes behind auth
func Register(r httpkit.Router, svc ForUser, auth middleware.AuthPort) {
	h := &handlers{svc: svc}

	httpkit.Protected(r, auth, func(r httpkit.Router) {
		r.Get("/events/live", httpkit.Live(h.liveMine))
		r.Get("/events/{id}/joined/live", httpkit.LiveValues(h.liveJoined))

		httpkit.OneShot(r, 0, func(r httpkit.Router) {
			r.Get("/events", httpkit.Call(h.mine))
			r.Post("/events", httpkit.JSON(h.join))
			r.Delete("/memberships/{id}", httpkit.Call(h.unjoinOne))
			r.Post("/memberships/delete", httpkit.JSON(h.unjoin))
		})
	})
}

type handlers struct {
	svc ForUser
}

func (h *handlers) as(r *stdhttp.Request) (domain.ServicePort, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc(uid), nil
}

func (h *handlers) liveMine(r *stdhttp.Request) (<-chan live.Update[[]domain.Joined], error) {
	svc, err := h.as(r)
	if err != nil {
		return nil, err
	}
	return svc.ObserveMine(r.Context()), nil
}

// mine answers with the first frame of the live list
func (h *handlers) mine(r *stdhttp.Request) (any, error) {
	svc, err := h.as(r)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	select {
	case u, ok := <-svc.ObserveMine(ctx):
		if !ok {
			return nil, r.Context().Err()
		}
		if u.Err != nil {
			return nil, u.Err
		}
		if u.Value == nil {
			return []domain.Joined{}, nil
		}
		return u.Value, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *handlers) liveJoined(r *stdhttp.Request) (<-chan bool, error) {
	svc, err := h.as(r)
	if err != nil {
		return nil, err
	}
	return svc.IsJoined(r.Context(), httpkit.Param(r, "id")), nil
}

func (h *handlers) join(r *stdhttp.Request, in JoinInput) (any, error) {
	svc, err := h.as(r)
	if err != nil {
		return nil, err
	}
	ids, err := svc.Join(r.Context(), in.EventIDs...)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(Joined{IDs: ids}), nil
}

func (h *handlers) unjoinOne(r *stdhttp.Request) (any, error) {
	svc, err := h.as(r)
	if err != nil {
		return nil, err
	}
	if err := svc.Unjoin(r.Context(), httpkit.Param(r, "id")); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

func (h *handlers) unjoin(r *stdhttp.Request, in UnjoinInput) (any, error) {
	svc, err := h.as(r)
	if err != nil {
		return nil, err
	}
	if err := svc.Unjoin(r.Context(), in.IDs...); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}
