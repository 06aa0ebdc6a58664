// Package http provides the meta endpoints: liveness, readiness, build and uptime
package http

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"unievents/internal/core/version"
	"unievents/internal/modkit/httpkit"
	"unievents/internal/platform/store"
)

// ProbeTimeout bounds every readiness check
const ProbeTimeout = 2 * time.Second

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Probes      []store.Probe
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}
	r.Get("/health", httpkit.Call(h.health))
	r.Get("/ready", httpkit.Call(h.ready))
	r.Get("/version", httpkit.Call(h.version))
	r.Get("/service", httpkit.Call(h.service))
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Now     string `json:"now"`
}

// ReadyCheck is one dependency's state
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok fail
	Error  string `json:"error,omitempty"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status"` // ok fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

// ServiceResponse describes the process
type ServiceResponse struct {
	Name    string `json:"name"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime"`
}

func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// ready runs every probe concurrently. A failed probe answers 503 with the same body.
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), ProbeTimeout)
	defer cancel()

	checks := make([]ReadyCheck, len(h.deps.Probes))
	var g errgroup.Group
	for i, p := range h.deps.Probes {
		g.Go(func() error {
			checks[i] = ReadyCheck{Name: p.Name, Status: "ok"}
			if err := p.Pinger.Ping(ctx); err != nil {
				checks[i] = ReadyCheck{Name: p.Name, Status: "fail", Error: err.Error()}
			}
			return nil
		})
	}
	_ = g.Wait()

	resp := ReadyResponse{Status: "ok", Checks: checks, Now: time.Now().UTC().Format(time.RFC3339)}
	for _, c := range checks {
		if c.Status != "ok" {
			resp.Status = "fail"
			return httpkit.Response{Status: http.StatusServiceUnavailable, Body: resp}, nil
		}
	}
	return resp, nil
}

func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(h.deps.ServiceName), nil
}

func (h *handlers) service(_ *http.Request) (any, error) {
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(time.Since(h.deps.StartedAt) / time.Second),
	}, nil
}
