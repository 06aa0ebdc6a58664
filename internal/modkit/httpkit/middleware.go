package httpkit

import (
	"net/http"
	"time"

	phttp "unievents/internal/platform/net/http"
	"unievents/internal/platform/net/middleware"
)

// DefaultDeadline bounds one-shot requests; live routes are never wrapped in it
const DefaultDeadline = 30 * time.Second

// CommonStack is the per API middleware. The process wide stack lives in middleware.Defaults.
func CommonStack(origins ...string) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: origins}),
	}
}

// Deadline cancels a one-shot request after d
func Deadline(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		d = DefaultDeadline
	}
	return middleware.Timeout(d)
}

// Auth wires the auth middleware to the platform JSON writer
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, phttp.JSON)
}

// Protected mounts fn's routes behind bearer auth
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(gr Router) {
		gr.Use(Auth(p))
		fn(gr)
	})
}

// OneShot mounts fn's routes behind Deadline(d)
func OneShot(r Router, d time.Duration, fn func(Router)) {
	r.Group(func(gr Router) {
		gr.Use(Deadline(d))
		fn(gr)
	})
}
