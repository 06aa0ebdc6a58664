// Package modkit provides module wiring and the deps every module is built from
package modkit

import (
	"time"

	"unievents/internal/modkit/repokit"
	"unievents/internal/platform/config"
	"unievents/internal/platform/logger"
	"unievents/internal/platform/net/middleware"
	"unievents/internal/platform/store"
)

// Deps holds what modules are built from. Docs is required; the rest may be zero in tests.
type Deps struct {
	Log  *logger.Logger
	Cfg  config.Conf
	Docs repokit.TxRunner
	// Auth authenticates protected routes; nil leaves them open and anonymous
	Auth middleware.AuthPort
	// Started and Probes are reported by the meta module
	Started time.Time
	Probes  []store.Probe
}

// Logger returns Log or a named child of the root logger
func (d Deps) Logger(component string) *logger.Logger {
	if d.Log != nil {
		l := d.Log.With().Str("component", component).Logger()
		return &l
	}
	return logger.Named(component)
}
