package module

import (
	"unievents/internal/platform/config"
)

// Options for the reconcile module
type Options struct {
	Schedule    string
	Collections []string
}

// FromConfig fills options from environment
// RECONCILE_SCHEDULE (default "@every 1h") is a cron spec or descriptor
// RECONCILE_COLLECTIONS (default "departments,categories") lists the catalog collections to scan
func FromConfig(cfg config.Conf) Options {
	r := cfg.Prefix("RECONCILE_")
	return Options{
		Schedule:    r.MayString("SCHEDULE", "@every 1h"),
		Collections: r.MayCSV("COLLECTIONS", []string{"departments", "categories"}),
	}
}
