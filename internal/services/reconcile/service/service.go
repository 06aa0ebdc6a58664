// Package service scans catalog collections for names that collide after normalization. Writers
// serialise on an advisory lock, so a hit means a backend without locks or a manual edit let one
// through. Hits are logged for an operator; nothing is rewritten.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"unievents/internal/platform/logger"
	"unievents/internal/services/reconcile/domain"
)

// Svc implements domain.RunnerPort
type Svc struct {
	finders []domain.Finder
	log     *logger.Logger
}

var _ domain.RunnerPort = (*Svc)(nil)

// New returns a reconciler over finders
func New(finders ...domain.Finder) *Svc {
	return &Svc{finders: finders, log: logger.Named("reconcile")}
}

// RunOnce scans every collection. A failing collection does not stop the others; its error is
// joined into the result.
func (s *Svc) RunOnce(ctx context.Context) ([]domain.Report, error) {
	var (
		out  []domain.Report
		errs []error
	)
	for _, f := range s.finders {
		coll := f.Kind().Collection
		groups, err := f.Duplicates(ctx)
		if err != nil {
			s.log.Error().Err(err).Str("collection", coll).Msg("duplicate scan failed")
			errs = append(errs, fmt.Errorf("%s: %w", coll, err))
			continue
		}
		for _, g := range groups {
			ids := make([]string, len(g))
			for i, e := range g {
				ids[i] = e.ID
			}
			s.log.Warn().
				Str("collection", coll).
				Str("name_normalized", g[0].NameNormalized).
				Str("ids", strings.Join(ids, ",")).
				Msg("names collide after normalization")
		}
		out = append(out, domain.Report{Collection: coll, Groups: groups})
	}
	s.log.Info().Int("collections", len(out)).Int("failed", len(errs)).Msg("reconcile pass done")
	return out, errors.Join(errs...)
}

// Schedule runs RunOnce on the cron spec until ctx ends. A pass still running when the next is
// due is skipped. It returns once the running pass, if any, has finished.
func (s *Svc) Schedule(ctx context.Context, spec string) error {
	cl := cronLogger{s.log}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(spec, func() { _, _ = s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("reconcile schedule %q: %w", spec, err)
	}
	s.log.Info().Str("schedule", spec).Msg("reconcile scheduled")
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct{ log *logger.Logger }

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Debug().Fields(kv).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error().Err(err).Fields(kv).Msg("cron: " + msg)
}
