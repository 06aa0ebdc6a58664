// Command unievents-reconcile reports catalog names that collide after normalization, once or on
// a schedule
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"unievents/internal/modkit"
	"unievents/internal/modkit/module"
	"unievents/internal/modkit/repokit"
	"unievents/internal/platform/config"
	"unievents/internal/platform/logger"
	"unievents/internal/platform/store"

	recmod "unievents/internal/services/reconcile/module"
)

func main() {
	once := flag.Bool("once", false, "run a single pass and exit non-zero when collisions are found")
	flag.Parse()

	root := config.New()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.FromConfig(root), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	m, err := recmod.New(modkit.Deps{Log: l, Cfg: root, Docs: st.Docs})
	if err != nil {
		l.Panic().Err(err).Msg("reconcile module")
	}
	runner := module.MustPortsOf[recmod.Ports](m).Runner

	if *once {
		reports, err := runner.RunOnce(ctx)
		if err != nil {
			l.Error().Err(err).Msg("reconcile failed")
			os.Exit(2)
		}
		for _, r := range reports {
			if len(r.Groups) > 0 {
				os.Exit(1)
			}
		}
		return
	}

	if err := runner.Schedule(ctx, m.Options().Schedule); err != nil {
		l.Panic().Err(err).Msg("reconcile schedule")
	}
}
