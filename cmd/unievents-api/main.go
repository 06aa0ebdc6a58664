// Command unievents-api serves the catalog, events, browse and membership API
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"unievents/internal/modkit/httpkit"
	"unievents/internal/modkit/repokit"
	"unievents/internal/platform/config"
	"unievents/internal/platform/logger"
	phttp "unievents/internal/platform/net/http"
	"unievents/internal/platform/net/middleware"
	"unievents/internal/platform/store"

	"unievents/internal/services/api"
	idsvc "unievents/internal/services/identity/service"
)

func main() {
	issue := flag.String("token", "", "print a bearer token for this user id and exit")
	flag.Parse()

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	l := logger.Get()

	tokens := idsvc.NewTokens(
		apiCfg.MustString("JWT_SECRET"),
		apiCfg.MayString("JWT_ISSUER", "unievents"),
		apiCfg.MayDuration("JWT_TTL", 24*time.Hour),
	)
	if *issue != "" {
		tok, err := tokens.Issue(*issue)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(tok)
		return
	}

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

	// process wide middleware goes on the mux before any route
	srv := phttp.NewServer(apiCfg, func(m *chi.Mux) {
		m.Use(middleware.Heartbeat("/healthz"))
		m.Use(middleware.Defaults(middleware.AccessLogOptions{
			Slow: apiCfg.MayDuration("SLOW_REQUEST", time.Second),
		})...)
	})

	api.Mount(ctx, srv.Router(), api.Options{
		Config:         apiCfg,
		Store:          st,
		Logger:         l,
		Auth:           httpkit.NewPortFunc(tokens.Parse),
		Origins:        apiCfg.MayCSV("CORS_ORIGINS", []string{"*"}),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return st.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		l.Panic().Err(err).Msg("api stopped")
	}
	l.Info().Msg("api stopped")
}
