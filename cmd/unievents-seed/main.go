// Command unievents-seed loads YAML fixtures into the document store
package main

import (
	"context"
	"flag"

	"unievents/internal/modkit/repokit"
	"unievents/internal/platform/config"
	"unievents/internal/platform/logger"
	"unievents/internal/platform/store"

	catalog "unievents/internal/services/catalog/domain"
	catrepo "unievents/internal/services/catalog/repo"
	catsvc "unievents/internal/services/catalog/service"
	evrepo "unievents/internal/services/events/repo"
	evsvc "unievents/internal/services/events/service"
	"unievents/internal/services/seed"
)

func main() {
	path := flag.String("file", "fixtures/seed.yaml", "fixture file")
	flag.Parse()

	root := config.New()
	l := logger.Get()
	ctx := context.Background()

	fx, err := seed.Load(*path)
	if err != nil {
		l.Fatal().Err(err).Msg("load fixtures")
	}

	st, err := store.Open(ctx, store.FromConfig(root), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	for _, p := range st.Probes() {
		repokit.MustPing(ctx, p.Name, p.Pinger)
	}

	s := seed.Seeder{
		Departments: catsvc.New(catalog.Departments, st.Docs, catrepo.New(catalog.Departments)),
		Categories:  catsvc.New(catalog.Categories, st.Docs, catrepo.New(catalog.Categories)),
		Events:      evsvc.New(st.Docs, evrepo.New()),
	}
	sum, err := s.Apply(ctx, fx)
	if err != nil {
		l.Panic().Err(err).Msg("seed failed")
	}
	l.Info().Str("file", *path).Interface("summary", sum).Msg("seeded")
}
