package seed

import (
	"context"
	"fmt"

	"unievents/internal/core/normalize"
	perr "unievents/internal/platform/errors"
	"unievents/internal/platform/logger"
	catalog "unievents/internal/services/catalog/domain"
	events "unievents/internal/services/events/domain"
)

// Summary counts what a run wrote and what it found already present
type Summary struct {
	Created int `json:"created"`
	Reused  int `json:"reused"`
	Skipped int `json:"skipped"`
}

// Seeder writes fixtures through the services, so every write passes their validation
type Seeder struct {
	Departments catalog.ServicePort
	Categories  catalog.ServicePort
	Events      events.ServicePort
}

// Apply loads f. Catalog entries come first; events refer to them by name or id.
func (s Seeder) Apply(ctx context.Context, f *Fixtures) (Summary, error) {
	var sum Summary
	log := logger.C(ctx).With().Str("component", "seed").Logger()

	deps, err := s.entries(ctx, s.Departments, f.Departments, &sum)
	if err != nil {
		return sum, err
	}
	cats, err := s.entries(ctx, s.Categories, f.Categories, &sum)
	if err != nil {
		return sum, err
	}

	for _, ev := range f.Events {
		dep, ok := deps.lookup(ev.Department)
		if !ok {
			return sum, fmt.Errorf("seed: event %q: unknown department %q", ev.Title, ev.Department)
		}
		cat, ok := cats.lookup(ev.Category)
		if !ok {
			return sum, fmt.Errorf("seed: event %q: unknown category %q", ev.Title, ev.Category)
		}
		_, err := s.Events.Insert(ctx, events.Input{
			ID:                ev.ID,
			DepartmentID:      dep,
			CategoryID:        cat,
			Title:             ev.Title,
			Description:       ev.Description,
			Location:          ev.Location,
			Latitude:          ev.Latitude,
			Longitude:         ev.Longitude,
			StartDate:         ev.Start,
			EndDate:           ev.End,
			PrincipalImageURL: ev.Image,
		})
		switch {
		case err == nil:
			sum.Created++
		case ev.ID != "" && perr.IsCode(err, perr.ErrorCodeAlreadyExists):
			sum.Skipped++
		default:
			return sum, fmt.Errorf("seed: event %q: %w", ev.Title, err)
		}
	}
	log.Info().Int("created", sum.Created).Int("reused", sum.Reused).Int("skipped", sum.Skipped).Msg("seed applied")
	return sum, nil
}

// index resolves fixture references: by normalized name first, then by id
type index struct {
	byName map[string]string
	byID   map[string]struct{}
}

func (ix index) lookup(ref string) (string, bool) {
	if id, ok := ix.byName[normalize.Normalize(ref)]; ok {
		return id, true
	}
	_, ok := ix.byID[ref]
	return ref, ok
}

func (s Seeder) entries(ctx context.Context, svc catalog.ServicePort, in []Entry, sum *Summary) (index, error) {
	label := svc.Kind().Label
	for _, e := range in {
		_, err := svc.Insert(ctx, catalog.Input{ID: e.ID, Name: e.Name})
		switch {
		case err == nil:
			sum.Created++
		case perr.IsCode(err, perr.ErrorCodeDuplicateName), perr.IsCode(err, perr.ErrorCodeAlreadyExists):
			sum.Reused++
		default:
			return index{}, fmt.Errorf("seed: %s %q: %w", label, e.Name, err)
		}
	}

	all, err := svc.List(ctx, "")
	if err != nil {
		return index{}, err
	}
	ix := index{byName: make(map[string]string, len(all)), byID: make(map[string]struct{}, len(all))}
	for _, e := range all {
		ix.byName[e.NameNormalized] = e.ID
		ix.byID[e.ID] = struct{}{}
	}
	return ix, nil
}
