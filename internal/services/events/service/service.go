// Package service implements event workflows and the reference join used by the browse screens
package service

import (
	"context"
	"math"
	"strings"

	"unievents/internal/core/live"
	"unievents/internal/core/normalize"
	"unievents/internal/modkit/repokit"
	perr "unievents/internal/platform/errors"
	"unievents/internal/platform/logger"
	"unievents/internal/platform/store/docstore"
	catalog "unievents/internal/services/catalog/domain"
	"unievents/internal/services/events/domain"
	"unievents/internal/services/events/repo"
)

// Service defines the events service contract
type Service interface {
	domain.ServicePort
}

// Svc implements Service
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[domain.Repo]
	Repo   domain.Repo
	log    *logger.Logger
}

var _ Service = (*Svc)(nil)

// New constructs the events service
func New(db repokit.TxRunner, binder repokit.Binder[domain.Repo]) *Svc {
	if db == nil {
		panic("events.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("events.Service requires a non nil Repo binder")
	}
	return &Svc{db: db, binder: binder, Repo: binder.Bind(db), log: logger.Named("events")}
}

// Observe streams events matching f in startDate order
func (s *Svc) Observe(ctx context.Context, f domain.Filter) <-chan live.Update[[]domain.Event] {
	q := domain.Query(f)
	return live.Stream(ctx, func(emit func([]domain.Event, error)) func() {
		reg := s.db.Watch(q, func(docs []docstore.Document, err error) {
			if err != nil {
				s.log.Warn().Err(err).Msg("events listener failed")
				emit(nil, perr.FromStore(err, "observe events"))
				return
			}
			emit(repo.FromDocs(docs), nil)
		})
		return reg.Remove
	})
}

// List returns a snapshot of events matching f
func (s *Svc) List(ctx context.Context, f domain.Filter) ([]domain.Event, error) {
	return s.Repo.List(ctx, f)
}

// Get returns the event or nil
func (s *Svc) Get(ctx context.Context, id string) (*domain.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, perr.InvalidArgf("event id is required")
	}
	return s.Repo.Get(ctx, id)
}

func invalid(field, format string, a ...any) error {
	return perr.WithField(perr.InvalidArgf(format, a...), field)
}

// build validates one input and derives the stored event
func build(in domain.Input, needID bool) (domain.Event, error) {
	e := domain.Event{
		ID:                strings.TrimSpace(in.ID),
		DepartmentID:      strings.TrimSpace(in.DepartmentID),
		CategoryID:        strings.TrimSpace(in.CategoryID),
		Title:             strings.TrimSpace(in.Title),
		Description:       strings.TrimSpace(in.Description),
		Location:          strings.TrimSpace(in.Location),
		Latitude:          in.Latitude,
		Longitude:         in.Longitude,
		StartDate:         in.StartDate.UTC(),
		EndDate:           in.EndDate.UTC(),
		PrincipalImageURL: strings.TrimSpace(in.PrincipalImageURL),
	}
	switch {
	case needID && e.ID == "":
		return e, invalid("id", "event id is required")
	case e.Title == "":
		return e, invalid("title", "event title is required")
	case e.DepartmentID == "":
		return e, invalid("departmentId", "event department is required")
	case e.CategoryID == "":
		return e, invalid("categoryId", "event category is required")
	case e.StartDate.IsZero() || e.EndDate.IsZero():
		return e, invalid("startDate", "event start and end dates are required")
	case !e.StartDate.Before(e.EndDate):
		return e, invalid("endDate", "event must end after it starts")
	case math.IsNaN(e.Latitude) || e.Latitude < -90 || e.Latitude > 90:
		return e, invalid("latitude", "latitude %v is out of range", e.Latitude)
	case math.IsNaN(e.Longitude) || e.Longitude < -180 || e.Longitude > 180:
		return e, invalid("longitude", "longitude %v is out of range", e.Longitude)
	}
	e.TitleNormalized = normalize.Normalize(e.Title)
	return e, nil
}

func buildAll(items []domain.Input, needID bool) ([]domain.Event, error) {
	out := make([]domain.Event, 0, len(items))
	for _, in := range items {
		e, err := build(in, needID)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// checkRefs fails with InvalidArgument when a department or category does not exist
func checkRefs(ctx context.Context, tx docstore.Reader, e domain.Event) error {
	refs := [...]struct {
		kind  catalog.Kind
		id    string
		field string
	}{
		{catalog.Departments, e.DepartmentID, "departmentId"},
		{catalog.Categories, e.CategoryID, "categoryId"},
	}
	for _, ref := range refs {
		ok, err := docstore.Exists(ctx, tx, ref.kind.Collection, ref.id)
		if err != nil {
			return perr.FromStore(err, "check "+ref.kind.Label)
		}
		if !ok {
			return invalid(ref.field, "%s %q does not exist", ref.kind.Label, ref.id)
		}
	}
	return nil
}

// Insert creates events after checking their references. An explicit id already in use is
// AlreadyExists. The batch is written in one transaction.
func (s *Svc) Insert(ctx context.Context, items ...domain.Input) ([]string, error) {
	evs, err := buildAll(items, false)
	if err != nil || len(evs) == 0 {
		return nil, err
	}
	var ids []string
	err = repokit.WithTx(ctx, s.db, s.binder, func(ctx context.Context, tx docstore.Tx, r domain.Repo) error {
		ids = ids[:0]
		for _, e := range evs {
			if err := checkRefs(ctx, tx, e); err != nil {
				return err
			}
			id, err := r.Create(ctx, e)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Int("count", len(ids)).Msg("inserted")
	return ids, nil
}

// Update replaces existing events; a missing one is NotFound
func (s *Svc) Update(ctx context.Context, items ...domain.Input) error {
	evs, err := buildAll(items, true)
	if err != nil || len(evs) == 0 {
		return err
	}
	return repokit.WithTx(ctx, s.db, s.binder, func(ctx context.Context, tx docstore.Tx, r domain.Repo) error {
		for _, e := range evs {
			cur, err := r.Get(ctx, e.ID)
			if err != nil {
				return err
			}
			if cur == nil {
				return perr.NotFoundf("event %q not found", e.ID)
			}
			if err := checkRefs(ctx, tx, e); err != nil {
				return err
			}
			if err := r.Put(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes events by id. Every id must be non-blank; missing events are not an error.
func (s *Svc) Delete(ctx context.Context, ids ...string) error {
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return invalid("id", "event id is required")
		}
		clean = append(clean, id)
	}
	for _, batch := range docstore.Chunk(clean) {
		if err := s.db.DeleteBatch(ctx, domain.CollectionEvents, batch); err != nil {
			return perr.FromStore(err, "delete events")
		}
	}
	return nil
}
