// Package service implements catalog workflows: name uniqueness under normalization,
// id assignment, ordered live lists
package service

import (
	"context"
	"strings"

	"unievents/internal/core/live"
	"unievents/internal/core/normalize"
	"unievents/internal/modkit/repokit"
	perr "unievents/internal/platform/errors"
	"unievents/internal/platform/logger"
	"unievents/internal/platform/store/docstore"
	"unievents/internal/services/catalog/domain"
	"unievents/internal/services/catalog/repo"
)

// Service defines the catalog service contract
type Service interface {
	domain.ServicePort
}

// Svc implements one catalog collection
type Svc struct {
	kind   domain.Kind
	db     repokit.TxRunner
	binder repokit.Binder[domain.Repo]
	Repo   domain.Repo
	log    *logger.Logger
}

var _ Service = (*Svc)(nil)

// New constructs a catalog service
func New(kind domain.Kind, db repokit.TxRunner, binder repokit.Binder[domain.Repo]) *Svc {
	if db == nil {
		panic("catalog.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("catalog.Service requires a non nil Repo binder")
	}
	return &Svc{
		kind:   kind,
		db:     db,
		binder: binder,
		Repo:   binder.Bind(db),
		log:    logger.Named(kind.Collection),
	}
}

// Kind returns the collection served
func (s *Svc) Kind() domain.Kind { return s.kind }

// prefix trims and normalizes user text; blank gives no filter
func prefix(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return normalize.Normalize(text)
}

// lockKey is the advisory lock serialising writers of one normalized name
func (s *Svc) lockKey(normalized string) string { return s.kind.Collection + ":" + normalized }

// Observe streams the ordered list matching prefix until ctx ends or the listener fails
func (s *Svc) Observe(ctx context.Context, text string) <-chan live.Update[[]domain.Entry] {
	q := domain.Query(s.kind, prefix(text))
	return live.Stream(ctx, func(emit func([]domain.Entry, error)) func() {
		reg := s.db.Watch(q, func(docs []docstore.Document, err error) {
			if err != nil {
				s.log.Warn().Err(err).Msg("catalog listener failed")
				emit(nil, perr.FromStore(err, "observe "+s.kind.Collection))
				return
			}
			emit(repo.FromDocs(docs), nil)
		})
		return reg.Remove
	})
}

// List returns a snapshot of the ordered list matching prefix
func (s *Svc) List(ctx context.Context, text string) ([]domain.Entry, error) {
	return s.Repo.List(ctx, prefix(text))
}

// Get returns the entry or nil
func (s *Svc) Get(ctx context.Context, id string) (*domain.Entry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, perr.InvalidArgf("%s id is required", s.kind.Label)
	}
	return s.Repo.Get(ctx, id)
}

// prepare validates names and derives normalized forms, rejecting collisions inside the batch
func (s *Svc) prepare(items []domain.Input, needID bool) ([]domain.Entry, []string, error) {
	out := make([]domain.Entry, 0, len(items))
	keys := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, in := range items {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, nil, perr.WithField(perr.InvalidArgf("%s name is required", s.kind.Label), "name")
		}
		id := strings.TrimSpace(in.ID)
		if needID && id == "" {
			return nil, nil, perr.WithField(perr.InvalidArgf("%s id is required", s.kind.Label), "id")
		}
		norm := normalize.Normalize(name)
		if _, dup := seen[norm]; dup {
			return nil, nil, perr.DuplicateNamef("a %s named %q already exists", s.kind.Label, name)
		}
		seen[norm] = struct{}{}
		out = append(out, domain.Entry{ID: id, Name: name, NameNormalized: norm})
		keys = append(keys, s.lockKey(norm))
	}
	return out, keys, nil
}

// Insert creates entries, failing the whole batch with DuplicateName when any normalized name is
// taken and with AlreadyExists when a given id is. Nothing is written on failure.
func (s *Svc) Insert(ctx context.Context, items ...domain.Input) ([]string, error) {
	entries, keys, err := s.prepare(items, false)
	if err != nil || len(entries) == 0 {
		return nil, err
	}

	var ids []string
	err = repokit.WithTx(ctx, s.db, s.binder, func(ctx context.Context, tx docstore.Tx, r domain.Repo) error {
		ids = ids[:0]
		if err := repokit.RunMidHooks(ctx, tx, repokit.Lock(keys...)); err != nil {
			return perr.FromStore(err, "lock names")
		}
		for _, e := range entries {
			taken, err := r.ByName(ctx, e.NameNormalized)
			if err != nil {
				return err
			}
			if len(taken) > 0 {
				return perr.DuplicateNamef("a %s named %q already exists", s.kind.Label, taken[0].Name)
			}
		}
		for _, e := range entries {
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

// Update renames entries. A name may collide with nothing but the entry itself.
func (s *Svc) Update(ctx context.Context, items ...domain.Input) error {
	entries, keys, err := s.prepare(items, true)
	if err != nil || len(entries) == 0 {
		return err
	}
	return repokit.WithTx(ctx, s.db, s.binder, func(ctx context.Context, tx docstore.Tx, r domain.Repo) error {
		if err := repokit.RunMidHooks(ctx, tx, repokit.Lock(keys...)); err != nil {
			return perr.FromStore(err, "lock names")
		}
		for _, e := range entries {
			taken, err := r.ByName(ctx, e.NameNormalized)
			if err != nil {
				return err
			}
			for _, other := range taken {
				if other.ID != e.ID {
					return perr.DuplicateNamef("a %s named %q already exists", s.kind.Label, other.Name)
				}
			}
		}
		for _, e := range entries {
			if err := r.Put(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes entries by id. Every id must be non-blank; missing entries are not an error.
func (s *Svc) Delete(ctx context.Context, ids ...string) error {
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return perr.WithField(perr.InvalidArgf("%s id is required", s.kind.Label), "id")
		}
		clean = append(clean, id)
	}
	for _, batch := range docstore.Chunk(clean) {
		if err := s.db.DeleteBatch(ctx, s.kind.Collection, batch); err != nil {
			return perr.FromStore(err, "delete "+s.kind.Collection)
		}
	}
	return nil
}

// Duplicates reports groups of entries sharing a normalized name, in list order
func (s *Svc) Duplicates(ctx context.Context) ([][]domain.Entry, error) {
	all, err := s.Repo.List(ctx, "")
	if err != nil {
		return nil, err
	}
	var groups [][]domain.Entry
	for i := 0; i < len(all); {
		j := i + 1
		for j < len(all) && all[j].NameNormalized == all[i].NameNormalized {
			j++
		}
		if j-i > 1 {
			groups = append(groups, all[i:j:j])
		}
		i = j
	}
	return groups, nil
}
