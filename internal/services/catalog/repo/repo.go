// Package repo stores catalog entries in the document store
package repo

import (
	"context"

	"unievents/internal/modkit/repokit"
	perr "unievents/internal/platform/errors"
	"unievents/internal/platform/store/docstore"
	"unievents/internal/services/catalog/domain"
)

type docRepo struct {
	q    repokit.Queryer
	kind domain.Kind
}

// New returns a binder for the kind's collection
func New(kind domain.Kind) repokit.Binder[domain.Repo] {
	return repokit.BindFunc[domain.Repo](func(q repokit.Queryer) domain.Repo {
		return &docRepo{q: q, kind: kind}
	})
}

// FromDoc maps a stored document to an Entry
func FromDoc(d docstore.Document) domain.Entry {
	return domain.Entry{
		ID:             d.ID,
		Name:           d.Fields.Str(domain.FieldName),
		NameNormalized: d.Fields.Str(domain.FieldNameNormalized),
	}
}

// FromDocs maps a result set
func FromDocs(docs []docstore.Document) []domain.Entry {
	out := make([]domain.Entry, 0, len(docs))
	for _, d := range docs {
		out = append(out, FromDoc(d))
	}
	return out
}

func toDoc(e domain.Entry) docstore.Document {
	return docstore.Document{ID: e.ID, Fields: docstore.Fields{
		domain.FieldName:           e.Name,
		domain.FieldNameNormalized: e.NameNormalized,
	}}
}

func (r *docRepo) Get(ctx context.Context, id string) (*domain.Entry, error) {
	d, err := r.q.Get(ctx, r.kind.Collection, id)
	if err != nil || d == nil {
		return nil, perr.FromStore(err, "get "+r.kind.Label)
	}
	e := FromDoc(*d)
	return &e, nil
}

func (r *docRepo) List(ctx context.Context, prefix string) ([]domain.Entry, error) {
	docs, err := r.q.Query(ctx, domain.Query(r.kind, prefix))
	if err != nil {
		return nil, perr.FromStore(err, "list "+r.kind.Collection)
	}
	return FromDocs(docs), nil
}

func (r *docRepo) ByName(ctx context.Context, normalized string) ([]domain.Entry, error) {
	q := docstore.From(r.kind.Collection).Where(domain.FieldNameNormalized, docstore.Eq, normalized)
	docs, err := r.q.Query(ctx, q)
	if err != nil {
		return nil, perr.FromStore(err, "look up "+r.kind.Label+" name")
	}
	return FromDocs(docs), nil
}

func (r *docRepo) Create(ctx context.Context, e domain.Entry) (string, error) {
	id, err := r.q.Create(ctx, r.kind.Collection, toDoc(e))
	if err != nil {
		return "", perr.FromStore(err, "create "+r.kind.Label)
	}
	return id, nil
}

func (r *docRepo) Put(ctx context.Context, e domain.Entry) error {
	return perr.FromStore(r.q.Set(ctx, r.kind.Collection, toDoc(e)), "update "+r.kind.Label)
}
