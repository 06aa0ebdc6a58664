// Package repo stores events in the document store
package repo

import (
	"context"

	"unievents/internal/modkit/repokit"
	perr "unievents/internal/platform/errors"
	"unievents/internal/platform/store/docstore"
	"unievents/internal/services/events/domain"
)

type docRepo struct{ q repokit.Queryer }

// New returns a binder for the events collection
func New() repokit.Binder[domain.Repo] {
	return repokit.BindFunc[domain.Repo](func(q repokit.Queryer) domain.Repo { return &docRepo{q: q} })
}

// FromDoc maps a stored document to an Event
func FromDoc(d docstore.Document) domain.Event {
	f := d.Fields
	return domain.Event{
		ID:                d.ID,
		DepartmentID:      f.Str(domain.FieldDepartmentID),
		CategoryID:        f.Str(domain.FieldCategoryID),
		Title:             f.Str(domain.FieldTitle),
		TitleNormalized:   f.Str(domain.FieldTitleNormalized),
		Description:       f.Str(domain.FieldDescription),
		Location:          f.Str(domain.FieldLocation),
		Latitude:          f.Float(domain.FieldLatitude),
		Longitude:         f.Float(domain.FieldLongitude),
		StartDate:         f.Time(domain.FieldStartDate),
		EndDate:           f.Time(domain.FieldEndDate),
		PrincipalImageURL: f.Str(domain.FieldImageURL),
	}
}

// FromDocs maps a result set
func FromDocs(docs []docstore.Document) []domain.Event {
	out := make([]domain.Event, 0, len(docs))
	for _, d := range docs {
		out = append(out, FromDoc(d))
	}
	return out
}

// ToDoc maps an Event to its stored form; an empty image url is not stored
func ToDoc(e domain.Event) docstore.Document {
	f := docstore.Fields{
		domain.FieldDepartmentID:    e.DepartmentID,
		domain.FieldCategoryID:      e.CategoryID,
		domain.FieldTitle:           e.Title,
		domain.FieldTitleNormalized: e.TitleNormalized,
		domain.FieldDescription:     e.Description,
		domain.FieldLocation:        e.Location,
		domain.FieldLatitude:        e.Latitude,
		domain.FieldLongitude:       e.Longitude,
		domain.FieldStartDate:       docstore.Millis(e.StartDate),
		domain.FieldEndDate:         docstore.Millis(e.EndDate),
	}
	if e.PrincipalImageURL != "" {
		f[domain.FieldImageURL] = e.PrincipalImageURL
	}
	return docstore.Document{ID: e.ID, Fields: f}
}

func (r *docRepo) Get(ctx context.Context, id string) (*domain.Event, error) {
	d, err := r.q.Get(ctx, domain.CollectionEvents, id)
	if err != nil || d == nil {
		return nil, perr.FromStore(err, "get event")
	}
	e := FromDoc(*d)
	return &e, nil
}

func (r *docRepo) List(ctx context.Context, f domain.Filter) ([]domain.Event, error) {
	docs, err := r.q.Query(ctx, domain.Query(f))
	if err != nil {
		return nil, perr.FromStore(err, "list events")
	}
	return FromDocs(docs), nil
}

func (r *docRepo) Create(ctx context.Context, e domain.Event) (string, error) {
	id, err := r.q.Create(ctx, domain.CollectionEvents, ToDoc(e))
	if err != nil {
		return "", perr.FromStore(err, "create event")
	}
	return id, nil
}

func (r *docRepo) Put(ctx context.Context, e domain.Event) error {
	return perr.FromStore(r.q.Set(ctx, domain.CollectionEvents, ToDoc(e)), "update event")
}
