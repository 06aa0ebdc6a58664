package domain

import (
	"context"

	"unievents/internal/core/live"
	"unievents/internal/platform/store/docstore"
)

// Repo is the storage side of the events collection
type Repo interface {
	Get(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, f Filter) ([]Event, error)
	Create(ctx context.Context, e Event) (string, error)
	Put(ctx context.Context, e Event) error
}

// ServicePort is consumed by handlers and other services
type ServicePort interface {
	Observe(ctx context.Context, f Filter) <-chan live.Update[[]Event]
	List(ctx context.Context, f Filter) ([]Event, error)
	Get(ctx context.Context, id string) (*Event, error)
	Insert(ctx context.Context, items ...Input) ([]string, error)
	Update(ctx context.Context, items ...Input) error
	Delete(ctx context.Context, ids ...string) error
}

// JoinPort resolves department and category references
type JoinPort interface {
	Resolve(ctx context.Context, ev Event) (EventWithRefs, error)
	ResolveAll(ctx context.Context, evs []Event) ([]EventWithRefs, error)
	Observe(ctx context.Context, eventID string) <-chan live.Update[*EventWithRefs]
	ObserveList(ctx context.Context, f Filter) <-chan live.Update[[]EventWithRefs]
}

// Query builds the ordered store query for f
func Query(f Filter) docstore.Query {
	q := docstore.From(CollectionEvents).Prefix(FieldTitleNormalized, f.Prefix)
	if f.DepartmentID != "" {
		q = q.Where(FieldDepartmentID, docstore.Eq, f.DepartmentID)
	}
	if f.CategoryID != "" {
		q = q.Where(FieldCategoryID, docstore.Eq, f.CategoryID)
	}
	if f.From != nil {
		q = q.Where(FieldStartDate, docstore.Gte, docstore.Millis(*f.From))
	}
	if f.To != nil {
		q = q.Where(FieldEndDate, docstore.Lte, docstore.Millis(*f.To))
	}
	return q.Asc(FieldStartDate)
}
