package domain

import (
	"context"

	"unievents/internal/core/live"
	"unievents/internal/platform/store/docstore"
)

// Repo is the storage side of one catalog collection
type Repo interface {
	Get(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, prefix string) ([]Entry, error)
	// ByName returns every entry whose normalized name equals normalized
	ByName(ctx context.Context, normalized string) ([]Entry, error)
	Create(ctx context.Context, e Entry) (string, error)
	Put(ctx context.Context, e Entry) error
}

// ServicePort is consumed by handlers and other services
type ServicePort interface {
	Kind() Kind
	Observe(ctx context.Context, prefix string) <-chan live.Update[[]Entry]
	List(ctx context.Context, prefix string) ([]Entry, error)
	Get(ctx context.Context, id string) (*Entry, error)
	Insert(ctx context.Context, items ...Input) ([]string, error)
	Update(ctx context.Context, items ...Input) error
	Delete(ctx context.Context, ids ...string) error
	// Duplicates groups entries that share a normalized name; empty when the invariant holds
	Duplicates(ctx context.Context) ([][]Entry, error)
}

// Query is the ordered catalog query for an already normalized prefix
func Query(k Kind, prefix string) docstore.Query {
	return docstore.From(k.Collection).Prefix(FieldNameNormalized, prefix).Asc(FieldNameNormalized)
}
