// Package domain defines the duplicate name reconciliation report
package domain

import (
	"context"

	catalog "unievents/internal/services/catalog/domain"
)

// Finder reports catalog entries sharing a normalized name
type Finder interface {
	Kind() catalog.Kind
	Duplicates(ctx context.Context) ([][]catalog.Entry, error)
}

// Report is one collection's result; an empty Groups means the uniqueness invariant holds
type Report struct {
	Collection string            `json:"collection"`
	Groups     [][]catalog.Entry `json:"groups"`
}

// RunnerPort runs reconciliation passes
type RunnerPort interface {
	RunOnce(ctx context.Context) ([]Report, error)
	Schedule(ctx context.Context, spec string) error
}
