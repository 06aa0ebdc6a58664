package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"unievents/internal/platform/store/changefeed"
	"unievents/internal/platform/store/docstore"
	"unievents/internal/platform/store/docstore/memdoc"
	"unievents/internal/platform/testkit"
	catalog "unievents/internal/services/catalog/domain"
	catrepo "unievents/internal/services/catalog/repo"
	catsvc "unievents/internal/services/catalog/service"
)

type failing struct{ kind catalog.Kind }

func (f failing) Kind() catalog.Kind { return f.kind }
func (f failing) Duplicates(context.Context) ([][]catalog.Entry, error) {
	return nil, errors.New("store down")
}

type counting struct {
	runs atomic.Int32
	hit  chan struct{}
}

func (c *counting) Kind() catalog.Kind { return catalog.Categories }
func (c *counting) Duplicates(context.Context) ([][]catalog.Entry, error) {
	c.runs.Add(1)
	select {
	case c.hit <- struct{}{}:
	default:
	}
	return nil, nil
}

func TestRunOnce_ReportsCollisions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := memdoc.New(changefeed.NewHub())
	// written around the service, as a lockless backend or a manual edit would
	for _, d := range []struct{ id, name, norm string }{
		{"d1", "Cómputo", "computo"},
		{"d2", "computo", "computo"},
		{"d3", "Artes", "artes"},
	} {
		if err := db.Set(ctx, catalog.Departments.Collection, docstore.Document{ID: d.id, Fields: docstore.Fields{
			catalog.FieldName: d.name, catalog.FieldNameNormalized: d.norm,
		}}); err != nil {
			t.Fatal(err)
		}
	}

	svc := New(
		catsvc.New(catalog.Departments, db, catrepo.New(catalog.Departments)),
		catsvc.New(catalog.Categories, db, catrepo.New(catalog.Categories)),
		failing{kind: catalog.Kind{Collection: "broken", Label: "broken"}},
	)
	reports, err := svc.RunOnce(ctx)
	if err == nil {
		t.Fatal("expected the broken collection to fail")
	}
	testkit.MustContain(t, err.Error(), "broken: store down")
	if len(reports) != 2 {
		t.Fatalf("reports = %+v", reports)
	}
	deps := reports[0]
	if deps.Collection != "departments" || len(deps.Groups) != 1 || len(deps.Groups[0]) != 2 {
		t.Fatalf("departments = %+v", deps)
	}
	if len(reports[1].Groups) != 0 {
		t.Fatalf("categories = %+v", reports[1])
	}
}

func TestSchedule(t *testing.T) {
	t.Parallel()
	c := &counting{hit: make(chan struct{}, 1)}
	svc := New(c)

	if err := svc.Schedule(context.Background(), "not a schedule"); err == nil {
		t.Fatal("expected a parse error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Schedule(ctx, "@every 1s") }()

	select {
	case <-c.hit:
	case <-time.After(3 * time.Second):
		t.Fatal("no pass ran")
	}
	cancel()
	if err := testkit.Recv(t, done); err != nil {
		t.Fatalf("schedule = %v", err)
	}
	if c.runs.Load() < 1 {
		t.Fatal("runs not counted")
	}
}
