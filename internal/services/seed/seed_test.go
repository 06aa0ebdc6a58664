package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"unievents/internal/platform/store/changefeed"
	"unievents/internal/platform/store/docstore/memdoc"
	catalog "unievents/internal/services/catalog/domain"
	catrepo "unievents/internal/services/catalog/repo"
	catsvc "unievents/internal/services/catalog/service"
	events "unievents/internal/services/events/domain"
	evrepo "unievents/internal/services/events/repo"
	evsvc "unievents/internal/services/events/service"
)

func newSeeder() Seeder {
	db := memdoc.New(changefeed.NewHub())
	return Seeder{
		Departments: catsvc.New(catalog.Departments, db, catrepo.New(catalog.Departments)),
		Categories:  catsvc.New(catalog.Categories, db, catrepo.New(catalog.Categories)),
		Events:      evsvc.New(db, evrepo.New()),
	}
}

func TestApply_RepoFixturesTwice(t *testing.T) {
	t.Parallel()
	f, err := Load(filepath.Join("..", "..", "..", "fixtures", "seed.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	s := newSeeder()
	ctx := context.Background()

	first, err := s.Apply(ctx, f)
	if err != nil {
		t.Fatal(err)
	}
	if first != (Summary{Created: 9}) {
		t.Fatalf("first = %+v", first)
	}
	second, err := s.Apply(ctx, f)
	if err != nil {
		t.Fatal(err)
	}
	if second != (Summary{Reused: 6, Skipped: 3}) {
		t.Fatalf("second = %+v", second)
	}

	evs, err := s.Events.List(ctx, events.Filter{Prefix: "work", DepartmentID: "ing"})
	if err != nil || len(evs) != 1 || evs[0].Title != "Workshop A" {
		t.Fatalf("workshops in ing = %+v %v", evs, err)
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name, doc string
		ok        bool
	}{
		{"empty", "", true},
		{"catalog only", "departments:\n  - name: Artes\n", true},
		{"unknown key", "venues:\n  - name: Aula\n", false},
		{"bad date", "events:\n  - title: x\n    start: tomorrow\n", false},
	}
	for _, tc := range cases {
		_, err := Decode(strings.NewReader(tc.doc))
		if (err == nil) != tc.ok {
			t.Fatalf("%s: err = %v", tc.name, err)
		}
	}
}

func TestApply_UnknownReference(t *testing.T) {
	t.Parallel()
	f, err := Decode(strings.NewReader(`
departments: [{name: Artes}]
categories: [{name: Taller}]
events:
  - title: Lost
    department: Biología
    category: Taller
    start: 2026-03-03T16:00:00Z
    end: 2026-03-03T18:00:00Z
`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := newSeeder().Apply(context.Background(), f); err == nil || !strings.Contains(err.Error(), `unknown department "Biología"`) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
}
