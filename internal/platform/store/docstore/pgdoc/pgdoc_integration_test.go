//go:build integration_pg

package pgdoc

import (
	"context"
	"fmt"
	"testing"
	"time"

	perr "unievents/internal/platform/errors"
	"unievents/internal/platform/store/changefeed"
	"unievents/internal/platform/store/docstore"
	"unievents/internal/platform/store/pg"
	"unievents/internal/platform/testkit"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "postgres",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, port.Port())
}

func TestClient_Integration(t *testing.T) {
	dsn := startPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	p, err := pg.Open(ctx, pg.Config{URL: dsn, MaxConns: 4}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Close)
	if err := p.WaitReady(ctx, 20); err != nil {
		t.Fatal(err)
	}
	if err := EnsureSchema(ctx, p.Runner()); err != nil {
		t.Fatalf("schema: %v", err)
	}

	hub := changefeed.NewHub()
	lctx, stop := context.WithCancel(ctx)
	defer stop()
	go func() { _ = NewListener(p.Pool, hub).Run(lctx) }()

	c := New(p.Runner(), hub, nil)

	t.Run("create and conflict", func(t *testing.T) {
		id, err := c.Create(ctx, "departments", docstore.Document{ID: "d1", Fields: docstore.Fields{"name": "Física", "nameNormalized": "fisica"}})
		if err != nil || id != "d1" {
			t.Fatalf("create = %q %v", id, err)
		}
		if _, err := c.Create(ctx, "departments", docstore.Document{ID: "d1"}); !perr.IsCode(err, perr.ErrorCodeAlreadyExists) {
			t.Fatalf("conflict = %v", err)
		}
		d, err := c.Get(ctx, "departments", "d1")
		if err != nil || d.Fields.Str("name") != "Física" {
			t.Fatalf("get = %+v %v", d, err)
		}
	})

	t.Run("typed filters prefix and order", func(t *testing.T) {
		for i, title := range []string{"workshop b", "workshop a", "worl", "charla"} {
			_ = c.Set(ctx, "events", docstore.Document{ID: fmt.Sprintf("e%d", i), Fields: docstore.Fields{
				"titleNormalized": title,
				"startDate":       int64(1000 - i*100),
			}})
		}
		_ = c.Set(ctx, "events", docstore.Document{ID: "weird", Fields: docstore.Fields{"titleNormalized": int64(5), "startDate": "soon"}})

		got, err := c.Query(ctx, docstore.From("events").Prefix("titleNormalized", "work").Where("startDate", docstore.Gte, int64(850)).Asc("startDate"))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 || got[0].ID != "e1" || got[1].ID != "e0" {
			t.Fatalf("query = %+v", got)
		}
	})

	t.Run("watch sees committed writes", func(t *testing.T) {
		updates := make(chan []docstore.Document, 4)
		reg := c.Watch(docstore.From("memberships").Where("userId", docstore.Eq, "u1"), func(d []docstore.Document, err error) {
			if err == nil {
				updates <- d
			}
		})
		defer reg.Remove()
		testkit.Recv(t, updates)

		err := c.RunTx(ctx, func(ctx context.Context, tx docstore.Tx) error {
			if err := tx.Lock(ctx, "memberships:u1"); err != nil {
				return err
			}
			_, err := tx.Create(ctx, "memberships", docstore.Document{Fields: docstore.Fields{"userId": "u1", "eventId": "e1"}})
			return err
		})
		if err != nil {
			t.Fatal(err)
		}
		got := testkit.RecvUntil(t, updates, func(d []docstore.Document) bool { return len(d) == 1 })
		ids := []string{got[0].ID}
		if err := c.DeleteBatch(ctx, "memberships", ids); err != nil {
			t.Fatal(err)
		}
		testkit.RecvUntil(t, updates, func(d []docstore.Document) bool { return len(d) == 0 })
	})
}
