package repokit

import (
	"context"
	"errors"
	"testing"

	"unievents/internal/platform/store/changefeed"
	"unievents/internal/platform/store/docstore"
	"unievents/internal/platform/store/docstore/memdoc"
)

type names struct{ q Queryer }

func (n names) put(ctx context.Context, id string) error {
	return n.q.Set(ctx, "names", docstore.Document{ID: id, Fields: docstore.Fields{"v": id}})
}

var namesBinder = BindFunc[names](func(q Queryer) names { return names{q: q} })

func TestBindFunc_BindCallsFunc(t *testing.T) {
	t.Parallel()
	b := BindFunc[string](func(_ Queryer) string { return "ok" })
	if got := b.Bind(nil); got != "ok" {
		t.Fatalf("Bind = %q", got)
	}
}

func TestMustBind_PanicsOnNilQueryer(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	_ = MustBind[names](namesBinder, nil)
}

func TestWithTx_CommitsAndRollsBack(t *testing.T) {
	t.Parallel()
	db := memdoc.New(changefeed.NewHub())
	ctx := context.Background()

	err := WithTx(ctx, db, namesBinder, func(ctx context.Context, _ docstore.Tx, r names) error {
		return r.put(ctx, "kept")
	})
	if err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err = WithTx(ctx, db, namesBinder, func(ctx context.Context, _ docstore.Tx, r names) error {
		if err := r.put(ctx, "dropped"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}

	if d, _ := db.Get(ctx, "names", "kept"); d == nil {
		t.Fatal("committed doc missing")
	}
	if d, _ := db.Get(ctx, "names", "dropped"); d != nil {
		t.Fatal("rolled back doc was written")
	}
}

type lockTx struct {
	docstore.Tx
	locked []string
	failOn string
}

func (l *lockTx) Lock(_ context.Context, key string) error {
	if key == l.failOn {
		return errors.New("lock " + key)
	}
	l.locked = append(l.locked, key)
	return nil
}

func TestLock_SortedAndDeduped(t *testing.T) {
	t.Parallel()
	tx := &lockTx{}
	if err := RunMidHooks(context.Background(), tx, Lock("b", "a", "b", "c")); err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b", "c"}
	if len(tx.locked) != len(want) {
		t.Fatalf("locked = %v", tx.locked)
	}
	for i := range want {
		if tx.locked[i] != want[i] {
			t.Fatalf("locked = %v", tx.locked)
		}
	}
}

func TestRunMidHooks_StopsAtFirstError(t *testing.T) {
	t.Parallel()
	tx := &lockTx{failOn: "b"}
	ran := false
	err := RunMidHooks(context.Background(), tx, Lock("a", "b"), func(context.Context, docstore.Tx) error {
		ran = true
		return nil
	})
	if err == nil || ran {
		t.Fatalf("err=%v ran=%v", err, ran)
	}
}
