package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"unievents/internal/core/live"
	perr "unievents/internal/platform/errors"
	"unievents/internal/platform/store/changefeed"
	"unievents/internal/platform/store/docstore"
	"unievents/internal/platform/store/docstore/memdoc"
	"unievents/internal/platform/testkit"
	events "unievents/internal/services/events/domain"
	eventrepo "unievents/internal/services/events/repo"
	ident "unievents/internal/services/identity/service"
	"unievents/internal/services/membership/domain"
	"unievents/internal/services/membership/repo"
)

var d0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db   *memdoc.Store
	sess *ident.Session
	svc  *Svc
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := memdoc.New(changefeed.NewHub())
	sess := ident.NewSession(db)
	ctx := context.Background()
	for i, title := range []string{"Tercero", "Primero", "Segundo"} {
		e := events.Event{
			ID:        fmt.Sprintf("E%d", i+1),
			Title:     title,
			StartDate: d0.AddDate(0, 0, []int{3, 1, 2}[i]),
			EndDate:   d0.AddDate(0, 0, []int{3, 1, 2}[i]).Add(time.Hour),
		}
		if err := db.Set(ctx, events.CollectionEvents, eventrepo.ToDoc(e)); err != nil {
			t.Fatal(err)
		}
	}
	return fixture{db: db, sess: sess, svc: New(db, sess)}
}

func (f fixture) signIn(t *testing.T, userID string) {
	t.Helper()
	if _, err := f.sess.SignIn(context.Background(), userID); err != nil {
		t.Fatal(err)
	}
}

func (f fixture) count(t *testing.T, userID, eventID string) int {
	t.Helper()
	docs, err := f.db.Query(context.Background(), repo.ByUserEvent(userID, eventID))
	if err != nil {
		t.Fatal(err)
	}
	return len(docs)
}

func eventIDs(js []domain.Joined) []string {
	out := make([]string, len(js))
	for i, j := range js {
		if j.Event == nil {
			out[i] = "<nil>"
			continue
		}
		out[i] = j.Event.ID
	}
	return out
}

func TestWrites_RequireIdentity(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Join(ctx, "E1"); !perr.IsCode(err, perr.ErrorCodeNotSignedIn) {
		t.Fatalf("join err = %v", err)
	}
	if err := f.svc.Unjoin(ctx, "m1"); !perr.IsCode(err, perr.ErrorCodeNotSignedIn) {
		t.Fatalf("unjoin err = %v", err)
	}
}

func TestJoinTwiceUnjoinOneAtATime(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.signIn(t, "U1")

	a, err := f.svc.Join(ctx, "E1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.svc.Join(ctx, "E1")
	if err != nil {
		t.Fatal(err)
	}
	if a[0] == b[0] {
		t.Fatalf("joining twice reused id %q", a[0])
	}
	if n := f.count(t, "U1", "E1"); n != 2 {
		t.Fatalf("memberships = %d, want 2", n)
	}

	joined := f.svc.IsJoined(ctx, "E1")
	if !testkit.Recv(t, joined) {
		t.Fatal("want joined")
	}

	if err := f.svc.Unjoin(ctx, a[0]); err != nil {
		t.Fatal(err)
	}
	if n := f.count(t, "U1", "E1"); n != 1 {
		t.Fatalf("memberships after one unjoin = %d, want 1", n)
	}
	testkit.NoRecv(t, joined, 100*time.Millisecond)

	if err := f.svc.Unjoin(ctx, b[0]); err != nil {
		t.Fatal(err)
	}
	if testkit.Recv(t, joined) {
		t.Fatal("want not joined after the last unjoin")
	}
}

func TestJoin_BlankIDRejectsBatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signIn(t, "U1")

	_, err := f.svc.Join(context.Background(), "E1", " ")
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
	if n := f.db.Len(domain.CollectionMemberships); n != 0 {
		t.Fatalf("stored %d memberships", n)
	}
}

// countingDeletes records DeleteBatch sizes
type countingDeletes struct {
	*memdoc.Store
	batches []int
}

func (c *countingDeletes) DeleteBatch(ctx context.Context, collection string, ids []string) error {
	c.batches = append(c.batches, len(ids))
	return c.Store.DeleteBatch(ctx, collection, ids)
}

func TestUnjoin_DedupesDropsBlanksAndBatches(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.signIn(t, "U1")

	ids := make([]string, 0, 600)
	for i := range 600 {
		ids = append(ids, fmt.Sprintf("m%03d", i))
		m := domain.Membership{ID: ids[i], UserID: "U1", EventID: "E1"}
		if err := f.db.Set(ctx, domain.CollectionMemberships, repo.ToDoc(m)); err != nil {
			t.Fatal(err)
		}
	}
	other := domain.Membership{ID: "theirs", UserID: "U2", EventID: "E1"}
	if err := f.db.Set(ctx, domain.CollectionMemberships, repo.ToDoc(other)); err != nil {
		t.Fatal(err)
	}

	db := &countingDeletes{Store: f.db}
	svc := New(db, f.sess)
	in := append([]string{"", "  ", "theirs"}, ids...)
	in = append(in, ids[:50]...)
	if err := svc.Unjoin(ctx, in...); err != nil {
		t.Fatal(err)
	}
	if len(db.batches) != 2 || db.batches[0] != docstore.MaxBatchSize || db.batches[1] != 100 {
		t.Fatalf("batches = %v, want [500 100]", db.batches)
	}
	if n := f.db.Len(domain.CollectionMemberships); n != 1 {
		t.Fatalf("left %d memberships, want only the other user's", n)
	}

	if err := svc.Unjoin(ctx, "", " "); err != nil || len(db.batches) != 2 {
		t.Fatalf("blank only unjoin = %v, batches %v", err, db.batches)
	}
}

func TestObserveMine_OrderAndMissingEvents(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.signIn(t, "U1")

	for _, m := range []domain.Membership{
		{ID: "m1", UserID: "U1", EventID: "E1"},
		{ID: "m2", UserID: "U1", EventID: "gone"},
		{ID: "m3", UserID: "U1", EventID: "E2"},
		{ID: "m4", UserID: "U1", EventID: "E3"},
		{ID: "m5", UserID: "U2", EventID: "E3"},
		{ID: "m0", UserID: "U1", EventID: "E2"},
	} {
		if err := f.db.Set(ctx, domain.CollectionMemberships, repo.ToDoc(m)); err != nil {
			t.Fatal(err)
		}
	}

	u := testkit.Recv(t, f.svc.ObserveMine(ctx))
	if u.Err != nil {
		t.Fatal(u.Err)
	}
	got := fmt.Sprint(eventIDs(u.Value))
	if want := "[E2 E2 E3 E1 <nil>]"; got != want {
		t.Fatalf("order = %s, want %s", got, want)
	}
	if u.Value[0].Membership.ID != "m0" || u.Value[1].Membership.ID != "m3" {
		t.Fatalf("ties not broken by membership id: %+v", u.Value[:2])
	}
	if u.Value[4].Membership.EventID != "gone" {
		t.Fatalf("missing event entry = %+v", u.Value[4])
	}
}

func TestObserveMine_FollowsIdentity(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := f.svc.ObserveMine(ctx)
	if u := testkit.Recv(t, ch); u.Err != nil || u.Value == nil || len(u.Value) != 0 {
		t.Fatalf("signed out = %+v", u)
	}

	f.signIn(t, "U1")
	if _, err := f.svc.Join(ctx, "E3"); err != nil {
		t.Fatal(err)
	}
	u := testkit.RecvUntil(t, ch, func(u live.Update[[]domain.Joined]) bool { return len(u.Value) == 1 })
	if u.Err != nil || u.Value[0].Event == nil || u.Value[0].Event.Title != "Segundo" {
		t.Fatalf("joined = %+v", u)
	}

	f.sess.SignOut()
	u = testkit.Recv(t, ch)
	if u.Err != nil || u.Value == nil || len(u.Value) != 0 {
		t.Fatalf("after sign out = %+v", u)
	}

	// another user's join must not leak into the signed out view
	f.signIn(t, "U2")
	u = testkit.Recv(t, ch)
	if u.Err != nil || len(u.Value) != 0 {
		t.Fatalf("U2 = %+v", u)
	}

	cancel()
	testkit.Closed(t, ch)
}

func TestObserveMine_ListenerFailureEnds(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.signIn(t, "U1")

	ch := f.svc.ObserveMine(context.Background())
	testkit.Recv(t, ch)
	f.db.FailWith(errors.New("offline"))
	u := testkit.RecvUntil(t, ch, func(u live.Update[[]domain.Joined]) bool { return u.Err != nil })
	if !perr.IsCode(u.Err, perr.ErrorCodeTransient) {
		t.Fatalf("err = %v", u.Err)
	}
	testkit.Closed(t, ch)
}

func TestIsJoined_IdentityAndErrors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := f.svc.IsJoined(ctx, "E1")
	if testkit.Recv(t, ch) {
		t.Fatal("signed out must read false")
	}

	f.signIn(t, "U1")
	if _, err := f.svc.Join(ctx, "E1"); err != nil {
		t.Fatal(err)
	}
	if !testkit.Recv(t, ch) {
		t.Fatal("want joined after join")
	}

	f.db.FailWith(errors.New("offline"))
	if testkit.Recv(t, ch) {
		t.Fatal("listener error must read false")
	}

	if testkit.Recv(t, f.svc.IsJoined(ctx, " ")) {
		t.Fatal("blank id must read false")
	}
}
