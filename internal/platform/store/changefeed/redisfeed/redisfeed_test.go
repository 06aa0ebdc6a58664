package redisfeed

import (
	"context"
	"testing"
	"time"

	"unievents/internal/platform/store/changefeed"
	"unievents/internal/platform/testkit"

	"github.com/redis/go-redis/v9"
)

func TestDecode(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		ok   bool
		want changefeed.Change
	}{
		{`{"collection":"events","id":"e1","op":"delete"}`, true, changefeed.Change{Collection: "events", ID: "e1", Op: changefeed.OpDelete}},
		{`{"collection":"*"}`, true, changefeed.Change{Collection: changefeed.All}},
		{`{"id":"e1"}`, false, changefeed.Change{}},
		{`not json`, false, changefeed.Change{}},
	}
	for _, c := range cases {
		got, ok := decode(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("decode(%q) = %+v, %v", c.in, got, ok)
		}
	}
}

func TestHandleForwardsToHub(t *testing.T) {
	t.Parallel()
	hub := changefeed.NewHub()
	sub := hub.Subscribe("events")
	defer sub.Close()

	r := New(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), hub, Options{})
	if r.channel != DefaultChannel || r.retry != 2*time.Second {
		t.Fatalf("defaults not applied: %q %v", r.channel, r.retry)
	}
	r.handle(`{"collection":"departments"}`)
	testkit.NoRecv(t, sub.C(), 20*time.Millisecond)
	r.handle(`garbage`)
	r.handle(`{"collection":"events","id":"e2"}`)
	testkit.Recv(t, sub.C())
}

func TestNotifyEmptyIsNoop(t *testing.T) {
	t.Parallel()
	r := New(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), changefeed.NewHub(), Options{Channel: "c"})
	if err := r.Notify(context.Background()); err != nil {
		t.Fatalf("empty Notify should not touch redis: %v", err)
	}
}
