package changefeed

import (
	"context"
	"testing"
	"time"

	"unievents/internal/platform/testkit"
)

func TestPublishWakesOnlyMatchingCollection(t *testing.T) {
	t.Parallel()
	h := NewHub()
	ev := h.Subscribe("events")
	dep := h.Subscribe("departments")
	defer ev.Close()
	defer dep.Close()

	h.Publish(Change{Collection: "events", ID: "e1", Op: OpSet})
	testkit.Recv(t, ev.C())
	testkit.NoRecv(t, dep.C(), 20*time.Millisecond)
}

func TestBurstsConflate(t *testing.T) {
	t.Parallel()
	h := NewHub()
	s := h.Subscribe("events")
	defer s.Close()

	for i := 0; i < 10; i++ {
		h.Publish(Change{Collection: "events"})
	}
	testkit.Recv(t, s.C())
	testkit.NoRecv(t, s.C(), 20*time.Millisecond)
}

func TestAllWakesEveryone(t *testing.T) {
	t.Parallel()
	h := NewHub()
	a, b := h.Subscribe("a"), h.Subscribe("b")
	if err := h.Notify(context.Background(), Change{Collection: All, Op: OpResync}); err != nil {
		t.Fatal(err)
	}
	testkit.Recv(t, a.C())
	testkit.Recv(t, b.C())
	a.Close()
	b.Close()
	b.Close()
	if h.Len() != 0 {
		t.Fatalf("Len after close = %d", h.Len())
	}
}
