package docstore

import (
	"context"

	"unievents/internal/platform/store/changefeed"
)

type registration struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Remove must not be called from inside the listener callback
func (r *registration) Remove() {
	r.cancel()
	<-r.done
}

// WatchQuery implements Client.Watch for backends that publish to hub
func WatchQuery(hub *changefeed.Hub, r Reader, q Query, fn func([]Document, error)) Registration {
	load := func(ctx context.Context) ([]Document, error) { return r.Query(ctx, q) }
	return watch(hub, q.Collection, load, SameDocs, fn)
}

// WatchDocument implements Client.WatchDoc for backends that publish to hub
func WatchDocument(hub *changefeed.Hub, r Reader, collection, id string, fn func(*Document, error)) Registration {
	load := func(ctx context.Context) (*Document, error) { return r.Get(ctx, collection, id) }
	return watch(hub, collection, load, SameDoc, fn)
}

// watch re-runs load after every wakeup for collection and calls fn when the result differs.
// The subscription is taken before the first load so no change can slip between them.
func watch[T any](hub *changefeed.Hub, collection string, load func(context.Context) (T, error), same func(a, b T) bool, fn func(T, error)) Registration {
	ctx, cancel := context.WithCancel(context.Background())
	reg := &registration{cancel: cancel, done: make(chan struct{})}
	sub := hub.Subscribe(collection)

	go func() {
		defer close(reg.done)
		defer sub.Close()

		last, err := load(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			var zero T
			fn(zero, err)
			return
		}
		fn(last, nil)

		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.C():
			}
			next, err := load(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				var zero T
				fn(zero, err)
				return
			}
			if same(last, next) {
				continue
			}
			last = next
			fn(next, nil)
		}
	}()
	return reg
}
