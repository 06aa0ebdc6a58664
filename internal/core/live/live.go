// Package live holds the small reactive pieces the services share: an observable value,
// a latest-wins subscription slot, and the update envelope live streams carry.
package live

import (
	"context"
	"sync"
)

// Update is one element of a live stream. A non-nil Err is terminal: the stream closes after it.
type Update[T any] struct {
	Value T
	Err   error
}

// Value holds the latest T and notifies observers synchronously on every Set.
// Observers must not call Set from inside the callback.
type Value[T any] struct {
	notify sync.Mutex // serialises Set and Observe so observers see every value in order

	mu  sync.Mutex
	cur T
	seq int
	obs map[int]func(T)
}

// NewValue returns a Value holding initial
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{cur: initial, obs: map[int]func(T){}}
}

// Get returns the current value
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// Set replaces the value and calls every observer with it before returning
func (v *Value[T]) Set(x T) {
	v.Update(func(T) T { return x })
}

// Update applies fn to the current value, stores the result and notifies observers
func (v *Value[T]) Update(fn func(T) T) T {
	v.notify.Lock()
	defer v.notify.Unlock()

	v.mu.Lock()
	v.cur = fn(v.cur)
	next := v.cur
	obs := make([]func(T), 0, len(v.obs))
	for _, f := range v.obs {
		obs = append(obs, f)
	}
	v.mu.Unlock()

	for _, f := range obs {
		f(next)
	}
	return next
}

// Observe calls fn with the current value, then with every later one, until cancel is called
func (v *Value[T]) Observe(fn func(T)) (cancel func()) {
	v.notify.Lock()
	defer v.notify.Unlock()

	v.mu.Lock()
	id := v.seq
	v.seq++
	v.obs[id] = fn
	cur := v.cur
	v.mu.Unlock()

	fn(cur)
	return func() {
		v.notify.Lock()
		defer v.notify.Unlock()
		v.mu.Lock()
		delete(v.obs, id)
		v.mu.Unlock()
	}
}

// Watch streams the current value and every later one until ctx ends.
// A slow reader sees only the latest value; intermediate ones are conflated.
func (v *Value[T]) Watch(ctx context.Context) <-chan T {
	slot := make(chan T, 1)
	var mu sync.Mutex
	cancel := v.Observe(func(x T) {
		mu.Lock()
		defer mu.Unlock()
		select {
		case <-slot:
		default:
		}
		slot <- x
	})

	out := make(chan T)
	go func() {
		defer close(out)
		defer cancel()
		for {
			var x T
			select {
			case <-ctx.Done():
				return
			case x = <-slot:
			}
			select {
			case <-ctx.Done():
				return
			case out <- x:
			}
		}
	}()
	return out
}
