package live

import "context"

// Stream adapts a callback style listener into a channel of updates.
//
// register is handed an emit function and returns the func that unregisters the listener;
// that func must wait for in-flight callbacks, and emit must not be called synchronously from register.
// The channel closes when ctx ends or right after the first error is delivered; the listener
// is unregistered before the close.
func Stream[T any](ctx context.Context, register func(emit func(T, error)) (stop func())) <-chan Update[T] {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Update[T])

	emit := func(v T, err error) {
		select {
		case out <- Update[T]{Value: v, Err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			cancel()
		}
	}
	stop := register(emit)

	go func() {
		<-ctx.Done()
		stop()
		close(out)
	}()
	return out
}

// Send delivers v on ch unless ctx ends first
func Send[T any](ctx context.Context, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
