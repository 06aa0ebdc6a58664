package live

import (
	"context"
	"sync"
)

// Switch owns one running task at a time. Starting a new task cancels the previous one and
// waits for it to return first, so a stale producer can never overwrite a newer one.
type Switch struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Start stops the current task, if any, then runs fn in a new goroutine under a child of ctx
func (s *Switch) Start(ctx context.Context, fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	go func() {
		defer close(done)
		fn(ctx)
	}()
}

// Stop cancels the current task and waits for it
func (s *Switch) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Switch) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel, s.done = nil, nil
}
