package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"unievents/internal/core/live"
	perr "unievents/internal/platform/errors"
	"unievents/internal/platform/logger"
	"unievents/internal/services/discovery/domain"
	events "unievents/internal/services/events/domain"
)

// DefaultIdle is how long a browse session lives without a listener or a change
const DefaultIdle = 30 * time.Minute

// Lister is the part of the join emulation a browse session reads results from
type Lister interface {
	ObserveList(ctx context.Context, f events.Filter) <-chan live.Update[[]events.EventWithRefs]
}

// Browser keeps the open browse sessions of this process, each a Holder planned by a Session
type Browser struct {
	ctx     context.Context
	planner Planner
	lister  Lister
	idle    time.Duration
	log     *logger.Logger

	mu       sync.Mutex
	sessions map[string]*browse
}

type browse struct {
	sess      *Session
	expire    *time.Timer
	listening bool
}

// NewBrowser serves sessions until ctx ends; idle <= 0 means DefaultIdle
func NewBrowser(ctx context.Context, planner Planner, lister Lister, idle time.Duration) *Browser {
	if idle <= 0 {
		idle = DefaultIdle
	}
	b := &Browser{
		ctx:      ctx,
		planner:  planner,
		lister:   lister,
		idle:     idle,
		log:      logger.Named("browse"),
		sessions: map[string]*browse{},
	}
	context.AfterFunc(ctx, b.closeAll)
	return b
}

// Open starts a session from initial and returns its id
func (b *Browser) Open(initial domain.FilterState) (string, domain.FilterState) {
	h := NewHolder()
	h.Apply(domain.Patch{
		SearchText:   &initial.SearchText,
		From:         initial.From,
		To:           initial.To,
		DepartmentID: &initial.DepartmentID,
		CategoryID:   &initial.CategoryID,
	})
	id := uuid.NewString()
	br := &browse{sess: b.planner.Attach(b.ctx, h)}
	br.expire = time.AfterFunc(b.idle, func() { b.expireIdle(id) })

	b.mu.Lock()
	b.sessions[id] = br
	n := len(b.sessions)
	b.mu.Unlock()

	b.log.Debug().Str("session", id).Int("open", n).Msg("browse session opened")
	return id, h.Snapshot()
}

// touch looks a session up and restarts its idle timer
func (b *Browser) touch(id string) (*browse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	br, ok := b.sessions[id]
	if !ok {
		return nil, perr.WithField(perr.NotFoundf("browse session %q not found", id), "sessionId")
	}
	br.expire.Reset(b.idle)
	return br, nil
}

// Apply changes the session's filters and returns the new state
func (b *Browser) Apply(id string, p domain.Patch) (domain.FilterState, error) {
	br, err := b.touch(id)
	if err != nil {
		return domain.FilterState{}, err
	}
	return br.sess.Holder().Apply(p), nil
}

// State returns the session's current filters
func (b *Browser) State(id string) (domain.FilterState, error) {
	br, err := b.touch(id)
	if err != nil {
		return domain.FilterState{}, err
	}
	return br.sess.Holder().Snapshot(), nil
}

// Live streams the session's results until ctx ends, the session closes or the store fails.
// Each plan replaces the previous subscription. A session has at most one listener.
func (b *Browser) Live(ctx context.Context, id string) (<-chan live.Update[domain.Results], error) {
	br, err := b.touch(id)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	if br.listening {
		b.mu.Unlock()
		return nil, perr.Newf(perr.ErrorCodeConflict, "browse session %q already has a listener", id)
	}
	br.listening = true
	b.mu.Unlock()

	// the previous listener consumed the last plan; replan from the current state
	br.sess.Restart()

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan live.Update[domain.Results])
	go func() {
		defer close(out)
		defer func() {
			b.mu.Lock()
			br.listening = false
			b.mu.Unlock()
			_, _ = b.touch(id)
		}()
		defer cancel()

		var sw live.Switch
		defer sw.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case plan, ok := <-br.sess.C():
				if !ok {
					return
				}
				sw.Start(ctx, func(ctx context.Context) {
					for u := range b.lister.ObserveList(ctx, plan.Filter()) {
						if u.Err != nil {
							live.Send(ctx, out, live.Update[domain.Results]{Err: u.Err})
							cancel()
							return
						}
						if !live.Send(ctx, out, live.Update[domain.Results]{Value: domain.Results{Plan: plan, Events: u.Value}}) {
							return
						}
					}
				})
			}
		}
	}()
	return out, nil
}

// Restart replans the session from its current state
func (b *Browser) Restart(id string) error {
	br, err := b.touch(id)
	if err != nil {
		return err
	}
	br.sess.Restart()
	return nil
}

// Close ends the session; its live stream closes
func (b *Browser) Close(id string) error {
	b.mu.Lock()
	br, ok := b.sessions[id]
	delete(b.sessions, id)
	b.mu.Unlock()
	if !ok {
		return perr.WithField(perr.NotFoundf("browse session %q not found", id), "sessionId")
	}
	br.expire.Stop()
	br.sess.Close()
	return nil
}

// Len reports the open sessions
func (b *Browser) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

func (b *Browser) expireIdle(id string) {
	b.mu.Lock()
	br, ok := b.sessions[id]
	if ok && br.listening {
		br.expire.Reset(b.idle)
		ok = false
	}
	b.mu.Unlock()
	if ok && b.Close(id) == nil {
		b.log.Debug().Str("session", id).Msg("browse session expired")
	}
}

func (b *Browser) closeAll() {
	b.mu.Lock()
	ids := make([]string, 0, len(b.sessions))
	for id := range b.sessions {
		ids = append(ids, id)
	}
	b.mu.Unlock()
	for _, id := range ids {
		_ = b.Close(id)
	}
}
