package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"unievents/internal/core/live"
	perr "unievents/internal/platform/errors"
	"unievents/internal/platform/logger"
	"unievents/internal/platform/store/docstore"
	catalog "unievents/internal/services/catalog/domain"
	catrepo "unievents/internal/services/catalog/repo"
	"unievents/internal/services/events/domain"
	"unievents/internal/services/events/repo"
)

// listFanout caps concurrent reference reads while resolving a list
const listFanout = 8

// sharedReadTimeout bounds a point read shared by several callers; it outlives any one caller's context
const sharedReadTimeout = 10 * time.Second

// Joiner resolves the department and category an event points at.
// The store has no joins, so every reference is a point read.
type Joiner struct {
	db    docstore.Client
	log   *logger.Logger
	reads singleflight.Group
}

var _ domain.JoinPort = (*Joiner)(nil)

// NewJoiner returns a Joiner reading from db
func NewJoiner(db docstore.Client) *Joiner {
	if db == nil {
		panic("events.Joiner requires a non nil client")
	}
	return &Joiner{db: db, log: logger.Named("events.join")}
}

// entry reads one catalog document; concurrent reads of the same key share one round trip.
// The shared read does not inherit cancellation, so a caller leaving early only ends its own wait.
func (j *Joiner) entry(ctx context.Context, kind catalog.Kind, id string) (domain.Ref[catalog.Entry], error) {
	if strings.TrimSpace(id) == "" {
		return domain.Missing[catalog.Entry](), nil
	}
	ch := j.reads.DoChan(kind.Collection+"/"+id, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()
		return j.db.Get(rctx, kind.Collection, id)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return domain.Ref[catalog.Entry]{}, perr.FromStore(ctx.Err(), "read "+kind.Label)
	case res = <-ch:
	}
	if res.Err != nil {
		return domain.Ref[catalog.Entry]{}, perr.FromStore(res.Err, "read "+kind.Label)
	}
	d, _ := res.Val.(*docstore.Document)
	if d == nil {
		return domain.Missing[catalog.Entry](), nil
	}
	return domain.Found(catrepo.FromDoc(*d)), nil
}

// Resolve reads both references of ev concurrently. A reference that does not exist resolves
// to Missing; only store failures are errors.
func (j *Joiner) Resolve(ctx context.Context, ev domain.Event) (domain.EventWithRefs, error) {
	out := domain.EventWithRefs{Event: ev}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Department, err = j.entry(gctx, catalog.Departments, ev.DepartmentID)
		return err
	})
	g.Go(func() (err error) {
		out.Category, err = j.entry(gctx, catalog.Categories, ev.CategoryID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.EventWithRefs{}, err
	}
	return out, nil
}

// ResolveAll resolves a list, keeping its order
func (j *Joiner) ResolveAll(ctx context.Context, evs []domain.Event) ([]domain.EventWithRefs, error) {
	out := make([]domain.EventWithRefs, len(evs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listFanout)
	for i := range evs {
		g.Go(func() (err error) {
			out[i], err = j.Resolve(gctx, evs[i])
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Observe follows one event. Every change re-resolves both references. When the event does
// not exist, or is deleted, a single nil is published and the listener keeps running so a
// recreated event shows up again.
func (j *Joiner) Observe(ctx context.Context, eventID string) <-chan live.Update[*domain.EventWithRefs] {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		ch := make(chan live.Update[*domain.EventWithRefs], 1)
		ch <- live.Update[*domain.EventWithRefs]{Err: perr.InvalidArgf("event id is required")}
		close(ch)
		return ch
	}
	return live.Stream(ctx, func(emit func(*domain.EventWithRefs, error)) func() {
		reg := j.db.WatchDoc(domain.CollectionEvents, eventID, func(d *docstore.Document, err error) {
			if err != nil {
				j.log.Warn().Err(err).Str("event_id", eventID).Msg("event listener failed")
				emit(nil, perr.FromStore(err, "observe event"))
				return
			}
			if d == nil {
				emit(nil, nil)
				return
			}
			joined, err := j.Resolve(ctx, repo.FromDoc(*d))
			if err != nil {
				if ctx.Err() == nil {
					j.log.Warn().Err(err).Str("event_id", eventID).Msg("resolve failed")
				}
				emit(nil, err)
				return
			}
			emit(&joined, nil)
		})
		return reg.Remove
	})
}

// ObserveList follows the events matching f, resolving references after every change
func (j *Joiner) ObserveList(ctx context.Context, f domain.Filter) <-chan live.Update[[]domain.EventWithRefs] {
	q := domain.Query(f)
	return live.Stream(ctx, func(emit func([]domain.EventWithRefs, error)) func() {
		reg := j.db.Watch(q, func(docs []docstore.Document, err error) {
			if err != nil {
				j.log.Warn().Err(err).Msg("events listener failed")
				emit(nil, perr.FromStore(err, "observe events"))
				return
			}
			joined, err := j.ResolveAll(ctx, repo.FromDocs(docs))
			emit(joined, err)
		})
		return reg.Remove
	})
}

// Detail is the single event slot behind a detail screen. Show replaces whatever was being
// followed; once Show returns no update from the previous event can be delivered.
type Detail struct {
	j   *Joiner
	ctx context.Context
	sw  live.Switch
	out chan live.Update[*domain.EventWithRefs]

	mu     sync.Mutex
	closed bool
}

// NewDetail returns an empty slot bound to ctx
func (j *Joiner) NewDetail(ctx context.Context) *Detail {
	return &Detail{j: j, ctx: ctx, out: make(chan live.Update[*domain.EventWithRefs])}
}

// C delivers updates for the event last passed to Show
func (d *Detail) C() <-chan live.Update[*domain.EventWithRefs] { return d.out }

// Show starts following eventID, tearing down the previous listener first. It is a no-op after Close.
func (d *Detail) Show(eventID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.sw.Start(d.ctx, func(ctx context.Context) {
		for u := range d.j.Observe(ctx, eventID) {
			if !live.Send(ctx, d.out, u) {
				return
			}
		}
	})
}

// Close stops the listener and closes C
func (d *Detail) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.sw.Stop()
	close(d.out)
}
