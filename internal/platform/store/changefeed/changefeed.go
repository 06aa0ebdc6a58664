// Package changefeed fans document change notices out to live watchers inside one process.
//
// A notice only says "something in this collection changed"; watchers re-read the store to learn what.
// Subscriptions conflate: a burst of notices while a watcher is busy leaves exactly one pending wakeup.
package changefeed

import (
	"context"
	"sync"
)

// All is the collection name that wakes every subscriber, used after a feed reconnects
const All = "*"

// Op is the kind of write behind a change
type Op string

const (
	OpCreate Op = "create"
	OpSet    Op = "set"
	OpDelete Op = "delete"
	OpResync Op = "resync"
)

// Change identifies a written document
type Change struct {
	Collection string `json:"collection"`
	ID         string `json:"id,omitempty"`
	Op         Op     `json:"op,omitempty"`
}

// Notifier announces committed changes to whoever fans them out
type Notifier interface {
	Notify(ctx context.Context, changes ...Change) error
}

// Hub is the in-process fan-out; the zero value is not usable, call NewHub
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

// NewHub returns an empty hub
func NewHub() *Hub { return &Hub{subs: map[string]map[*Subscription]struct{}{}} }

// Subscription is a conflating wakeup channel for one collection
type Subscription struct {
	hub        *Hub
	collection string
	c          chan struct{}
	once       sync.Once
}

// C receives a value after at least one change since the last receive
func (s *Subscription) C() <-chan struct{} { return s.c }

// Close detaches the subscription; safe to call more than once
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		if set := s.hub.subs[s.collection]; set != nil {
			delete(set, s)
			if len(set) == 0 {
				delete(s.hub.subs, s.collection)
			}
		}
	})
}

func (s *Subscription) wake() {
	select {
	case s.c <- struct{}{}:
	default:
	}
}

// Subscribe registers interest in one collection
func (h *Hub) Subscribe(collection string) *Subscription {
	s := &Subscription{hub: h, collection: collection, c: make(chan struct{}, 1)}
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[collection]
	if set == nil {
		set = map[*Subscription]struct{}{}
		h.subs[collection] = set
	}
	set[s] = struct{}{}
	return s
}

// Publish wakes subscribers of ch.Collection, or everyone for All
func (h *Hub) Publish(ch Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch.Collection == All {
		for _, set := range h.subs {
			for s := range set {
				s.wake()
			}
		}
		return
	}
	for s := range h.subs[ch.Collection] {
		s.wake()
	}
}

// Notify implements Notifier by publishing locally
func (h *Hub) Notify(_ context.Context, changes ...Change) error {
	for _, c := range changes {
		h.Publish(c)
	}
	return nil
}

// Len reports the number of live subscriptions
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, set := range h.subs {
		n += len(set)
	}
	return n
}
