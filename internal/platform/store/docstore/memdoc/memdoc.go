// Package memdoc is an in-process docstore.Client for tests and local runs.
//
// Transactions run one at a time under a store-wide lock. Reads inside a transaction
// see committed data only; writes are staged and applied together on commit, after
// which the hub is told.
package memdoc

import (
	"context"
	"sync"

	perr "unievents/internal/platform/errors"
	"unievents/internal/platform/store/changefeed"
	"unievents/internal/platform/store/docstore"

	"github.com/google/uuid"
)

// Store is the in-memory client
type Store struct {
	mu    sync.RWMutex
	txMu  sync.Mutex
	colls map[string]map[string]docstore.Fields
	hub   *changefeed.Hub

	// fail, when set, is returned by every call; tests use it to simulate an outage
	failMu sync.RWMutex
	fail   error
}

var _ docstore.Client = (*Store)(nil)

// New returns an empty store publishing to hub (a fresh hub when nil)
func New(hub *changefeed.Hub) *Store {
	if hub == nil {
		hub = changefeed.NewHub()
	}
	return &Store{colls: map[string]map[string]docstore.Fields{}, hub: hub}
}

// Hub exposes the change hub
func (s *Store) Hub() *changefeed.Hub { return s.hub }

// FailWith makes every subsequent call return err; nil restores normal service.
// Active watchers see the error on their next wakeup.
func (s *Store) FailWith(err error) {
	s.failMu.Lock()
	s.fail = err
	s.failMu.Unlock()
	if err != nil {
		s.hub.Publish(changefeed.Change{Collection: changefeed.All, Op: changefeed.OpResync})
	}
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.failMu.RLock()
	defer s.failMu.RUnlock()
	if s.fail != nil {
		return perr.FromStore(s.fail, "memdoc unavailable")
	}
	return nil
}

// Get implements docstore.Reader
func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.colls[collection][id]
	if !ok {
		return nil, nil
	}
	d := docstore.Document{ID: id, Fields: f}.Clone()
	return &d, nil
}

// Query implements docstore.Reader
func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	all := make([]docstore.Document, 0, len(s.colls[q.Collection]))
	for id, f := range s.colls[q.Collection] {
		all = append(all, docstore.Document{ID: id, Fields: f}.Clone())
	}
	s.mu.RUnlock()
	return docstore.Apply(all, q), nil
}

// Create implements docstore.Writer
func (s *Store) Create(ctx context.Context, collection string, doc docstore.Document) (string, error) {
	var id string
	err := s.RunTx(ctx, func(ctx context.Context, tx docstore.Tx) error {
		var err error
		id, err = tx.Create(ctx, collection, doc)
		return err
	})
	return id, err
}

// Set implements docstore.Writer
func (s *Store) Set(ctx context.Context, collection string, doc docstore.Document) error {
	return s.RunTx(ctx, func(ctx context.Context, tx docstore.Tx) error {
		return tx.Set(ctx, collection, doc)
	})
}

// Delete implements docstore.Writer
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.RunTx(ctx, func(ctx context.Context, tx docstore.Tx) error {
		return tx.Delete(ctx, collection, id)
	})
}

// DeleteBatch implements docstore.Client
func (s *Store) DeleteBatch(ctx context.Context, collection string, ids []string) error {
	if err := docstore.CheckBatch(ids); err != nil {
		return err
	}
	return s.RunTx(ctx, func(ctx context.Context, tx docstore.Tx) error {
		for _, id := range ids {
			if err := tx.Delete(ctx, collection, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// RunTx implements docstore.Client
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context, tx docstore.Tx) error) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &memTx{s: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := s.check(ctx); err != nil {
		return err
	}
	changes := s.commit(tx.writes)
	return s.hub.Notify(ctx, changes...)
}

type write struct {
	collection string
	id         string
	fields     docstore.Fields // nil means delete
	op         changefeed.Op
}

func (s *Store) commit(ws []write) []changefeed.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	changes := make([]changefeed.Change, 0, len(ws))
	for _, w := range ws {
		coll := s.colls[w.collection]
		if w.fields == nil {
			delete(coll, w.id)
		} else {
			if coll == nil {
				coll = map[string]docstore.Fields{}
				s.colls[w.collection] = coll
			}
			coll[w.id] = w.fields
		}
		changes = append(changes, changefeed.Change{Collection: w.collection, ID: w.id, Op: w.op})
	}
	return changes
}

// Watch implements docstore.Client
func (s *Store) Watch(q docstore.Query, fn func([]docstore.Document, error)) docstore.Registration {
	return docstore.WatchQuery(s.hub, s, q, fn)
}

// WatchDoc implements docstore.Client
func (s *Store) WatchDoc(collection, id string, fn func(*docstore.Document, error)) docstore.Registration {
	return docstore.WatchDocument(s.hub, s, collection, id, fn)
}

// Len counts documents in a collection
func (s *Store) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.colls[collection])
}

type memTx struct {
	s      *Store
	writes []write
}

func (t *memTx) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	return t.s.Get(ctx, collection, id)
}

func (t *memTx) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	return t.s.Query(ctx, q)
}

// Lock is free: transactions already run one at a time
func (t *memTx) Lock(context.Context, string) error { return nil }

// staged reports whether id is created by an earlier write in this tx
func (t *memTx) staged(collection, id string) (exists, known bool) {
	for i := len(t.writes) - 1; i >= 0; i-- {
		w := t.writes[i]
		if w.collection == collection && w.id == id {
			return w.fields != nil, true
		}
	}
	return false, false
}

func (t *memTx) Create(ctx context.Context, collection string, doc docstore.Document) (string, error) {
	f, err := docstore.Normalize(doc.Fields)
	if err != nil {
		return "", err
	}
	id := doc.ID
	if id == "" {
		id = uuid.NewString()
	} else {
		exists, known := t.staged(collection, id)
		if !known {
			d, err := t.s.Get(ctx, collection, id)
			if err != nil {
				return "", err
			}
			exists = d != nil
		}
		if exists {
			return "", perr.AlreadyExistsf("%s/%s already exists", collection, id)
		}
	}
	t.writes = append(t.writes, write{collection: collection, id: id, fields: f, op: changefeed.OpCreate})
	return id, nil
}

func (t *memTx) Set(_ context.Context, collection string, doc docstore.Document) error {
	if doc.ID == "" {
		return perr.InvalidArgf("set without id")
	}
	f, err := docstore.Normalize(doc.Fields)
	if err != nil {
		return err
	}
	t.writes = append(t.writes, write{collection: collection, id: doc.ID, fields: f, op: changefeed.OpSet})
	return nil
}

func (t *memTx) Delete(_ context.Context, collection, id string) error {
	if id == "" {
		return perr.InvalidArgf("delete without id")
	}
	t.writes = append(t.writes, write{collection: collection, id: id, op: changefeed.OpDelete})
	return nil
}
