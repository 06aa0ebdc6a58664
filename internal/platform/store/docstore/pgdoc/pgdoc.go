// Package pgdoc stores docstore documents as jsonb rows in one Postgres table.
//
// Queries are built with goqu, rows come back through pgx, bodies are encoded with json-iterator.
// A trigger NOTIFYs every committed write; Listener turns those into hub wakeups. When LISTEN is not
// available, pass a Notifier (e.g. the Redis relay) and writes announce themselves after commit.
package pgdoc

import (
	"context"
	_ "embed"

	perr "unievents/internal/platform/errors"
	"unievents/internal/platform/logger"
	"unievents/internal/platform/store/changefeed"
	"unievents/internal/platform/store/docstore"
	"unievents/internal/platform/store/pg"

	"github.com/google/uuid"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the documents table, its index and the notify trigger
func EnsureSchema(ctx context.Context, q pg.Querier) error {
	_, err := q.Exec(ctx, schemaSQL)
	return perr.FromStore(err, "ensure docstore schema")
}

// Client implements docstore.Client on Postgres
type Client struct {
	db       pg.TxRunner
	hub      *changefeed.Hub
	notifier changefeed.Notifier
	log      *logger.Logger
}

var _ docstore.Client = (*Client)(nil)

// New builds a client. hub feeds watchers; notifier, when non-nil, is told about writes after commit.
func New(db pg.TxRunner, hub *changefeed.Hub, notifier changefeed.Notifier) *Client {
	return &Client{db: db, hub: hub, notifier: notifier, log: logger.Named("pgdoc")}
}

// announce runs after commit, so a relay failure is logged and never reported as a failed write.
// Watchers on other processes catch up when the relay resubscribes.
func (c *Client) announce(ctx context.Context, changes []changefeed.Change) {
	if c.notifier == nil || len(changes) == 0 {
		return
	}
	if err := c.notifier.Notify(ctx, changes...); err != nil {
		c.log.Warn().Err(err).Str("collection", changes[0].Collection).Int("changes", len(changes)).
			Msg("announce committed changes failed")
	}
}

// Get implements docstore.Reader
func (c *Client) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	return get(ctx, c.db, collection, id)
}

// Query implements docstore.Reader
func (c *Client) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	return query(ctx, c.db, q)
}

// Create implements docstore.Writer
func (c *Client) Create(ctx context.Context, collection string, doc docstore.Document) (string, error) {
	id, err := create(ctx, c.db, collection, doc)
	if err != nil {
		return "", err
	}
	c.announce(ctx, []changefeed.Change{{Collection: collection, ID: id, Op: changefeed.OpCreate}})
	return id, nil
}

// Set implements docstore.Writer
func (c *Client) Set(ctx context.Context, collection string, doc docstore.Document) error {
	if err := set(ctx, c.db, collection, doc); err != nil {
		return err
	}
	c.announce(ctx, []changefeed.Change{{Collection: collection, ID: doc.ID, Op: changefeed.OpSet}})
	return nil
}

// Delete implements docstore.Writer
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	if id == "" {
		return perr.InvalidArgf("delete without id")
	}
	if err := del(ctx, c.db, collection, id); err != nil {
		return err
	}
	c.announce(ctx, []changefeed.Change{{Collection: collection, ID: id, Op: changefeed.OpDelete}})
	return nil
}

// DeleteBatch implements docstore.Client with a single DELETE ... IN statement
func (c *Client) DeleteBatch(ctx context.Context, collection string, ids []string) error {
	if err := docstore.CheckBatch(ids); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := del(ctx, c.db, collection, ids...); err != nil {
		return err
	}
	changes := make([]changefeed.Change, len(ids))
	for i, id := range ids {
		changes[i] = changefeed.Change{Collection: collection, ID: id, Op: changefeed.OpDelete}
	}
	c.announce(ctx, changes)
	return nil
}

// RunTx implements docstore.Client
func (c *Client) RunTx(ctx context.Context, fn func(ctx context.Context, tx docstore.Tx) error) error {
	var changes []changefeed.Change
	err := c.db.Tx(ctx, func(q pg.Querier) error {
		t := &pgTx{q: q}
		if err := fn(ctx, t); err != nil {
			return err
		}
		changes = t.changes
		return nil
	})
	if err != nil {
		return perr.FromStore(err, "docstore transaction")
	}
	c.announce(ctx, changes)
	return nil
}

// Watch implements docstore.Client
func (c *Client) Watch(q docstore.Query, fn func([]docstore.Document, error)) docstore.Registration {
	return docstore.WatchQuery(c.hub, c, q, fn)
}

// WatchDoc implements docstore.Client
func (c *Client) WatchDoc(collection, id string, fn func(*docstore.Document, error)) docstore.Registration {
	return docstore.WatchDocument(c.hub, c, collection, id, fn)
}

type pgTx struct {
	q       pg.Querier
	changes []changefeed.Change
}

func (t *pgTx) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	return get(ctx, t.q, collection, id)
}

func (t *pgTx) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	return query(ctx, t.q, q)
}

func (t *pgTx) Lock(ctx context.Context, key string) error {
	_, err := t.q.Exec(ctx, lockSQL, key)
	return perr.FromStore(err, "advisory lock")
}

func (t *pgTx) Create(ctx context.Context, collection string, doc docstore.Document) (string, error) {
	id, err := create(ctx, t.q, collection, doc)
	if err == nil {
		t.changes = append(t.changes, changefeed.Change{Collection: collection, ID: id, Op: changefeed.OpCreate})
	}
	return id, err
}

func (t *pgTx) Set(ctx context.Context, collection string, doc docstore.Document) error {
	err := set(ctx, t.q, collection, doc)
	if err == nil {
		t.changes = append(t.changes, changefeed.Change{Collection: collection, ID: doc.ID, Op: changefeed.OpSet})
	}
	return err
}

func (t *pgTx) Delete(ctx context.Context, collection, id string) error {
	if id == "" {
		return perr.InvalidArgf("delete without id")
	}
	err := del(ctx, t.q, collection, id)
	if err == nil {
		t.changes = append(t.changes, changefeed.Change{Collection: collection, ID: id, Op: changefeed.OpDelete})
	}
	return err
}

func get(ctx context.Context, q pg.Querier, collection, id string) (*docstore.Document, error) {
	sql, args, err := getSQL(collection, id)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "build get")
	}
	var raw []byte
	if err := q.QueryRow(ctx, sql, args...).Scan(&raw); err != nil {
		if pg.IsNoRows(err) {
			return nil, nil
		}
		return nil, perr.FromStore(err, "get document")
	}
	f, err := decode(raw)
	if err != nil {
		return nil, err
	}
	return &docstore.Document{ID: id, Fields: f}, nil
}

func query(ctx context.Context, q pg.Querier, dq docstore.Query) ([]docstore.Document, error) {
	if err := dq.Validate(); err != nil {
		return nil, err
	}
	sql, args, err := selectSQL(dq)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "build query")
	}
	docs, err := pg.Many(ctx, q, scanDoc, sql, args...)
	if err != nil {
		return nil, perr.FromStore(err, "query documents")
	}
	return docs, nil
}

func scanDoc(r pg.Row) (docstore.Document, error) {
	var (
		id  string
		raw []byte
	)
	if err := r.Scan(&id, &raw); err != nil {
		return docstore.Document{}, err
	}
	f, err := decode(raw)
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{ID: id, Fields: f}, nil
}

func create(ctx context.Context, q pg.Querier, collection string, doc docstore.Document) (string, error) {
	body, err := encode(doc.Fields)
	if err != nil {
		return "", err
	}
	id := doc.ID
	if id == "" {
		id = uuid.NewString()
	}
	sql, args, err := createSQL(collection, id, body)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "build create")
	}
	n, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return "", perr.FromStore(err, "create document")
	}
	if n == 0 {
		return "", perr.AlreadyExistsf("%s/%s already exists", collection, id)
	}
	return id, nil
}

func set(ctx context.Context, q pg.Querier, collection string, doc docstore.Document) error {
	if doc.ID == "" {
		return perr.InvalidArgf("set without id")
	}
	body, err := encode(doc.Fields)
	if err != nil {
		return err
	}
	sql, args, err := setSQL(collection, doc.ID, body)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "build set")
	}
	_, err = q.Exec(ctx, sql, args...)
	return perr.FromStore(err, "set document")
}

func del(ctx context.Context, q pg.Querier, collection string, ids ...string) error {
	sql, args, err := deleteSQL(collection, ids...)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "build delete")
	}
	_, err = q.Exec(ctx, sql, args...)
	return perr.FromStore(err, "delete documents")
}
