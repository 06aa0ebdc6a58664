// Package docstore is the contract for the remote document store the services sit on:
// named collections of schemaless documents with point reads, single-collection filtered
// queries, transactions, batched deletes and live listeners. There are no joins.
//
// Field values are limited to string, int64, float64, bool and nil. Times are stored
// as int64 Unix milliseconds (see Millis and Time).
package docstore

import (
	"context"
	"time"

	perr "unievents/internal/platform/errors"
)

// MaxBatchSize caps the number of deletes in one atomic batch
const MaxBatchSize = 500

// Fields is the body of a document
type Fields map[string]any

// Document is one stored record
type Document struct {
	ID     string
	Fields Fields
}

// Clone deep copies the document; field values are immutable scalars
func (d Document) Clone() Document {
	f := make(Fields, len(d.Fields))
	for k, v := range d.Fields {
		f[k] = v
	}
	return Document{ID: d.ID, Fields: f}
}

// Str returns a string field or ""
func (f Fields) Str(k string) string {
	s, _ := f[k].(string)
	return s
}

// Int returns an integer field, converting float64 when it carries no fraction
func (f Fields) Int(k string) int64 {
	switch v := f[k].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

// Float returns a numeric field as float64
func (f Fields) Float(k string) float64 {
	switch v := f[k].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

// Bool returns a bool field or false
func (f Fields) Bool(k string) bool {
	b, _ := f[k].(bool)
	return b
}

// Has reports whether k is present and not nil
func (f Fields) Has(k string) bool { return f[k] != nil }

// Time returns a millisecond timestamp field as UTC time
func (f Fields) Time(k string) time.Time { return Time(f.Int(k)) }

// Millis is the storage form of a timestamp
func Millis(t time.Time) int64 { return t.UnixMilli() }

// Time converts stored milliseconds back to UTC time
func Time(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// Reader is the read surface shared by clients and transactions
type Reader interface {
	// Get returns the document or nil when it does not exist
	Get(ctx context.Context, collection, id string) (*Document, error)
	Query(ctx context.Context, q Query) ([]Document, error)
}

// Writer is the write surface shared by clients and transactions
type Writer interface {
	// Create stores doc under doc.ID, or a fresh id when blank. A taken id is AlreadyExists.
	Create(ctx context.Context, collection string, doc Document) (string, error)
	// Set writes doc under doc.ID, replacing any previous body
	Set(ctx context.Context, collection string, doc Document) error
	// Delete removes the document; deleting a missing document is not an error
	Delete(ctx context.Context, collection, id string) error
}

// Tx is the view handed to RunTx. Writes become visible to others on commit.
type Tx interface {
	Reader
	Writer
	// Lock serialises transactions that lock the same key until commit
	Lock(ctx context.Context, key string) error
}

// Registration is a live listener handle
type Registration interface {
	// Remove stops the listener and waits for any in-flight callback to return
	Remove()
}

// Client is the remote store
type Client interface {
	Reader
	Writer
	// DeleteBatch removes up to MaxBatchSize documents atomically
	DeleteBatch(ctx context.Context, collection string, ids []string) error
	// RunTx runs fn in a transaction, committing when it returns nil
	RunTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Watch calls fn with the full ordered result of q now and after every change to it.
	// An error is delivered once and ends the registration.
	Watch(q Query, fn func([]Document, error)) Registration
	// WatchDoc calls fn with the document (nil when absent) now and after every change to it
	WatchDoc(collection, id string, fn func(*Document, error)) Registration
}

// CheckBatch validates a DeleteBatch request
func CheckBatch(ids []string) error {
	if len(ids) > MaxBatchSize {
		return perr.InvalidArgf("batch of %d exceeds the limit of %d", len(ids), MaxBatchSize)
	}
	for _, id := range ids {
		if id == "" {
			return perr.InvalidArgf("blank id in batch")
		}
	}
	return nil
}

// Chunk splits ids into batches no larger than MaxBatchSize
func Chunk(ids []string) [][]string {
	var out [][]string
	for len(ids) > MaxBatchSize {
		out = append(out, ids[:MaxBatchSize:MaxBatchSize])
		ids = ids[MaxBatchSize:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

// Exists reports whether collection/id is present
func Exists(ctx context.Context, r Reader, collection, id string) (bool, error) {
	d, err := r.Get(ctx, collection, id)
	return d != nil, err
}
