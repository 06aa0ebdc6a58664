package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Row is the minimal scan contract for a single row
type Row interface {
	Scan(dest ...any) error
}

// Rows is the minimal iteration contract for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Querier is what the document store sends SQL through, in or out of a transaction
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner is a Querier that can also open transactions
type TxRunner interface {
	Querier
	Tx(ctx context.Context, fn func(q Querier) error) error
}

// Runner adapts the pool to TxRunner and traces every statement
func (p *PG) Runner() TxRunner { return &poolRunner{p: p} }

type tracing struct {
	tracer QueryTracer
	slowUS int64
}

func (t tracing) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if t.tracer == nil {
		return
	}
	us := time.Since(start).Microseconds()
	t.tracer.OnQuery(ctx, QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: us,
		Err:       err,
		Slow:      t.slowUS >= 0 && us >= t.slowUS,
	})
}

// pgxQuerier is the subset shared by *pgxpool.Pool and pgx.Tx
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type traced struct {
	q pgxQuerier
	tracing
}

func (t traced) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	start := time.Now()
	ct, err := t.q.Exec(ctx, sql, args...)
	t.emit(ctx, sql, args, start, err)
	return ct.RowsAffected(), err
}

func (t traced) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := t.q.Query(ctx, sql, args...)
	t.emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

func (t traced) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := t.q.QueryRow(ctx, sql, args...)
	return scanHook{r: r, after: func(err error) { t.emit(ctx, sql, args, start, err) }}
}

type scanHook struct {
	r     pgx.Row
	after func(error)
}

func (s scanHook) Scan(dst ...any) error {
	err := s.r.Scan(dst...)
	if errors.Is(err, pgx.ErrNoRows) {
		s.after(nil)
	} else {
		s.after(err)
	}
	return err
}

type poolRunner struct{ p *PG }

func (r *poolRunner) base() traced {
	return traced{q: r.p.Pool, tracing: tracing{tracer: r.p.Tracer, slowUS: int64(r.p.SlowMs) * 1000}}
}

func (r *poolRunner) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	return r.base().Exec(ctx, sql, args...)
}

func (r *poolRunner) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return r.base().Query(ctx, sql, args...)
}

func (r *poolRunner) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return r.base().QueryRow(ctx, sql, args...)
}

// Tx commits when fn returns nil and rolls back otherwise
func (r *poolRunner) Tx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := r.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	b := r.base()
	b.q = tx
	if err := fn(b); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// IsNoRows reports pgx's empty QueryRow result
func IsNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }

// Many scans every row with scan
func Many[T any](ctx context.Context, q Querier, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
