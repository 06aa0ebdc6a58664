// Package pg owns the pgx pool behind the Postgres document store, with query tracing
// and a small querier seam so callers can be tested without a database.
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures pgxpool
type Config struct {
	URL      string
	MaxConns int32
	SlowMs   int
}

// PG is a postgres client with pool and optional tracer
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	SlowMs int
}

var newPool = pgxpool.NewWithConfig

// Open parses cfg and builds the pool; it does not touch the network (see WaitReady)
func Open(ctx context.Context, cfg Config, tracer QueryTracer, poolCfgMut func(*pgxpool.Config)) (*PG, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if poolCfgMut != nil {
		poolCfgMut(pcfg)
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	return &PG{Pool: pool, Tracer: tracer, SlowMs: cfg.SlowMs}, nil
}

// Backoff is the reconnect schedule shared by the boot ping and the notification listener
type Backoff struct {
	Start, Ceiling time.Duration
	cur            time.Duration
}

// DefaultBackoff starts at 150ms and doubles up to 2s
func DefaultBackoff() *Backoff {
	return &Backoff{Start: 150 * time.Millisecond, Ceiling: 2 * time.Second}
}

// Next returns the delay to sleep before the next attempt
func (b *Backoff) Next() time.Duration {
	if b.cur == 0 {
		b.cur = b.Start
		return b.cur
	}
	b.cur *= 2
	if b.cur > b.Ceiling {
		b.cur = b.Ceiling
	}
	return b.cur
}

// Reset returns the schedule to its first step
func (b *Backoff) Reset() { b.cur = 0 }

// Sleep waits for the next delay or ctx, whichever comes first
func (b *Backoff) Sleep(ctx context.Context) error {
	t := time.NewTimer(b.Next())
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// pingPool is a seam for tests
var pingPool = func(ctx context.Context, p *PG) error { return p.Pool.Ping(ctx) }

// WaitReady pings the pool until it answers, ctx ends, or attempts run out.
// The pool is pinged directly so the boot loop does not show up in the SQL trace.
func (p *PG) WaitReady(ctx context.Context, attempts int) error {
	const pingTimeout = 3 * time.Second
	if attempts <= 0 {
		attempts = 20
	}
	bo := DefaultBackoff()
	var last error
	for i := 0; i < attempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		last = pingPool(toCtx, p)
		cancel()
		if last == nil {
			return nil
		}
		if err := bo.Sleep(ctx); err != nil {
			return err
		}
	}
	return fmt.Errorf("postgres ping failed after %d attempts: %w", attempts, last)
}

// Close closes the pool; nil safe
func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}
