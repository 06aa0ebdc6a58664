// Package store opens the document store the services run on and the change feed that keeps
// live listeners fresh. Backends are picked by config: in-memory for tests and local runs,
// Postgres for everything else.
package store

import (
	"context"
	"errors"
	"fmt"

	"unievents/internal/platform/config"
	"unievents/internal/platform/logger"
	"unievents/internal/platform/store/changefeed"
	"unievents/internal/platform/store/changefeed/redisfeed"
	"unievents/internal/platform/store/docstore"
	"unievents/internal/platform/store/docstore/memdoc"
	"unievents/internal/platform/store/docstore/pgdoc"
	"unievents/internal/platform/store/pg"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Backends
const (
	BackendMemory = "memory"
	BackendPG     = "pg"
)

// Feeds
const (
	FeedPG    = "pg"
	FeedRedis = "redis"
	FeedLocal = "local"
)

// RedisConfig addresses the relay's Redis
type RedisConfig struct {
	Addr    string
	DB      int
	Channel string
}

// Config selects and configures the backends
type Config struct {
	Backend string
	Feed    string
	PG      pg.Config
	LogSQL  bool
	Redis   RedisConfig
}

// FromConfig reads DOCSTORE_*, SERVICE_PGSQL_* and SERVICE_REDIS_*
func FromConfig(c config.Conf) Config {
	ds := c.Prefix("DOCSTORE_")
	cfg := Config{
		Backend: ds.MayEnum("BACKEND", BackendMemory, BackendMemory, BackendPG),
		Feed:    ds.MayEnum("FEED", FeedPG, FeedPG, FeedRedis, FeedLocal),
	}
	if cfg.Backend == BackendPG {
		pc := c.Prefix("SERVICE_PGSQL_")
		cfg.PG = pg.Config{
			URL:      pc.MustString("DBURL"),
			MaxConns: int32(pc.MayInt("MAX_CONNS", 8)),
			SlowMs:   pc.MayInt("SLOW_MS", 200),
		}
		cfg.LogSQL = pc.MayBool("LOG_SQL", false)
	}
	if cfg.Feed == FeedRedis {
		rc := c.Prefix("SERVICE_REDIS_")
		cfg.Redis = RedisConfig{
			Addr:    rc.MayString("ADDR", "localhost:6379"),
			DB:      rc.MayInt("DB", 0),
			Channel: rc.MayString("CHANNEL", redisfeed.DefaultChannel),
		}
	}
	return cfg
}

// Store bundles the open backends. Docs and Hub are always set after Open.
type Store struct {
	Log logger.Logger

	Docs docstore.Client
	Hub  *changefeed.Hub

	// PG is nil with the memory backend
	PG *pg.PG
	// Redis is nil unless the redis feed is selected
	Redis *redis.Client

	feeds []func(context.Context) error
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

var (
	openPG   = pg.Open
	ensureDB = func(ctx context.Context, p *pg.PG) error {
		if err := p.WaitReady(ctx, 0); err != nil {
			return err
		}
		return pgdoc.EnsureSchema(ctx, p.Runner())
	}
)

// Open constructs the Store. Feed loops do not start until Run.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{Log: logger.Get().With().Str("component", "store").Logger()}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	s.Hub = changefeed.NewHub()

	switch cfg.Backend {
	case BackendMemory, "":
		s.Docs = memdoc.New(s.Hub)
		s.Log.Info().Msg("docstore: in-memory backend")
		return s, nil
	case BackendPG:
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}

	var tracer pg.QueryTracer
	if cfg.LogSQL {
		tracer = pg.Tracer(s.Log)
	}
	p, err := openPG(ctx, cfg.PG, tracer, nil)
	if err != nil {
		return nil, fmt.Errorf("pg open: %w", err)
	}
	if err := ensureDB(ctx, p); err != nil {
		p.Close()
		return nil, fmt.Errorf("pg schema: %w", err)
	}
	s.PG = p

	var notifier changefeed.Notifier
	switch cfg.Feed {
	case FeedPG, "":
		l := pgdoc.NewListener(p.Pool, s.Hub)
		s.feeds = append(s.feeds, l.Run)
	case FeedRedis:
		s.Redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		relay := redisfeed.New(s.Redis, s.Hub, redisfeed.Options{Channel: cfg.Redis.Channel})
		notifier = relay
		s.feeds = append(s.feeds, relay.Run)
	case FeedLocal:
		// single process: the client wakes its own hub after commit
		notifier = s.Hub
	default:
		p.Close()
		return nil, fmt.Errorf("store: unknown feed %q", cfg.Feed)
	}

	s.Docs = pgdoc.New(p.Runner(), s.Hub, notifier)
	s.Log.Info().Str("feed", cfg.Feed).Msg("docstore: postgres backend")
	return s, nil
}

// Run drives the change feed loops until ctx ends. It returns at once when there are none.
func (s *Store) Run(ctx context.Context) error {
	if len(s.feeds) == 0 {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, f := range s.feeds {
		g.Go(func() error { return f(ctx) })
	}
	return g.Wait()
}

// Guard pings every backend the Store holds
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	if s.PG != nil && s.PG.Pool != nil {
		if err := s.PG.Pool.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("pg: %w", err))
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Probe is one named readiness check
type Probe struct {
	Name   string
	Pinger Pinger
}

// PingFunc adapts a function to Pinger
type PingFunc func(context.Context) error

// Ping implements Pinger
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Probes lists a check per open backend: the document store always, then pg and redis when open
func (s *Store) Probes() []Probe {
	out := []Probe{{Name: "docstore", Pinger: PingFunc(func(ctx context.Context) error {
		_, err := s.Docs.Get(ctx, "_probe", "ready")
		return err
	})}}
	if s.PG != nil && s.PG.Pool != nil {
		out = append(out, Probe{Name: "pg", Pinger: s.PG.Pool})
	}
	if s.Redis != nil {
		out = append(out, Probe{Name: "redis", Pinger: PingFunc(func(ctx context.Context) error {
			return s.Redis.Ping(ctx).Err()
		})})
	}
	return out
}

// Close releases the backends; nil ones are skipped
func (s *Store) Close(context.Context) error {
	var errs []error
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.PG.Close()
	return errors.Join(errs...)
}
