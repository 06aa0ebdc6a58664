package pgdoc

import (
	"context"

	"unievents/internal/platform/logger"
	"unievents/internal/platform/store/changefeed"
	"unievents/internal/platform/store/pg"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Listener holds one pooled connection on LISTEN and forwards notifications into a hub
type Listener struct {
	pool *pgxpool.Pool
	hub  *changefeed.Hub
	log  *logger.Logger
}

// NewListener builds a listener; call Run to start it
func NewListener(pool *pgxpool.Pool, hub *changefeed.Hub) *Listener {
	return &Listener{pool: pool, hub: hub, log: logger.Named("pgdoc.listener")}
}

// Run listens until ctx ends, reconnecting with backoff. Each successful LISTEN is followed by a
// resync wakeup because notifications sent while disconnected are lost.
func (l *Listener) Run(ctx context.Context) error {
	bo := pg.DefaultBackoff()
	for {
		err := l.listen(ctx, bo)
		if ctx.Err() != nil {
			return nil
		}
		l.log.Warn().Err(err).Msg("docstore listener dropped; reconnecting")
		if bo.Sleep(ctx) != nil {
			return nil
		}
	}
}

func (l *Listener) listen(ctx context.Context, bo *pg.Backoff) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), "UNLISTEN *")
		conn.Release()
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}
	bo.Reset()
	l.hub.Publish(changefeed.Change{Collection: changefeed.All, Op: changefeed.OpResync})
	l.log.Debug().Str("channel", notifyChannel).Msg("docstore listener attached")

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		c, ok := parseNotification(n.Payload)
		if !ok {
			l.log.Warn().Str("payload", n.Payload).Msg("docstore listener: invalid payload")
			continue
		}
		l.hub.Publish(c)
	}
}

func parseNotification(payload string) (changefeed.Change, bool) {
	var c changefeed.Change
	if err := codec.UnmarshalFromString(payload, &c); err != nil || c.Collection == "" {
		return changefeed.Change{}, false
	}
	return c, true
}
