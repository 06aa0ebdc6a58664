// Package redisfeed relays document changes between processes over Redis pub/sub.
// It is the feed of choice when Postgres LISTEN is not reachable, e.g. behind a transaction pooler.
package redisfeed

import (
	"context"
	"time"

	"unievents/internal/platform/logger"
	"unievents/internal/platform/store/changefeed"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is used when Options.Channel is empty
const DefaultChannel = "unievents:changes"

var json = jsoniter.ConfigFastest

// Options configures a Relay
type Options struct {
	Channel string
	// Retry is the pause between resubscribe attempts
	Retry time.Duration
}

// Relay publishes local writes to Redis and forwards every received change into a hub
type Relay struct {
	client  *redis.Client
	hub     *changefeed.Hub
	channel string
	retry   time.Duration
	log     *logger.Logger
}

// New builds a relay around an existing client
func New(client *redis.Client, hub *changefeed.Hub, opt Options) *Relay {
	if opt.Channel == "" {
		opt.Channel = DefaultChannel
	}
	if opt.Retry <= 0 {
		opt.Retry = 2 * time.Second
	}
	return &Relay{
		client:  client,
		hub:     hub,
		channel: opt.Channel,
		retry:   opt.Retry,
		log:     logger.Named("redisfeed"),
	}
}

// Notify publishes changes in one pipeline; the local hub hears them back through Run
func (r *Relay) Notify(ctx context.Context, changes ...changefeed.Change) error {
	if len(changes) == 0 {
		return nil
	}
	pipe := r.client.Pipeline()
	for _, c := range changes {
		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		pipe.Publish(ctx, r.channel, data)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Run subscribes until ctx ends, resubscribing after errors.
// Every (re)subscription is followed by a resync so watchers catch up on anything missed.
func (r *Relay) Run(ctx context.Context) error {
	for {
		err := r.subscribe(ctx)
		if ctx.Err() != nil {
			return nil
		}
		r.log.Warn().Err(err).Dur("retry", r.retry).Msg("redis change feed dropped; resubscribing")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.retry):
		}
	}
}

func (r *Relay) subscribe(ctx context.Context) error {
	ps := r.client.Subscribe(ctx, r.channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return err
	}
	r.hub.Publish(changefeed.Change{Collection: changefeed.All, Op: changefeed.OpResync})
	r.log.Debug().Str("channel", r.channel).Msg("redis change feed subscribed")

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return redis.ErrClosed
			}
			r.handle(msg.Payload)
		}
	}
}

func (r *Relay) handle(payload string) {
	c, ok := decode(payload)
	if !ok {
		r.log.Warn().Str("payload", payload).Msg("redis change feed: invalid payload")
		return
	}
	r.hub.Publish(c)
}

func decode(payload string) (changefeed.Change, bool) {
	var c changefeed.Change
	if err := json.UnmarshalFromString(payload, &c); err != nil || c.Collection == "" {
		return changefeed.Change{}, false
	}
	return c, true
}

// Ping checks the redis connection
func (r *Relay) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }
