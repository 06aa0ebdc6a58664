// Package service implements "my events": joining, leaving and the live views derived from the
// signed in identity
package service

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"unievents/internal/core/live"
	perr "unievents/internal/platform/errors"
	"unievents/internal/platform/logger"
	"unievents/internal/platform/store/docstore"
	events "unievents/internal/services/events/domain"
	eventrepo "unievents/internal/services/events/repo"
	identity "unievents/internal/services/identity/domain"
	"unievents/internal/services/membership/domain"
	"unievents/internal/services/membership/repo"
)

// eventFanout caps concurrent event reads while deriving the joined list
const eventFanout = 8

// Service defines the membership service contract
type Service interface {
	domain.ServicePort
}

// Svc implements Service for one identity source
type Svc struct {
	db    docstore.Client
	ident identity.Source
	log   *logger.Logger
}

var _ Service = (*Svc)(nil)

// New constructs the membership service
func New(db docstore.Client, ident identity.Source) *Svc {
	if db == nil {
		panic("membership.Service requires a non nil client")
	}
	if ident == nil {
		panic("membership.Service requires an identity source")
	}
	return &Svc{db: db, ident: ident, log: logger.Named("membership")}
}

// As returns a copy of s bound to another identity source
func (s *Svc) As(ident identity.Source) *Svc {
	c := *s
	c.ident = ident
	return &c
}

// perUser re-derives a stream every time the identity changes. While signed out it publishes
// signedOut; otherwise it forwards derive for the current user. The previous derivation is torn
// down before the next one starts. An update with an error ends the whole stream.
func perUser[T any](ctx context.Context, ident identity.Source, signedOut T, derive func(ctx context.Context, userID string) <-chan live.Update[T]) <-chan live.Update[T] {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan live.Update[T])

	go func() {
		defer close(out)
		defer cancel()
		var sw live.Switch
		defer sw.Stop()

		var (
			last  *identity.Identity
			first = true
		)
		for id := range ident.Watch(ctx) {
			if !first && identity.Same(last, id) {
				continue
			}
			first, last = false, id

			if id == nil {
				sw.Stop()
				if !live.Send(ctx, out, live.Update[T]{Value: signedOut}) {
					return
				}
				continue
			}
			userID := id.UserID
			sw.Start(ctx, func(ctx context.Context) {
				for u := range derive(ctx, userID) {
					if !live.Send(ctx, out, u) {
						return
					}
					if u.Err != nil {
						cancel()
						return
					}
				}
			})
		}
	}()
	return out
}

// ObserveMine streams the signed in user's memberships with their events, ordered by event start
// with missing events last. Signed out gives an empty list.
func (s *Svc) ObserveMine(ctx context.Context) <-chan live.Update[[]domain.Joined] {
	return perUser(ctx, s.ident, []domain.Joined{}, s.mine)
}

func (s *Svc) mine(ctx context.Context, userID string) <-chan live.Update[[]domain.Joined] {
	s.log.Debug().Str("user_id", userID).Msg("observing memberships")
	return live.Stream(ctx, func(emit func([]domain.Joined, error)) func() {
		reg := s.db.Watch(repo.ByUser(userID), func(docs []docstore.Document, err error) {
			if err != nil {
				s.log.Warn().Err(err).Str("user_id", userID).Msg("membership listener failed")
				emit(nil, perr.FromStore(err, "observe memberships"))
				return
			}
			joined, err := s.withEvents(ctx, repo.FromDocs(docs))
			emit(joined, err)
		})
		return reg.Remove
	})
}

// withEvents reads the event of every membership, once per distinct event id
func (s *Svc) withEvents(ctx context.Context, ms []domain.Membership) ([]domain.Joined, error) {
	byID := make(map[string]*events.Event, len(ms))
	for _, m := range ms {
		byID[m.EventID] = nil
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	found := make([]*events.Event, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(eventFanout)
	for i, id := range ids {
		if id == "" {
			continue
		}
		g.Go(func() error {
			d, err := s.db.Get(gctx, events.CollectionEvents, id)
			if err != nil {
				return perr.FromStore(err, "read event")
			}
			if d != nil {
				e := eventrepo.FromDoc(*d)
				found[i] = &e
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, id := range ids {
		byID[id] = found[i]
	}

	out := make([]domain.Joined, 0, len(ms))
	for _, m := range ms {
		out = append(out, domain.Joined{Membership: m, Event: byID[m.EventID]})
	}
	slices.SortFunc(out, compareJoined)
	return out, nil
}

func compareJoined(a, b domain.Joined) int {
	switch {
	case a.Event == nil && b.Event != nil:
		return 1
	case a.Event != nil && b.Event == nil:
		return -1
	case a.Event != nil:
		if c := a.Event.StartDate.Compare(b.Event.StartDate); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.Membership.ID, b.Membership.ID)
}

// Join records one membership per event id for the signed in user. There is no check for an
// existing membership; joining twice leaves two records.
func (s *Svc) Join(ctx context.Context, eventIDs ...string) ([]string, error) {
	userID, err := s.ident.CurrentUserID()
	if err != nil {
		return nil, err
	}
	for _, id := range eventIDs {
		if strings.TrimSpace(id) == "" {
			return nil, perr.WithField(perr.InvalidArgf("event id is required"), "eventId")
		}
	}
	if len(eventIDs) == 0 {
		return nil, nil
	}

	var ids []string
	err = s.db.RunTx(ctx, func(ctx context.Context, tx docstore.Tx) error {
		ids = ids[:0]
		for _, eventID := range eventIDs {
			id, err := tx.Create(ctx, domain.CollectionMemberships, repo.ToDoc(domain.Membership{
				UserID:  userID,
				EventID: strings.TrimSpace(eventID),
			}))
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, perr.FromStore(err, "join events")
	}
	s.log.Debug().Str("user_id", userID).Int("count", len(ids)).Msg("joined")
	return ids, nil
}

// Unjoin deletes memberships by id. Blank and repeated ids are dropped, as are ids that do not
// belong to the signed in user. Deletes go out in batches of at most docstore.MaxBatchSize.
func (s *Svc) Unjoin(ctx context.Context, membershipIDs ...string) error {
	userID, err := s.ident.CurrentUserID()
	if err != nil {
		return err
	}
	want := make([]string, 0, len(membershipIDs))
	seen := make(map[string]struct{}, len(membershipIDs))
	for _, id := range membershipIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		want = append(want, id)
	}
	if len(want) == 0 {
		return nil
	}

	docs, err := s.db.Query(ctx, repo.ByUser(userID))
	if err != nil {
		return perr.FromStore(err, "list memberships")
	}
	owned := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		owned[d.ID] = struct{}{}
	}
	want = slices.DeleteFunc(want, func(id string) bool {
		_, ok := owned[id]
		return !ok
	})

	for _, batch := range docstore.Chunk(want) {
		if err := s.db.DeleteBatch(ctx, domain.CollectionMemberships, batch); err != nil {
			return perr.FromStore(err, "unjoin events")
		}
	}
	s.log.Debug().Str("user_id", userID).Int("count", len(want)).Msg("unjoined")
	return nil
}

// IsJoined streams whether the signed in user has joined eventID. Signed out, a blank id and
// listener failures all read as false.
func (s *Svc) IsJoined(ctx context.Context, eventID string) <-chan bool {
	eventID = strings.TrimSpace(eventID)
	src := perUser(ctx, s.ident, false, func(ctx context.Context, userID string) <-chan live.Update[bool] {
		if eventID == "" {
			ch := make(chan live.Update[bool], 1)
			ch <- live.Update[bool]{Value: false}
			close(ch)
			return ch
		}
		return s.joined(ctx, userID, eventID)
	})

	out := make(chan bool)
	go func() {
		defer close(out)
		first, last := true, false
		for u := range src {
			v := u.Value && u.Err == nil
			if !first && v == last {
				continue
			}
			first, last = false, v
			if !live.Send(ctx, out, v) {
				return
			}
		}
	}()
	return out
}

// joined never ends in an error: a failed listener reports false and stops
func (s *Svc) joined(ctx context.Context, userID, eventID string) <-chan live.Update[bool] {
	return live.Stream(ctx, func(emit func(bool, error)) func() {
		reg := s.db.Watch(repo.ByUserEvent(userID, eventID), func(docs []docstore.Document, err error) {
			if err != nil {
				s.log.Warn().Err(err).Str("event_id", eventID).Msg("joined listener failed, reporting false")
				emit(false, nil)
				return
			}
			emit(len(docs) > 0, nil)
		})
		return reg.Remove
	})
}
