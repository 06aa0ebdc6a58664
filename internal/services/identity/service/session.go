// Package service implements the auth-state bridge and bearer token handling
package service

import (
	"context"
	"strings"

	"unievents/internal/core/live"
	perr "unievents/internal/platform/errors"
	"unievents/internal/platform/logger"
	"unievents/internal/platform/store/docstore"
	"unievents/internal/services/identity/domain"
)

// Session holds the current identity. Each consumer gets it injected; there is no process wide one.
type Session struct {
	users docstore.Reader
	cur   *live.Value[*domain.Identity]
	log   *logger.Logger
}

var _ domain.Source = (*Session)(nil)

// NewSession returns a signed out session that reads roles from users
func NewSession(users docstore.Reader) *Session {
	return &Session{
		users: users,
		cur:   live.NewValue[*domain.Identity](nil),
		log:   logger.Named("identity"),
	}
}

// Fixed returns a session already signed in as id that never changes; the HTTP layer uses one per request
func Fixed(id domain.Identity) *Session {
	s := NewSession(nil)
	s.cur.Set(&id)
	return s
}

// Current returns the signed in identity or nil
func (s *Session) Current() *domain.Identity { return s.cur.Get() }

// CurrentUserID returns the signed in user id or ErrNotSignedIn
func (s *Session) CurrentUserID() (string, error) {
	if id := s.cur.Get(); id != nil {
		return id.UserID, nil
	}
	return "", perr.ErrNotSignedIn
}

// Watch streams the identity, current value first
func (s *Session) Watch(ctx context.Context) <-chan *domain.Identity { return s.cur.Watch(ctx) }

// SignIn looks up the user's role and publishes the new identity. A user without a profile
// document signs in as a student.
func (s *Session) SignIn(ctx context.Context, userID string) (*domain.Identity, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, perr.InvalidArgf("user id is required")
	}
	role := domain.RoleStudent
	if s.users != nil {
		doc, err := s.users.Get(ctx, domain.CollectionUsers, userID)
		if err != nil {
			return nil, perr.FromStore(err, "load user profile")
		}
		if doc != nil {
			role = domain.ParseRole(doc.Fields.Str("role"))
		}
	}
	id := &domain.Identity{UserID: userID, Role: role}
	s.cur.Set(id)
	s.log.Debug().Str("user_id", userID).Str("role", string(role)).Msg("signed in")
	return id, nil
}

// SignOut publishes the signed out state
func (s *Session) SignOut() {
	if s.cur.Get() == nil {
		return
	}
	s.cur.Set(nil)
	s.log.Debug().Msg("signed out")
}
