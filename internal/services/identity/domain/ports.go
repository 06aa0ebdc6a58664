package domain

import "context"

// Source is the auth-state bridge consumers depend on
type Source interface {
	// Current returns the signed in identity or nil
	Current() *Identity
	// CurrentUserID fails with NotSignedIn when nobody is signed in
	CurrentUserID() (string, error)
	// Watch streams the current identity first, then every transition, until ctx ends
	Watch(ctx context.Context) <-chan *Identity
}

// TokenParser turns a bearer token into a user id
type TokenParser interface {
	Parse(raw string) (userID string, err error)
}
