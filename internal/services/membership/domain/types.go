// Package domain defines memberships, the records linking a user to the events they joined
package domain

import (
	"context"

	"unievents/internal/core/live"
	events "unievents/internal/services/events/domain"
)

// CollectionMemberships holds membership documents
const CollectionMemberships = "memberships"

const (
	FieldUserID  = "userId"
	FieldEventID = "eventId"
)

// Membership says UserID joined EventID. Records are only created and deleted; duplicates are
// tolerated and a user has joined an event while at least one record matches.
type Membership struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	EventID string `json:"eventId"`
}

// Joined is a membership with its event, nil when the event no longer exists
type Joined struct {
	Membership Membership    `json:"membership"`
	Event      *events.Event `json:"event"`
}

// ServicePort is consumed by handlers
type ServicePort interface {
	ObserveMine(ctx context.Context) <-chan live.Update[[]Joined]
	Join(ctx context.Context, eventIDs ...string) ([]string, error)
	Unjoin(ctx context.Context, membershipIDs ...string) error
	IsJoined(ctx context.Context, eventID string) <-chan bool
}
