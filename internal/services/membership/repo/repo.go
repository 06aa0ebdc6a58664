// Package repo maps memberships to documents and builds their queries
package repo

import (
	"unievents/internal/platform/store/docstore"
	"unievents/internal/services/membership/domain"
)

// FromDoc maps a stored document
func FromDoc(d docstore.Document) domain.Membership {
	return domain.Membership{ID: d.ID, UserID: d.Fields.Str(domain.FieldUserID), EventID: d.Fields.Str(domain.FieldEventID)}
}

// FromDocs maps a result set
func FromDocs(docs []docstore.Document) []domain.Membership {
	out := make([]domain.Membership, 0, len(docs))
	for _, d := range docs {
		out = append(out, FromDoc(d))
	}
	return out
}

// ToDoc maps a membership to its stored form
func ToDoc(m domain.Membership) docstore.Document {
	return docstore.Document{ID: m.ID, Fields: docstore.Fields{
		domain.FieldUserID:  m.UserID,
		domain.FieldEventID: m.EventID,
	}}
}

// ByUser selects every membership of userID
func ByUser(userID string) docstore.Query {
	return docstore.From(domain.CollectionMemberships).Where(domain.FieldUserID, docstore.Eq, userID)
}

// ByUserEvent selects the memberships linking userID to eventID
func ByUserEvent(userID, eventID string) docstore.Query {
	return ByUser(userID).Where(domain.FieldEventID, docstore.Eq, eventID)
}
