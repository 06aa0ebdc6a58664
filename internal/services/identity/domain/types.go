// Package domain defines identity types shared by the services that need to know who is asking
package domain

// CollectionUsers holds one document per user, keyed by user id
const CollectionUsers = "users"

// Role is fetched on sign in and carried along; nothing in the core enforces it
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// ParseRole maps a stored role to a Role; anything unknown is a student
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleStudent
	}
}

// Identity is the signed in principal; nil means signed out
type Identity struct {
	UserID string
	Role   Role
}

// Same reports whether a and b are the same principal, treating nil as signed out
func Same(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
