// Package domain defines events, the filter that selects them, and the joined read model
package domain

import (
	"fmt"
	"time"

	catalog "unievents/internal/services/catalog/domain"
)

// CollectionEvents holds event documents
const CollectionEvents = "events"

// Field names in stored documents
const (
	FieldDepartmentID    = "departmentId"
	FieldCategoryID      = "categoryId"
	FieldTitle           = "title"
	FieldTitleNormalized = "titleNormalized"
	FieldDescription     = "description"
	FieldLocation        = "location"
	FieldLatitude        = "latitude"
	FieldLongitude       = "longitude"
	FieldStartDate       = "startDate"
	FieldEndDate         = "endDate"
	FieldImageURL        = "principalImageUrl"
)

// Event is one scheduled activity. TitleNormalized is derived on every write.
type Event struct {
	ID                string    `json:"id"`
	DepartmentID      string    `json:"departmentId"`
	CategoryID        string    `json:"categoryId"`
	Title             string    `json:"title"`
	TitleNormalized   string    `json:"titleNormalized"`
	Description       string    `json:"description"`
	Location          string    `json:"location"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	StartDate         time.Time `json:"startDate"`
	EndDate           time.Time `json:"endDate"`
	PrincipalImageURL string    `json:"principalImageUrl,omitempty"`
}

// Input is the caller supplied part of an Event
type Input struct {
	ID                string    `json:"id,omitempty" validate:"omitempty,max=128"`
	DepartmentID      string    `json:"departmentId" validate:"required,notblank"`
	CategoryID        string    `json:"categoryId" validate:"required,notblank"`
	Title             string    `json:"title" validate:"required,notblank,max=200"`
	Description       string    `json:"description" validate:"max=4000"`
	Location          string    `json:"location" validate:"max=200"`
	Latitude          float64   `json:"latitude" validate:"latitude"`
	Longitude         float64   `json:"longitude" validate:"longitude"`
	StartDate         time.Time `json:"startDate" validate:"required"`
	EndDate           time.Time `json:"endDate" validate:"required,gtfield=StartDate"`
	PrincipalImageURL string    `json:"principalImageUrl,omitempty" validate:"omitempty,url"`
}

// Filter selects events. Zero fields add no predicate; all set ones are ANDed.
type Filter struct {
	// Prefix is an already normalized title prefix
	Prefix       string
	From         *time.Time // startDate >= From
	To           *time.Time // endDate <= To
	DepartmentID string
	CategoryID   string
}

// RefState tells a resolved reference from one still loading
type RefState uint8

const (
	RefPending RefState = iota
	RefMissing
	RefFound
)

var refStateNames = [...]string{RefPending: "pending", RefMissing: "missing", RefFound: "found"}

func (s RefState) String() string {
	if int(s) < len(refStateNames) {
		return refStateNames[s]
	}
	return "unknown"
}

// Ref is a reference to another document that may not have been read yet or may not exist
type Ref[T any] struct {
	State RefState `json:"state"`
	Value *T       `json:"value,omitempty"`
}

// Found wraps a resolved value
func Found[T any](v T) Ref[T] { return Ref[T]{State: RefFound, Value: &v} }

// Missing is a reference resolved to nothing
func Missing[T any]() Ref[T] { return Ref[T]{State: RefMissing} }

// Resolved reports whether the reference is no longer pending
func (r Ref[T]) Resolved() bool { return r.State != RefPending }

// MarshalText renders the state for JSON
func (s RefState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses a state written by MarshalText
func (s *RefState) UnmarshalText(b []byte) error {
	for i, name := range refStateNames {
		if string(b) == name {
			*s = RefState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown reference state %q", b)
}

// EventWithRefs is an event joined with its department and category
type EventWithRefs struct {
	Event      Event              `json:"event"`
	Department Ref[catalog.Entry] `json:"department"`
	Category   Ref[catalog.Entry] `json:"category"`
}
