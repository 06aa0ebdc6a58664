// Package domain defines the browse filter state and the query plan derived from it
package domain

import (
	"time"

	events "unievents/internal/services/events/domain"
)

// FilterState is what the user has typed and picked. Empty ids and nil dates mean "any".
type FilterState struct {
	SearchText   string     `json:"searchText"`
	From         *time.Time `json:"fromDate,omitempty"`
	To           *time.Time `json:"toDate,omitempty"`
	DepartmentID string     `json:"departmentId,omitempty"`
	CategoryID   string     `json:"categoryId,omitempty"`
}

// QueryPlan is the settled query for a FilterState. SearchPrefix is normalized and never blank
// padding; an empty prefix matches everything.
type QueryPlan struct {
	SearchPrefix string     `json:"searchPrefix,omitempty"`
	From         *time.Time `json:"fromDate,omitempty"`
	To           *time.Time `json:"toDate,omitempty"`
	DepartmentID string     `json:"departmentId,omitempty"`
	CategoryID   string     `json:"categoryId,omitempty"`
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// Equal compares plans by value
func (p QueryPlan) Equal(o QueryPlan) bool {
	return p.SearchPrefix == o.SearchPrefix &&
		p.DepartmentID == o.DepartmentID &&
		p.CategoryID == o.CategoryID &&
		sameTime(p.From, o.From) &&
		sameTime(p.To, o.To)
}

// Filter converts the plan into an events filter
func (p QueryPlan) Filter() events.Filter {
	return events.Filter{
		Prefix:       p.SearchPrefix,
		From:         p.From,
		To:           p.To,
		DepartmentID: p.DepartmentID,
		CategoryID:   p.CategoryID,
	}
}

// Patch changes part of a FilterState. Nil fields are left alone. Reset clears everything first;
// ClearDates drops both dates before From and To apply.
type Patch struct {
	Reset        bool       `json:"reset,omitempty"`
	SearchText   *string    `json:"searchText,omitempty"`
	ClearDates   bool       `json:"clearDates,omitempty"`
	From         *time.Time `json:"fromDate,omitempty"`
	To           *time.Time `json:"toDate,omitempty"`
	DepartmentID *string    `json:"departmentId,omitempty"`
	CategoryID   *string    `json:"categoryId,omitempty"`
}

// Results is one frame of a browse session: the plan in force and the events it selects
type Results struct {
	Plan   QueryPlan              `json:"plan"`
	Events []events.EventWithRefs `json:"events"`
}
