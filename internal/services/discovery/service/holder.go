// Package service holds the browse filter state and turns its changes into debounced query plans
package service

import (
	"context"
	"time"

	"unievents/internal/core/live"
	"unievents/internal/services/discovery/domain"
)

// Holder owns the filter state of one browse session. Every setter replaces one field and
// publishes the whole snapshot to all observers before returning. Nothing is validated; a
// range with From after To is kept as given.
type Holder struct {
	state *live.Value[domain.FilterState]
}

// NewHolder returns a holder with the zero state
func NewHolder() *Holder {
	return &Holder{state: live.NewValue(domain.FilterState{})}
}

// Snapshot returns the current state
func (h *Holder) Snapshot() domain.FilterState { return h.state.Get() }

// Observe calls fn with the current state and every later one until cancel is called
func (h *Holder) Observe(fn func(domain.FilterState)) (cancel func()) { return h.state.Observe(fn) }

// Watch streams snapshots, current first; a slow reader only sees the latest one
func (h *Holder) Watch(ctx context.Context) <-chan domain.FilterState { return h.state.Watch(ctx) }

func (h *Holder) update(fn func(*domain.FilterState)) {
	h.state.Update(func(s domain.FilterState) domain.FilterState {
		fn(&s)
		return s
	})
}

// UpdateSearch replaces the search text
func (h *Holder) UpdateSearch(text string) {
	h.update(func(s *domain.FilterState) { s.SearchText = text })
}

// SetDateRange replaces both dates; nil clears a bound
func (h *Holder) SetDateRange(from, to *time.Time) {
	h.update(func(s *domain.FilterState) { s.From, s.To = from, to })
}

// SetDepartment replaces the department; "" clears it
func (h *Holder) SetDepartment(id string) {
	h.update(func(s *domain.FilterState) { s.DepartmentID = id })
}

// SetCategory replaces the category; "" clears it
func (h *Holder) SetCategory(id string) {
	h.update(func(s *domain.FilterState) { s.CategoryID = id })
}

// Apply runs the setters p asks for, in field order, each publishing its own snapshot
func (h *Holder) Apply(p domain.Patch) domain.FilterState {
	if p.Reset {
		h.Reset()
	}
	if p.SearchText != nil {
		h.UpdateSearch(*p.SearchText)
	}
	if p.ClearDates || p.From != nil || p.To != nil {
		var from, to *time.Time
		if !p.ClearDates {
			cur := h.Snapshot()
			from, to = cur.From, cur.To
		}
		if p.From != nil {
			from = p.From
		}
		if p.To != nil {
			to = p.To
		}
		h.SetDateRange(from, to)
	}
	if p.DepartmentID != nil {
		h.SetDepartment(*p.DepartmentID)
	}
	if p.CategoryID != nil {
		h.SetCategory(*p.CategoryID)
	}
	return h.Snapshot()
}

// Reset restores the zero state
func (h *Holder) Reset() { h.state.Set(domain.FilterState{}) }
