package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"unievents/internal/core/live"
	"unievents/internal/core/normalize"
	"unievents/internal/platform/config"
	"unievents/internal/services/discovery/domain"
)

// DefaultQuiet is how long the search text must stay unchanged before it is planned
const DefaultQuiet = 300 * time.Millisecond

// Planner turns filter snapshots into query plans
type Planner struct {
	Quiet time.Duration
}

// PlannerFromConfig reads CORE_DISCOVERY_QUIET
func PlannerFromConfig(c config.Conf) Planner {
	return Planner{Quiet: c.Prefix("CORE_DISCOVERY_").MayDuration("QUIET", DefaultQuiet)}
}

func (p Planner) quiet() time.Duration {
	if p.Quiet <= 0 {
		return DefaultQuiet
	}
	return p.Quiet
}

// searchPrefix trims and normalizes; blank text means no prefix
func searchPrefix(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return normalize.Normalize(text)
}

func structured(s domain.FilterState) domain.QueryPlan {
	return domain.QueryPlan{From: s.From, To: s.To, DepartmentID: s.DepartmentID, CategoryID: s.CategoryID}
}

// Run plans the snapshots read from states.
//
// The search text is debounced: a plan is only produced once the text has stayed unchanged for
// Quiet. After that, changes to dates, department or category plan immediately against the last
// settled text. A structured change made while a new term is still within its quiet period
// therefore plans at once with the previous term, and the new term follows in its own plan once
// it settles. A plan equal to the previous one is not emitted. Cancelling ctx discards a
// pending quiet period without planning it. The channel closes when ctx ends or states closes.
func (p Planner) Run(ctx context.Context, states <-chan domain.FilterState) <-chan domain.QueryPlan {
	out := make(chan domain.QueryPlan)
	go func() {
		defer close(out)

		timer := time.NewTimer(p.quiet())
		timer.Stop()
		defer timer.Stop()

		var (
			text     string
			seenText bool
			pending  bool
			settled  bool // a term has been planned at least once
			prefix   string
			filters  domain.QueryPlan
			seenFlt  bool
			last     domain.QueryPlan
			emitted  bool
		)
		emit := func() bool {
			plan := filters
			plan.SearchPrefix = prefix
			if emitted && plan.Equal(last) {
				return true
			}
			if !live.Send(ctx, out, plan) {
				return false
			}
			last, emitted = plan, true
			return true
		}

		for {
			var fire <-chan time.Time
			if pending {
				fire = timer.C
			}
			select {
			case <-ctx.Done():
				return
			case s, ok := <-states:
				if !ok {
					return
				}
				if !seenText || s.SearchText != text {
					text, seenText, pending = s.SearchText, true, true
					timer.Reset(p.quiet())
				}
				if f := structured(s); !seenFlt || !f.Equal(filters) {
					filters, seenFlt = f, true
					if settled && !emit() {
						return
					}
				}
			case <-fire:
				pending, settled = false, true
				prefix = searchPrefix(text)
				if !emit() {
					return
				}
			}
		}
	}()
	return out
}

// Session runs one planner pipeline over a holder and can restart it. A restart discards
// whatever the previous pipeline had pending; plans from it are never delivered afterwards.
type Session struct {
	planner Planner
	holder  *Holder
	ctx     context.Context
	sw      live.Switch
	out     chan domain.QueryPlan

	mu     sync.Mutex
	closed bool
}

// Attach starts planning h's snapshots. Plans arrive on the returned session's C.
func (p Planner) Attach(ctx context.Context, h *Holder) *Session {
	s := &Session{planner: p, holder: h, ctx: ctx, out: make(chan domain.QueryPlan)}
	s.Restart()
	return s
}

// C delivers plans
func (s *Session) C() <-chan domain.QueryPlan { return s.out }

// Holder returns the state this session plans
func (s *Session) Holder() *Holder { return s.holder }

// Restart tears the pipeline down and starts a fresh one from the current snapshot
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.sw.Start(s.ctx, func(ctx context.Context) {
		for plan := range s.planner.Run(ctx, s.holder.Watch(ctx)) {
			if !live.Send(ctx, s.out, plan) {
				return
			}
		}
	})
}

// Close stops the pipeline and closes C
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.sw.Stop()
	close(s.out)
}
