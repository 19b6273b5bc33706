package pageload

import (
	"context"
	"time"

	"github.com/alnah/go-pageload/internal/aria"
)

// PhaseEvent describes a finished phase.
type PhaseEvent struct {
	Phase    Phase
	Duration time.Duration
	Err      error
}

// LifecycleHooks observe a page load. Every hook is optional and must be
// safe for concurrent use when the Loader is shared.
type LifecycleHooks struct {
	OnPhase   func(context.Context, PhaseEvent)
	OnRule    func(context.Context, aria.RuleResult)
	OnBlock   func(block string, err error)
	OnOutcome func(context.Context, Outcome)
	OnDelayed func(err error)
}

func (h LifecycleHooks) phase(ctx context.Context, p Phase, start time.Time, err error) {
	if h.OnPhase != nil {
		h.OnPhase(ctx, PhaseEvent{Phase: p, Duration: time.Since(start), Err: err})
	}
}

func (h LifecycleHooks) rules(ctx context.Context, report *aria.Report) {
	if h.OnRule == nil || report == nil {
		return
	}
	for _, r := range report.Rules {
		h.OnRule(ctx, r)
	}
}

func (h LifecycleHooks) outcome(ctx context.Context, o Outcome) {
	if h.OnOutcome != nil {
		h.OnOutcome(ctx, o)
	}
}

func (h LifecycleHooks) delayed(err error) {
	if h.OnDelayed != nil {
		h.OnDelayed(err)
	}
}
