package subscription

import (
	"fmt"
	"time"
)

// StackingHorizon bounds the anchor used when stacking after a never-ending
// subscription. A user holding Lifetime who receives another plan gets it
// starting here rather than never.
var StackingHorizon = time.Date(2099, time.December, 31, 0, 0, 0, 0, time.UTC)

// Stacker computes where a newly granted plan sits relative to what a user
// already holds.
type Stacker struct {
	Plans    PlanFinder
	Resolver Resolver
}

// NewStacker creates a stacker over plans.
func NewStacker(plans PlanFinder, resolver Resolver) Stacker {
	return Stacker{Plans: plans, Resolver: resolver}
}

// Anchor returns the start date for a new subscription: the latest end date
// among userID's active subscriptions, or today when there are none. A
// never-ending subscription counts as ending at StackingHorizon, so dated
// grants already stacked past the horizon still push the anchor further.
// Expired and pending records never extend the anchor.
func Anchor(userID string, existing []*Subscription, today time.Time) time.Time {
	var latest time.Time
	found := false
	for _, s := range existing {
		if s.userID != userID || s.status != StatusActive {
			continue
		}
		end, ok := s.endDate.Date()
		if !ok {
			end = StackingHorizon
		}
		if !found || end.After(latest) {
			latest, found = end, true
		}
	}
	if !found {
		return DateOf(today)
	}
	return latest
}

// ComputeWindow returns the window a grant of planID to userID would occupy.
// The window starts at the stack anchor and ends at the plan's duration
// applied to that anchor. An unknown plan yields ErrPlanNotFound.
func (s Stacker) ComputeWindow(userID, planID string, existing []*Subscription, today time.Time) (Window, error) {
	plan, ok := s.Plans.FindPlan(planID)
	if !ok {
		return Window{}, fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}

	start := Anchor(userID, existing, today)
	return Window{
		Start: start,
		End:   s.Resolver.ResolveOffset(plan.Duration, start),
		Plan:  plan,
	}, nil
}
