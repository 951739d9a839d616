package subscription

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPlanNotFound  = errors.New("plan not found")
	ErrInvalidPlan   = errors.New("invalid plan")
	ErrDuplicatePlan = errors.New("duplicate plan id")
)

// Plan is a subscription product. Plans are immutable once the catalog is built.
type Plan struct {
	ID          string
	Name        string
	Duration    DurationCode
	Price       *int64
	Description string
}

// Validate checks the plan's own fields.
func (p Plan) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("%w: empty id", ErrInvalidPlan)
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: %s has no name", ErrInvalidPlan, p.ID)
	case !p.Duration.IsKnown():
		return fmt.Errorf("%w: %s has unknown duration %q", ErrInvalidPlan, p.ID, p.Duration)
	case p.Price != nil && *p.Price < 0:
		return fmt.Errorf("%w: %s has a negative price", ErrInvalidPlan, p.ID)
	}
	return nil
}

// PlanFinder looks plans up by id. Not found is an expected outcome.
type PlanFinder interface {
	FindPlan(planID string) (Plan, bool)
}

// Catalog is the fixed, ordered set of plans.
type Catalog struct {
	plans []Plan
	byID  map[string]int
}

// NewCatalog validates plans and indexes them by id, keeping declaration order.
func NewCatalog(plans []Plan) (*Catalog, error) {
	c := &Catalog{
		plans: make([]Plan, 0, len(plans)),
		byID:  make(map[string]int, len(plans)),
	}
	for _, p := range plans {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlan, p.ID)
		}
		c.byID[p.ID] = len(c.plans)
		c.plans = append(c.plans, p)
	}
	return c, nil
}

// FindPlan returns the plan with planID.
func (c *Catalog) FindPlan(planID string) (Plan, bool) {
	i, ok := c.byID[planID]
	if !ok {
		return Plan{}, false
	}
	return c.plans[i], true
}

// Plans returns the plans in declaration order.
func (c *Catalog) Plans() []Plan {
	return append([]Plan(nil), c.plans...)
}

// Len returns the number of plans.
func (c *Catalog) Len() int {
	return len(c.plans)
}
