package queries

import (
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

// PlanLister exposes the catalog in declaration order.
type PlanLister interface {
	Plans() []subscription.Plan
}

// ListPlansHandler returns the plan catalog.
type ListPlansHandler struct {
	plans PlanLister
}

// NewListPlansHandler creates a new ListPlansHandler.
func NewListPlansHandler(plans PlanLister) *ListPlansHandler {
	return &ListPlansHandler{plans: plans}
}

// Handle returns every plan.
func (h *ListPlansHandler) Handle() []PlanDTO {
	plans := h.plans.Plans()
	out := make([]PlanDTO, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanDTO(p))
	}
	return out
}
