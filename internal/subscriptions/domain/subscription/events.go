package subscription

import (
	"github.com/paperlus/ledger/internal/shared/domain"
)

const (
	AggregateType = "Subscription"

	RoutingKeyAssigned = "ledger.subscription.assigned"
	RoutingKeyRevoked  = "ledger.subscription.revoked"
	RoutingKeyExpired  = "ledger.subscription.expired"
)

// SubscriptionAssigned is emitted when a plan is granted to a user.
type SubscriptionAssigned struct {
	domain.BaseEvent
	UserID       string `json:"user_id"`
	PlanID       string `json:"plan_id"`
	PlanName     string `json:"plan_name"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date,omitempty"`
	NeverExpires bool   `json:"never_expires"`
}

// NewSubscriptionAssigned creates a SubscriptionAssigned event.
func NewSubscriptionAssigned(s *Subscription) *SubscriptionAssigned {
	e := &SubscriptionAssigned{
		BaseEvent:    domain.NewBaseEvent(s.ID(), AggregateType, RoutingKeyAssigned),
		UserID:       s.userID,
		PlanID:       s.planID,
		PlanName:     s.planName,
		StartDate:    s.startDate.Format(DateLayout),
		NeverExpires: s.endDate.IsNever(),
	}
	if end, ok := s.endDate.Date(); ok {
		e.EndDate = end.Format(DateLayout)
	}
	return e
}

// SubscriptionRevoked is emitted when a subscription is removed.
type SubscriptionRevoked struct {
	domain.BaseEvent
	UserID string `json:"user_id"`
	PlanID string `json:"plan_id"`
}

// NewSubscriptionRevoked creates a SubscriptionRevoked event.
func NewSubscriptionRevoked(s *Subscription) *SubscriptionRevoked {
	return &SubscriptionRevoked{
		BaseEvent: domain.NewBaseEvent(s.ID(), AggregateType, RoutingKeyRevoked),
		UserID:    s.userID,
		PlanID:    s.planID,
	}
}

// SubscriptionExpired is emitted when a lapsed subscription is marked expired.
type SubscriptionExpired struct {
	domain.BaseEvent
	UserID  string `json:"user_id"`
	PlanID  string `json:"plan_id"`
	EndDate string `json:"end_date"`
}

// NewSubscriptionExpired creates a SubscriptionExpired event.
func NewSubscriptionExpired(s *Subscription) *SubscriptionExpired {
	return &SubscriptionExpired{
		BaseEvent: domain.NewBaseEvent(s.ID(), AggregateType, RoutingKeyExpired),
		UserID:    s.userID,
		PlanID:    s.planID,
		EndDate:   s.endDate.String(),
	}
}

// EventUserID extracts the affected user from any subscription event payload.
type EventUserID struct {
	UserID string `json:"user_id"`
}
