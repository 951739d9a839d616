package subscription

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paperlus/ledger/internal/shared/domain"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidWindow   = errors.New("end date precedes start date")
	ErrInvalidStatus   = errors.New("invalid subscription status")
	ErrNotLapsed       = errors.New("subscription has not lapsed")
	ErrPlanUnchanged   = errors.New("user is already on this plan")
)

// Status is the lifecycle state of a subscription record.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusPending Status = "pending"
)

func (s Status) String() string {
	return string(s)
}

// ParseStatus parses a stored status.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusActive:
		return StatusActive, nil
	case StatusExpired:
		return StatusExpired, nil
	case StatusPending:
		return StatusPending, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Window is the coverage period a new subscription will receive.
type Window struct {
	Start time.Time
	End   Expiry
	Plan  Plan
}

// Validate checks that a dated end is not before the start.
func (w Window) Validate() error {
	if end, ok := w.End.Date(); ok && end.Before(DateOf(w.Start)) {
		return ErrInvalidWindow
	}
	return nil
}

// Subscription grants a user a plan over a window.
type Subscription struct {
	domain.BaseAggregateRoot
	userID    string
	planID    string
	planName  string
	status    Status
	startDate time.Time
	endDate   Expiry
}

// New creates an active subscription for userID over window.
func New(userID string, window Window) (*Subscription, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	s := &Subscription{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		userID:            userID,
		planID:            window.Plan.ID,
		planName:          window.Plan.Name,
		status:            StatusActive,
		startDate:         DateOf(window.Start),
		endDate:           window.End,
	}

	s.AddDomainEvent(NewSubscriptionAssigned(s))
	return s, nil
}

// Rehydrate rebuilds a subscription from storage without recording events.
func Rehydrate(
	id uuid.UUID,
	createdAt time.Time,
	userID, planID, planName string,
	status Status,
	startDate time.Time,
	endDate Expiry,
) (*Subscription, error) {
	w := Window{Start: startDate, End: endDate}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("subscription %s: %w", id, err)
	}
	return &Subscription{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(id, createdAt),
		userID:            userID,
		planID:            planID,
		planName:          planName,
		status:            status,
		startDate:         DateOf(startDate),
		endDate:           endDate,
	}, nil
}

// IsLapsed reports whether an active subscription ended before asOf.
func (s *Subscription) IsLapsed(asOf time.Time) bool {
	return s.status == StatusActive && s.endDate.Before(asOf)
}

// Expire moves a lapsed active subscription to expired.
func (s *Subscription) Expire(asOf time.Time) error {
	if !s.IsLapsed(asOf) {
		return ErrNotLapsed
	}
	s.status = StatusExpired
	s.AddDomainEvent(NewSubscriptionExpired(s))
	return nil
}

// Revoke records that the subscription is being removed. The caller deletes it.
func (s *Subscription) Revoke() {
	s.AddDomainEvent(NewSubscriptionRevoked(s))
}

// Getters
func (s *Subscription) UserID() string       { return s.userID }
func (s *Subscription) PlanID() string       { return s.planID }
func (s *Subscription) PlanName() string     { return s.planName }
func (s *Subscription) Status() Status       { return s.status }
func (s *Subscription) StartDate() time.Time { return s.startDate }
func (s *Subscription) EndDate() Expiry      { return s.endDate }
func (s *Subscription) IsActive() bool       { return s.status == StatusActive }
func (s *Subscription) IsExpired() bool      { return s.status == StatusExpired }
