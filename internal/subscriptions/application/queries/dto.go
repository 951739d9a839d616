package queries

import (
	"github.com/paperlus/ledger/internal/directory/domain/user"
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

// PlanDTO is a data transfer object for catalog plans.
type PlanDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Duration    string `json:"duration"`
	Price       *int64 `json:"price,omitempty"`
	Description string `json:"description,omitempty"`
}

// SubscriptionDTO is a data transfer object for subscriptions.
type SubscriptionDTO struct {
	ID           string `json:"id"`
	PlanID       string `json:"plan_id"`
	PlanName     string `json:"plan_name"`
	Status       string `json:"status"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	NeverExpires bool   `json:"never_expires"`
}

// SummaryDTO is the display view of one user's subscriptions.
type SummaryDTO struct {
	UserID        string            `json:"user_id"`
	Status        string            `json:"status"`
	Label         string            `json:"label,omitempty"`
	Ends          string            `json:"ends,omitempty"`
	Count         int               `json:"count"`
	Subscriptions []SubscriptionDTO `json:"subscriptions"`
}

// UserDTO is a data transfer object for directory entries.
type UserDTO struct {
	ID          string `json:"id"`
	CompanyName string `json:"company_name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// UserRowDTO is one row of the user listing.
type UserRowDTO struct {
	User    UserDTO    `json:"user"`
	Summary SummaryDTO `json:"summary"`
}

func toPlanDTO(p subscription.Plan) PlanDTO {
	return PlanDTO{
		ID:          p.ID,
		Name:        p.Name,
		Duration:    string(p.Duration),
		Price:       p.Price,
		Description: p.Description,
	}
}

func toSubscriptionDTO(s *subscription.Subscription) SubscriptionDTO {
	return SubscriptionDTO{
		ID:           s.ID().String(),
		PlanID:       s.PlanID(),
		PlanName:     s.PlanName(),
		Status:       s.Status().String(),
		StartDate:    s.StartDate().Format(subscription.DateLayout),
		EndDate:      s.EndDate().String(),
		NeverExpires: s.EndDate().IsNever(),
	}
}

func toUserDTO(u *user.User) UserDTO {
	return UserDTO{
		ID:          u.ID(),
		CompanyName: u.CompanyName(),
		Email:       u.Email(),
		Phone:       u.Phone(),
	}
}

// summarize builds the summary view of userID's subscriptions.
func summarize(userID string, subs []*subscription.Subscription) SummaryDTO {
	s := subscription.Summarize(subs)
	dto := SummaryDTO{
		UserID:        userID,
		Status:        string(s.Bucket),
		Label:         s.Label,
		Count:         s.Count,
		Subscriptions: make([]SubscriptionDTO, 0, len(subs)),
	}
	if s.HasEnds() {
		dto.Ends = s.Ends.String()
	}
	for _, sub := range subs {
		dto.Subscriptions = append(dto.Subscriptions, toSubscriptionDTO(sub))
	}
	return dto
}
