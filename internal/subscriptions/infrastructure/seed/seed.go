// Package seed loads demo users and subscriptions into an empty ledger.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/paperlus/ledger/internal/directory/domain/user"
	sharedApplication "github.com/paperlus/ledger/internal/shared/application"
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

//go:embed demo.yaml
var demoData []byte

// Dataset is the YAML document of seed records.
type Dataset struct {
	Users         []UserRecord         `yaml:"users"`
	Subscriptions []SubscriptionRecord `yaml:"subscriptions"`
}

// UserRecord is one seeded user.
type UserRecord struct {
	ID          string `yaml:"id"`
	CompanyName string `yaml:"company_name"`
	Email       string `yaml:"email"`
	Phone       string `yaml:"phone"`
}

// SubscriptionRecord is one seeded subscription. An empty end date means never.
type SubscriptionRecord struct {
	UserID    string `yaml:"user_id"`
	PlanID    string `yaml:"plan_id"`
	Status    string `yaml:"status"`
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date,omitempty"`
}

// Result reports what a seeding run wrote.
type Result struct {
	Users         int
	Subscriptions int
	Skipped       bool
}

// Demo returns the built-in demo dataset.
func Demo() (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(demoData, &ds); err != nil {
		return nil, fmt.Errorf("decode demo dataset: %w", err)
	}
	return &ds, nil
}

// Seeder writes a dataset through the repositories.
type Seeder struct {
	users  user.Repository
	subs   subscription.Repository
	plans  subscription.PlanFinder
	uow    sharedApplication.UnitOfWork
	logger *slog.Logger
}

// NewSeeder creates a seeder.
func NewSeeder(
	users user.Repository,
	subs subscription.Repository,
	plans subscription.PlanFinder,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{users: users, subs: subs, plans: plans, uow: uow, logger: logger}
}

// Seed writes ds in one transaction. It does nothing when any user exists.
// Seeded subscriptions are historical records and emit no events.
func (s *Seeder) Seed(ctx context.Context, ds *Dataset) (Result, error) {
	existing, err := s.users.List(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(existing) > 0 {
		s.logger.Debug("seed skipped, directory not empty", "users", len(existing))
		return Result{Skipped: true}, nil
	}

	var result Result
	err = sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		for _, rec := range ds.Users {
			u, err := user.New(rec.ID, rec.CompanyName, rec.Email, rec.Phone)
			if err != nil {
				return err
			}
			if err := s.users.Save(txCtx, u); err != nil {
				return err
			}
			result.Users++
		}

		for _, rec := range ds.Subscriptions {
			sub, err := s.record(rec)
			if err != nil {
				return err
			}
			if err := s.subs.Save(txCtx, sub); err != nil {
				return err
			}
			result.Subscriptions++
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("seed: %w", err)
	}

	s.logger.Info("seeded demo data", "users", result.Users, "subscriptions", result.Subscriptions)
	return result, nil
}

func (s *Seeder) record(rec SubscriptionRecord) (*subscription.Subscription, error) {
	plan, ok := s.plans.FindPlan(rec.PlanID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", subscription.ErrPlanNotFound, rec.PlanID)
	}
	status, err := subscription.ParseStatus(rec.Status)
	if err != nil {
		return nil, err
	}
	start, err := subscription.ParseDate(rec.StartDate)
	if err != nil {
		return nil, err
	}
	end := subscription.Never()
	if rec.EndDate != "" {
		d, err := subscription.ParseDate(rec.EndDate)
		if err != nil {
			return nil, err
		}
		end = subscription.Dated(d)
	}
	return subscription.Rehydrate(uuid.New(), time.Now().UTC(), rec.UserID, plan.ID, plan.Name, status, start, end)
}
