package commands

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/paperlus/ledger/internal/directory/domain/user"
	"github.com/paperlus/ledger/internal/shared/infrastructure/outbox"
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
	"github.com/paperlus/ledger/internal/subscriptions/infrastructure/catalog"
	"github.com/paperlus/ledger/pkg/observability"
)

type txKey struct{}

// mockSubscriptionRepo is a mock implementation of subscription.Repository.
type mockSubscriptionRepo struct {
	mock.Mock
}

func (m *mockSubscriptionRepo) Save(ctx context.Context, s *subscription.Subscription) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockSubscriptionRepo) FindByUser(ctx context.Context, userID string) ([]*subscription.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if fn, ok := args.Get(0).(func(string) []*subscription.Subscription); ok {
		return fn(userID), args.Error(1)
	}
	return args.Get(0).([]*subscription.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) FindAll(ctx context.Context) ([]*subscription.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscription.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) FindLapsed(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscription.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) DeleteByUser(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockSubscriptionRepo) LockUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// mockUserRepo is a mock implementation of user.Repository.
type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Save(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context) ([]*user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

// mockOutboxRepo is a mock implementation of outbox.Repository.
type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepo) MarkPublished(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error {
	args := m.Called(ctx, id, err, nextRetryAt)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkDead(ctx context.Context, id int64, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *mockOutboxRepo) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	args := m.Called(ctx, olderThanDays)
	return args.Get(0).(int64), args.Error(1)
}

// mockUnitOfWork is a mock implementation of UnitOfWork.
type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type recordingInvalidator struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, userIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, userIDs...)
}

type fixture struct {
	ctx         context.Context
	txCtx       context.Context
	subs        *mockSubscriptionRepo
	users       *mockUserRepo
	outbox      *mockOutboxRepo
	uow         *mockUnitOfWork
	invalidator *recordingInvalidator
	metrics     *observability.InMemoryMetrics
	deps        Deps
}

func newFixture(t *testing.T, today string) *fixture {
	t.Helper()
	plans, err := catalog.Default()
	require.NoError(t, err)
	now, err := subscription.ParseDate(today)
	require.NoError(t, err)

	ctx := context.Background()
	f := &fixture{
		ctx:         ctx,
		txCtx:       context.WithValue(ctx, txKey{}, "transaction"),
		subs:        new(mockSubscriptionRepo),
		users:       new(mockUserRepo),
		outbox:      new(mockOutboxRepo),
		uow:         new(mockUnitOfWork),
		invalidator: &recordingInvalidator{},
		metrics:     observability.NewInMemoryMetrics(),
	}
	f.deps = Deps{
		Subscriptions: f.subs,
		Users:         f.users,
		Outbox:        f.outbox,
		UnitOfWork:    f.uow,
		Stacker:       subscription.NewStacker(plans, subscription.Resolver{}),
		Invalidator:   f.invalidator,
		Metrics:       f.metrics,
		Clock:         func() time.Time { return now },
	}
	return f
}

func (f *fixture) expectCommit() {
	f.uow.On("Begin", f.ctx).Return(f.txCtx, nil)
	f.uow.On("Commit", f.txCtx).Return(nil)
}

func (f *fixture) expectRollback() {
	f.uow.On("Begin", f.ctx).Return(f.txCtx, nil)
	f.uow.On("Rollback", f.txCtx).Return(nil)
}

func (f *fixture) knownUser(t *testing.T, id string) {
	t.Helper()
	u, err := user.New(id, "Company "+id, "", "")
	require.NoError(t, err)
	f.users.On("FindByID", f.txCtx, id).Return(u, nil)
}

func (f *fixture) unknownUser(id string) {
	f.users.On("FindByID", f.txCtx, id).Return(nil, user.ErrUserNotFound)
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.subs.AssertExpectations(t)
	f.users.AssertExpectations(t)
	f.outbox.AssertExpectations(t)
	f.uow.AssertExpectations(t)
}

func batchOf(n int, routingKey string) any {
	return mock.MatchedBy(func(msgs []*outbox.Message) bool {
		if len(msgs) != n {
			return false
		}
		for _, m := range msgs {
			if m.RoutingKey != routingKey {
				return false
			}
		}
		return true
	})
}

func stored(t *testing.T, userID, planID, planName string, status subscription.Status, start, end string) *subscription.Subscription {
	t.Helper()
	startDate, err := subscription.ParseDate(start)
	require.NoError(t, err)
	endDate := subscription.Never()
	if end != "" {
		d, err := subscription.ParseDate(end)
		require.NoError(t, err)
		endDate = subscription.Dated(d)
	}
	s, err := subscription.Rehydrate(uuid.New(), time.Now(), userID, planID, planName, status, startDate, endDate)
	require.NoError(t, err)
	return s
}
