package application

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/paperlus/ledger/internal/shared/domain"
	"github.com/paperlus/ledger/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type txKey struct{}

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

func TestWithUnitOfWork(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, "tx")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)

		executed := false
		err := WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
			executed = true
			assert.Equal(t, txCtx, ctx)
			return nil
		})

		require.NoError(t, err)
		assert.True(t, executed)
		uow.AssertExpectations(t)
	})

	t.Run("rolls back and keeps the function error", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, "tx")

		fnErr := errors.New("function error")
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(errors.New("rollback error"))

		err := WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
			return fnErr
		})

		assert.Equal(t, fnErr, err)
		uow.AssertExpectations(t)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("does not run the function when begin fails", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		ctx := context.Background()

		beginErr := errors.New("begin error")
		uow.On("Begin", ctx).Return(ctx, beginErr)

		executed := false
		err := WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
			executed = true
			return nil
		})

		assert.Equal(t, beginErr, err)
		assert.False(t, executed)
	})

	t.Run("returns commit error", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, txKey{}, "tx")

		commitErr := errors.New("commit error")
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(commitErr)

		err := WithUnitOfWork(ctx, uow, func(ctx context.Context) error { return nil })

		assert.Equal(t, commitErr, err)
	})
}

type metadataEvent struct {
	domain.BaseEvent
}

func TestNewEventMetadata_UsesCorrelationIDFromContext(t *testing.T) {
	correlationID := uuid.New()
	ctx := observability.WithCorrelationID(context.Background(), correlationID.String())
	operator := uuid.New()

	metadata := NewEventMetadata(ctx, operator)

	assert.Equal(t, correlationID, metadata.CorrelationID)
	assert.Equal(t, operator, metadata.OperatorID)
	assert.NotEqual(t, uuid.Nil, metadata.CausationID)
}

func TestNewEventMetadata_IgnoresNonUUIDCorrelation(t *testing.T) {
	ctx := observability.WithCorrelationID(context.Background(), "not-a-uuid")

	metadata := NewEventMetadata(ctx, uuid.Nil)

	assert.NotEqual(t, uuid.Nil, metadata.CorrelationID)
}

func TestApplyEventMetadata(t *testing.T) {
	event := &metadataEvent{BaseEvent: domain.NewBaseEvent(uuid.New(), "Test", "test.created")}
	metadata := NewEventMetadata(context.Background(), uuid.New())

	ApplyEventMetadata([]domain.DomainEvent{event}, metadata)

	assert.Equal(t, metadata, event.Metadata())
}
