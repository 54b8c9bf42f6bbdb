package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mockmate/server/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockEventRepo struct {
	mock.Mock
}

func (m *MockEventRepo) Append(ctx context.Context, event *model.UsageEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepo) ListByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*model.UsageEvent, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UsageEvent), args.Error(1)
}

func (m *MockEventRepo) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*model.UsageEvent, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UsageEvent), args.Error(1)
}

func TestLogAppend(t *testing.T) {
	ctx := context.Background()

	t.Run("appends a valid event", func(t *testing.T) {
		repo := new(MockEventRepo)
		log := NewLog(repo, zap.NewNop())

		event := &model.UsageEvent{
			UserID: uuid.New(),
			Type:   model.UsageEventRenew,
			Amount: 50000,
			Period: "2026-08",
		}
		repo.On("Append", ctx, event).Return(nil)

		err := log.Append(ctx, event)
		require.NoError(t, err)
		assert.False(t, event.CreatedAt.IsZero())
		repo.AssertExpectations(t)
	})

	t.Run("rejects unknown event type", func(t *testing.T) {
		repo := new(MockEventRepo)
		log := NewLog(repo, zap.NewNop())

		err := log.Append(ctx, &model.UsageEvent{
			UserID: uuid.New(),
			Type:   model.UsageEventType("bogus"),
		})
		assert.ErrorIs(t, err, ErrAuditWriteFailure)
		repo.AssertNotCalled(t, "Append")
	})

	t.Run("surfaces a write failure", func(t *testing.T) {
		repo := new(MockEventRepo)
		log := NewLog(repo, zap.NewNop())

		repo.On("Append", ctx, mock.Anything).Return(errors.New("connection reset"))

		err := log.Append(ctx, &model.UsageEvent{
			UserID: uuid.New(),
			Type:   model.UsageEventConsume,
			Amount: 100,
		})
		assert.ErrorIs(t, err, ErrAuditWriteFailure)
	})
}

func TestLogList(t *testing.T) {
	ctx := context.Background()

	t.Run("lists events for a user window", func(t *testing.T) {
		repo := new(MockEventRepo)
		log := NewLog(repo, zap.NewNop())
		userID := uuid.New()
		from := time.Now().Add(-24 * time.Hour)
		to := time.Now()

		want := []*model.UsageEvent{
			{UserID: userID, Type: model.UsageEventConsume, Amount: 1000},
			{UserID: userID, Type: model.UsageEventRefund, Amount: 1000},
		}
		repo.On("ListByUser", ctx, userID, from, to).Return(want, nil)

		got, err := log.ListByUser(ctx, userID, from, to)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("lists events for a subscription", func(t *testing.T) {
		repo := new(MockEventRepo)
		log := NewLog(repo, zap.NewNop())
		subID := uuid.New()

		want := []*model.UsageEvent{
			{SubscriptionID: &subID, Type: model.UsageEventRenew, Amount: 50000},
		}
		repo.On("ListBySubscription", ctx, subID).Return(want, nil)

		got, err := log.ListBySubscription(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}
