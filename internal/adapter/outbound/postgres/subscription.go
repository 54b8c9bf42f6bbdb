package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mockmate/server/internal/domain/subscription"
	"github.com/mockmate/server/internal/domain/usage"
	"github.com/mockmate/server/internal/model"
	"gorm.io/gorm"
)

// subscriptionAdapter implements subscription.Repository.
type subscriptionAdapter struct {
	db *gorm.DB
}

// NewSubscriptionAdapter creates a new subscription database adapter.
func NewSubscriptionAdapter(db *gorm.DB) subscription.Repository {
	return &subscriptionAdapter{db: db}
}

func (a *subscriptionAdapter) Create(ctx context.Context, sub *model.Subscription) error {
	return a.db.WithContext(ctx).Create(sub).Error
}

func (a *subscriptionAdapter) GetByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	var sub model.Subscription
	err := a.db.WithContext(ctx).
		Preload("Plan").
		First(&sub, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, subscription.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (a *subscriptionAdapter) Update(ctx context.Context, sub *model.Subscription) error {
	return a.db.WithContext(ctx).Save(sub).Error
}

func (a *subscriptionAdapter) UpdateWithEvent(ctx context.Context, sub *model.Subscription, event *model.UsageEvent) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(sub).Error; err != nil {
			return fmt.Errorf("save subscription: %w", err)
		}
		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("%w: %v", usage.ErrAuditWriteFailure, err)
		}
		return nil
	})
}

func (a *subscriptionAdapter) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := a.db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ?", userID).
		Order("end_date DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// Compile-time check
var _ subscription.Repository = (*subscriptionAdapter)(nil)
