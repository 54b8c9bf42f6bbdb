package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mockmate/server/internal/domain/usage"
	"github.com/mockmate/server/internal/model"
	"gorm.io/gorm"
)

// usageEventAdapter implements usage.EventRepository. The table is
// append-only; no update or delete path exists here on purpose.
type usageEventAdapter struct {
	db *gorm.DB
}

// NewUsageEventAdapter creates a new usage event database adapter.
func NewUsageEventAdapter(db *gorm.DB) usage.EventRepository {
	return &usageEventAdapter{db: db}
}

func (a *usageEventAdapter) Append(ctx context.Context, event *model.UsageEvent) error {
	return a.db.WithContext(ctx).Create(event).Error
}

func (a *usageEventAdapter) ListByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*model.UsageEvent, error) {
	var events []*model.UsageEvent
	err := a.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at <= ?", userID, from, to).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (a *usageEventAdapter) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*model.UsageEvent, error) {
	var events []*model.UsageEvent
	err := a.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Compile-time check
var _ usage.EventRepository = (*usageEventAdapter)(nil)
