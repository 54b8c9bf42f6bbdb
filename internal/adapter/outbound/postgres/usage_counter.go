package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mockmate/server/internal/domain/usage"
	"github.com/mockmate/server/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// usageCounterAdapter implements usage.CounterRepository. The consume path
// is a single conditional UPDATE: the row either changes with the guard
// satisfied or does not change at all, regardless of how many requests race.
type usageCounterAdapter struct {
	db *gorm.DB
}

// NewUsageCounterAdapter creates a new usage counter database adapter.
func NewUsageCounterAdapter(db *gorm.DB) usage.CounterRepository {
	return &usageCounterAdapter{db: db}
}

func (a *usageCounterAdapter) Get(ctx context.Context, userID uuid.UUID, period string) (*model.UsagePeriodCounter, error) {
	var counter model.UsagePeriodCounter
	err := a.db.WithContext(ctx).
		First(&counter, "user_id = ? AND period = ?", userID, period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usage.ErrCounterNotFound
		}
		return nil, err
	}
	return &counter, nil
}

func (a *usageCounterAdapter) Materialize(ctx context.Context, counter *model.UsagePeriodCounter) error {
	return a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "period"}},
			DoNothing: true,
		}).
		Create(counter).Error
}

func (a *usageCounterAdapter) ConsumeWithEvent(ctx context.Context, userID uuid.UUID, period string, amount int64, event *model.UsageEvent) (*model.UsagePeriodCounter, error) {
	var counter model.UsagePeriodCounter

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.UsagePeriodCounter{}).
			Where("user_id = ? AND period = ? AND remaining >= ?", userID, period, amount).
			Updates(map[string]any{
				"used":      gorm.Expr("used + ?", amount),
				"remaining": gorm.Expr("remaining - ?", amount),
			})
		if res.Error != nil {
			return fmt.Errorf("decrement counter: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Either the row is missing or the guard failed; look to tell
			// the two apart.
			var exists int64
			if err := tx.Model(&model.UsagePeriodCounter{}).
				Where("user_id = ? AND period = ?", userID, period).
				Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return usage.ErrCounterNotFound
			}
			return usage.ErrQuotaExceeded
		}

		if err := tx.First(&counter, "user_id = ? AND period = ?", userID, period).Error; err != nil {
			return err
		}

		event.CounterID = &counter.ID
		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("%w: %v", usage.ErrAuditWriteFailure, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

func (a *usageCounterAdapter) RefundWithEvent(ctx context.Context, userID uuid.UUID, period string, amount int64, event *model.UsageEvent) (*model.UsagePeriodCounter, error) {
	var counter model.UsagePeriodCounter

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.UsagePeriodCounter{}).
			Where("user_id = ? AND period = ?", userID, period).
			Updates(map[string]any{
				"used":      gorm.Expr("GREATEST(used - ?, 0)", amount),
				"remaining": gorm.Expr("LEAST(remaining + ?, ceiling)", amount),
			})
		if res.Error != nil {
			return fmt.Errorf("increment counter: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return usage.ErrCounterNotFound
		}

		if err := tx.First(&counter, "user_id = ? AND period = ?", userID, period).Error; err != nil {
			return err
		}

		event.CounterID = &counter.ID
		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("%w: %v", usage.ErrAuditWriteFailure, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

func (a *usageCounterAdapter) ResetWithEvent(ctx context.Context, counter *model.UsagePeriodCounter, event *model.UsageEvent) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "period"}},
			DoUpdates: clause.Assignments(map[string]any{
				"ceiling":   counter.Ceiling,
				"used":      counter.Used,
				"remaining": counter.Remaining,
				"reset_at":  counter.ResetAt,
			}),
		}).Create(counter).Error
		if err != nil {
			return fmt.Errorf("reset counter: %w", err)
		}

		event.CounterID = &counter.ID
		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("%w: %v", usage.ErrAuditWriteFailure, err)
		}
		return nil
	})
}

// Compile-time check
var _ usage.CounterRepository = (*usageCounterAdapter)(nil)
