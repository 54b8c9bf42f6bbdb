package postgres

import (
	"context"

	"github.com/mockmate/server/internal/domain/plan"
	"github.com/mockmate/server/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// planAdapter implements plan.Repository.
type planAdapter struct {
	db *gorm.DB
}

// NewPlanAdapter creates a new plan database adapter.
func NewPlanAdapter(db *gorm.DB) plan.Repository {
	return &planAdapter{db: db}
}

func (a *planAdapter) List(ctx context.Context) ([]*model.Plan, error) {
	var plans []*model.Plan
	err := a.db.WithContext(ctx).
		Order("display_order ASC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (a *planAdapter) Save(ctx context.Context, p *model.Plan) error {
	return a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tier"}},
			UpdateAll: true,
		}).
		Create(p).Error
}

// Compile-time check
var _ plan.Repository = (*planAdapter)(nil)
