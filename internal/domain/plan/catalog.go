package plan

import (
	"context"
	"fmt"
	"sort"

	"github.com/mockmate/server/internal/model"
	"go.uber.org/zap"
)

// Repository defines the data access the catalog needs. Plans are reference
// data: the catalog reads them once at startup and never writes afterwards.
type Repository interface {
	List(ctx context.Context) ([]*model.Plan, error)
	Save(ctx context.Context, plan *model.Plan) error
}

// Catalog holds the validated plan set in memory. It is immutable after
// Load and safe for concurrent reads.
type Catalog struct {
	byTier  map[model.PlanTier]*model.Plan
	byID    map[string]*model.Plan
	ordered []*model.Plan
}

// Load reads all plans from the repository and validates the catalog
// invariants. It returns an error, refusing to start, if any invariant is
// violated.
func Load(ctx context.Context, repo Repository, logger *zap.Logger) (*Catalog, error) {
	plans, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}

	if err := Validate(plans); err != nil {
		return nil, err
	}

	c := &Catalog{
		byTier: make(map[model.PlanTier]*model.Plan, len(plans)),
		byID:   make(map[string]*model.Plan, len(plans)),
	}
	for _, p := range plans {
		c.byTier[p.Tier] = p
		c.byID[p.ID] = p
		c.ordered = append(c.ordered, p)
	}
	sort.Slice(c.ordered, func(i, j int) bool {
		return c.ordered[i].DisplayOrder < c.ordered[j].DisplayOrder
	})

	logger.Info("plan catalog loaded", zap.Int("plans", len(plans)))
	return c, nil
}

// GetByTier returns the plan for the given tier.
func (c *Catalog) GetByTier(tier model.PlanTier) (*model.Plan, error) {
	p, ok := c.byTier[tier]
	if !ok {
		return nil, fmt.Errorf("%w: tier %q", ErrPlanNotFound, tier)
	}
	return p, nil
}

// GetByID returns the plan with the given ID.
func (c *Catalog) GetByID(id string) (*model.Plan, error) {
	p, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %q", ErrPlanNotFound, id)
	}
	return p, nil
}

// ListActive returns active plans in display order.
func (c *Catalog) ListActive() []*model.Plan {
	out := make([]*model.Plan, 0, len(c.ordered))
	for _, p := range c.ordered {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the catalog invariants: every tier present exactly once,
// non-negative prices, a zero-priced free tier, and quota ceilings that
// strictly increase from one tier to the next.
func Validate(plans []*model.Plan) error {
	byTier := make(map[model.PlanTier]*model.Plan, len(plans))
	for _, p := range plans {
		if !p.Tier.IsValid() {
			return fmt.Errorf("%w: plan %q has unknown tier %q", ErrInvalidCatalog, p.ID, p.Tier)
		}
		if _, dup := byTier[p.Tier]; dup {
			return fmt.Errorf("%w: duplicate plan for tier %q", ErrInvalidCatalog, p.Tier)
		}
		byTier[p.Tier] = p

		if p.MonthlyPriceCents < 0 || p.AnnualPriceCents < 0 {
			return fmt.Errorf("%w: plan %q has negative price", ErrInvalidCatalog, p.ID)
		}
		if p.Tier == model.PlanTierFree && (p.MonthlyPriceCents != 0 || p.AnnualPriceCents != 0) {
			return fmt.Errorf("%w: free plan %q must have zero price", ErrInvalidCatalog, p.ID)
		}
		if p.MonthlyQuota <= 0 {
			return fmt.Errorf("%w: plan %q has non-positive quota", ErrInvalidCatalog, p.ID)
		}
	}

	var prev *model.Plan
	for _, tier := range model.TierOrder {
		p, ok := byTier[tier]
		if !ok {
			return fmt.Errorf("%w: missing plan for tier %q", ErrInvalidCatalog, tier)
		}
		if prev != nil && p.MonthlyQuota <= prev.MonthlyQuota {
			return fmt.Errorf(
				"%w: tier %q quota (%d) must exceed tier %q quota (%d)",
				ErrInvalidCatalog, p.Tier, p.MonthlyQuota, prev.Tier, prev.MonthlyQuota,
			)
		}
		prev = p
	}

	return nil
}

// DefaultPlans returns the seed plan set used when the plans table is empty.
func DefaultPlans() []*model.Plan {
	return []*model.Plan{
		{
			ID:           "free",
			Tier:         model.PlanTierFree,
			Name:         "Free",
			Description:  "Try MockMate with a limited monthly allowance",
			MonthlyQuota: 10000,
			Features:     []string{"basic_roles", "text_feedback"},
			Active:       true,
			DisplayOrder: 0,
		},
		{
			ID:                "standard",
			Tier:              model.PlanTierStandard,
			Name:              "Standard",
			Description:       "Regular practice for active job seekers",
			MonthlyPriceCents: 1900,
			AnnualPriceCents:  19000,
			MonthlyQuota:      50000,
			Features:          []string{"all_roles", "text_feedback", "session_history"},
			Active:            true,
			DisplayOrder:      1,
		},
		{
			ID:                "pro",
			Tier:              model.PlanTierPro,
			Name:              "Pro",
			Description:       "Intensive preparation with the largest allowance",
			MonthlyPriceCents: 4900,
			AnnualPriceCents:  49000,
			MonthlyQuota:      200000,
			Features:          []string{"all_roles", "text_feedback", "session_history", "detailed_scoring"},
			Active:            true,
			DisplayOrder:      2,
		},
	}
}

// Seed inserts the default plans when the table is empty. It is a no-op on
// an already seeded database.
func Seed(ctx context.Context, repo Repository, logger *zap.Logger) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list plans: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, p := range DefaultPlans() {
		if err := repo.Save(ctx, p); err != nil {
			return fmt.Errorf("seed plan %q: %w", p.ID, err)
		}
	}

	logger.Info("seeded default plans")
	return nil
}
