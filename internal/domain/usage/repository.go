package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mockmate/server/internal/model"
)

// CounterRepository defines the data access for usage period counters.
// Consume and Refund carry their audit event so the adapter can commit the
// counter change and the event in one transaction; neither may be observed
// without the other.
type CounterRepository interface {
	Get(ctx context.Context, userID uuid.UUID, period string) (*model.UsagePeriodCounter, error)

	// Materialize inserts the counter if no row exists for its (user, period)
	// and is a no-op otherwise.
	Materialize(ctx context.Context, counter *model.UsagePeriodCounter) error

	// ConsumeWithEvent atomically checks and decrements: the decrement only
	// happens when remaining >= amount, in a single conditional update.
	// Returns ErrQuotaExceeded, with no state change, when it does not.
	ConsumeWithEvent(ctx context.Context, userID uuid.UUID, period string, amount int64, event *model.UsageEvent) (*model.UsagePeriodCounter, error)

	// RefundWithEvent adds amount back, clamped so the counter never exceeds
	// its ceiling and used never goes negative.
	RefundWithEvent(ctx context.Context, userID uuid.UUID, period string, amount int64, event *model.UsageEvent) (*model.UsagePeriodCounter, error)

	// ResetWithEvent upserts the counter to a fresh period state.
	ResetWithEvent(ctx context.Context, counter *model.UsagePeriodCounter, event *model.UsageEvent) error
}

// EventRepository defines the data access for the append-only usage ledger.
type EventRepository interface {
	Append(ctx context.Context, event *model.UsageEvent) error
	ListByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*model.UsageEvent, error)
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*model.UsageEvent, error)
}

// EntitlementSource resolves the ceiling that applies to a user. Implemented
// by the subscription ledger; defined here so the meter does not depend on
// that package.
type EntitlementSource interface {
	ActiveEntitlement(ctx context.Context, userID uuid.UUID) (*model.Plan, *model.Subscription, error)
}

// StatusCache invalidates cached quota status after counter mutations. The
// cache is display-only; a failed invalidation is logged, never fatal.
type StatusCache interface {
	Invalidate(ctx context.Context, userID uuid.UUID, period string) error
}
