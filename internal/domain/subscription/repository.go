package subscription

import (
	"context"

	"github.com/google/uuid"
	"github.com/mockmate/server/internal/model"
)

// Repository defines the data access the subscription ledger needs.
// This interface is defined in the domain layer (Port) and implemented in the
// adapter layer.
type Repository interface {
	Create(ctx context.Context, sub *model.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error)
	Update(ctx context.Context, sub *model.Subscription) error

	// UpdateWithEvent persists the subscription and appends the audit event
	// in one transaction. The update must not commit without its event.
	UpdateWithEvent(ctx context.Context, sub *model.Subscription, event *model.UsageEvent) error

	// ListByUser returns all subscriptions of the user, newest end date
	// first. Subscriptions are never deleted, so this is the full history.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Subscription, error)
}

// UserReader resolves the authenticated account the ledger works for.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// UsageResetter starts a fresh usage period on renewal. Implemented by the
// usage meter; defined here so the ledger does not depend on that package.
type UsageResetter interface {
	ResetPeriod(ctx context.Context, userID uuid.UUID, period string, ceiling int64) error
}
