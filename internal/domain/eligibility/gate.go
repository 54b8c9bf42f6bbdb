package eligibility

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mockmate/server/internal/domain/subscription"
	"github.com/mockmate/server/internal/domain/usage"
	"github.com/mockmate/server/internal/model"
	"go.uber.org/zap"
)

// Denial reasons returned in Result.Reason. Stable strings: clients switch
// on them.
const (
	ReasonAllowed        = "allowed"
	ReasonAccountBlocked = "account inactive"
	ReasonNoSubscription = "no active subscription"
	ReasonQuotaExceeded  = "quota exceeded for period"
	ReasonFreeAllowance  = "limited quota (free plan)"
)

// Result is the outcome of an eligibility check. A business denial is a
// valid result, not an error.
type Result struct {
	Allowed   bool      `json:"allowed"`
	Reason    string    `json:"reason"`
	Tier      string    `json:"tier,omitempty"`
	Remaining int64     `json:"remaining"`
	CheckedAt time.Time `json:"checked_at"`
}

// UserReader loads account state for the gate's account check.
type UserReader interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

// EntitlementSource resolves the plan a user is entitled to.
type EntitlementSource interface {
	ActiveEntitlement(ctx context.Context, userID uuid.UUID) (*model.Plan, *model.Subscription, error)
}

// AllowanceReader reports the unconsumed quota for a period.
type AllowanceReader interface {
	Remaining(ctx context.Context, userID uuid.UUID, period string) (int64, error)
}

// Gate answers "may this user start a paid action right now". It reads and
// never mutates: the actual charge happens afterwards through the meter's
// atomic consume, so a positive answer here is advisory, not a reservation.
type Gate struct {
	users        UserReader
	entitlements EntitlementSource
	allowance    AllowanceReader
	logger       *zap.Logger
}

// NewGate creates a new eligibility gate.
func NewGate(users UserReader, entitlements EntitlementSource, allowance AllowanceReader, logger *zap.Logger) *Gate {
	return &Gate{
		users:        users,
		entitlements: entitlements,
		allowance:    allowance,
		logger:       logger,
	}
}

// Check evaluates whether the user may spend required units now. Checks run
// in a fixed order and the first failing one names the denial: account
// state, then entitlement, then allowance. Infrastructure failures are the
// only errors; every business outcome comes back as a Result.
func (g *Gate) Check(ctx context.Context, userID uuid.UUID, required int64) (*Result, error) {
	now := time.Now()
	result := &Result{CheckedAt: now}

	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, subscription.ErrUserNotFound) {
			result.Reason = ReasonAccountBlocked
			return result, nil
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive() {
		result.Reason = ReasonAccountBlocked
		return result, nil
	}

	plan, _, err := g.entitlements.ActiveEntitlement(ctx, userID)
	if err != nil {
		if errors.Is(err, subscription.ErrNoActiveSubscription) {
			result.Reason = ReasonNoSubscription
			return result, nil
		}
		return nil, fmt.Errorf("resolve entitlement: %w", err)
	}
	result.Tier = string(plan.Tier)

	period := model.PeriodFor(now)
	remaining, err := g.allowance.Remaining(ctx, userID, period)
	if err != nil {
		return nil, fmt.Errorf("read allowance: %w", err)
	}
	result.Remaining = remaining

	if remaining < required {
		result.Reason = ReasonQuotaExceeded
		g.logger.Debug("eligibility denied",
			zap.String("user_id", userID.String()),
			zap.Int64("required", required),
			zap.Int64("remaining", remaining),
		)
		return result, nil
	}

	result.Allowed = true
	if plan.IsFree() {
		result.Reason = ReasonFreeAllowance
	} else {
		result.Reason = ReasonAllowed
	}
	return result, nil
}

var _ AllowanceReader = (*usage.Meter)(nil)
