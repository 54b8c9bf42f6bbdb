package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mockmate/server/internal/model"
	"go.uber.org/zap"
)

// Meter enforces per-period consumption against the entitled ceiling. The
// counter row in the database is the single source of truth; the meter holds
// no state of its own, so any number of concurrent requests contend only on
// the repository's conditional update.
type Meter struct {
	counters     CounterRepository
	entitlements EntitlementSource
	cache        StatusCache
	logger       *zap.Logger
}

// NewMeter creates a new usage meter. cache may be nil.
func NewMeter(counters CounterRepository, entitlements EntitlementSource, cache StatusCache, logger *zap.Logger) *Meter {
	return &Meter{
		counters:     counters,
		entitlements: entitlements,
		cache:        cache,
		logger:       logger,
	}
}

// Remaining returns the unconsumed allowance for the period. An absent
// counter means nothing was consumed yet: the full entitled ceiling is
// reported without materializing a row.
func (m *Meter) Remaining(ctx context.Context, userID uuid.UUID, period string) (int64, error) {
	counter, err := m.counters.Get(ctx, userID, period)
	if err == nil {
		return counter.Remaining, nil
	}
	if !errors.Is(err, ErrCounterNotFound) {
		return 0, fmt.Errorf("get counter: %w", err)
	}

	p, _, err := m.entitlements.ActiveEntitlement(ctx, userID)
	if err != nil {
		return 0, err
	}
	return p.MonthlyQuota, nil
}

// Consume charges amount against the period counter in a single atomic
// check-and-decrement, appending the CONSUME audit event in the same
// transaction. It returns ErrQuotaExceeded, leaving all state untouched,
// when the remaining allowance is insufficient.
func (m *Meter) Consume(ctx context.Context, userID uuid.UUID, period string, amount int64, actionRef string) (*model.UsagePeriodCounter, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	p, sub, err := m.entitlements.ActiveEntitlement(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Lazy materialization: first consumption in a period creates the row.
	seed := &model.UsagePeriodCounter{
		UserID:    userID,
		Period:    period,
		Ceiling:   p.MonthlyQuota,
		Used:      0,
		Remaining: p.MonthlyQuota,
		ResetAt:   model.PeriodResetAt(period),
	}
	if err := m.counters.Materialize(ctx, seed); err != nil {
		return nil, fmt.Errorf("materialize counter: %w", err)
	}

	event := &model.UsageEvent{
		UserID:         userID,
		SubscriptionID: subscriptionRef(sub),
		Type:           model.UsageEventConsume,
		Amount:         amount,
		Period:         period,
		ActionRef:      actionRef,
		CreatedAt:      time.Now(),
	}

	counter, err := m.counters.ConsumeWithEvent(ctx, userID, period, amount, event)
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("consume: %w", err)
	}

	m.invalidateStatus(ctx, userID, period)

	m.logger.Debug("quota consumed",
		zap.String("user_id", userID.String()),
		zap.String("period", period),
		zap.Int64("amount", amount),
		zap.Int64("remaining", counter.Remaining),
	)
	return counter, nil
}

// Refund returns amount to the period counter, clamped at the ceiling, and
// appends the REFUND audit event in the same transaction. Used when a
// started action is cancelled before completion.
func (m *Meter) Refund(ctx context.Context, userID uuid.UUID, period string, amount int64, actionRef string) (*model.UsagePeriodCounter, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var subID *uuid.UUID
	if _, sub, err := m.entitlements.ActiveEntitlement(ctx, userID); err == nil {
		subID = subscriptionRef(sub)
	}

	event := &model.UsageEvent{
		UserID:         userID,
		SubscriptionID: subID,
		Type:           model.UsageEventRefund,
		Amount:         amount,
		Period:         period,
		ActionRef:      actionRef,
		CreatedAt:      time.Now(),
	}

	counter, err := m.counters.RefundWithEvent(ctx, userID, period, amount, event)
	if err != nil {
		return nil, fmt.Errorf("refund: %w", err)
	}

	m.invalidateStatus(ctx, userID, period)
	return counter, nil
}

// ResetPeriod starts a fresh counter for the period with the given ceiling.
// Unused allowance from prior periods does not carry over. Called on renewal;
// satisfies the subscription ledger's UsageResetter port.
func (m *Meter) ResetPeriod(ctx context.Context, userID uuid.UUID, period string, ceiling int64) error {
	if ceiling <= 0 {
		return ErrInvalidAmount
	}

	counter := &model.UsagePeriodCounter{
		UserID:    userID,
		Period:    period,
		Ceiling:   ceiling,
		Used:      0,
		Remaining: ceiling,
		ResetAt:   model.PeriodResetAt(period),
	}
	event := &model.UsageEvent{
		UserID:    userID,
		Type:      model.UsageEventReset,
		Amount:    ceiling,
		Period:    period,
		CreatedAt: time.Now(),
	}

	if err := m.counters.ResetWithEvent(ctx, counter, event); err != nil {
		return fmt.Errorf("reset period: %w", err)
	}

	m.invalidateStatus(ctx, userID, period)
	return nil
}

// Status assembles the displayable quota position for the current period.
func (m *Meter) Status(ctx context.Context, userID uuid.UUID) (*model.QuotaStatus, error) {
	p, _, err := m.entitlements.ActiveEntitlement(ctx, userID)
	if err != nil {
		return nil, err
	}

	period := model.PeriodFor(time.Now())
	status := &model.QuotaStatus{
		Plan:      p.Name,
		Tier:      string(p.Tier),
		Period:    period,
		Used:      0,
		Ceiling:   p.MonthlyQuota,
		Remaining: p.MonthlyQuota,
		ResetAt:   model.PeriodResetAt(period),
	}

	counter, err := m.counters.Get(ctx, userID, period)
	if err != nil {
		if errors.Is(err, ErrCounterNotFound) {
			return status, nil
		}
		return nil, fmt.Errorf("get counter: %w", err)
	}

	status.Used = counter.Used
	status.Ceiling = counter.Ceiling
	status.Remaining = counter.Remaining
	status.ResetAt = counter.ResetAt
	return status, nil
}

func (m *Meter) invalidateStatus(ctx context.Context, userID uuid.UUID, period string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Invalidate(ctx, userID, period); err != nil {
		m.logger.Warn("quota status cache invalidation failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

func subscriptionRef(sub *model.Subscription) *uuid.UUID {
	if sub == nil {
		return nil
	}
	id := sub.ID
	return &id
}
