package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mockmate/server/internal/domain/plan"
	"github.com/mockmate/server/internal/model"
	"go.uber.org/zap"
)

// TrialLength is the entitlement window granted on the trial signup path.
const TrialLength = 14 * 24 * time.Hour

// Domain implements the subscription ledger: lifecycle transitions and
// entitlement resolution.
type Domain struct {
	repo     Repository
	users    UserReader
	catalog  *plan.Catalog
	resetter UsageResetter
	logger   *zap.Logger
}

// NewDomain creates a new subscription ledger service.
func NewDomain(repo Repository, users UserReader, catalog *plan.Catalog, resetter UsageResetter, logger *zap.Logger) *Domain {
	return &Domain{
		repo:     repo,
		users:    users,
		catalog:  catalog,
		resetter: resetter,
		logger:   logger,
	}
}

// SetUsageResetter closes the loop with the usage meter. The meter needs the
// ledger to resolve entitlements and the ledger needs the meter on renewal,
// so one side is attached after construction.
func (d *Domain) SetUsageResetter(resetter UsageResetter) {
	d.resetter = resetter
}

func (d *Domain) resetPeriod(ctx context.Context, userID uuid.UUID, period string, ceiling int64) error {
	if d.resetter == nil {
		return nil
	}
	return d.resetter.ResetPeriod(ctx, userID, period, ceiling)
}

// Create opens a new subscription for the user. Trial signups start in TRIAL
// with a fixed-length window; purchases start in ACTIVE with a full billing
// cycle. A user may hold at most one entitling subscription at a time.
func (d *Domain) Create(ctx context.Context, userID uuid.UUID, tier model.PlanTier, cycle model.BillingCycle, trial bool) (*model.Subscription, error) {
	if !tier.IsValid() {
		return nil, fmt.Errorf("%w: unknown tier %q", ErrInvalidRequest, tier)
	}
	if !cycle.IsValid() {
		return nil, fmt.Errorf("%w: unknown billing cycle %q", ErrInvalidRequest, cycle)
	}

	p, err := d.catalog.GetByTier(tier)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, fmt.Errorf("%w: plan %q is not active", ErrInvalidRequest, p.ID)
	}

	existing, err := d.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	now := time.Now()
	for _, s := range existing {
		if s.EntitledAt(now) {
			return nil, ErrSubscriptionExists
		}
	}

	status := model.SubscriptionStatusActive
	endDate := addCycle(now, cycle)
	if trial {
		status = model.SubscriptionStatusTrial
		endDate = now.Add(TrialLength)
	}

	sub := &model.Subscription{
		ID:            uuid.New(),
		UserID:        userID,
		PlanID:        p.ID,
		Status:        status,
		BillingCycle:  cycle,
		StartDate:     now,
		EndDate:       endDate,
		NextRenewalAt: endDate,
		AutoRenew:     true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := d.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	d.logger.Info("subscription created",
		zap.String("user_id", userID.String()),
		zap.String("plan_id", p.ID),
		zap.String("status", status.String()),
	)

	sub.Plan = p
	return sub, nil
}

// Cancel moves a non-terminal subscription to CANCELLED, closing the
// entitlement immediately. Cancelling an already terminal subscription is an
// invalid transition, not an idempotent no-op.
func (d *Domain) Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Subscription, error) {
	sub, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot cancel %s subscription", ErrInvalidState, sub.Status)
	}

	now := time.Now()
	sub.Status = model.SubscriptionStatusCancelled
	sub.EndDate = now
	sub.AutoRenew = false
	sub.CancelledAt = &now
	sub.CancelReason = reason
	sub.UpdatedAt = now

	event := &model.UsageEvent{
		UserID:         sub.UserID,
		SubscriptionID: &sub.ID,
		Type:           model.UsageEventCancel,
		Period:         model.PeriodFor(now),
		CreatedAt:      now,
	}
	if err := d.repo.UpdateWithEvent(ctx, sub, event); err != nil {
		return nil, fmt.Errorf("cancel subscription: %w", err)
	}

	d.logger.Info("subscription cancelled",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("reason", reason),
	)
	return sub, nil
}

// Renew extends an ACTIVE or PAST_DUE subscription by one billing cycle.
// The new term starts the day after the previous end date and the next
// renewal date only ever moves forward. The usage counter reset for the new
// period happens after the renewal commits and is not allowed to fail the
// call: an error here would invite a retry that extends the term twice, and
// the meter seeds an absent counter at the plan ceiling on first consume
// anyway.
func (d *Domain) Renew(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	sub, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch sub.Status {
	case model.SubscriptionStatusActive, model.SubscriptionStatusPastDue:
	default:
		return nil, fmt.Errorf("%w: cannot renew %s subscription", ErrInvalidState, sub.Status)
	}

	p, err := d.catalog.GetByID(sub.PlanID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	newStart := sub.EndDate.AddDate(0, 0, 1)
	newEnd := addCycle(newStart, sub.BillingCycle)

	sub.Status = model.SubscriptionStatusActive
	sub.StartDate = newStart
	sub.EndDate = newEnd
	sub.NextRenewalAt = newEnd
	sub.UpdatedAt = now

	event := &model.UsageEvent{
		UserID:         sub.UserID,
		SubscriptionID: &sub.ID,
		Type:           model.UsageEventRenew,
		Period:         model.PeriodFor(newStart),
		CreatedAt:      now,
	}
	if err := d.repo.UpdateWithEvent(ctx, sub, event); err != nil {
		return nil, fmt.Errorf("renew subscription: %w", err)
	}

	if err := d.resetPeriod(ctx, sub.UserID, model.PeriodFor(newStart), p.MonthlyQuota); err != nil {
		d.logger.Warn("usage period reset failed after renewal",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("period", model.PeriodFor(newStart)),
			zap.Error(err),
		)
	}

	d.logger.Info("subscription renewed",
		zap.String("subscription_id", sub.ID.String()),
		zap.Time("next_renewal_at", sub.NextRenewalAt),
	)
	return sub, nil
}

// Expire moves a non-terminal subscription whose end date has passed to
// EXPIRED. There is no background sweep; callers invoke this when a stale
// record is observed.
func (d *Domain) Expire(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	sub, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot expire %s subscription", ErrInvalidState, sub.Status)
	}
	now := time.Now()
	if sub.EndDate.After(now) {
		return nil, fmt.Errorf("%w: subscription has not ended yet", ErrInvalidState)
	}

	sub.Status = model.SubscriptionStatusExpired
	sub.AutoRenew = false
	sub.UpdatedAt = now

	if err := d.repo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("expire subscription: %w", err)
	}
	return sub, nil
}

// MarkPastDue records a payment failure signalled by an external collaborator.
func (d *Domain) MarkPastDue(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	sub, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub.Status != model.SubscriptionStatusActive {
		return nil, fmt.Errorf("%w: cannot mark %s subscription past due", ErrInvalidState, sub.Status)
	}

	sub.Status = model.SubscriptionStatusPastDue
	sub.UpdatedAt = time.Now()

	if err := d.repo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("mark past due: %w", err)
	}
	return sub, nil
}

// ActiveEntitlement resolves the plan the user is currently entitled to.
// Entitlement is derived from status AND end date; a stale ACTIVE row past
// its end date is lazily expired and skipped. Users without an entitling
// subscription fall back to the free plan when that is their default tier,
// with nil returned for the subscription.
func (d *Domain) ActiveEntitlement(ctx context.Context, userID uuid.UUID) (*model.Plan, *model.Subscription, error) {
	subs, err := d.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list subscriptions: %w", err)
	}

	now := time.Now()
	var current *model.Subscription
	for _, s := range subs {
		if !s.Status.Entitles() {
			continue
		}
		if s.EntitledAt(now) {
			if current == nil || s.EndDate.After(current.EndDate) {
				current = s
			}
			continue
		}

		// Status says entitled but the end date has passed. Repair lazily;
		// a failed repair only delays the next observation.
		s.Status = model.SubscriptionStatusExpired
		s.AutoRenew = false
		s.UpdatedAt = now
		if err := d.repo.Update(ctx, s); err != nil {
			d.logger.Warn("lazy expiry failed",
				zap.String("subscription_id", s.ID.String()),
				zap.Error(err),
			)
		}
	}

	if current != nil {
		p, err := d.catalog.GetByID(current.PlanID)
		if err != nil {
			return nil, nil, err
		}
		return p, current, nil
	}

	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if user.DefaultPlanTier == model.PlanTierFree {
		p, err := d.catalog.GetByTier(model.PlanTierFree)
		if err != nil {
			return nil, nil, err
		}
		return p, nil, nil
	}

	return nil, nil, ErrNoActiveSubscription
}

// Current returns the user's most relevant subscription with its plan: the
// entitling one if present, otherwise the most recent historical record.
func (d *Domain) Current(ctx context.Context, userID uuid.UUID) (*model.Subscription, error) {
	subs, err := d.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil, ErrSubscriptionNotFound
	}

	now := time.Now()
	sub := subs[0]
	for _, s := range subs {
		if s.EntitledAt(now) {
			sub = s
			break
		}
	}

	if sub.Plan == nil {
		if p, err := d.catalog.GetByID(sub.PlanID); err == nil {
			sub.Plan = p
		}
	}
	return sub, nil
}

// GetOwned returns the subscription only when it belongs to the user.
// Another user's subscription is reported as not found, never as forbidden,
// so the API does not leak which IDs exist.
func (d *Domain) GetOwned(ctx context.Context, userID, id uuid.UUID) (*model.Subscription, error) {
	sub, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, ErrSubscriptionNotFound
	}
	return sub, nil
}

// History returns every subscription the user ever had, newest first.
func (d *Domain) History(ctx context.Context, userID uuid.UUID) ([]*model.Subscription, error) {
	subs, err := d.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

// addCycle advances t by one billing cycle.
func addCycle(t time.Time, cycle model.BillingCycle) time.Time {
	if cycle == model.BillingCycleAnnual {
		return t.AddDate(1, 0, 0)
	}
	return t.AddDate(0, 1, 0)
}
