package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PlanTier represents the entitlement tier of a subscription plan.
type PlanTier string

const (
	PlanTierFree     PlanTier = "free"
	PlanTierStandard PlanTier = "standard"
	PlanTierPro      PlanTier = "pro"
)

// String returns the string representation of the plan tier.
func (p PlanTier) String() string {
	return string(p)
}

// IsValid checks if the plan tier is valid.
func (p PlanTier) IsValid() bool {
	switch p {
	case PlanTierFree, PlanTierStandard, PlanTierPro:
		return true
	}
	return false
}

// TierOrder lists tiers from lowest to highest entitlement. The catalog uses
// it to enforce strictly increasing quota ceilings.
var TierOrder = []PlanTier{PlanTierFree, PlanTierStandard, PlanTierPro}

// BillingCycle represents the renewal period of a subscription.
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleAnnual  BillingCycle = "annual"
)

// String returns the string representation of the billing cycle.
func (b BillingCycle) String() string {
	return string(b)
}

// IsValid checks if the billing cycle is valid.
func (b BillingCycle) IsValid() bool {
	switch b {
	case BillingCycleMonthly, BillingCycleAnnual:
		return true
	}
	return false
}

// SubscriptionStatus represents the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
)

// String returns the string representation of the status.
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsValid checks if the status is valid.
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionStatusTrial, SubscriptionStatusActive, SubscriptionStatusCancelled, SubscriptionStatusExpired, SubscriptionStatusPastDue:
		return true
	}
	return false
}

// IsTerminal returns true for states the subscription can never leave.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubscriptionStatusCancelled || s == SubscriptionStatusExpired
}

// Entitles returns true if the status by itself grants an entitlement.
// The end date must still be checked; the status field can be stale.
func (s SubscriptionStatus) Entitles() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrial
}

// Plan represents a subscription plan. Plans are reference data seeded at
// bootstrap and read-only afterwards.
type Plan struct {
	ID                string         `json:"id" gorm:"primaryKey"`
	Tier              PlanTier       `json:"tier" gorm:"uniqueIndex;not null"`
	Name              string         `json:"name" gorm:"not null"`
	Description       string         `json:"description"`
	MonthlyPriceCents int64          `json:"monthly_price_cents"`
	AnnualPriceCents  int64          `json:"annual_price_cents"`
	MonthlyQuota      int64          `json:"monthly_quota" gorm:"not null"`
	Features          pq.StringArray `json:"features" gorm:"type:text[]"`
	Active            bool           `json:"active" gorm:"default:true"`
	DisplayOrder      int            `json:"display_order" gorm:"default:0"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// TableName returns the database table name.
func (Plan) TableName() string {
	return "plans"
}

// IsFree returns true if the plan is the free tier.
func (p *Plan) IsFree() bool {
	return p.Tier == PlanTierFree
}

// PriceFor returns the price in cents for the given billing cycle.
func (p *Plan) PriceFor(cycle BillingCycle) int64 {
	if cycle == BillingCycleAnnual {
		return p.AnnualPriceCents
	}
	return p.MonthlyPriceCents
}

// PlanResponse represents plan information for API responses.
type PlanResponse struct {
	ID                string   `json:"id"`
	Tier              string   `json:"tier"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	MonthlyPriceCents int64    `json:"monthly_price_cents"`
	AnnualPriceCents  int64    `json:"annual_price_cents"`
	MonthlyQuota      int64    `json:"monthly_quota"`
	Features          []string `json:"features"`
}

// ToResponse converts Plan to PlanResponse.
func (p *Plan) ToResponse() *PlanResponse {
	return &PlanResponse{
		ID:                p.ID,
		Tier:              string(p.Tier),
		Name:              p.Name,
		Description:       p.Description,
		MonthlyPriceCents: p.MonthlyPriceCents,
		AnnualPriceCents:  p.AnnualPriceCents,
		MonthlyQuota:      p.MonthlyQuota,
		Features:          []string(p.Features),
	}
}

// Subscription represents a user subscription. Rows are never deleted; they
// are retained for audit after cancellation or expiry.
type Subscription struct {
	ID            uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID        uuid.UUID          `json:"user_id" gorm:"type:uuid;index;not null"`
	PlanID        string             `json:"plan_id" gorm:"not null"`
	Status        SubscriptionStatus `json:"status" gorm:"not null;default:active"`
	BillingCycle  BillingCycle       `json:"billing_cycle" gorm:"not null;default:monthly"`
	StartDate     time.Time          `json:"start_date" gorm:"not null"`
	EndDate       time.Time          `json:"end_date" gorm:"not null"`
	NextRenewalAt time.Time          `json:"next_renewal_at"`
	AutoRenew     bool               `json:"auto_renew" gorm:"default:true"`
	CancelledAt   *time.Time         `json:"cancelled_at,omitempty"`
	CancelReason  string             `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	// Relations
	Plan *Plan `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
}

// TableName returns the database table name.
func (Subscription) TableName() string {
	return "subscriptions"
}

// IsCancelled returns true if the subscription is cancelled.
func (s *Subscription) IsCancelled() bool {
	return s.Status == SubscriptionStatusCancelled
}

// EntitledAt reports whether the subscription grants an entitlement at the
// given instant. Derived from status and end date together; a stale ACTIVE
// status past its end date does not entitle.
func (s *Subscription) EntitledAt(now time.Time) bool {
	return s.Status.Entitles() && s.EndDate.After(now)
}

// SubscriptionResponse represents subscription information for API responses.
type SubscriptionResponse struct {
	ID            uuid.UUID     `json:"id"`
	PlanID        string        `json:"plan_id"`
	Status        string        `json:"status"`
	BillingCycle  string        `json:"billing_cycle"`
	StartDate     time.Time     `json:"start_date"`
	EndDate       time.Time     `json:"end_date"`
	NextRenewalAt time.Time     `json:"next_renewal_at"`
	AutoRenew     bool          `json:"auto_renew"`
	CancelledAt   *time.Time    `json:"cancelled_at,omitempty"`
	CancelReason  string        `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	Plan          *PlanResponse `json:"plan,omitempty"`
}

// ToResponse converts Subscription to SubscriptionResponse.
func (s *Subscription) ToResponse() *SubscriptionResponse {
	resp := &SubscriptionResponse{
		ID:            s.ID,
		PlanID:        s.PlanID,
		Status:        string(s.Status),
		BillingCycle:  string(s.BillingCycle),
		StartDate:     s.StartDate,
		EndDate:       s.EndDate,
		NextRenewalAt: s.NextRenewalAt,
		AutoRenew:     s.AutoRenew,
		CancelledAt:   s.CancelledAt,
		CancelReason:  s.CancelReason,
		CreatedAt:     s.CreatedAt,
	}
	if s.Plan != nil {
		resp.Plan = s.Plan.ToResponse()
	}
	return resp
}

// PeriodFor returns the usage period identifier for the given instant.
// Periods are calendar months in UTC.
func PeriodFor(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// PeriodResetAt returns the instant the given period's counter resets, which
// is the first moment of the following month in UTC.
func PeriodResetAt(period string) time.Time {
	t, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}
	}
	return t.AddDate(0, 1, 0)
}

// UsagePeriodCounter tracks consumption for one user in one billing period.
// Exactly one row exists per (user, period); used + remaining == ceiling is
// maintained by the conditional updates in the repository.
type UsagePeriodCounter struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_usage_counter_user_period"`
	Period    string    `json:"period" gorm:"not null;uniqueIndex:idx_usage_counter_user_period"`
	Ceiling   int64     `json:"ceiling" gorm:"not null"`
	Used      int64     `json:"used" gorm:"not null;default:0"`
	Remaining int64     `json:"remaining" gorm:"not null"`
	ResetAt   time.Time `json:"reset_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (UsagePeriodCounter) TableName() string {
	return "usage_period_counters"
}

// UsageEventType classifies audit log entries.
type UsageEventType string

const (
	UsageEventConsume UsageEventType = "consume"
	UsageEventRefund  UsageEventType = "refund"
	UsageEventReset   UsageEventType = "reset"
	UsageEventRenew   UsageEventType = "renew"
	UsageEventCancel  UsageEventType = "cancel"
)

// String returns the string representation of the event type.
func (t UsageEventType) String() string {
	return string(t)
}

// IsValid checks if the event type is valid.
func (t UsageEventType) IsValid() bool {
	switch t {
	case UsageEventConsume, UsageEventRefund, UsageEventReset, UsageEventRenew, UsageEventCancel:
		return true
	}
	return false
}

// UsageEvent is an append-only audit log entry. Events are never mutated or
// deleted; subscription and counter references are lookup-only.
type UsageEvent struct {
	ID             int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID         uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	SubscriptionID *uuid.UUID     `json:"subscription_id,omitempty" gorm:"type:uuid;index"`
	CounterID      *int64         `json:"counter_id,omitempty"`
	Type           UsageEventType `json:"type" gorm:"not null"`
	Amount         int64          `json:"amount" gorm:"not null"`
	Period         string         `json:"period" gorm:"index"`
	ActionRef      string         `json:"action_ref,omitempty"`
	CreatedAt      time.Time      `json:"created_at" gorm:"not null;index"`
}

// TableName returns the database table name.
func (UsageEvent) TableName() string {
	return "usage_events"
}

// QuotaStatus represents the current quota usage status for display.
type QuotaStatus struct {
	Plan      string    `json:"plan"`
	Tier      string    `json:"tier"`
	Period    string    `json:"period"`
	Used      int64     `json:"used"`
	Ceiling   int64     `json:"ceiling"`
	Remaining int64     `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}
