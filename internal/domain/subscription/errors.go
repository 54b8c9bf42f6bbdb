package subscription

import "errors"

// Domain errors for the subscription ledger.
var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrSubscriptionExists   = errors.New("user already has an entitling subscription")
	ErrInvalidState         = errors.New("invalid subscription state for this transition")
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidRequest       = errors.New("invalid request")
)
