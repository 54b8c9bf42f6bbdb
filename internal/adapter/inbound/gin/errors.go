package gin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mockmate/server/internal/domain/interview"
	"github.com/mockmate/server/internal/domain/plan"
	"github.com/mockmate/server/internal/domain/subscription"
	"github.com/mockmate/server/internal/domain/usage"
	"github.com/mockmate/server/internal/model"
)

// handleError maps domain errors to HTTP responses. Quota and entitlement
// denials map to 402 so clients can route users to the upgrade flow.
func handleError(c *gin.Context, err error) {
	var statusCode int
	var errorCode string
	var message string

	switch {
	case errors.Is(err, plan.ErrPlanNotFound):
		statusCode = http.StatusNotFound
		errorCode = "plan_not_found"
		message = "Plan not found"

	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		statusCode = http.StatusNotFound
		errorCode = "subscription_not_found"
		message = "Subscription not found"

	case errors.Is(err, subscription.ErrSubscriptionExists):
		statusCode = http.StatusConflict
		errorCode = "subscription_exists"
		message = "An entitling subscription already exists"

	case errors.Is(err, subscription.ErrInvalidState):
		statusCode = http.StatusConflict
		errorCode = "invalid_state"
		message = "Invalid subscription state for this operation"

	case errors.Is(err, subscription.ErrNoActiveSubscription):
		statusCode = http.StatusPaymentRequired
		errorCode = "no_active_subscription"
		message = "No active subscription"

	case errors.Is(err, subscription.ErrInvalidRequest):
		statusCode = http.StatusBadRequest
		errorCode = "invalid_request"
		message = err.Error()

	case errors.Is(err, usage.ErrQuotaExceeded):
		statusCode = http.StatusPaymentRequired
		errorCode = "quota_exceeded"
		message = "Quota exceeded for the current period"

	case errors.Is(err, usage.ErrInvalidAmount):
		statusCode = http.StatusBadRequest
		errorCode = "invalid_amount"
		message = "Invalid amount"

	case errors.Is(err, interview.ErrSessionNotFound):
		statusCode = http.StatusNotFound
		errorCode = "session_not_found"
		message = "Interview session not found"

	case errors.Is(err, interview.ErrSessionFinished):
		statusCode = http.StatusConflict
		errorCode = "session_finished"
		message = "Interview session already finished"

	case errors.Is(err, interview.ErrInvalidConfig):
		statusCode = http.StatusBadRequest
		errorCode = "invalid_config"
		message = err.Error()

	case errors.Is(err, interview.ErrAccountInactive):
		statusCode = http.StatusForbidden
		errorCode = "account_inactive"
		message = "Account is not active"

	case errors.Is(err, interview.ErrGeneratorUnavailable):
		statusCode = http.StatusServiceUnavailable
		errorCode = "generator_unavailable"
		message = "Interview generator is temporarily unavailable"

	case errors.Is(err, subscription.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errorCode = "user_not_found"
		message = "User not found"

	default:
		statusCode = http.StatusInternalServerError
		errorCode = "internal_error"
		message = "Internal server error"
	}

	c.JSON(statusCode, model.ErrorResponse{
		Code:    errorCode,
		Message: message,
	})
}
