package gin

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mockmate/server/internal/domain/eligibility"
	"github.com/mockmate/server/internal/domain/plan"
	"github.com/mockmate/server/internal/domain/subscription"
	"github.com/mockmate/server/internal/domain/usage"
	"github.com/mockmate/server/internal/model"
	"go.uber.org/zap"
)

// QuotaStatusCache is the display cache in front of the quota endpoint.
// The database counter stays authoritative; a miss or a cache error just
// falls through to the meter.
type QuotaStatusCache interface {
	Get(ctx context.Context, userID uuid.UUID, period string) (*model.QuotaStatus, error)
	Set(ctx context.Context, userID uuid.UUID, status *model.QuotaStatus) error
}

// billingHandler serves the plan catalog, subscription lifecycle, quota and
// usage audit endpoints.
type billingHandler struct {
	catalog *plan.Catalog
	subs    *subscription.Domain
	meter   *usage.Meter
	audit   *usage.Log
	gate    *eligibility.Gate
	cache   QuotaStatusCache
	logger  *zap.Logger
}

// NewBillingHandler creates a new billing HTTP handler. cache may be nil.
func NewBillingHandler(catalog *plan.Catalog, subs *subscription.Domain, meter *usage.Meter, audit *usage.Log, gate *eligibility.Gate, cache QuotaStatusCache, logger *zap.Logger) *billingHandler {
	return &billingHandler{
		catalog: catalog,
		subs:    subs,
		meter:   meter,
		audit:   audit,
		gate:    gate,
		cache:   cache,
		logger:  logger,
	}
}

func (h *billingHandler) ListPlans(c *gin.Context) {
	plans := h.catalog.ListActive()

	response := make([]*model.PlanResponse, len(plans))
	for i, p := range plans {
		response[i] = p.ToResponse()
	}
	c.JSON(http.StatusOK, gin.H{"plans": response})
}

func (h *billingHandler) GetPlan(c *gin.Context) {
	tier := model.PlanTier(c.Param("tier"))
	p, err := h.catalog.GetByTier(tier)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, p.ToResponse())
}

func (h *billingHandler) CreateSubscription(c *gin.Context) {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Tier         string `json:"tier" binding:"required"`
		BillingCycle string `json:"billing_cycle"`
		Trial        bool   `json:"trial"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cycle := model.BillingCycle(req.BillingCycle)
	if req.BillingCycle == "" {
		cycle = model.BillingCycleMonthly
	}

	sub, err := h.subs.Create(c.Request.Context(), userID, model.PlanTier(req.Tier), cycle, req.Trial)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub.ToResponse())
}

func (h *billingHandler) GetCurrentSubscription(c *gin.Context) {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return
	}

	sub, err := h.subs.Current(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub.ToResponse())
}

func (h *billingHandler) ListSubscriptions(c *gin.Context) {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return
	}

	subs, err := h.subs.History(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	response := make([]*model.SubscriptionResponse, len(subs))
	for i, s := range subs {
		response[i] = s.ToResponse()
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": response})
}

func (h *billingHandler) CancelSubscription(c *gin.Context) {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return
	}
	subID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	if _, err := h.subs.GetOwned(c.Request.Context(), userID, subID); err != nil {
		handleError(c, err)
		return
	}
	sub, err := h.subs.Cancel(c.Request.Context(), subID, req.Reason)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub.ToResponse())
}

func (h *billingHandler) RenewSubscription(c *gin.Context) {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return
	}
	subID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.subs.GetOwned(c.Request.Context(), userID, subID); err != nil {
		handleError(c, err)
		return
	}
	sub, err := h.subs.Renew(c.Request.Context(), subID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub.ToResponse())
}

func (h *billingHandler) GetQuotaStatus(c *gin.Context) {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	period := model.PeriodFor(time.Now())

	if h.cache != nil {
		if status, err := h.cache.Get(ctx, userID, period); err == nil {
			c.JSON(http.StatusOK, status)
			return
		}
	}

	status, err := h.meter.Status(ctx, userID)
	if err != nil {
		handleError(c, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, userID, status); err != nil {
			h.logger.Warn("quota status cache write failed", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, status)
}

func (h *billingHandler) CheckEligibility(c *gin.Context) {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Cost int64 `form:"cost"`
	}
	if err := c.ShouldBindQuery(&req); err != nil || req.Cost <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cost must be a positive integer"})
		return
	}

	result, err := h.gate.Check(c.Request.Context(), userID, req.Cost)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *billingHandler) ListUsageEvents(c *gin.Context) {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return
	}

	to := time.Now()
	from := to.AddDate(0, -1, 0)
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from timestamp"})
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to timestamp"})
			return
		}
		to = t
	}

	events, err := h.audit.ListByUser(c.Request.Context(), userID, from, to)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
