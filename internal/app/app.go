package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	gininbound "github.com/mockmate/server/internal/adapter/inbound/gin"
	"github.com/mockmate/server/internal/adapter/outbound/postgres"
	redisadapter "github.com/mockmate/server/internal/adapter/outbound/redis"
	"github.com/mockmate/server/internal/domain/eligibility"
	"github.com/mockmate/server/internal/domain/interview"
	"github.com/mockmate/server/internal/domain/plan"
	"github.com/mockmate/server/internal/domain/subscription"
	"github.com/mockmate/server/internal/domain/usage"
	"github.com/mockmate/server/internal/module/auth"
	"github.com/mockmate/server/internal/shared/cache"
	"github.com/mockmate/server/internal/shared/config"
	"github.com/mockmate/server/internal/shared/database"
	"github.com/mockmate/server/internal/shared/logger"
	"github.com/mockmate/server/internal/utils/metrics"
	"github.com/mockmate/server/internal/utils/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App wires configuration, storage, domains and the HTTP surface together.
type App struct {
	config *config.Config
	logger *zap.Logger
	db     *gorm.DB
	redis  goredis.UniversalClient
	router *gin.Engine

	jwtManager *auth.JWTManager
	metrics    *metrics.Metrics

	catalog      *plan.Catalog
	subscription *subscription.Domain
	meter        *usage.Meter
	audit        *usage.Log
	gate         *eligibility.Gate
	interviews   *interview.Service
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &App{
		config: cfg,
		logger: log,
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	app.db = db

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		// Redis backs the display cache only; run without it.
		log.Warn("redis unavailable, quota status cache disabled", zap.Error(err))
	} else {
		app.redis = redisClient
	}

	if err := app.initDomains(); err != nil {
		return nil, err
	}

	app.jwtManager = auth.NewJWTManager(&auth.JWTConfig{
		Secret:            cfg.Auth.JWTSecret,
		AccessTokenExpiry: cfg.Auth.AccessTokenExpiry,
		Issuer:            cfg.Auth.Issuer,
	})
	app.metrics = metrics.New("mockmate")
	app.router = app.setupRouter()

	return app, nil
}

// initDomains builds the repositories and domain services.
func (a *App) initDomains() error {
	ctx := context.Background()

	planRepo := postgres.NewPlanAdapter(a.db)
	if err := plan.Seed(ctx, planRepo, a.logger); err != nil {
		return fmt.Errorf("seed plans: %w", err)
	}
	catalog, err := plan.Load(ctx, planRepo, a.logger)
	if err != nil {
		return fmt.Errorf("load plan catalog: %w", err)
	}
	a.catalog = catalog

	subRepo := postgres.NewSubscriptionAdapter(a.db)
	userRepo := postgres.NewUserAdapter(a.db)
	counterRepo := postgres.NewUsageCounterAdapter(a.db)
	eventRepo := postgres.NewUsageEventAdapter(a.db)
	sessionRepo := postgres.NewInterviewSessionAdapter(a.db)

	var statusCache *redisadapter.StatusCache
	if a.redis != nil {
		statusCache = redisadapter.NewStatusCache(a.redis, a.config.Redis.StatusTTL)
	}

	// The ledger and the meter depend on each other through narrow
	// interfaces; build the ledger first, then close the loop.
	subDomain := subscription.NewDomain(subRepo, userRepo, catalog, nil, a.logger)
	var meterCache usage.StatusCache
	if statusCache != nil {
		meterCache = statusCache
	}
	meter := usage.NewMeter(counterRepo, subDomain, meterCache, a.logger)
	subDomain.SetUsageResetter(meter)

	a.subscription = subDomain
	a.meter = meter
	a.audit = usage.NewLog(eventRepo, a.logger)
	a.gate = eligibility.NewGate(userRepo, subDomain, meter, a.logger)

	generator := interview.NewBreakerGenerator(
		interview.NewTemplateGenerator(),
		interview.BreakerConfig{
			GeneratorTimeout: a.config.Interview.GeneratorTimeout,
			FailureThreshold: a.config.Interview.FailureThreshold,
			CircuitTimeout:   a.config.Interview.CircuitTimeout,
		},
		a.logger,
	)
	a.interviews = interview.NewService(sessionRepo, a.gate, meter, generator, a.logger)

	return nil
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.Metrics(a.metrics))
	r.Use(middleware.CORS(a.config.Server.AllowOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var statusCache gininbound.QuotaStatusCache
	if a.redis != nil {
		statusCache = redisadapter.NewStatusCache(a.redis, a.config.Redis.StatusTTL)
	}
	billingHandler := gininbound.NewBillingHandler(a.catalog, a.subscription, a.meter, a.audit, a.gate, statusCache, a.logger)
	interviewHandler := gininbound.NewInterviewHandler(a.interviews)

	v1 := r.Group("/api/v1")

	// Public catalog
	v1.GET("/plans", billingHandler.ListPlans)
	v1.GET("/plans/:tier", billingHandler.GetPlan)

	protected := v1.Group("")
	protected.Use(middleware.RequireAuth(a.jwtManager))
	{
		protected.POST("/subscriptions", billingHandler.CreateSubscription)
		protected.GET("/subscriptions", billingHandler.ListSubscriptions)
		protected.GET("/subscriptions/current", billingHandler.GetCurrentSubscription)
		protected.POST("/subscriptions/:id/cancel", billingHandler.CancelSubscription)
		protected.POST("/subscriptions/:id/renew", billingHandler.RenewSubscription)

		protected.GET("/quota/status", billingHandler.GetQuotaStatus)
		protected.GET("/quota/eligibility", billingHandler.CheckEligibility)
		protected.GET("/usage/events", billingHandler.ListUsageEvents)

		protected.POST("/interviews", interviewHandler.StartInterview)
		protected.GET("/interviews", interviewHandler.ListInterviews)
		protected.GET("/interviews/:id", interviewHandler.GetInterview)
		protected.POST("/interviews/:id/complete", interviewHandler.CompleteInterview)
		protected.POST("/interviews/:id/cancel", interviewHandler.CancelInterview)
	}

	return r
}

// Router returns the configured HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Config returns the application configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Stop releases database and cache connections.
func (a *App) Stop() {
	if a.redis != nil {
		if err := cache.Close(a.redis); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.logger.Warn("close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
