package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "payment_binder/docs" // swag generated
	"payment_binder/internal/adapter/http/handlers"
	"payment_binder/internal/adapter/persistence/repository"
	appconfig "payment_binder/internal/config"
	"payment_binder/internal/infrastructure/database"
	"payment_binder/internal/infrastructure/events"
	"payment_binder/internal/infrastructure/payments"
	"payment_binder/internal/usecase"
	"payment_binder/internal/usecase/interfaces"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const HeaderRequestID = "X-Request-Id"

// Run wires the service from cfg and serves until SIGINT/SIGTERM.
func Run(cfg *appconfig.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newIdempotencyStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	registry, err := payments.NewRegistry(cfg.Payments, logger)
	if err != nil {
		return fmt.Errorf("failed to build payment providers: %w", err)
	}

	bus := events.NewInMemoryBus(logger)
	bus.Subscribe(events.AllProviders, events.LogHandler(logger.Named("events")))

	dispatch := usecase.NewPaymentDispatchUseCase(registry.Providers(), store, dispatchOptions(cfg.Dispatch), logger)
	webhooks := usecase.NewWebhookUseCase(registry.WebhookVerifiers(), bus, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := NewRouter(
		handlers.NewPaymentHandler(dispatch, logger),
		handlers.NewWebhookHandler(webhooks, logger),
		logger,
	)

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to startup the application: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewRouter registers middlewares and every route.
func NewRouter(paymentHandler *handlers.PaymentHandler, webhookHandler *handlers.WebhookHandler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	setMiddlewares(router, logger)

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/v1")
	addPingRoutes(v1)
	addPaymentRoutes(v1, paymentHandler)
	addWebhookRoutes(v1, webhookHandler)
	return router
}

func newIdempotencyStore(ctx context.Context, cfg *appconfig.Config, logger *zap.Logger) (interfaces.IIdempotencyStore, func(), error) {
	noop := func() {}
	switch cfg.Store.Backend {
	case appconfig.StoreDynamoDB:
		ddb, err := database.ConnectDynamoDB(ctx, cfg.Store.AWS, logger)
		if err != nil {
			return nil, noop, err
		}
		return repository.NewIdempotencyDynamoRepository(ddb, cfg.Store.DynamoDBTable), noop, nil

	case appconfig.StoreRedis:
		client, err := database.ConnectRedis(ctx, cfg.Store.Redis, logger)
		if err != nil {
			return nil, noop, err
		}
		return repository.NewIdempotencyRedisRepository(client, cfg.Store.Redis.KeyPrefix), func() { _ = client.Close() }, nil

	case appconfig.StorePostgres:
		db, err := database.ConnectPostgres(ctx, cfg.Store.Database, logger)
		if err != nil {
			return nil, noop, err
		}
		repo := repository.NewIdempotencyPostgresRepository(db)
		if err := repo.InitSchema(ctx); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("failed to create idempotency schema: %w", err)
		}
		repo.StartJanitor(ctx, cfg.Store.SweepInterval, logger)
		return repo, func() { _ = db.Close() }, nil

	default:
		logger.Warn("using in-memory idempotency store; records are lost on restart")
		repo := repository.NewIdempotencyMemoryRepository()
		repo.StartJanitor(ctx, cfg.Store.SweepInterval, logger)
		return repo, noop, nil
	}
}

func dispatchOptions(c appconfig.DispatchConfig) usecase.DispatchOptions {
	return usecase.DispatchOptions{
		Retry: usecase.RetryPolicy{
			MaxAttempts: c.MaxAttempts,
			BaseDelay:   c.BaseDelay,
			MaxDelay:    c.MaxDelay,
			Jitter:      c.Jitter,
		},
		RecordTTL:      c.RecordTTL,
		AttemptTimeout: c.AttemptTimeout,
	}
}

func setMiddlewares(router *gin.Engine, logger *zap.Logger) {
	router.Use(requestID())
	router.Use(requestLogger(logger.Named("http")))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("recovered from panic", zap.Any("panic", recovered), zap.String("request_id", c.GetString("request_id")))
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}
