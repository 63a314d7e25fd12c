package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	fulfillmentapp "github.com/fulfillment/backend/internal/application/fulfillment"
	packagingapp "github.com/fulfillment/backend/internal/application/packaging"
	treasuryapp "github.com/fulfillment/backend/internal/application/treasury"
	"github.com/fulfillment/backend/internal/domain/fulfillment"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/infrastructure/auth"
	"github.com/fulfillment/backend/internal/infrastructure/cache"
	"github.com/fulfillment/backend/internal/infrastructure/config"
	"github.com/fulfillment/backend/internal/infrastructure/event"
	"github.com/fulfillment/backend/internal/infrastructure/logger"
	"github.com/fulfillment/backend/internal/infrastructure/persistence"
	"github.com/fulfillment/backend/internal/interfaces/http/handler"
	"github.com/fulfillment/backend/internal/interfaces/http/middleware"
	"github.com/fulfillment/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting fulfillment backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	verificationRepo := persistence.NewGormVerificationRepository(db.DB)
	cashEntryRepo := persistence.NewGormCashEntryRepository(db.DB)
	handoverRepo := persistence.NewGormHandoverRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	// Event bus with idempotent delivery
	eventBus := event.NewInMemoryEventBus(log.Named("eventbus"))
	idempotencyStore, err := cache.NewIdempotencyStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		_ = idempotencyStore.Close()
	}()

	// Application services
	orderService := fulfillmentapp.NewOrderService(orderRepo, cashEntryRepo, verificationRepo, txManager)
	verificationService := packagingapp.NewVerificationService(verificationRepo, orderRepo, productRepo, txManager)
	reconciliationService := treasuryapp.NewReconciliationService(cashEntryRepo, handoverRepo, orderRepo, txManager)

	orderService.SetEventPublisher(eventBus)
	verificationService.SetEventPublisher(eventBus)
	reconciliationService.SetEventPublisher(eventBus)

	// Packaging completion moves the order to listo_para_entrega
	verificationService.SetCompletionListener(orderService)

	// Domain event logging with duplicate suppression
	auditLogger := event.NewIdempotentHandler(
		newEventLogHandler(log.Named("events")),
		idempotencyStore,
		log,
		event.WithIdempotencyConfig(shared.IdempotencyConfig{
			TTL:     cfg.Event.IdempotencyTTL,
			Enabled: true,
		}),
	)
	eventBus.Subscribe(auditLogger)

	ctx := context.Background()
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		_ = eventBus.Stop(ctx)
	}()

	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP layer
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(corsConfig(cfg)))
	engine.Use(middleware.JWTAuthMiddleware(jwtService))

	systemHandler := handler.NewSystemHandler(db.Ping)
	orderHandler := handler.NewOrderHandler(orderService)
	packagingHandler := handler.NewPackagingHandler(verificationService)
	treasuryHandler := handler.NewTreasuryHandler(reconciliationService)

	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	r.Register(systemRoutes)

	orderRoutes := router.NewDomainGroup("orders", "/orders")
	orderRoutes.POST("", orderHandler.Create)
	orderRoutes.GET("", orderHandler.List)
	orderRoutes.GET("/number/:order_number", orderHandler.GetByOrderNumber)
	orderRoutes.GET("/:id", orderHandler.GetByID)
	orderRoutes.PUT("/:id", orderHandler.Update)
	orderRoutes.DELETE("/:id", orderHandler.Delete)

	packagingRoutes := orderRoutes.Group("packaging", "/:id/packaging")
	packagingRoutes.Use(middleware.RequireRoles(
		fulfillment.RoleEmpaque,
		fulfillment.RoleLogistica,
		fulfillment.RoleFacturacion,
	))
	packagingRoutes.GET("", packagingHandler.Checklist)
	packagingRoutes.POST("/scan", packagingHandler.ScanBarcode)
	packagingRoutes.POST("/verify-all", packagingHandler.VerifyAll)
	packagingRoutes.POST("/items/:item_id/verify", packagingHandler.VerifyItem)
	packagingRoutes.GET("/items/:item_id/scans", packagingHandler.ScanLog)
	packagingRoutes.POST("/complete", packagingHandler.Complete)
	r.Register(orderRoutes)

	carteraRoutes := router.NewDomainGroup("cartera", "/cartera")
	carteraRoutes.Use(middleware.RequireRoles(fulfillment.RoleCartera))
	carteraRoutes.GET("/pending", treasuryHandler.Pending)
	carteraRoutes.GET("/handovers", treasuryHandler.Handovers)
	carteraRoutes.POST("/entries/:id/accept", treasuryHandler.AcceptEntry)
	carteraRoutes.POST("/collections/accept", treasuryHandler.AcceptCollection)
	carteraRoutes.POST("/acts/:id/close", treasuryHandler.CloseAct)
	carteraRoutes.GET("/acts/:id/receipt", treasuryHandler.ActReceipt)
	carteraRoutes.GET("/warehouse/:date/receipt", treasuryHandler.WarehouseReceipt)
	r.Register(carteraRoutes)

	// Couriers declare what they collected; cartera accepts the lines
	collectionRoutes := router.NewDomainGroup("collections", "/collections")
	collectionRoutes.Use(middleware.RequireRoles(fulfillment.RoleMensajero, fulfillment.RoleCartera))
	collectionRoutes.POST("/declare", treasuryHandler.DeclareCollection)
	r.Register(collectionRoutes)

	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func corsConfig(cfg *config.Config) middleware.CORSConfig {
	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	} else if !cfg.IsProduction() {
		corsCfg.AllowOrigins = []string{"*"}
		corsCfg.AllowCredentials = false
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	return corsCfg
}

// eventLogHandler writes every domain event to the structured log
type eventLogHandler struct {
	logger *zap.Logger
}

func newEventLogHandler(logger *zap.Logger) *eventLogHandler {
	return &eventLogHandler{logger: logger}
}

func (h *eventLogHandler) Handle(ctx context.Context, e shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_type", e.EventType()),
		zap.String("event_id", e.EventID().String()),
		zap.String("aggregate_id", e.AggregateID().String()),
	)
	return nil
}

func (h *eventLogHandler) EventTypes() []string {
	return nil
}
