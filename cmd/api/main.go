package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "reviewledger/api/swagger" // swagger docs
	"reviewledger/internal/cache"
	"reviewledger/internal/config"
	"reviewledger/internal/database"
	"reviewledger/internal/handler"
	"reviewledger/internal/logger"
	"reviewledger/internal/metrics"
	"reviewledger/internal/middleware"
	"reviewledger/internal/repository"
	"reviewledger/internal/service"
	"reviewledger/internal/storage"
	"reviewledger/internal/taxcore"
	"reviewledger/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Review Ledger API
// @version         1.0
// @description     Review jobs, income, withholding and Thai personal income tax estimates for a freelance reviewer.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	zlog, err := logger.New(logger.Config{
		ServiceName:   cfg.AppName,
		Environment:   cfg.Environment,
		Level:         cfg.Log.Level,
		Format:        cfg.Log.Format,
		IncludeCaller: cfg.Log.IncludeCaller,
	})
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.NewConnection(cfg.DB)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	zlog.Info("connected to database", zap.String("driver", cfg.DB.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	schedules, err := loadSchedules(cfg.TaxScheduleFile)
	if err != nil {
		zlog.Fatal("tax schedules invalid", zap.String("file", cfg.TaxScheduleFile), zap.Error(err))
	}

	store := newCache(ctx, cfg, zlog)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(zlog)
	go wsHub.Run(ctx)

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		zlog.Fatal("upload dir unavailable", zap.String("dir", cfg.UploadDir), zap.Error(err))
	}
	files := storage.NewLocalStore(cfg.UploadDir, "/uploads", cfg.UploadMaxBytes)

	// Set up dependencies (Repository -> Service -> Handler)
	payerRepo := repository.NewPayerRepository(db)
	jobRepo := repository.NewReviewJobRepository(db)
	incomeRepo := repository.NewIncomeRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	payerService := service.NewPayerService(payerRepo, auditRepo, txManager)
	jobService := service.NewReviewJobService(service.ReviewJobDeps{
		JobRepo:    jobRepo,
		IncomeRepo: incomeRepo,
		DocRepo:    docRepo,
		AuditRepo:  auditRepo,
		TxManager:  txManager,
		Cache:      store,
		Files:      files,
		Events:     wsHub,
		Metrics:    m,
	})
	incomeService := service.NewIncomeService(incomeRepo, jobRepo, auditRepo, txManager, store, m)
	taxService := service.NewTaxService(incomeRepo, schedules, store, m)
	dashboardService := service.NewDashboardService(jobRepo, incomeRepo)
	documentService := service.NewDocumentService(docRepo, jobRepo, incomeRepo, auditRepo, txManager, files, m)
	auditService := service.NewAuditService(auditRepo)
	healthService := service.NewHealthService(db)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(cfg.GinMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware(), m.GinMiddleware())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-Id"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "X-Request-Id"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, cfg.AuthJWTSecret)
	})

	handler.NewHealthHandler(healthService).RegisterRoutes(router.Group(""))

	api := router.Group("", middleware.RequireToken(cfg.AuthJWTSecret))
	api.Static("/uploads", cfg.UploadDir)
	handler.NewPayerHandler(payerService).RegisterRoutes(api)
	handler.NewJobHandler(jobService).RegisterRoutes(api)
	handler.NewIncomeHandler(incomeService).RegisterRoutes(api)
	handler.NewTaxHandler(taxService).RegisterRoutes(api)
	handler.NewDashboardHandler(dashboardService).RegisterRoutes(api)
	handler.NewDocumentHandler(documentService, cfg.UploadMaxBytes).RegisterRoutes(api)
	handler.NewAuditHandler(auditService).RegisterRoutes(api)

	if cfg.AuthJWTSecret == "" {
		zlog.Warn("AUTH_JWT_SECRET is empty, API runs without authentication")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zlog.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}

func loadSchedules(path string) (*taxcore.ScheduleSet, error) {
	if path == "" {
		return taxcore.NewScheduleSet()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return taxcore.ParseSchedules(data)
}

// newCache uses Redis when REDIS_ADDR is set and reachable.
func newCache(ctx context.Context, cfg config.Config, zlog *zap.Logger) cache.Store {
	if cfg.Redis.Addr == "" {
		return cache.NewNoopStore()
	}
	client := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		zlog.Warn("redis unavailable, tax summary cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = client.Close()
		return cache.NewNoopStore()
	}
	return cache.NewRedisStore(client, cfg.CacheTTL)
}
