package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AquaMLOps/govgate/internal/config"
	"github.com/AquaMLOps/govgate/internal/handler"
	"github.com/AquaMLOps/govgate/internal/middleware"
	"github.com/AquaMLOps/govgate/internal/pkg/logger"
	"github.com/AquaMLOps/govgate/internal/repository"
	"github.com/AquaMLOps/govgate/internal/service"
	"github.com/AquaMLOps/govgate/internal/stream"
	"github.com/AquaMLOps/govgate/internal/tracking"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(cfg.Log.Level)

	// 3. Ledger (local NDJSON is authoritative, mirrors are best-effort)
	ledgerSvc := service.NewLedgerService(repository.NewFileLedger(cfg.Governance.AuditLogPath))

	if cfg.Database.DSN != "" {
		db, err := repository.NewDB(cfg)
		if err == nil {
			logger.Info("✅ Connected to PostgreSQL, mirroring audit ledger")
			pgMirror := repository.NewPostgresLedgerMirror(db)
			ledgerSvc.AddMirror("postgres", pgMirror)
			if days := cfg.Database.AuditRetentionDays; days > 0 {
				// 保留策略只作用于镜像；权威 NDJSON 账本永不删除
				go func() {
					retention := time.Duration(days) * 24 * time.Hour
					for {
						if err := pgMirror.Cleanup(context.Background(), retention); err != nil {
							logger.Warn("Mirror retention cleanup failed", "error", err)
						}
						time.Sleep(24 * time.Hour)
					}
				}()
			}
		} else {
			logger.Error("⚠️ Failed to connect to DB, audit ledger will be file-only", "error", err)
		}
	}

	if cfg.Redis.Addr != "" {
		redisClient, err := repository.NewRedisClient(cfg)
		if err == nil {
			logger.Info("✅ Connected to Redis, keeping recent-events list")
			redisMirror := repository.NewRedisLedgerMirror(redisClient, cfg.Redis.AuditListKey, cfg.Redis.AuditListMax)
			ledgerSvc.AddMirror("redis", redisMirror)
			ledgerSvc.SetRecentSource(redisMirror)
		} else {
			logger.Error("⚠️ Failed to connect to Redis, recent-events cache disabled", "error", err)
		}
	}

	// Live event feed for dashboard subscribers
	hub := stream.NewHub()
	ledgerSvc.SetPublisher(hub)

	// 4. Initialize Core Services
	mlStore := tracking.NewFileStore(cfg.Tracking.MLRunsDir)

	rulesStore := repository.NewRulesStore(cfg.Governance.RulesPath)
	complianceSvc := service.NewComplianceService(rulesStore, ledgerSvc)
	registrySvc := service.NewRegistryService(repository.NewFileRegistry(cfg.Governance.RegistryDir), ledgerSvc, mlStore)
	biasEngine := service.NewBiasEngine()
	approvalSvc := service.NewApprovalService(registrySvc, complianceSvc, biasEngine, ledgerSvc, cfg.Governance.ReportsDir)
	cardSvc := service.NewModelCardService(registrySvc, complianceSvc, cfg.Governance.CardsDir)
	dashboardSvc := service.NewDashboardService(registrySvc, ledgerSvc, mlStore, cfg.Governance.ArtifactsDir)

	// 5. Initialize Handlers
	modelHandler := handler.NewModelHandler(registrySvc, approvalSvc)
	auditHandler := handler.NewAuditHandler(ledgerSvc)
	cardHandler := handler.NewCardHandler(cardSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	streamHandler := handler.NewStreamHandler(hub)

	// 6. Setup Router
	r := gin.Default()

	// Global Middleware
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RateLimitMiddleware(cfg))

	// Health Check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":      "ok",
			"service":     "govgate",
			"subscribers": hub.Subscribers(),
		})
	})

	// Metrics Endpoint
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// API V1 Routes
	v1 := r.Group("/v1")
	{
		v1.GET("/dashboard", dashboardHandler.Snapshot)
		v1.GET("/models", modelHandler.List)
		v1.GET("/models/:name/:version", modelHandler.Get)
		v1.GET("/models/:name/:version/audit", auditHandler.Trail)
		v1.GET("/audit/recent", auditHandler.Recent)
		v1.GET("/models/:name/:version/card", cardHandler.Generate)
	}

	// State-changing routes sit behind the admin key
	admin := r.Group("/v1")
	admin.Use(middleware.AdminMiddleware(cfg))
	{
		admin.POST("/models", modelHandler.Register)
		admin.POST("/models/:name/:version/approve", modelHandler.Approve)
	}

	r.GET("/ws/events", streamHandler.Events)

	// 7. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("🚀 GovGate started", "port", cfg.Server.Port, "governance_dir", cfg.Governance.Dir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("Server exiting")
}
