package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ruanvls/zapcobranca/internal/api"
	"github.com/ruanvls/zapcobranca/internal/billing"
	"github.com/ruanvls/zapcobranca/internal/config"
	"github.com/ruanvls/zapcobranca/internal/notification"
	"github.com/ruanvls/zapcobranca/internal/oracle"
	"github.com/ruanvls/zapcobranca/internal/reconciliation"
	"github.com/ruanvls/zapcobranca/internal/report"
	"github.com/ruanvls/zapcobranca/internal/repository"
	"github.com/ruanvls/zapcobranca/internal/webhook"
	"github.com/ruanvls/zapcobranca/internal/whatsapp"
	"github.com/ruanvls/zapcobranca/internal/worker"
	"github.com/ruanvls/zapcobranca/pkg/database"
	"github.com/ruanvls/zapcobranca/pkg/utils"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting zapcobranca",
		zap.Int("port", cfg.Server.Port),
		zap.String("gateway_instance", cfg.Gateway.Instance))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(repository.MigrationsFS()); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories
	clientRepo := repository.NewClientRepository(db.DB, logger)
	invoiceRepo := repository.NewInvoiceRepository(db.DB, logger)
	contractRepo := repository.NewContractRepository(db.DB, logger)
	configRepo := repository.NewConfigRepository(db.DB, logger)
	logRepo := repository.NewNotificationLogRepository(db.DB, logger)

	// External clients
	gateway := whatsapp.NewClient(whatsapp.Config{
		BaseURL:  cfg.Gateway.BaseURL,
		APIKey:   cfg.Gateway.APIKey,
		Instance: cfg.Gateway.Instance,
		Timeout:  cfg.Gateway.APITimeout,
	}, logger)

	analyzer := oracle.NewAnalyzer(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)

	// Core services
	workflow := reconciliation.NewWorkflow(analyzer, gateway, invoiceRepo, configRepo, db, logger)

	dispatcher := notification.NewDispatcher(gateway, invoiceRepo, clientRepo, configRepo, logRepo, db, logger)
	dispatcher.AutomaticDelay = notification.DelayWindow{Min: cfg.Billing.AutoDelayMin, Max: cfg.Billing.AutoDelayMax}
	dispatcher.ManualDelay = notification.DelayWindow{Min: cfg.Billing.ManualDelayMin, Max: cfg.Billing.ManualDelayMax}

	generator := billing.NewGenerator(contractRepo, invoiceRepo, logger)
	overdueReport := report.NewOverdueReport(invoiceRepo, clientRepo, logger)

	// Background workers
	receiptWorker := worker.NewReceiptWorker(cfg.Billing.ReceiptQueueSize, workflow, logger)
	sweepWorker := worker.NewBillingSweepWorker(cfg.Billing.SweepInterval, invoiceRepo, configRepo, dispatcher, generator, logger)

	manager := worker.NewManager(logger)
	manager.Register(receiptWorker)
	manager.Register(sweepWorker)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if err := manager.StartAll(workerCtx); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}

	webhookHandler := webhook.NewHandler(clientRepo, gateway, receiptWorker, logger)

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "zapcobranca",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	router.POST(cfg.Gateway.WebhookPath, webhookHandler.Handle)

	admin := api.NewAdmin(clientRepo, contractRepo, invoiceRepo, logRepo, configRepo,
		dispatcher, generator, sweepWorker, overdueReport, gateway, logger)
	admin.Register(router.Group("/api/v1"))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	manager.StopAll()
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
