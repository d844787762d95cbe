package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"devhubs/marketplace/marketplace-backend/internal/auth"
	"devhubs/marketplace/marketplace-backend/internal/bonuspool"
	"devhubs/marketplace/marketplace-backend/internal/config"
	"devhubs/marketplace/marketplace-backend/internal/database"
	"devhubs/marketplace/marketplace-backend/internal/payments"
	"devhubs/marketplace/marketplace-backend/internal/projects"
	"devhubs/marketplace/marketplace-backend/internal/uploads"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Load environment and configuration
	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found, relying on process environment")
	}
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	// Connect to the document database
	ctx := context.Background()
	client, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		logger.Fatal("Failed to connect to mongo", zap.Error(err))
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.Mongo.Database)

	// Repositories and index bootstrap
	projectRepo := projects.NewMongoRepository(db)
	if err := projectRepo.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to ensure project indexes", zap.Error(err))
	}
	poolRepo := bonuspool.NewMongoRepository(db)

	// Services
	gateway := payments.NewMockGateway()
	ledger := bonuspool.NewLedger(poolRepo, gateway, logger)
	txnRunner := database.NewMongoTxnRunner(client, logger)
	registry := projects.NewService(projectRepo, ledger, txnRunner, cfg.Listing, logger)
	handler := projects.NewHandler(registry, uploads.NewNameIngestor(), logger)

	// Background repair of interrupted bonus linkage
	reconciler := projects.NewReconciler(registry, cfg.Listing.ReconcileSchedule, logger)
	if err := reconciler.Start(); err != nil {
		logger.Fatal("Failed to start reconciler", zap.Error(err))
	}
	defer reconciler.Stop()

	// Setup Router
	router := gin.Default()

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register Routes
	api := router.Group("/api")
	{
		handler.RegisterRoutes(api, auth.Middleware(cfg.Auth.JWTSecret))
	}

	// Health Check
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "OK",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:    cfg.Server.GetServerAddr(),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen: %s\n", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.Int("port", cfg.Server.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown:", zap.Error(err))
	}

	logger.Info("Server exiting")
}
