package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lifelink-backend/internal/config"
	"lifelink-backend/internal/database"
	storageHandler "lifelink-backend/internal/handler/http/storage"
	"lifelink-backend/internal/middleware"
	"lifelink-backend/internal/repository/postgres"
	redisrepo "lifelink-backend/internal/repository/redis"
	storageService "lifelink-backend/internal/service/storage"
	"lifelink-backend/pkg/jwt"
	"lifelink-backend/pkg/logger"
	"lifelink-backend/pkg/metrics"
)

func main() {
	cfg, err := config.Load("storage-service")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(&logger.Config{
		Level:    cfg.Log.Level,
		Format:   cfg.Log.Format,
		Output:   cfg.Log.Output,
		FilePath: cfg.Log.FilePath,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	jwtManager := jwt.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenExpiry)

	ctx := context.Background()

	pg, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pg.Close()
	logger.Info("Connected to PostgreSQL")

	rdb, err := database.NewRedisDB(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer rdb.Close()
	logger.Info("Connected to Redis")

	// Repositories
	documentRepo := postgres.NewDocumentRepository(pg.Pool)
	revocationRepo := redisrepo.NewRevocationRepository(rdb.Client)

	// Metrics
	appMetrics := metrics.NewMetrics(cfg.Server.ServiceName)
	prometheusMiddleware := middleware.NewPrometheusMiddleware(appMetrics)

	// Services
	storageSvc, err := storageService.NewService(
		cfg.MinIO.Endpoint,
		cfg.MinIO.AccessKey,
		cfg.MinIO.SecretKey,
		cfg.MinIO.Bucket,
		cfg.MinIO.UseSSL,
		documentRepo,
		appMetrics,
	)
	if err != nil {
		logger.Fatal("Failed to initialize storage service", zap.Error(err))
	}
	logger.Info("Connected to MinIO", zap.String("bucket", cfg.MinIO.Bucket))

	// Handlers
	storageHdlr := storageHandler.NewHandler(storageSvc)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddleware())
	router.Use(prometheusMiddleware.Handler())
	router.Use(middleware.HealthCheck(cfg.Server.ServiceName))

	router.GET("/metrics", middleware.MetricsHandler(appMetrics))

	v1 := router.Group("/v1")
	v1.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	v1.Use(middleware.AuthMiddleware(jwtManager, revocationRepo))
	{
		v1.POST("/documents/upload-url", storageHdlr.GenerateUploadURL)
		v1.POST("/documents/:id/complete", storageHdlr.CompleteUpload)
		v1.GET("/documents/:id/download-url", storageHdlr.GenerateDownloadURL)
		v1.GET("/documents", storageHdlr.List)
		v1.DELETE("/documents/:id", storageHdlr.Delete)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Storage service starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
