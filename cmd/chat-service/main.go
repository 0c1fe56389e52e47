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
	chatHandler "lifelink-backend/internal/handler/http/chat"
	"lifelink-backend/internal/middleware"
	"lifelink-backend/internal/repository/cassandra"
	"lifelink-backend/internal/repository/postgres"
	redisrepo "lifelink-backend/internal/repository/redis"
	chatService "lifelink-backend/internal/service/chat"
	"lifelink-backend/pkg/jwt"
	"lifelink-backend/pkg/logger"
	"lifelink-backend/pkg/metrics"
)

func main() {
	cfg, err := config.Load("chat-service")
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

	cass, err := database.NewCassandraDB(&cfg.Cassandra)
	if err != nil {
		logger.Fatal("Failed to connect to Cassandra", zap.Error(err))
	}
	defer cass.Close()
	logger.Info("Connected to Cassandra")

	rdb, err := database.NewRedisDB(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer rdb.Close()
	logger.Info("Connected to Redis")

	// Repositories
	conversationRepo := postgres.NewConversationRepository(pg.Pool)
	messageRepo := cassandra.NewMessageRepository(cass.Session)
	feedRepo := redisrepo.NewFeedRepository(rdb.Client)
	revocationRepo := redisrepo.NewRevocationRepository(rdb.Client)

	// Services
	chatSvc := chatService.NewService(conversationRepo, messageRepo, feedRepo)

	// Metrics
	appMetrics := metrics.NewMetrics(cfg.Server.ServiceName)
	prometheusMiddleware := middleware.NewPrometheusMiddleware(appMetrics)

	// Handlers
	chatHdlr := chatHandler.NewHandler(chatSvc)

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
		v1.POST("/conversations", chatHdlr.OpenConversation)
		v1.GET("/conversations", chatHdlr.ListConversations)
		v1.GET("/conversations/:id/messages", chatHdlr.GetMessages)
		v1.POST("/conversations/:id/messages", chatHdlr.SendMessage)
		v1.POST("/conversations/:id/read", chatHdlr.MarkRead)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Chat service starting", zap.Int("port", cfg.Server.Port))
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
