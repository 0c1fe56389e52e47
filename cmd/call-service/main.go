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
	callHandler "lifelink-backend/internal/handler/http/call"
	roomHandler "lifelink-backend/internal/handler/http/room"
	wsHandler "lifelink-backend/internal/handler/ws"
	"lifelink-backend/internal/middleware"
	"lifelink-backend/internal/repository/postgres"
	redisrepo "lifelink-backend/internal/repository/redis"
	callService "lifelink-backend/internal/service/call"
	roomService "lifelink-backend/internal/service/room"
	"lifelink-backend/pkg/jwt"
	"lifelink-backend/pkg/logger"
	"lifelink-backend/pkg/metrics"
	"lifelink-backend/pkg/push"
)

func main() {
	cfg, err := config.Load("call-service")
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
	callRepo := postgres.NewCallRepository(pg.Pool)
	profileRepo := postgres.NewProfileRepository(pg.Pool)
	feedRepo := redisrepo.NewFeedRepository(rdb.Client)
	pushTokenRepo := redisrepo.NewPushTokenRepository(rdb.Client)
	revocationRepo := redisrepo.NewRevocationRepository(rdb.Client)

	// Push notifications
	pushProvider, err := push.NewProvider()
	if err != nil {
		logger.Fatal("Failed to initialize push provider", zap.Error(err))
	}
	pushSvc := push.NewService(pushProvider, pushTokenRepo)

	// Metrics
	appMetrics := metrics.NewMetrics(cfg.Server.ServiceName)
	prometheusMiddleware := middleware.NewPrometheusMiddleware(appMetrics)

	// Services
	callSvc := callService.NewService(callRepo, profileRepo, feedRepo, pushSvc, appMetrics)
	roomSvc := roomService.NewService(cfg.Room.APIBaseURL, cfg.Room.APIKey, cfg.Room.TokenExpiry)

	// Handlers
	callHdlr := callHandler.NewHandler(callSvc)
	roomHdlr := roomHandler.NewHandler(callSvc, roomSvc)

	// Change-feed WebSocket hub
	feedHub := wsHandler.NewFeedHub(feedRepo, appMetrics)

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
	v1.Use(middleware.AuthMiddleware(jwtManager, revocationRepo))
	{
		// The WebSocket feed is long-lived and must not carry the request
		// deadline; every plain HTTP route does.
		v1.GET("/ws/feed", feedHub.ServeWS)

		api := v1.Group("")
		api.Use(middleware.Timeout(cfg.Server.RequestTimeout))
		{
			api.POST("/calls", callHdlr.Create)
			api.GET("/calls", callHdlr.ListCreated)
			api.GET("/calls/:id", callHdlr.Get)
			api.POST("/calls/:id/join", callHdlr.Join)
			api.POST("/calls/:id/end", callHdlr.End)
			api.POST("/calls/:id/room", roomHdlr.Provision)

			api.GET("/invitations", callHdlr.ListInvitations)
			api.POST("/invitations/:id/respond", callHdlr.Respond)
		}
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Call service starting", zap.Int("port", cfg.Server.Port))
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
