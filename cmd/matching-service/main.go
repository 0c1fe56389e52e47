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
	contactHandler "lifelink-backend/internal/handler/http/contact"
	notificationHandler "lifelink-backend/internal/handler/http/notification"
	profileHandler "lifelink-backend/internal/handler/http/profile"
	requirementHandler "lifelink-backend/internal/handler/http/requirement"
	"lifelink-backend/internal/middleware"
	"lifelink-backend/internal/repository/postgres"
	redisrepo "lifelink-backend/internal/repository/redis"
	contactService "lifelink-backend/internal/service/contact"
	profileService "lifelink-backend/internal/service/profile"
	requirementService "lifelink-backend/internal/service/requirement"
	"lifelink-backend/pkg/jwt"
	"lifelink-backend/pkg/logger"
	"lifelink-backend/pkg/metrics"
	"lifelink-backend/pkg/push"
)

func main() {
	cfg, err := config.Load("matching-service")
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
	profileRepo := postgres.NewProfileRepository(pg.Pool)
	requirementRepo := postgres.NewRequirementRepository(pg.Pool)
	contactRepo := postgres.NewContactRepository(pg.Pool)
	feedRepo := redisrepo.NewFeedRepository(rdb.Client)
	pushTokenRepo := redisrepo.NewPushTokenRepository(rdb.Client)
	revocationRepo := redisrepo.NewRevocationRepository(rdb.Client)

	// Push notifications
	pushProvider, err := push.NewProvider()
	if err != nil {
		logger.Fatal("Failed to initialize push provider", zap.Error(err))
	}
	pushSvc := push.NewService(pushProvider, pushTokenRepo)

	// Services
	profileSvc := profileService.NewService(profileRepo)
	requirementSvc := requirementService.NewService(requirementRepo)
	contactSvc := contactService.NewService(contactRepo, profileRepo, feedRepo, pushSvc)

	// Metrics
	appMetrics := metrics.NewMetrics(cfg.Server.ServiceName)
	prometheusMiddleware := middleware.NewPrometheusMiddleware(appMetrics)

	// Handlers
	profileHdlr := profileHandler.NewHandler(profileSvc)
	requirementHdlr := requirementHandler.NewHandler(requirementSvc)
	contactHdlr := contactHandler.NewHandler(contactSvc)
	notificationHdlr := notificationHandler.NewHandler(pushSvc)

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
		v1.POST("/profiles", profileHdlr.Register)
		v1.GET("/profiles/:id", profileHdlr.Get)
		v1.GET("/me", profileHdlr.GetMe)
		v1.PATCH("/me", profileHdlr.Update)

		v1.GET("/donors", profileHdlr.ListDonors)
		v1.GET("/donors/pending", profileHdlr.ListPendingDonors)
		v1.POST("/donors/:id/approve", profileHdlr.ApproveDonor)
		v1.GET("/doctors", profileHdlr.ListDoctors)

		v1.POST("/requirements", requirementHdlr.Create)
		v1.GET("/requirements", requirementHdlr.ListActive)
		v1.GET("/requirements/:id", requirementHdlr.Get)
		v1.GET("/me/requirements", requirementHdlr.ListMine)
		v1.POST("/requirements/:id/close", requirementHdlr.Close)

		v1.POST("/contact-requests", contactHdlr.Send)
		v1.POST("/contact-requests/:id/respond", contactHdlr.Respond)
		v1.GET("/contact-requests/received", contactHdlr.ListReceived)
		v1.GET("/contact-requests/sent", contactHdlr.ListSent)

		v1.POST("/push-tokens", notificationHdlr.RegisterToken)
		v1.DELETE("/push-tokens/:id", notificationHdlr.UnregisterToken)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Matching service starting", zap.Int("port", cfg.Server.Port))
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
