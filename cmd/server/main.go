package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/item-analysis-service/internal/cache"
	"github.com/SAP-F-2025/item-analysis-service/internal/config"
	"github.com/SAP-F-2025/item-analysis-service/internal/events"
	"github.com/SAP-F-2025/item-analysis-service/internal/handlers"
	"github.com/SAP-F-2025/item-analysis-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/item-analysis-service/internal/services"
	"github.com/SAP-F-2025/item-analysis-service/internal/utils"
	"github.com/SAP-F-2025/item-analysis-service/internal/validator"
	"github.com/SAP-F-2025/item-analysis-service/pkg"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 30 * time.Second

// @title Item Analysis API
// @version 1.0
// @description Per-question difficulty and discrimination statistics for completed exams
// @BasePath /api/v1
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.NewLogger("development").Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment)
	ctx := context.Background()

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "Failed to connect to database")
		os.Exit(1)
	}
	if err := pkg.Migrate(db); err != nil {
		logger.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	repo := postgres.NewRepository(db)
	defer repo.Close()

	cacheService := cache.NewNoopCache()
	if cfg.CacheEnabled {
		client, err := pkg.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Warn("Redis unavailable, caching disabled", "error", err)
		} else {
			defer client.Close()
			cacheService = cache.NewRedisCache(client, logger.Slog())
			logger.Info("Connected to Redis")
		}
	}

	var publisher events.EventPublisher
	publisher, err = cfg.Events.CreateEventPublisher(logger.Slog())
	if err != nil {
		logger.Warn("Event publisher unavailable, falling back to mock", "error", err)
		publisher = events.NewMockEventPublisher(logger.Slog())
	}
	defer publisher.Close()

	v := validator.New()
	itemAnalysisService := services.NewItemAnalysisService(
		repo,
		cacheService,
		publisher,
		logger.Slog(),
		v,
		services.WithCacheTTL(cfg.CacheTTL),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	handlers.NewHandlerManager(itemAnalysisService, repo, v, logger).SetupRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Server forced to shutdown")
	}

	logger.Info("Server exited")
}
