package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/SAP-F-2025/item-analysis-service/internal/services"
	"github.com/SAP-F-2025/item-analysis-service/internal/utils"
	"github.com/SAP-F-2025/item-analysis-service/internal/validator"
	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is satisfied by the repository aggregate
type Pinger interface {
	Ping(ctx context.Context) error
}

type HandlerManager struct {
	itemAnalysisHandler *ItemAnalysisHandler
	validator           *validator.Validator
	database            Pinger
	logger              utils.Logger
}

func NewHandlerManager(
	itemAnalysisService services.ItemAnalysisService,
	database Pinger,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		itemAnalysisHandler: NewItemAnalysisHandler(itemAnalysisService, validator, logger),
		validator:           validator,
		database:            database,
		logger:              logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.Use(
		utils.RequestID(),
		utils.ContextLogger(hm.logger),
		utils.LoggerMiddleware(hm.logger),
		gin.Recovery(),
	)

	router.GET("/health", hm.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(RequireTenant(hm.validator))
	{
		itemAnalysis := v1.Group("/exams/:exam_id/item-analysis")
		{
			itemAnalysis.POST("", hm.itemAnalysisHandler.Analyze)
			itemAnalysis.GET("", hm.itemAnalysisHandler.GetAllAnalyses)
			itemAnalysis.GET("/export", hm.itemAnalysisHandler.ExportAnalyses)
			itemAnalysis.GET("/:question_id", hm.itemAnalysisHandler.GetAnalysis)
		}
	}
}

// HealthCheck reports whether the database is reachable
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if hm.database != nil {
		if err := hm.database.Ping(ctx); err != nil {
			hm.logger.LogError(err, "Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "item-analysis-service",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "item-analysis-service",
	})
}

// requestContext carries the request id into service-level logs
func requestContext(c *gin.Context) context.Context {
	return services.WithRequestID(c.Request.Context(), c.Writer.Header().Get(utils.RequestIDHeader))
}
