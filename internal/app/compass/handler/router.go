package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aicompass/pkg/logger"
	"aicompass/pkg/metrics"
)

func SetupRoutes(
	toolHandler *ToolHandler,
	reviewHandler *ReviewHandler,
	summaryHandler *SummaryHandler,
	verifyHandler *VerifyHandler,
	authMiddleware *AuthMiddleware,
) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())

	router.Use(logger.GinLoggerMiddleware())

	router.Use(metrics.GinPrometheusMiddleware("compass"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "compass",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	tools := router.Group("/tools")
	{
		tools.GET("", toolHandler.ListTools)
		tools.POST("", toolHandler.CreateTool)
		tools.GET("/:tool_id", toolHandler.GetTool)
		tools.GET("/:tool_id/reviews", toolHandler.GetToolReviews)

		// Отправка отзыва требует аутентификации identity-провайдера
		tools.POST("/:tool_id/reviews", authMiddleware.Authenticate(), reviewHandler.SubmitReview)
	}

	router.POST("/ai-summary", summaryHandler.GenerateSummary)

	verify := router.Group("/verify")
	verify.Use(authMiddleware.Authenticate())
	{
		verify.GET("", verifyHandler.GetVerification)
		verify.POST("", verifyHandler.Verify)
	}

	return router
}
