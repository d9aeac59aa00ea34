package routers

import (
	"github.com/gin-gonic/gin"

	"bluecrm/attribsync/internal/server/handlers/attribution"
	"bluecrm/attribsync/internal/server/handlers/stats"
	syncHandler "bluecrm/attribsync/internal/server/handlers/sync"
	"bluecrm/attribsync/internal/server/middlewares"
	"bluecrm/attribsync/pkg/logger"
)

// SetupRoutes 配置所有路由，使用 Route Group 分类
func SetupRoutes(
	serviceToken string,
	syncH *syncHandler.SyncHandler,
	attributionH *attribution.AttributionHandler,
	statsH *stats.StatsHandler,
	log logger.Logger,
) *gin.Engine {
	r := gin.New()

	r.Use(middlewares.CORS())
	r.Use(middlewares.Logger(log))
	r.Use(middlewares.ErrorHandler(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "attribsync",
			"message": "Service is running",
		})
	})

	v1 := r.Group("/api/v1")
	v1.Use(middlewares.Auth(serviceToken))
	{
		syncGroup := v1.Group("/sync")
		{
			syncGroup.POST("", syncH.Trigger)
			syncGroup.GET("/latest", syncH.Latest)
			syncGroup.GET("/history", syncH.History)
			syncGroup.GET("/:id", syncH.Get)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("/:key/attribution", attributionH.Analyze)
			orders.GET("/:key/attribution", attributionH.Get)
		}

		statsGroup := v1.Group("/stats")
		{
			statsGroup.GET("", statsH.Summaries)
			statsGroup.GET("/breakdowns", statsH.Breakdowns)
		}
	}

	return r
}
