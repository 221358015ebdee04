package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/analyze", handler.Analyze)
		api.GET("/results", handler.GetResults)
		api.GET("/stats", handler.GetStats)
		api.POST("/cache/clear", handler.ClearCache)
	}
}
