package http

import "github.com/gin-gonic/gin"

// RegisterResourceRoutes registra la API genérica de recursos.
func RegisterResourceRoutes(r *gin.Engine, handler *ResourceHandler) {
	api := r.Group("/api")
	{
		api.GET("/", handler.Resources)
		api.GET("/:resource/", handler.List)
		api.POST("/:resource/", handler.Create)
		api.GET("/:resource/:id/", handler.Get)
		api.PATCH("/:resource/:id/", handler.Update)
		api.DELETE("/:resource/:id/", handler.Delete)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
