package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/document-search/api/handlers"
	"github.com/feichai0017/document-search/api/middleware"
	"github.com/feichai0017/document-search/pkg/logger"
)

// SetupRoutes registers middleware and every route on r.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, allowedOrigins []string, log logger.Logger) {
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(allowedOrigins))

	r.GET("/health", handlers.Health)

	v1 := r.Group("/api/v1")

	docs := v1.Group("/documents")
	{
		docs.POST("", h.Document.Upload)
		docs.GET("/pending", h.Document.Pending)
		docs.POST("/process", h.Document.Process)
		docs.GET("/process/status", h.Document.Status)
	}

	v1.GET("/search", h.Search.Search)
	v1.POST("/search", h.Search.Search)
	v1.GET("/preview/:filename", h.Document.Preview)
}
