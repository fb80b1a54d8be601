package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ragbot/ragbot/internal/api/chat"
	"github.com/ragbot/ragbot/internal/api/documents"
	"github.com/ragbot/ragbot/internal/api/middleware"
	"github.com/ragbot/ragbot/internal/service"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(
	chatService *service.ChatService,
	ingestService *service.IngestService,
	cfg RouterConfig,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS middleware
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		docCount, _ := ingestService.DocumentCount()
		c.JSON(http.StatusOK, gin.H{
			"status":               "ok",
			"documents":            docCount,
			"index_size":           ingestService.IndexSize(),
			"llm_available":        chatService.GeneratorAvailable(),
			"web_search_available": chatService.SearchAvailable(),
		})
	})

	apiGroup := r.Group("/api")

	chatHandler := chat.NewHandler(chatService)
	chatHandler.RegisterRoutes(apiGroup)

	documentsHandler := documents.NewHandler(ingestService)
	documentsHandler.RegisterRoutes(apiGroup)

	return r
}
