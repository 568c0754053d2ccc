package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// NewRouter registers every route on a fresh gin engine. metrics may be nil.
func NewRouter(h *Handler, stream *ChatStream, metrics http.Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(Recovery(logger))
	router.Use(StructuredLogging(logger))
	router.Use(CORS())

	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	router.POST("/chat", h.Chat)
	router.POST("/scan", h.Scan)
	router.GET("/scan/:id", h.GetScan)
	router.POST("/slice", h.Slice)
	router.POST("/media", h.Media)
	router.POST("/verify", h.Verify)
	router.GET("/ws/chat", stream.Serve)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return router
}
