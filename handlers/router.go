package handlers

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"taxlaw-backend/middleware"
	"taxlaw-backend/service"
)

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	TaxService      *service.TaxService
	DocumentService *service.DocumentService
	ChatService     *service.ChatService

	MaxUploadBytes int64
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter builds the HTTP API. ctx bounds background work such as the rate
// limiter's cleanup loop.
func NewRouter(ctx context.Context, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CorrelationIDMiddleware())
	r.Use(middleware.RequestLogger())
	r.Use(configureCORS(cfg.AllowedOrigins))
	if cfg.RateLimitRPS > 0 {
		r.Use(middleware.NewRateLimiter(ctx, cfg.RateLimitRPS, max(cfg.RateLimitBurst, 1)).Middleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "AI Tax Law Agent is Running..."})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	returnHandler := NewReturnHandler(cfg.TaxService)
	documentHandler := NewDocumentHandler(cfg.DocumentService, cfg.MaxUploadBytes)
	chatHandler := NewChatHandler(cfg.ChatService)

	api := r.Group("/api")
	{
		// Documents
		api.POST("/upload", documentHandler.Upload)
		api.GET("/documents", documentHandler.ListDocuments)
		api.GET("/documents/:id", documentHandler.GetDocument)
		api.GET("/documents/:id/content", documentHandler.DownloadDocument)
		api.POST("/search", documentHandler.Search)

		// Assistant
		api.POST("/chat", chatHandler.Chat)

		// Returns
		api.POST("/compute-tax", returnHandler.ComputeTax)
		api.POST("/generate-return", returnHandler.GenerateReturn)
		api.GET("/returns", returnHandler.ListReturns)
		api.GET("/returns/:id", returnHandler.GetReturn)
		api.GET("/audit-logs", returnHandler.ListAuditLogs)
	}

	return r
}

func configureCORS(origins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.CorrelationIDHeader}
	corsConfig.ExposeHeaders = []string{
		"X-RateLimit-Limit",
		"X-RateLimit-Remaining",
		"Retry-After",
		middleware.CorrelationIDHeader,
	}
	corsConfig.MaxAge = 12 * time.Hour
	return cors.New(corsConfig)
}
