package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playbook-access-api/internal/access"
	"github.com/playbook-access-api/internal/catalog"
	"github.com/playbook-access-api/internal/config"
	"github.com/playbook-access-api/internal/content"
	"github.com/playbook-access-api/internal/identity"
	"github.com/rs/zerolog"
)

// Deps bundles the services the HTTP layer consumes.
type Deps struct {
	Access   *access.Service
	Identity identity.Provider
	Content  *content.Service
	Catalog  *catalog.Catalog
}

// NewRouter creates and configures the Gin router
func NewRouter(deps Deps, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	authHandler := NewAuthHandler(deps.Identity, deps.Access, log)
	accessHandler := NewAccessHandler(deps.Access, log)
	chapterHandler := NewChapterHandler(deps.Catalog, deps.Content, log)
	canvasHandler := NewCanvasHandler(deps.Content, log)

	// Health check
	router.GET("/health", healthCheck)

	// API v1: every route below resolves the session first.
	v1 := router.Group("/v1")
	v1.Use(sessionMiddleware(deps.Access))
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", authHandler.SignUp)
			auth.POST("/signin", authHandler.SignIn)
			auth.POST("/signout", authHandler.SignOut)
			auth.GET("/session", authHandler.Session)
		}

		v1.GET("/access", accessHandler.Get)
		v1.POST("/access/unlock", accessHandler.Unlock)

		v1.GET("/chapters", chapterHandler.List)

		// Protected reader surface: signed-in users only, and chapter
		// routes additionally pass the entitlement guard.
		protected := v1.Group("")
		protected.Use(requireUser())
		{
			chapter := protected.Group("/chapters/:id")
			chapter.Use(requireChapterAccess())
			{
				chapter.GET("", chapterHandler.Get)
				chapter.GET("/canvas", canvasHandler.GetAll)
				chapter.GET("/canvas/:field", canvasHandler.GetField)
				chapter.PUT("/canvas/:field", canvasHandler.SetField)
				chapter.POST("/canvas/:field/highlight", canvasHandler.AppendHighlight)
			}

			protected.GET("/progress", chapterHandler.Progress)
			protected.GET("/tutorial", canvasHandler.TutorialStatus)
			protected.POST("/tutorial/complete", canvasHandler.CompleteTutorial)
			protected.GET("/recommendations", canvasHandler.Recommendations)
			protected.PUT("/recommendations", canvasHandler.SetRecommendations)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "playbook-access-api",
	})
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
