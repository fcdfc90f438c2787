package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/heblopez/postable-api/auth"
	"github.com/heblopez/postable-api/handlers"
	"github.com/heblopez/postable-api/middleware"
)

func SetupRouter(h *handlers.Handler, tokens *auth.TokenIssuer, corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}
	if allowAll(corsOrigins) {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = corsOrigins
		corsConfig.AllowCredentials = true
	}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.Authenticate(tokens))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "Postable API running",
			"service": "healthy",
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	// Public routes
	router.POST("/signup", h.Signup)
	router.POST("/login", h.Login)
	router.POST("/logout", h.Logout)
	router.GET("/posts", h.ListPosts)
	router.GET("/posts/:id", h.GetPost)

	protected := router.Group("/")
	protected.Use(middleware.RequireAuth())

	// Profile
	protected.GET("/me", h.GetMyProfile)
	protected.PATCH("/me", h.UpdateMyProfile)
	protected.DELETE("/me", h.DeleteMyAccount)

	// Posts
	protected.POST("/posts", h.CreatePost)
	protected.PATCH("/posts/:id", h.UpdatePost)

	// Likes
	protected.POST("/posts/:id/like", h.LikePost)
	protected.DELETE("/posts/:id/like", h.UnlikePost)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Endpoint not found",
			"path":  c.Request.URL.Path,
		})
	})

	return router
}

func allowAll(origins []string) bool {
	return len(origins) == 0 || (len(origins) == 1 && strings.TrimSpace(origins[0]) == "*")
}
