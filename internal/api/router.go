package api

import (
	"net/http"

	"agriconnect/backend/internal/ws"
	"agriconnect/backend/pkg/config"
	"agriconnect/backend/pkg/errors"
	"agriconnect/backend/pkg/logger"
	"agriconnect/backend/pkg/metrics"
	"agriconnect/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RouterDeps bundles everything the HTTP surface needs
type RouterDeps struct {
	Auth             *AuthHandler
	Health           *HealthHandler
	PrivateHub       *ws.Hub
	PrivateHandler   ws.ChannelHandler
	CommunityHub     *ws.Hub
	CommunityHandler ws.ChannelHandler
	Logger           *logger.Logger
	Config           *config.Config
}

// NewRouter assembles the gin engine with middleware, HTTP routes and the
// WebSocket upgrade endpoints.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Middleware(deps.Logger))
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(errors.ErrorHandler())

	engine.GET("/", deps.Health.Banner)
	engine.GET("/metrics", metrics.Handler())

	limiter := middleware.NewRateLimiter(deps.Logger, middleware.RateLimiterOptions{
		Limit: rate.Limit(deps.Config.Security.RateLimit),
		Burst: deps.Config.Security.RateLimitBurst,
	})

	apiGroup := engine.Group("/api")
	{
		apiGroup.GET("/health", deps.Health.Health)

		auth := apiGroup.Group("/auth")
		auth.Use(limiter.Middleware())
		auth.POST("/register", deps.Auth.Register)
		auth.POST("/login", deps.Auth.Login)
	}

	engine.GET("/ws/private", func(c *gin.Context) {
		ws.ServeWs(deps.PrivateHub, deps.PrivateHandler, c)
	})
	engine.GET("/ws/community", func(c *gin.Context) {
		ws.ServeWs(deps.CommunityHub, deps.CommunityHandler, c)
	})

	// Unknown /api/* routes get a JSON body instead of gin's default 404
	engine.NoRoute(func(c *gin.Context) {
		if len(c.Request.URL.Path) >= 5 && c.Request.URL.Path[:5] == "/api/" {
			c.JSON(http.StatusNotFound, gin.H{"message": "API endpoint not found"})
		}
	})

	return engine
}
