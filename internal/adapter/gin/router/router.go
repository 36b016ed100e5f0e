package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-reputation-service/internal/adapter/gin/handler"
	"user-reputation-service/internal/adapter/gin/middleware"
	grpcmiddleware "user-reputation-service/internal/adapter/grpc/middleware"
	"user-reputation-service/internal/domain/role"
)

// Handlers groups the HTTP handlers mounted by SetupRouter.
type Handlers struct {
	Auth   *handler.AuthHandler
	Users  *handler.UserHandler
	Rating *handler.RatingHandler
	Stats  *handler.StatsHandler
}

// Options carries the cross-cutting collaborators of the router.
type Options struct {
	Authenticator *grpcmiddleware.Authenticator
	RateLimiter   *grpcmiddleware.RateLimiter
	Metrics       middleware.RequestObserver
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	Health         func(*gin.Context) error
	ServiceName    string
	// TrustedProxies may set X-Forwarded-For and X-Real-IP. Empty trusts no one.
	TrustedProxies []string
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(h Handlers, opts Options, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		log.Warn("invalid trusted proxies, trusting none", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}

	// Global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	if opts.Metrics != nil {
		router.Use(middleware.Metrics(opts.Metrics))
	}
	router.Use(middleware.RateLimiter(opts.RateLimiter))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if opts.Health != nil {
			if err := opts.Health(c); err != nil {
				log.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": opts.ServiceName,
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": opts.ServiceName,
		})
	})

	if opts.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	// API v1 routes
	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		authed := v1.Group("", middleware.Auth(opts.Authenticator))
		{
			authed.GET("/me", h.Users.Me)
			authed.PUT("/me", h.Users.UpdateProfile)
			authed.GET("/me/dashboard", h.Rating.Dashboard)

			authed.GET("/users/rateable", h.Users.RateableUsers)
			authed.GET("/users/rated", h.Users.RatedUserIDs)
			authed.GET("/users/:id/reputation", h.Rating.Reputation)

			ratings := authed.Group("/ratings")
			{
				ratings.POST("", h.Rating.SubmitRating)
				ratings.DELETE("/:id", h.Rating.DeleteRating)
				ratings.GET("/given", h.Rating.Given)
				ratings.GET("/received", h.Rating.Received)
			}

			admin := authed.Group("", middleware.RequireLevel(role.LevelAdmin))
			{
				users := admin.Group("/users")
				{
					users.POST("", h.Users.CreateUser)
					users.GET("", h.Users.ListUsers)
					users.GET("/:id", h.Users.GetUser)
					users.PUT("/:id", h.Users.UpdateUser)
					users.DELETE("/:id", h.Users.DeleteUser)
					users.POST("/:id/block", h.Users.BlockUser)
					users.POST("/:id/unblock", h.Users.UnblockUser)
				}

				admin.GET("/admin/dashboard", h.Stats.Dashboard)
				stats := admin.Group("/admin/stats")
				{
					stats.GET("/monthly", h.Stats.Monthly)
					stats.GET("/general", h.Stats.General)
					stats.GET("/estimate", h.Stats.Estimate)
				}
			}
		}
	}

	return router
}
