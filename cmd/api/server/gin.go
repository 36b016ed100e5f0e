package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-reputation-service/cmd/api/di"
	ginrouter "user-reputation-service/internal/adapter/gin/router"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(c *di.Container, ginAddr string, l *zap.Logger) *http.Server {
	router := ginrouter.SetupRouter(
		ginrouter.Handlers{
			Auth:   c.AuthHandler,
			Users:  c.UserHandler,
			Rating: c.RatingHandler,
			Stats:  c.StatsHandler,
		},
		ginrouter.Options{
			Authenticator:  c.Authenticator,
			RateLimiter:    c.RateLimiter,
			Metrics:        c.Metrics,
			MetricsHandler: c.Metrics.Handler(),
			Health: func(ctx *gin.Context) error {
				return c.Healthy(ctx.Request.Context())
			},
			ServiceName:    c.Config.Logger.ServiceName,
			TrustedProxies: c.Config.RateLimit.TrustedProxies,
		},
		l,
	)

	l.Info("Gin REST API configured", zap.String("address", ginAddr))

	return &http.Server{
		Addr:              ginAddr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
