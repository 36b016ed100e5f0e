package di

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-reputation-service/cmd/api/infrastructure"
	"user-reputation-service/internal/adapter/db/gormdb"
	ginhandler "user-reputation-service/internal/adapter/gin/handler"
	grpcadapter "user-reputation-service/internal/adapter/grpc"
	"user-reputation-service/internal/adapter/grpc/middleware"
	"user-reputation-service/internal/adapter/metrics"
	"user-reputation-service/internal/config"
	authuc "user-reputation-service/internal/usecase/auth"
	ratinguc "user-reputation-service/internal/usecase/rating"
	statsuc "user-reputation-service/internal/usecase/stats"
	useruc "user-reputation-service/internal/usecase/user"
	redisclient "user-reputation-service/pkg/redis"
	"user-reputation-service/pkg/security"
	"user-reputation-service/pkg/token"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	DB            *gorm.DB
	RedisClient   *redisclient.Client
	Metrics       *metrics.Metrics
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter

	UserUC   *useruc.Usecase
	AuthUC   *authuc.Usecase
	RatingUC *ratinguc.Usecase
	StatsUC  *statsuc.Usecase

	AuthHandler   *ginhandler.AuthHandler
	UserHandler   *ginhandler.UserHandler
	RatingHandler *ginhandler.RatingHandler
	StatsHandler  *ginhandler.StatsHandler
	StatsServer   *grpcadapter.StatsServiceServer
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, dialect, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	m := metrics.New(nil)

	// Repositories
	users := gormdb.NewUserRepo(db, dialect, l)
	ratings := gormdb.NewRatingRepo(db, l)
	stats := gormdb.NewStatsRepo(db, dialect, l)

	hasher := security.NewPasswordHasher(cfg.Auth.BcryptCost)
	issuer := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL(), cfg.Auth.Issuer)
	opts := useruc.Options{
		NameMin:         cfg.Users.NameMin,
		NameMax:         cfg.Users.NameMax,
		DefaultPageSize: cfg.Users.DefaultPageSize,
		MaxPageSize:     cfg.Users.MaxPageSize,
	}

	// Use cases
	userUC := useruc.New(users, ratings, hasher, l, opts).WithObserver(m)
	authUC := authuc.New(users, hasher, issuer, l, opts)
	ratingUC := ratinguc.New(ratings, l).WithObserver(m)
	statsUC := statsuc.New(stats, users, cfg.Stats.EstimateWindow, l).WithObserver(m)

	var limiterClient *redis.Client
	if rdb != nil {
		limiterClient = rdb.Client
	}
	rateLimiter := middleware.NewRateLimiter(
		limiterClient,
		middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstCapacity:     cfg.RateLimit.BurstCapacity,
			Enabled:           cfg.RateLimit.Enabled,
			TrustedProxies:    cfg.RateLimit.TrustedProxies,
		},
		l,
	)

	return &Container{
		Config:        cfg,
		Logger:        l,
		DB:            db,
		RedisClient:   rdb,
		Metrics:       m,
		Authenticator: middleware.NewAuthenticator(issuer, users, l),
		RateLimiter:   rateLimiter,
		UserUC:        userUC,
		AuthUC:        authUC,
		RatingUC:      ratingUC,
		StatsUC:       statsUC,
		AuthHandler:   ginhandler.NewAuthHandler(authUC, l),
		UserHandler:   ginhandler.NewUserHandler(userUC, l),
		RatingHandler: ginhandler.NewRatingHandler(ratingUC, l),
		StatsHandler:  ginhandler.NewStatsHandler(statsUC, l),
		StatsServer:   grpcadapter.NewStatsServiceServer(statsUC, l),
	}, nil
}

// Healthy pings the database and, when configured, Redis.
func (c *Container) Healthy(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Healthy(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
