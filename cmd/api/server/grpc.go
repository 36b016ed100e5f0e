package server

import (
	"go.uber.org/zap"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"user-reputation-service/cmd/api/di"
	grpcadapter "user-reputation-service/internal/adapter/grpc"
	"user-reputation-service/pkg/logger"
)

// healthPrefix is the method prefix of the standard health service, reachable without a token.
const healthPrefix = "/grpc.health.v1.Health/"

// SetupGRPC creates the gRPC server exposing the statistics service and the health service
func SetupGRPC(c *di.Container, l *zap.Logger) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.RequestIDInterceptor(),
			c.RateLimiter.UnaryInterceptor(),
			c.Authenticator.UnaryInterceptor(healthPrefix),
		),
	)
	c.StatsServer.Register(grpcServer)

	hs := health.NewServer()
	hs.SetServingStatus(grpcadapter.StatsServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)

	l.Info("gRPC services registered", zap.String("service", grpcadapter.StatsServiceDesc.ServiceName))
	return grpcServer, hs
}
