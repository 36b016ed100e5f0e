package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"user-reputation-service/cmd/api/di"
	"user-reputation-service/internal/config"
)

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	GRPC   *grpc.Server
	Health *health.Server
	Gin    *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, l *zap.Logger, c *di.Container) *Server {
	grpcServer, hs := SetupGRPC(c, l)
	return &Server{
		Config: cfg,
		Logger: l,
		GRPC:   grpcServer,
		Health: hs,
		Gin:    SetupGinServer(c, httpAddress(cfg), l),
	}
}

// Start runs the gRPC and Gin servers. When one fails the other is stopped too.
func (s *Server) Start() error {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(context.Background(), "tcp", grpcAddress(s.Config))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	var g errgroup.Group
	g.Go(func() error {
		s.Logger.Info("gRPC server running", zap.String("address", grpcAddress(s.Config)))
		if err := s.GRPC.Serve(lis); err != nil {
			_ = s.Gin.Close()
			return fmt.Errorf("gRPC server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.Logger.Info("Gin REST API running", zap.String("address", s.Gin.Addr))
		if err := s.Gin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.GRPC.Stop()
			return fmt.Errorf("gin server: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// Shutdown marks the services as not serving and stops both servers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Health.Shutdown()

	var err error
	if s.Gin != nil {
		s.Logger.Info("shutting down Gin server...")
		if e := s.Gin.Shutdown(ctx); e != nil {
			err = fmt.Errorf("gin shutdown: %w", e)
		}
	}

	if s.GRPC != nil {
		s.Logger.Info("shutting down gRPC server...")
		stopped := make(chan struct{})
		go func() {
			s.GRPC.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			s.GRPC.Stop()
		}
	}
	return err
}

func grpcAddress(cfg *config.Config) string {
	return ":" + cfg.App.GRPCPort
}

func httpAddress(cfg *config.Config) string {
	return ":" + cfg.App.HTTPPort
}
