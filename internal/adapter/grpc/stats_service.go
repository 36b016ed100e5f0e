// Package grpc exposes the administrator statistics over gRPC. Messages are
// google.protobuf.Struct values, so the service needs no generated stubs.
package grpc

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"user-reputation-service/internal/adapter/grpc/middleware"
	"user-reputation-service/internal/domain/role"
	domainstats "user-reputation-service/internal/domain/stats"
	domainuser "user-reputation-service/internal/domain/user"
	statsuc "user-reputation-service/internal/usecase/stats"
	pkgerrors "user-reputation-service/pkg/errors"
)

// StatsServiceName is the fully qualified gRPC service name.
const StatsServiceName = "reputation.v1.StatsService"

// StatsUsecase is the aggregator behind the service.
type StatsUsecase interface {
	MonthlyStats(ctx context.Context, year int) (*domainstats.Monthly, error)
	GeneralStats(ctx context.Context) (*domainstats.General, error)
	NextMonthEstimate(ctx context.Context) (*domainstats.Estimate, error)
	Dashboard(ctx context.Context, requester *domainuser.User, year int) (*statsuc.AdminDashboard, error)
}

// StatsServer is the server API of reputation.v1.StatsService.
type StatsServer interface {
	MonthlyStats(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GeneralStats(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	NextMonthEstimate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Dashboard(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// StatsServiceServer implements StatsServer on top of the statistics usecase.
type StatsServiceServer struct {
	uc  StatsUsecase
	log *zap.Logger
	now func() time.Time
}

// NewStatsServiceServer creates a new gRPC stats service server
func NewStatsServiceServer(uc StatsUsecase, log *zap.Logger) *StatsServiceServer {
	return &StatsServiceServer{uc: uc, log: log, now: time.Now}
}

// Register attaches the service to s.
func (s *StatsServiceServer) Register(r grpc.ServiceRegistrar) {
	r.RegisterService(&StatsServiceDesc, s)
}

// MonthlyStats handles {"year": n}. A missing year means the current one.
func (s *StatsServiceServer) MonthlyStats(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	year, err := s.year(in)
	if err != nil {
		return nil, err
	}
	m, err := s.uc.MonthlyStats(ctx, year)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(MonthlyFields(m))
}

// GeneralStats handles an empty request.
func (s *StatsServiceServer) GeneralStats(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	g, err := s.uc.GeneralStats(ctx)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(GeneralFields(g))
}

// NextMonthEstimate handles an empty request.
func (s *StatsServiceServer) NextMonthEstimate(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	e, err := s.uc.NextMonthEstimate(ctx)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(EstimateFields(e))
}

// Dashboard returns the three aggregations in one response. The usecase
// authorizes the requester and runs the queries concurrently.
func (s *StatsServiceServer) Dashboard(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	year, err := s.year(in)
	if err != nil {
		return nil, err
	}
	d, err := s.uc.Dashboard(ctx, middleware.RequesterFrom(ctx), year)
	if err != nil {
		return nil, err
	}

	return structpb.NewStruct(map[string]any{
		"monthly":  MonthlyFields(d.Monthly),
		"general":  GeneralFields(d.General),
		"estimate": EstimateFields(d.Estimate),
	})
}

func (s *StatsServiceServer) authorize(ctx context.Context) error {
	requester := middleware.RequesterFrom(ctx)
	if requester == nil {
		return pkgerrors.ErrUnauthenticated
	}
	if err := role.Authorize(requester.Roles, role.ActionStats, 0); err != nil {
		s.log.Warn("stats refused", zap.Int64("requester_id", requester.ID))
		return err
	}
	return nil
}

// year reads the optional "year" field. Absent, null and zero mean the current year.
func (s *StatsServiceServer) year(in *structpb.Struct) (int, error) {
	v, ok := in.GetFields()["year"]
	if !ok {
		return s.now().Year(), nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return s.now().Year(), nil
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
			return 0, pkgerrors.NewValidationError("year", "year must be a whole number")
		}
		if n == 0 {
			return s.now().Year(), nil
		}
		return int(n), nil
	default:
		return 0, pkgerrors.NewValidationError("year", "year must be a number")
	}
}

// MonthlyFields renders a monthly series as twelve {month, registrations, actives} rows.
func MonthlyFields(m *domainstats.Monthly) map[string]any {
	months := make([]any, 0, 12)
	for i := range 12 {
		months = append(months, map[string]any{
			"month":         i + 1,
			"registrations": m.Registrations[i],
			"actives":       m.Actives[i],
		})
	}
	return map[string]any{"year": m.Year, "months": months}
}

// GeneralFields renders the population summary.
func GeneralFields(g *domainstats.General) map[string]any {
	return map[string]any{
		"total":   g.Total,
		"active":  g.Active,
		"blocked": g.Blocked,
		"admins":  g.Admins,
		"clients": g.Clients,
	}
}

// EstimateFields renders a projection with its basis.
func EstimateFields(e *domainstats.Estimate) map[string]any {
	basis := make([]any, len(e.Basis))
	for i, v := range e.Basis {
		basis[i] = v
	}
	return map[string]any{
		"year":  e.Year,
		"month": int(e.Month),
		"basis": basis,
		"value": e.Value,
	}
}

var _ StatsUsecase = (*statsuc.Usecase)(nil)
