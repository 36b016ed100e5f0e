package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// StatsServiceDesc describes reputation.v1.StatsService. Every method takes and
// returns a google.protobuf.Struct.
var StatsServiceDesc = grpc.ServiceDesc{
	ServiceName: StatsServiceName,
	HandlerType: (*StatsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "MonthlyStats", Handler: structHandler("MonthlyStats", StatsServer.MonthlyStats)},
		{MethodName: "GeneralStats", Handler: structHandler("GeneralStats", StatsServer.GeneralStats)},
		{MethodName: "NextMonthEstimate", Handler: structHandler("NextMonthEstimate", StatsServer.NextMonthEstimate)},
		{MethodName: "Dashboard", Handler: structHandler("Dashboard", StatsServer.Dashboard)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "reputation/v1/stats.proto",
}

type structMethod func(StatsServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func structHandler(name string, call structMethod) grpc.MethodHandler {
	fullMethod := "/" + StatsServiceName + "/" + name
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(StatsServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(StatsServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// StatsClient calls reputation.v1.StatsService.
type StatsClient struct {
	cc grpc.ClientConnInterface
}

// NewStatsClient creates a client on cc.
func NewStatsClient(cc grpc.ClientConnInterface) *StatsClient {
	return &StatsClient{cc: cc}
}

func (c *StatsClient) call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+StatsServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// MonthlyStats calls the MonthlyStats method.
func (c *StatsClient) MonthlyStats(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "MonthlyStats", in, opts...)
}

// GeneralStats calls the GeneralStats method.
func (c *StatsClient) GeneralStats(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "GeneralStats", in, opts...)
}

// NextMonthEstimate calls the NextMonthEstimate method.
func (c *StatsClient) NextMonthEstimate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "NextMonthEstimate", in, opts...)
}

// Dashboard calls the Dashboard method.
func (c *StatsClient) Dashboard(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "Dashboard", in, opts...)
}
