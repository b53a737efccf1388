package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "riskwheel.v1.WheelService"

// WheelServiceServer is the server API. Messages are well-known types so no
// generated code is needed: views travel as google.protobuf.Struct with the
// same field names as the JSON API.
type WheelServiceServer interface {
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	StartGame(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Spin(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	LeaveGame(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GiveUp(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	MoneyRevive(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AdsRevive(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetInventory(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ClearInventory(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	ListHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchEvents(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

// RegisterWheelServiceServer registers srv on s.
func RegisterWheelServiceServer(s grpc.ServiceRegistrar, srv WheelServiceServer) {
	s.RegisterService(&wheelServiceDesc, srv)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

func emptyHandler(name string, call func(WheelServiceServer, context.Context, *emptypb.Empty) (any, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(emptypb.Empty)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(WheelServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(WheelServiceServer), ctx, req.(*emptypb.Empty))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func structHandler(name string, call func(WheelServiceServer, context.Context, *structpb.Struct) (any, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(WheelServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(WheelServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchEventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(WheelServiceServer).WatchEvents(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

var wheelServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WheelServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		emptyHandler("GetState", func(s WheelServiceServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.GetState(ctx, in)
		}),
		emptyHandler("StartGame", func(s WheelServiceServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.StartGame(ctx, in)
		}),
		emptyHandler("Spin", func(s WheelServiceServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.Spin(ctx, in)
		}),
		emptyHandler("LeaveGame", func(s WheelServiceServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.LeaveGame(ctx, in)
		}),
		emptyHandler("GiveUp", func(s WheelServiceServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.GiveUp(ctx, in)
		}),
		structHandler("MoneyRevive", func(s WheelServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.MoneyRevive(ctx, in)
		}),
		emptyHandler("AdsRevive", func(s WheelServiceServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.AdsRevive(ctx, in)
		}),
		emptyHandler("GetInventory", func(s WheelServiceServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.GetInventory(ctx, in)
		}),
		emptyHandler("ClearInventory", func(s WheelServiceServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.ClearInventory(ctx, in)
		}),
		structHandler("ListHistory", func(s WheelServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.ListHistory(ctx, in)
		}),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchEvents",
			Handler:       watchEventsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "riskwheel/v1/wheel.proto",
}
