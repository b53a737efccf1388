// Package grpcapi exposes the session over gRPC.
package grpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/riskwheel/internal/event"
	"github.com/xtding233/riskwheel/internal/game"
	"github.com/xtding233/riskwheel/internal/reward"
	"github.com/xtding233/riskwheel/internal/service"
	"github.com/xtding233/riskwheel/internal/storage"
)

// GameService is what the gRPC server needs from the service layer.
type GameService interface {
	State(ctx context.Context) (game.View, error)
	Start(ctx context.Context) (game.View, error)
	Spin(ctx context.Context) (game.View, error)
	Leave(ctx context.Context) (game.View, error)
	GiveUp(ctx context.Context) ([]reward.Record, game.View, error)
	MoneyRevive(ctx context.Context, requestedCost int) (bool, game.View, error)
	AdsRevive(ctx context.Context) (game.View, error)
	Inventory(ctx context.Context) (map[string]int, error)
	ClearInventory(ctx context.Context) error
	History(ctx context.Context, limit int) ([]storage.Result, error)
	Subscribe(fn func(event.Event)) func()
}

const (
	defaultHistory = 20
	watchBuffer    = 64
	shutdownGrace  = 5 * time.Second
)

// Server implements WheelServiceServer over a GameService.
type Server struct {
	serv GameService
	log  zerolog.Logger
}

var _ WheelServiceServer = (*Server)(nil)

func NewServer(serv GameService, log zerolog.Logger) *Server {
	return &Server{serv: serv, log: log}
}

func (s *Server) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.view(s.serv.State(ctx))
}

func (s *Server) StartGame(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.view(s.serv.Start(ctx))
}

func (s *Server) Spin(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.view(s.serv.Spin(ctx))
}

func (s *Server) LeaveGame(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.view(s.serv.Leave(ctx))
}

func (s *Server) GiveUp(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	lost, v, err := s.serv.GiveUp(ctx)
	if err != nil {
		return nil, s.toStatus(err)
	}
	if lost == nil {
		lost = []reward.Record{}
	}
	return toStruct(map[string]any{"lost": lost, "session": v})
}

func (s *Server) MoneyRevive(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	cost, err := intField(in, "cost", 0)
	if err != nil {
		return nil, s.toStatus(err)
	}
	ok, v, err := s.serv.MoneyRevive(ctx, cost)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return toStruct(map[string]any{"revived": ok, "session": v})
}

func (s *Server) AdsRevive(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.view(s.serv.AdsRevive(ctx))
}

func (s *Server) GetInventory(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	inv, err := s.serv.Inventory(ctx)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return toStruct(inv)
}

func (s *Server) ClearInventory(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.serv.ClearInventory(ctx); err != nil {
		return nil, s.toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) ListHistory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	limit, err := intField(in, "limit", defaultHistory)
	if err != nil {
		return nil, s.toStatus(err)
	}
	if limit <= 0 {
		return nil, s.toStatus(service.BadRequest("limit must be > 0"))
	}
	res, err := s.serv.History(ctx, limit)
	if err != nil {
		return nil, s.toStatus(err)
	}
	if res == nil {
		res = []storage.Result{}
	}
	return toStruct(map[string]any{"results": res})
}

// WatchEvents streams session events until the client goes away. Events are
// dropped for a client that falls behind.
func (s *Server) WatchEvents(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ch := make(chan event.Event, watchBuffer)
	unsubscribe := s.serv.Subscribe(func(e event.Event) {
		select {
		case ch <- e:
		default:
			s.log.Warn().Str("event", string(e.Name)).Msg("grpc watcher behind; event dropped")
		}
	})
	defer unsubscribe()

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-ch:
			msg, err := toStruct(e)
			if err != nil {
				return err
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

func (s *Server) view(v game.View, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, s.toStatus(err)
	}
	return toStruct(v)
}

func (s *Server) toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, service.ErrBadRequest):
		code = codes.InvalidArgument
	case errors.Is(err, game.ErrCannotSpin),
		errors.Is(err, game.ErrCannotLeave),
		errors.Is(err, game.ErrNoPendingDecision),
		errors.Is(err, storage.ErrInsufficientFunds):
		code = codes.FailedPrecondition
	case errors.Is(err, game.ErrStopped):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		code = codes.Internal
		s.log.Error().Err(err).Msg("grpc call failed")
	}
	return status.Error(code, err.Error())
}

// toStruct converts v through its JSON form so field names match the HTTP API.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func intField(in *structpb.Struct, name string, def int) (int, error) {
	f, ok := in.GetFields()[name]
	if !ok {
		return def, nil
	}
	n, ok := f.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, service.BadRequest("%s must be a number", name)
	}
	if n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > math.MaxInt32 {
		return 0, service.BadRequest("%s must be an integer", name)
	}
	return int(n.NumberValue), nil
}

// Listener serves a WheelService plus the standard health service.
type Listener struct {
	listener net.Listener
	server   *grpc.Server
	health   *health.Server
	log      zerolog.Logger
}

// Listen binds addr and registers srv. Calls are traced with otelgrpc.
func Listen(addr string, srv WheelServiceServer, log zerolog.Logger) (*Listener, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return NewListener(lis, srv, log), nil
}

// NewListener wraps an existing net.Listener.
func NewListener(lis net.Listener, srv WheelServiceServer, log zerolog.Logger) *Listener {
	gs := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hs := health.NewServer()
	RegisterWheelServiceServer(gs, srv)
	grpc_health_v1.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return &Listener{listener: lis, server: gs, health: hs, log: log}
}

// Addr returns the bound address.
func (l *Listener) Addr() string { return l.listener.Addr().String() }

// Serve blocks until ctx is cancelled, then stops gracefully.
func (l *Listener) Serve(ctx context.Context) error {
	l.log.Info().Str("addr", l.Addr()).Msg("grpc listening")
	serveErr := make(chan error, 1)
	go func() { serveErr <- l.server.Serve(l.listener) }()

	select {
	case <-ctx.Done():
		l.health.Shutdown()
		stopped := make(chan struct{})
		go func() {
			l.server.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(shutdownGrace):
			// open event streams keep GracefulStop waiting
			l.server.Stop()
		}
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve grpc: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve grpc: %w", err)
	}
}
