// Package app wires the risk wheel server together and runs it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xtding233/riskwheel/internal/api/grpcapi"
	"github.com/xtding233/riskwheel/internal/config"
	"github.com/xtding233/riskwheel/internal/platform/otel"
)

const (
	serviceName     = "riskwheel"
	shutdownTimeout = 10 * time.Second
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

type App struct {
	ServiceProvider *ServiceProvider
}

// NewApp reads the environment, after loading dotEnv when it exists.
func NewApp(dotEnv string) (*App, error) {
	if err := config.LoadDotEnv(dotEnv); err != nil {
		return nil, err
	}
	env, err := config.ParseEnv()
	if err != nil {
		return nil, err
	}
	return &App{ServiceProvider: newServiceProvider(env)}, nil
}

// Run serves HTTP, websocket and gRPC until ctx is cancelled or a server
// fails, then shuts everything down.
func (a *App) Run(ctx context.Context) (err error) {
	sp := a.ServiceProvider
	log := sp.Logger()
	env := sp.Env()

	shutdownTracing, err := otel.Setup(ctx, serviceName, env.OTLPEndpoint, Version)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := shutdownTracing(sctx); serr != nil {
			log.Warn().Err(serr).Msg("flush traces")
		}
	}()
	defer func() {
		if cerr := sp.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close storage: %w", cerr)
		}
	}()

	router, err := sp.Router(ctx)
	if err != nil {
		return err
	}
	grpcSrv, err := sp.GRPCServer(ctx)
	if err != nil {
		return err
	}
	reloader, err := sp.Reloader(ctx)
	if err != nil {
		return err
	}
	runner, err := sp.Runner(ctx)
	if err != nil {
		return err
	}
	hub := sp.Hub()

	httpLis, err := net.Listen("tcp", env.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", env.HTTPAddr, err)
	}
	grpcLis, err := grpcapi.Listen(env.GRPCAddr, grpcSrv, log.With().Str("component", "grpc").Logger())
	if err != nil {
		_ = httpLis.Close()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		runner.Run()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		runner.Stop()
		return nil
	})
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	if env.ReloadInterval > 0 {
		g.Go(func() error {
			reloader.Watch(gctx, env.ReloadInterval)
			return nil
		})
	}
	g.Go(func() error { return grpcLis.Serve(gctx) })

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	g.Go(func() error {
		log.Info().Str("addr", httpLis.Addr().String()).Msg("http listening")
		if err := srv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	log.Info().
		Str("version", Version).
		Str("storage", env.StorageDriver).
		Str("profile", env.Profile).
		Msg("riskwheel started")
	err = g.Wait()
	log.Info().Msg("riskwheel stopped")
	return err
}
