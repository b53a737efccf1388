package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/xtding233/riskwheel/internal/api/grpcapi"
	"github.com/xtding233/riskwheel/internal/api/httpapi"
	"github.com/xtding233/riskwheel/internal/api/ws"
	"github.com/xtding233/riskwheel/internal/config"
	"github.com/xtding233/riskwheel/internal/event"
	"github.com/xtding233/riskwheel/internal/game"
	"github.com/xtding233/riskwheel/internal/logging"
	"github.com/xtding233/riskwheel/internal/service"
	"github.com/xtding233/riskwheel/internal/storage"
	"github.com/xtding233/riskwheel/internal/storage/memory"
	"github.com/xtding233/riskwheel/internal/storage/postgres"
	"github.com/xtding233/riskwheel/internal/storage/sqlite"
	"github.com/xtding233/riskwheel/internal/wheel"
)

// ServiceProvider builds each component on first use and hands out the same
// instance afterwards.
type ServiceProvider struct {
	env config.Env
	log *zerolog.Logger

	// Content
	loader   *config.Loader
	settings *config.Settings
	reloader *config.Reloader

	// Storage
	store storage.Store

	// Session
	bus    *event.Bus
	runner *game.Runner
	serv   *service.Service

	// Transports
	hub     *ws.Hub
	handler *httpapi.Handler
	router  chi.Router
	grpcSrv *grpcapi.Server
}

func newServiceProvider(env config.Env) *ServiceProvider {
	return &ServiceProvider{env: env}
}

func (sp *ServiceProvider) Env() config.Env { return sp.env }

func (sp *ServiceProvider) Logger() zerolog.Logger {
	if sp.log == nil {
		l := logging.New(sp.env.LogLevel, sp.env.LogPretty)
		sp.log = &l
	}
	return *sp.log
}

func (sp *ServiceProvider) Loader() *config.Loader {
	if sp.loader == nil {
		sp.loader = config.NewLoader(sp.env.ContentDir)
	}
	return sp.loader
}

func (sp *ServiceProvider) Settings() (config.Settings, error) {
	if sp.settings == nil {
		_, s, err := sp.Loader().Resolve(sp.env.Profile, config.Overrides{})
		if err != nil {
			return config.Settings{}, fmt.Errorf("resolve content profile %q: %w", sp.env.Profile, err)
		}
		sp.settings = &s
	}
	return *sp.settings, nil
}

func (sp *ServiceProvider) Store(ctx context.Context) (storage.Store, error) {
	if sp.store == nil {
		var (
			s   storage.Store
			err error
		)
		switch sp.env.StorageDriver {
		case "sqlite":
			s, err = sqlite.Open(ctx, sp.env.SQLitePath)
		case "postgres":
			s, err = postgres.Open(ctx, sp.env.PostgresDSN)
		default:
			s = memory.New()
		}
		if err != nil {
			return nil, fmt.Errorf("open %s storage: %w", sp.env.StorageDriver, err)
		}
		if err := storage.Seed(ctx, s, sp.env.StartingCash); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("seed wallet: %w", err)
		}
		sp.store = s
	}
	return sp.store, nil
}

func (sp *ServiceProvider) Bus() *event.Bus {
	if sp.bus == nil {
		sp.bus = event.NewBus()
		log := sp.Logger()
		sp.bus.Subscribe(func(e event.Event) {
			log.Debug().Str("event", string(e.Name)).Interface("payload", e.Payload).Msg("session event")
		})
	}
	return sp.bus
}

func (sp *ServiceProvider) Hub() *ws.Hub {
	if sp.hub == nil {
		sp.hub = ws.NewHub(sp.Logger().With().Str("component", "ws").Logger())
		sp.Bus().Subscribe(sp.hub.Emit)
	}
	return sp.hub
}

func (sp *ServiceProvider) Runner(ctx context.Context) (*game.Runner, error) {
	if sp.runner == nil {
		set, err := sp.Settings()
		if err != nil {
			return nil, err
		}
		store, err := sp.Store(ctx)
		if err != nil {
			return nil, err
		}
		var rng wheel.RandomSource
		if sp.env.RNGSeed != 0 {
			rng = wheel.NewSeededRNG(sp.env.RNGSeed)
		}
		revive := set.Revive
		sp.runner = game.NewRunner(game.Deps{
			Wheels:    set.Wheels,
			Spin:      set.Spin,
			Revive:    &revive,
			RNG:       rng,
			Wallet:    store,
			Inventory: store,
			Sink:      sp.Bus(),
			Logger:    sp.Logger().With().Str("component", "session").Logger(),
		})
	}
	return sp.runner, nil
}

func (sp *ServiceProvider) Service(ctx context.Context) (*service.Service, error) {
	if sp.serv == nil {
		runner, err := sp.Runner(ctx)
		if err != nil {
			return nil, err
		}
		store, err := sp.Store(ctx)
		if err != nil {
			return nil, err
		}
		set, err := sp.Settings()
		if err != nil {
			return nil, err
		}
		sp.serv = service.New(service.Deps{
			Runner: runner,
			Store:  store,
			Bus:    sp.Bus(),
			AdWait: set.Revive.AdWatchDuration,
			Logger: sp.Logger().With().Str("component", "service").Logger(),
		})
	}
	return sp.serv, nil
}

// Reloader re-applies content edits to the running session.
func (sp *ServiceProvider) Reloader(ctx context.Context) (*config.Reloader, error) {
	if sp.reloader == nil {
		serv, err := sp.Service(ctx)
		if err != nil {
			return nil, err
		}
		log := sp.Logger().With().Str("component", "content").Logger()
		sp.reloader = config.NewReloader(sp.Loader(), sp.env.Profile, config.Overrides{}, log, func(s config.Settings) {
			if err := serv.ApplySettings(ctx, s); err != nil {
				log.Error().Err(err).Msg("apply reloaded content")
			}
		})
	}
	return sp.reloader, nil
}

func (sp *ServiceProvider) Handler(ctx context.Context) (*httpapi.Handler, error) {
	if sp.handler == nil {
		serv, err := sp.Service(ctx)
		if err != nil {
			return nil, err
		}
		sp.handler = httpapi.NewHandler(httpapi.HandlerDeps{
			Serv:   serv,
			Logger: sp.Logger().With().Str("component", "http").Logger(),
		})
	}
	return sp.handler, nil
}

func (sp *ServiceProvider) Router(ctx context.Context) (http.Handler, error) {
	if sp.router == nil {
		h, err := sp.Handler(ctx)
		if err != nil {
			return nil, err
		}
		sp.router = httpapi.NewRouter(h, sp.Hub(), sp.Logger())
	}
	return sp.router, nil
}

func (sp *ServiceProvider) GRPCServer(ctx context.Context) (*grpcapi.Server, error) {
	if sp.grpcSrv == nil {
		serv, err := sp.Service(ctx)
		if err != nil {
			return nil, err
		}
		sp.grpcSrv = grpcapi.NewServer(serv, sp.Logger().With().Str("component", "grpc").Logger())
	}
	return sp.grpcSrv, nil
}

// Close releases what the provider opened.
func (sp *ServiceProvider) Close() error {
	if sp.runner != nil {
		sp.runner.Stop()
	}
	if sp.store != nil {
		return sp.store.Close()
	}
	return nil
}
