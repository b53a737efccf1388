// Package service is the transport-neutral API over one game session. It
// serializes calls through a game.Runner, records run history and traces
// every operation.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xtding233/riskwheel/internal/config"
	"github.com/xtding233/riskwheel/internal/event"
	"github.com/xtding233/riskwheel/internal/game"
	"github.com/xtding233/riskwheel/internal/reward"
	"github.com/xtding233/riskwheel/internal/storage"
)

// Deps wires a Service.
type Deps struct {
	Runner *game.Runner
	Store  storage.Store
	Bus    *event.Bus
	AdWait time.Duration // simulated rewarded ad
	Logger zerolog.Logger
	Now    func() time.Time
}

// Service drives the session on behalf of HTTP, gRPC and websocket clients.
type Service struct {
	runner *game.Runner
	store  storage.Store
	bus    *event.Bus
	adWait time.Duration
	log    zerolog.Logger
	now    func() time.Time
	tracer trace.Tracer
}

func New(d Deps) *Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{
		runner: d.Runner,
		store:  d.Store,
		bus:    d.Bus,
		adWait: d.AdWait,
		log:    d.Logger,
		now:    d.Now,
		tracer: otel.Tracer("github.com/xtding233/riskwheel/internal/service"),
	}
}

// Subscribe forwards session events to fn until the returned func is called.
func (s *Service) Subscribe(fn func(event.Event)) func() { return s.bus.Subscribe(fn) }

func (s *Service) span(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "riskwheel."+name)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// do runs fn on the session and returns the resulting view.
func (s *Service) do(ctx context.Context, name string, fn func(*game.Session) error) (v game.View, err error) {
	ctx, span := s.span(ctx, name)
	defer func() { finish(span, err) }()

	err = s.runner.Do(ctx, func(sess *game.Session) error {
		ferr := fn(sess)
		v = sess.Snapshot()
		return ferr
	})
	span.SetAttributes(
		attribute.String("session.id", v.SessionID),
		attribute.Int("session.zone", v.Zone),
		attribute.String("session.state", v.State.String()),
	)
	return v, err
}

// State returns the current view.
func (s *Service) State(ctx context.Context) (game.View, error) {
	return s.do(ctx, "State", func(*game.Session) error { return nil })
}

// Start begins a new run.
func (s *Service) Start(ctx context.Context) (game.View, error) {
	return s.do(ctx, "Start", func(sess *game.Session) error {
		sess.StartGame()
		return nil
	})
}

// Spin starts a spin. The result arrives asynchronously as events.
func (s *Service) Spin(ctx context.Context) (game.View, error) {
	return s.do(ctx, "Spin", func(sess *game.Session) error { return sess.Spin() })
}

// Leave collects the ledger and records the run.
func (s *Service) Leave(ctx context.Context) (game.View, error) {
	return s.do(ctx, "Leave", func(sess *game.Session) error {
		res := storage.Result{
			SessionID: sess.ID(),
			Outcome:   storage.Collected,
			Zone:      sess.Zone().CurrentZone(),
			Rewards:   sess.Ledger().Len(),
		}
		if err := sess.LeaveGame(ctx); err != nil {
			return err
		}
		if res.Rewards > 0 {
			s.record(ctx, res)
		}
		return nil
	})
}

// GiveUp forfeits the run after a bomb and returns what was lost.
func (s *Service) GiveUp(ctx context.Context) ([]reward.Record, game.View, error) {
	var lost []reward.Record
	v, err := s.do(ctx, "GiveUp", func(sess *game.Session) error {
		res := storage.Result{
			SessionID: sess.ID(),
			Outcome:   storage.Forfeited,
			Zone:      sess.Zone().CurrentZone(),
			Rewards:   sess.Ledger().Len(),
		}
		var err error
		if lost, err = sess.GiveUp(); err != nil {
			return err
		}
		s.record(ctx, res)
		return nil
	})
	return lost, v, err
}

// MoneyRevive pays the current revive cost from the wallet. ok is false when
// the wallet is short.
func (s *Service) MoneyRevive(ctx context.Context, requestedCost int) (ok bool, v game.View, err error) {
	v, err = s.do(ctx, "MoneyRevive", func(sess *game.Session) error {
		var rerr error
		ok, rerr = sess.MoneyRevive(ctx, requestedCost)
		return rerr
	})
	return ok, v, err
}

// AdsRevive waits out the simulated ad, then revives for free.
func (s *Service) AdsRevive(ctx context.Context) (game.View, error) {
	v, err := s.State(ctx)
	if err != nil {
		return v, err
	}
	if !v.PendingDecision {
		return v, game.ErrNoPendingDecision
	}
	if s.adWait > 0 {
		t := time.NewTimer(s.adWait)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return v, ctx.Err()
		}
	}
	return s.do(ctx, "AdsRevive", func(sess *game.Session) error { return sess.AdsRevive() })
}

// Inventory returns the persisted counters.
func (s *Service) Inventory(ctx context.Context) (inv map[string]int, err error) {
	ctx, span := s.span(ctx, "Inventory")
	defer func() { finish(span, err) }()
	return s.store.Load(ctx)
}

// Balance returns the wallet's cash.
func (s *Service) Balance(ctx context.Context) (bal int, err error) {
	ctx, span := s.span(ctx, "Balance")
	defer func() { finish(span, err) }()
	return s.store.Balance(ctx)
}

// ClearInventory wipes every persisted counter, wallet included.
func (s *Service) ClearInventory(ctx context.Context) (err error) {
	ctx, span := s.span(ctx, "ClearInventory")
	defer func() { finish(span, err) }()
	if err := s.store.ClearAll(ctx); err != nil {
		return err
	}
	s.log.Warn().Msg("inventory cleared")
	return nil
}

// History lists finished runs, newest first.
func (s *Service) History(ctx context.Context, limit int) (res []storage.Result, err error) {
	ctx, span := s.span(ctx, "History")
	defer func() { finish(span, err) }()
	return s.store.ListResults(ctx, limit)
}

// ApplySettings installs reloaded content on the session.
func (s *Service) ApplySettings(ctx context.Context, set config.Settings) error {
	_, err := s.do(ctx, "ApplySettings", func(sess *game.Session) error {
		sess.ReplaceWheels(set.Wheels)
		return nil
	})
	return err
}

func (s *Service) record(ctx context.Context, r storage.Result) {
	r.FinishedAt = s.now().UTC()
	if err := s.store.RecordResult(ctx, r); err != nil {
		s.log.Error().Err(err).Str("session", r.SessionID).Msg("record result")
	}
}

// ErrBadRequest marks invalid client input.
var ErrBadRequest = errors.New("bad request")

// BadRequest wraps a client input problem.
func BadRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}
