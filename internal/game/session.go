package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xtding233/riskwheel/internal/event"
	"github.com/xtding233/riskwheel/internal/reward"
	"github.com/xtding233/riskwheel/internal/wheel"
	"github.com/xtding233/riskwheel/internal/zone"
)

// SpinSettings tunes the spin lifecycle.
type SpinSettings struct {
	Delay             time.Duration // between Spin and resolution
	Mode              wheel.Mode
	MinExtraRotations int // animation only
	MaxExtraRotations int
}

// Deps is everything a Session is built from.
type Deps struct {
	Wheels    wheel.Set
	Spin      SpinSettings
	Revive    *ReviveSettings // nil falls back to DefaultReviveCost
	RNG       wheel.RandomSource
	Wallet    Wallet
	Inventory Inventory
	Sink      event.Sink
	Scheduler Scheduler // nil resolves spins inline
	Logger    zerolog.Logger
}

// Session owns one player's progression loop. It is not safe for concurrent
// use; wrap it in a Runner to drive it from several goroutines.
type Session struct {
	id        string
	state     SessionState
	spinState SpinState
	spinSeq   int

	spinCfg     SpinSettings
	zone        *zone.Progression
	selector    *wheel.Selector
	ledger      *reward.Ledger
	distributor *reward.Distributor
	bomb        *BombHandler
	inventory   Inventory
	sink        event.Sink
	sched       Scheduler
	log         zerolog.Logger
}

// NewSession wires a session in the Menu state. Call StartGame to play.
func NewSession(d Deps) *Session {
	if d.Sink == nil {
		d.Sink = event.Discard{}
	}
	if d.Scheduler == nil {
		d.Scheduler = ImmediateScheduler{}
	}
	log := d.Logger
	s := &Session{
		state:       Menu,
		spinState:   Idle,
		spinCfg:     d.Spin,
		zone:        zone.NewProgression(d.Sink, log.With().Str("component", "zone").Logger()),
		selector:    wheel.NewSelector(d.Wheels, d.RNG, log.With().Str("component", "wheel").Logger()),
		ledger:      reward.NewLedger(d.Sink, log.With().Str("component", "ledger").Logger()),
		distributor: reward.NewDistributor(d.Sink, log.With().Str("component", "distributor").Logger()),
		inventory:   d.Inventory,
		sink:        d.Sink,
		sched:       d.Scheduler,
		log:         log.With().Str("component", "session").Logger(),
	}
	s.bomb = &BombHandler{
		s:      s,
		cfg:    d.Revive,
		wallet: d.Wallet,
		log:    log.With().Str("component", "bomb").Logger(),
	}
	return s
}

// ID identifies the current run. It changes on every StartGame.
func (s *Session) ID() string { return s.id }

func (s *Session) State() SessionState  { return s.state }
func (s *Session) SpinState() SpinState { return s.spinState }

// Zone exposes zone progression.
func (s *Session) Zone() *zone.Progression { return s.zone }

// Ledger exposes the session's rewards.
func (s *Session) Ledger() *reward.Ledger { return s.ledger }

// Bomb exposes the bomb decision handler.
func (s *Session) Bomb() *BombHandler { return s.bomb }

// Selector exposes wheel selection.
func (s *Session) Selector() *wheel.Selector { return s.selector }

func (s *Session) setState(st SessionState) {
	if s.state == st {
		return
	}
	s.state = st
	s.sink.Emit(event.Event{Name: event.SessionStateChanged, Payload: st})
	s.log.Info().Stringer("state", st).Msg("state changed")
}

// StartGame begins a fresh run on zone 1.
func (s *Session) StartGame() {
	s.id = uuid.NewString()
	s.ledger.Clear()
	s.zone.Reset()
	if _, err := s.selector.LoadForZone(1); err != nil {
		s.log.Error().Err(err).Msg("no wheel for zone 1")
	}
	s.bomb.ResetReviveCounter()
	s.bomb.pending = false
	s.spinState = Idle
	s.setState(Playing)
	s.log.Info().Str("session", s.id).Msg("game started")
}

// RestartGame is StartGame.
func (s *Session) RestartGame() { s.StartGame() }

// CanLeave reports whether the player may collect and exit: nothing in
// flight, playing, and standing on a safe or super zone.
func (s *Session) CanLeave() bool {
	if s.spinState != Idle || s.state != Playing {
		return false
	}
	t := s.zone.Tier()
	return t == zone.Safe || t == zone.Super
}

// LeaveGame collects the ledger into the inventory and starts over.
// Invalid rewards are skipped. If persisting fails the session is left as it
// was and the error is returned.
func (s *Session) LeaveGame(ctx context.Context) error {
	if !s.CanLeave() {
		s.log.Warn().
			Stringer("spin_state", s.spinState).
			Stringer("state", s.state).
			Int("zone", s.zone.CurrentZone()).
			Msg("cannot leave right now")
		return ErrCannotLeave
	}

	records := s.ledger.Snapshot()
	if len(records) > 0 {
		claimed, err := s.distributor.ClaimAll(records, func(rs []reward.Record) error {
			return s.persist(ctx, rs)
		})
		if err != nil {
			return err
		}
		s.sink.Emit(event.Event{Name: event.SessionCompleted, Payload: records})
		s.log.Info().Int("rewards", len(records)).Int("claimed", len(claimed)).Msg("player left with rewards")
		s.setState(Victory)
	}

	s.StartGame()
	return nil
}

// InventoryUpdate is the payload of inventory-updated.
type InventoryUpdate struct {
	Key   string `json:"key"`
	Total int    `json:"total"`
}

func (s *Session) persist(ctx context.Context, records []reward.Record) error {
	var deltas []Delta
	index := map[string]int{}
	for _, r := range records {
		key, ok := r.InventoryKey()
		if !ok {
			s.log.Debug().Str("reward", r.DisplayText()).Msg("reward has no inventory key")
			continue
		}
		if i, seen := index[key]; seen {
			deltas[i].Amount += r.Amount
			continue
		}
		index[key] = len(deltas)
		deltas = append(deltas, Delta{Key: key, Amount: r.Amount})
	}
	if len(deltas) == 0 {
		return nil
	}
	if s.inventory == nil {
		s.log.Warn().Int("keys", len(deltas)).Msg("no inventory configured; rewards not saved")
		return nil
	}

	totals := make(map[string]int, len(deltas))
	if b, ok := s.inventory.(BatchInventory); ok {
		t, err := b.IncrementAll(ctx, deltas)
		if err != nil {
			return fmt.Errorf("save rewards: %w", err)
		}
		totals = t
	} else {
		for _, d := range deltas {
			total, err := s.inventory.Increment(ctx, d.Key, d.Amount)
			if err != nil {
				return fmt.Errorf("save %s: %w", d.Key, err)
			}
			totals[d.Key] = total
		}
	}

	for _, d := range deltas {
		s.sink.Emit(event.Event{Name: event.InventoryUpdated, Payload: InventoryUpdate{Key: d.Key, Total: totals[d.Key]}})
		s.log.Debug().Str("key", d.Key).Int("amount", d.Amount).Int("total", totals[d.Key]).Msg("inventory updated")
	}
	return nil
}

// ReplaceWheels installs a new wheel set. When no spin is in flight the
// current zone's wheel is reloaded from it right away.
func (s *Session) ReplaceWheels(set wheel.Set) {
	s.selector.SetWheels(set)
	if s.state == Playing && s.spinState == Idle {
		if _, err := s.selector.LoadForZone(s.zone.CurrentZone()); err != nil {
			s.log.Error().Err(err).Msg("reload wheel after config change")
		}
	}
	s.log.Info().Msg("wheels replaced")
}

// View is a read-only snapshot of the session for clients.
type View struct {
	SessionID       string          `json:"session_id"`
	State           SessionState    `json:"state"`
	SpinState       SpinState       `json:"spin_state"`
	Zone            int             `json:"zone"`
	Tier            string          `json:"tier"`
	Wheel           string          `json:"wheel,omitempty"`
	Slices          []string        `json:"slices,omitempty"`
	Rewards         []reward.Record `json:"rewards"`
	PendingDecision bool            `json:"pending_decision"`
	ReviveCount     int             `json:"revive_count"`
	ReviveCost      int             `json:"revive_cost"`
	CanSpin         bool            `json:"can_spin"`
	CanLeave        bool            `json:"can_leave"`
}

// Snapshot captures the current view.
func (s *Session) Snapshot() View {
	v := View{
		SessionID:       s.id,
		State:           s.state,
		SpinState:       s.spinState,
		Zone:            s.zone.CurrentZone(),
		Tier:            s.zone.Tier().String(),
		Rewards:         s.ledger.Snapshot(),
		PendingDecision: s.bomb.Pending(),
		ReviveCount:     s.bomb.ReviveCount(),
		ReviveCost:      s.bomb.CurrentReviveCost(),
		CanSpin:         s.CanSpin(),
		CanLeave:        s.CanLeave(),
	}
	if w, ok := s.selector.Current(); ok {
		v.Wheel = w.Name
		for _, sl := range w.Slices {
			v.Slices = append(v.Slices, sl.Name())
		}
	}
	if v.Rewards == nil {
		v.Rewards = []reward.Record{}
	}
	return v
}

// GiveUp, MoneyRevive and AdsRevive forward to the bomb handler.

func (s *Session) GiveUp() ([]reward.Record, error) { return s.bomb.GiveUp() }

func (s *Session) MoneyRevive(ctx context.Context, requestedCost int) (bool, error) {
	return s.bomb.MoneyRevive(ctx, requestedCost)
}

func (s *Session) AdsRevive() error { return s.bomb.AdsRevive() }
