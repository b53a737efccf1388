// Package sim plays many sessions back to back with a fixed strategy and
// reports how far runs get and what they bring home.
package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/xtding233/riskwheel/internal/game"
	"github.com/xtding233/riskwheel/internal/reward"
	"github.com/xtding233/riskwheel/internal/storage/memory"
	"github.com/xtding233/riskwheel/internal/wheel"
)

var ErrNoTrials = errors.New("trials must be > 0")

// Params describes one simulation.
type Params struct {
	Wheels wheel.Set
	Mode   wheel.Mode
	Revive game.ReviveSettings

	Trials int
	Seed   uint64 // 0 uses the crypto source

	// Strategy: leave at the first leavable zone >= TargetZone; revive with
	// ads up to MaxRevives times, then give up. A run still going after
	// MaxSpins spins is abandoned.
	TargetZone int
	MaxRevives int
	MaxSpins   int
}

// Report aggregates a simulation.
type Report struct {
	Trials    int `json:"trials"`
	Collected int `json:"collected"`
	Forfeited int `json:"forfeited"`
	Abandoned int `json:"abandoned"`

	CollectRate float64 `json:"collect_rate"`

	// Zone a run ended on, whatever the outcome.
	FinalZone Stats `json:"final_zone"`
	// Spins taken per run.
	Spins Stats `json:"spins"`
	// Ledger rewards per collected run.
	Rewards Stats `json:"rewards"`
	// Cash per collected run.
	Cash Stats `json:"cash"`

	BombsByTier map[string]int `json:"bombs_by_tier"`
	Revives     int            `json:"revives"`

	// Totals persisted across all collected runs, by inventory key.
	Inventory map[string]int `json:"inventory"`
}

type trial struct {
	outcome string
	zone    int
	spins   int
	rewards int
	cash    int
	revives int
	bombs   map[string]int
}

const defaultMaxSpins = 1000

// Run plays p.Trials sessions. Spins resolve inline, so the run is CPU bound
// and deterministic for a fixed non-zero seed.
func Run(ctx context.Context, p Params, log zerolog.Logger) (Report, error) {
	if p.Trials <= 0 {
		return Report{}, ErrNoTrials
	}
	rng := wheel.DefaultRNG()
	if p.Seed != 0 {
		rng = wheel.NewSeededRNG(p.Seed)
	}
	return runWith(ctx, p, rng, log)
}

func runWith(ctx context.Context, p Params, rng wheel.RandomSource, log zerolog.Logger) (Report, error) {
	if p.MaxSpins <= 0 {
		p.MaxSpins = defaultMaxSpins
	}
	inv := memory.New()
	revive := p.Revive

	rep := Report{Trials: p.Trials, BombsByTier: map[string]int{}}
	var zones, spins, rewards, cash []int
	for i := 0; i < p.Trials; i++ {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		s := game.NewSession(game.Deps{
			Wheels:    p.Wheels,
			Spin:      game.SpinSettings{Mode: p.Mode},
			Revive:    &revive,
			RNG:       rng,
			Wallet:    inv,
			Inventory: inv,
			Scheduler: game.ImmediateScheduler{},
			Logger:    zerolog.Nop(),
		})
		t, err := play(ctx, s, p)
		if err != nil {
			return Report{}, fmt.Errorf("trial %d: %w", i, err)
		}

		switch t.outcome {
		case "collected":
			rep.Collected++
			rewards = append(rewards, t.rewards)
			cash = append(cash, t.cash)
		case "forfeited":
			rep.Forfeited++
		default:
			rep.Abandoned++
		}
		zones = append(zones, t.zone)
		spins = append(spins, t.spins)
		rep.Revives += t.revives
		for tier, n := range t.bombs {
			rep.BombsByTier[tier] += n
		}
	}

	rep.CollectRate = float64(rep.Collected) / float64(p.Trials)
	rep.FinalZone = calcStats(zones)
	rep.Spins = calcStats(spins)
	rep.Rewards = calcStats(rewards)
	rep.Cash = calcStats(cash)

	var err error
	if rep.Inventory, err = inv.Load(ctx); err != nil {
		return Report{}, err
	}
	log.Info().
		Int("trials", rep.Trials).
		Float64("collect_rate", rep.CollectRate).
		Float64("mean_zone", rep.FinalZone.Mean).
		Msg("simulation finished")
	return rep, nil
}

func play(ctx context.Context, s *game.Session, p Params) (trial, error) {
	t := trial{bombs: map[string]int{}}
	s.StartGame()
	for t.spins < p.MaxSpins {
		z := s.Zone().CurrentZone()
		if s.CanLeave() && z >= p.TargetZone {
			t.zone = z
			t.rewards, t.cash = tally(s.Ledger().Snapshot())
			if err := s.LeaveGame(ctx); err != nil {
				return t, err
			}
			t.outcome = "collected"
			return t, nil
		}
		if err := s.Spin(); err != nil {
			// no wheel for this zone
			t.zone = z
			return t, err
		}
		t.spins++
		if !s.Bomb().Pending() {
			continue
		}
		t.bombs[s.Zone().Tier().String()]++
		if t.revives < p.MaxRevives {
			if err := s.AdsRevive(); err != nil {
				return t, err
			}
			t.revives++
			continue
		}
		t.zone = s.Zone().CurrentZone()
		if _, err := s.GiveUp(); err != nil {
			return t, err
		}
		t.outcome = "forfeited"
		return t, nil
	}
	t.zone = s.Zone().CurrentZone()
	t.outcome = "abandoned"
	return t, nil
}

func tally(recs []reward.Record) (count, cash int) {
	for _, r := range recs {
		count++
		if r.Kind == reward.Cash {
			cash += r.Amount
		}
	}
	return count, cash
}
