package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/xtding233/riskwheel/internal/game"
	"github.com/xtding233/riskwheel/internal/gametest"
	"github.com/xtding233/riskwheel/internal/reward"
	"github.com/xtding233/riskwheel/internal/wheel"
)

func TestCalcStats(t *testing.T) {
	s := calcStats([]int{4, 1, 3, 2})
	if s.Mean != 2.5 || s.Min != 1 || s.Max != 4 {
		t.Fatalf("got %+v", s)
	}
	if math.Abs(s.Var-1.25) > 1e-9 || math.Abs(s.P50-2.5) > 1e-9 {
		t.Fatalf("var=%f p50=%f", s.Var, s.P50)
	}
	if (calcStats(nil) != Stats{}) {
		t.Fatal("empty samples should give zero stats")
	}
	if one := calcStats([]int{7}); one.P99 != 7 || one.StdDev != 0 {
		t.Fatalf("single sample %+v", one)
	}
}

func TestRunAllCollect(t *testing.T) {
	const trials = 3
	rng := gametest.NewScript()
	for i := 0; i < trials*4; i++ {
		rng.Push(gametest.SlotCash)
	}
	rep, err := run(t, rng, Params{Trials: trials, TargetZone: 5})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Collected != trials || rep.Forfeited != 0 || rep.CollectRate != 1 {
		t.Fatalf("got %+v", rep)
	}
	if rep.FinalZone.Mean != 5 || rep.Spins.Mean != 4 || rep.Rewards.Mean != 4 {
		t.Fatalf("zone=%+v spins=%+v rewards=%+v", rep.FinalZone, rep.Spins, rep.Rewards)
	}
	if rep.Cash.Mean != 4*gametest.CashPerSpin {
		t.Fatalf("cash %+v", rep.Cash)
	}
	if rep.Inventory[reward.KeyCash] != trials*4*gametest.CashPerSpin {
		t.Fatalf("inventory %v", rep.Inventory)
	}
}

func TestRunAllForfeit(t *testing.T) {
	// an empty script always lands on the bomb
	rep, err := run(t, gametest.NewScript(), Params{Trials: 4, MaxRevives: 2})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Forfeited != 4 || rep.Collected != 0 || rep.CollectRate != 0 {
		t.Fatalf("got %+v", rep)
	}
	if rep.BombsByTier["bronze"] != 12 || rep.Revives != 8 {
		t.Fatalf("bombs=%v revives=%d", rep.BombsByTier, rep.Revives)
	}
	if rep.FinalZone.Max != 1 || len(rep.Inventory) != 0 {
		t.Fatalf("zone=%+v inventory=%v", rep.FinalZone, rep.Inventory)
	}
}

func TestRunAbandonsAfterMaxSpins(t *testing.T) {
	rng := gametest.NewScript(gametest.SlotCash, gametest.SlotCash)
	rep, err := run(t, rng, Params{Trials: 1, TargetZone: 30, MaxSpins: 2})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Abandoned != 1 || rep.FinalZone.Mean != 3 {
		t.Fatalf("got %+v", rep)
	}
}

func TestRunSeededIsRepeatable(t *testing.T) {
	p := Params{Wheels: gametest.Wheels(), Trials: 200, Seed: 42, TargetZone: 5, MaxRevives: 1}
	a, err := Run(context.Background(), p, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Run(context.Background(), p, zerolog.Nop())
	if a.Collected != b.Collected || a.FinalZone != b.FinalZone {
		t.Fatalf("seeded runs differ: %+v vs %+v", a, b)
	}
	if a.Collected+a.Forfeited+a.Abandoned != p.Trials {
		t.Fatalf("outcomes do not add up: %+v", a)
	}
}

func TestRunErrors(t *testing.T) {
	if _, err := Run(context.Background(), Params{}, zerolog.Nop()); !errors.Is(err, ErrNoTrials) {
		t.Fatalf("got %v", err)
	}
	if _, err := Run(context.Background(), Params{Trials: 1}, zerolog.Nop()); !errors.Is(err, game.ErrCannotSpin) {
		t.Fatalf("no wheels: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, Params{Wheels: gametest.Wheels(), Trials: 1}, zerolog.Nop()); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled: %v", err)
	}
}

// run plays with a scripted source by swapping it in for the seeded one.
func run(t *testing.T, rng wheel.RandomSource, p Params) (Report, error) {
	t.Helper()
	p.Wheels = gametest.Wheels()
	p.Mode = wheel.Uniform
	return runWith(context.Background(), p, rng, zerolog.Nop())
}
