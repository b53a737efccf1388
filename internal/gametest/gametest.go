// Package gametest provides wheels and random sources for tests that drive a
// full session.
package gametest

import (
	"sync"

	"github.com/xtding233/riskwheel/internal/reward"
	"github.com/xtding233/riskwheel/internal/wheel"
	"github.com/xtding233/riskwheel/internal/zone"
)

// Slot indices of the bronze wheel returned by Wheels.
const (
	SlotBomb = 0
	SlotCash = 1
)

// CashPerSpin is what SlotCash pays.
const CashPerSpin = 50

// Wheels returns a set with a two-slice bronze wheel (bomb, 50 cash), a
// silver wheel paying 5 gold and a golden wheel paying one chest.
func Wheels() wheel.Set {
	return wheel.Set{
		Bronze: []wheel.Wheel{{Name: "bronze-test", Tier: zone.Bronze, Slices: []wheel.Slice{
			{Weight: 1, Bomb: true},
			{Weight: 1, Reward: reward.Spec{Kind: reward.Cash, Name: "Cash", Amount: CashPerSpin}},
		}}},
		Silver: []wheel.Wheel{{Name: "silver-test", Tier: zone.Safe, Slices: []wheel.Slice{
			{Weight: 1, Reward: reward.Spec{Kind: reward.Gold, Name: "Gold", Amount: 5}},
		}}},
		Golden: []wheel.Wheel{{Name: "golden-test", Tier: zone.Super, Slices: []wheel.Slice{
			{Weight: 1, Reward: reward.Spec{Kind: reward.Chest, Name: "Chest", Amount: 1}},
		}}},
	}
}

// Script is a RandomSource that replays integer draws. Once exhausted it
// keeps returning lo. Safe for use from the session goroutine while a test
// appends more draws.
type Script struct {
	mu   sync.Mutex
	ints []int
}

func NewScript(draws ...int) *Script { return &Script{ints: draws} }

// Push queues more draws.
func (s *Script) Push(draws ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ints = append(s.ints, draws...)
}

func (s *Script) UniformInt(lo, hi int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ints) == 0 {
		return lo
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v < lo || v > hi {
		return lo
	}
	return v
}

func (s *Script) UniformFloat(lo, _ float64) float64 { return lo }
