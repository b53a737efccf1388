// Package wheel picks the wheel for a zone and draws slices from it.
package wheel

import (
	"fmt"
	"strings"

	"github.com/xtding233/riskwheel/internal/reward"
	"github.com/xtding233/riskwheel/internal/zone"
)

// Slice is one outcome on a wheel.
type Slice struct {
	Weight float64
	Bomb   bool
	Reward reward.Spec // unused when Bomb
}

// Name is what the slice shows on the wheel.
func (s Slice) Name() string {
	if s.Bomb {
		return "Bomb"
	}
	if s.Reward.Name == "" {
		return "Empty"
	}
	return s.Reward.Name
}

// Wheel is an ordered set of slices for one tier.
type Wheel struct {
	Name   string
	Tier   zone.Tier
	Slices []Slice
}

// HasBomb reports whether any slice is a bomb.
func (w Wheel) HasBomb() bool {
	for _, s := range w.Slices {
		if s.Bomb {
			return true
		}
	}
	return false
}

// TotalWeight sums slice weights.
func (w Wheel) TotalWeight() float64 {
	var t float64
	for _, s := range w.Slices {
		t += s.Weight
	}
	return t
}

// Set holds the configured wheels of every tier, in unlock order.
type Set struct {
	Bronze []Wheel
	Silver []Wheel
	Golden []Wheel
}

// ForTier returns the wheels configured for t.
func (s Set) ForTier(t zone.Tier) []Wheel {
	switch t {
	case zone.Super:
		return s.Golden
	case zone.Safe:
		return s.Silver
	default:
		return s.Bronze
	}
}

// Mode selects how a slice is drawn.
type Mode int

const (
	Uniform Mode = iota
	Weighted
)

func (m Mode) String() string {
	if m == Weighted {
		return "weighted"
	}
	return "uniform"
}

// ParseMode accepts "", "uniform" and "weighted".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "uniform":
		return Uniform, nil
	case "weighted":
		return Weighted, nil
	default:
		return 0, fmt.Errorf("unknown selection mode %q", s)
	}
}

// BucketIndex maps a zone to a wheel index within its tier's list of count wheels.
// Bronze has one wheel per zone; silver unlocks a new wheel every 5 zones and
// golden every 30. Indices clamp at the last configured wheel.
func BucketIndex(t zone.Tier, z, count int) int {
	var idx int
	switch t {
	case zone.Super:
		idx = z/zone.SuperEvery - 1
	case zone.Safe:
		idx = z/zone.SafeEvery - 1
	default:
		idx = z - 1
	}
	if idx > count-1 {
		idx = count - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}
