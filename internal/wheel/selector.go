package wheel

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/xtding233/riskwheel/internal/zone"
)

var (
	ErrNoWheel       = errors.New("no wheel configured for tier")
	ErrNoSlices      = errors.New("wheel has no slices")
	ErrInvalidWeight = errors.New("invalid slice weight; must be finite and >= 0")
)

// Selector owns the configured wheel set and the wheel currently in play.
// Not safe for concurrent use.
type Selector struct {
	set     Set
	rng     RandomSource
	log     zerolog.Logger
	current *Wheel
}

// NewSelector creates a selector. A nil rng falls back to DefaultRNG.
func NewSelector(set Set, rng RandomSource, log zerolog.Logger) *Selector {
	if rng == nil {
		rng = DefaultRNG()
	}
	return &Selector{set: set, rng: rng, log: log}
}

// SetWheels swaps the configured wheels. The current wheel stays until the next load.
func (s *Selector) SetWheels(set Set) { s.set = set }

// Wheels returns the configured wheel set.
func (s *Selector) Wheels() Set { return s.set }

// RNG exposes the selector's random source so reward instantiation draws from
// the same stream.
func (s *Selector) RNG() RandomSource { return s.rng }

// LoadForZone makes the wheel for z current. When the tier has no wheels
// configured, nothing is loaded and ErrNoWheel is returned.
func (s *Selector) LoadForZone(z int) (Wheel, error) {
	tier := zone.TierOf(z)
	wheels := s.set.ForTier(tier)
	if len(wheels) == 0 {
		s.current = nil
		s.log.Error().Str("tier", tier.String()).Int("zone", z).Msg("no wheels configured")
		return Wheel{}, fmt.Errorf("%w: %s", ErrNoWheel, tier)
	}
	idx := BucketIndex(tier, z, len(wheels))
	w := wheels[idx]
	s.current = &w
	s.log.Debug().
		Str("tier", tier.String()).
		Int("zone", z).
		Int("index", idx).
		Str("wheel", w.Name).
		Msg("wheel loaded")
	return w, nil
}

// Current returns the loaded wheel, if any.
func (s *Selector) Current() (Wheel, bool) {
	if s.current == nil {
		return Wheel{}, false
	}
	return *s.current, true
}

// PickSlice draws one slice from w and returns it with its index.
//
// Uniform draws an index directly. Weighted draws r in [0, total) and returns
// the first slice whose cumulative weight reaches r; when no slice qualifies
// (r on the total edge, or a zero total) the first slice is returned.
func (s *Selector) PickSlice(w Wheel, mode Mode) (Slice, int, error) {
	if len(w.Slices) == 0 {
		s.log.Error().Str("wheel", w.Name).Msg("no slices available")
		return Slice{}, -1, ErrNoSlices
	}

	if mode == Uniform {
		i := s.rng.UniformInt(0, len(w.Slices)-1)
		return w.Slices[i], i, nil
	}

	if err := validateWeights(w); err != nil {
		return Slice{}, -1, err
	}
	total := w.TotalWeight()
	r := s.rng.UniformFloat(0, total)
	var cum float64
	for i, sl := range w.Slices {
		cum += sl.Weight
		if cum >= r && total > 0 {
			return sl, i, nil
		}
	}
	return w.Slices[0], 0, nil
}

func validateWeights(w Wheel) error {
	for i, sl := range w.Slices {
		if math.IsNaN(sl.Weight) || math.IsInf(sl.Weight, 0) || sl.Weight < 0 {
			return fmt.Errorf("%w: %s slice %d", ErrInvalidWeight, w.Name, i)
		}
	}
	return nil
}
