// resolve.go
package config

import (
	"fmt"
	"time"

	"github.com/xtding233/riskwheel/internal/game"
	"github.com/xtding233/riskwheel/internal/reward"
	"github.com/xtding233/riskwheel/internal/wheel"
	"github.com/xtding233/riskwheel/internal/zone"
)

// Defaults applied when neither the default file nor the profile sets a value.
const (
	DefaultSpinDelay        = 2 * time.Second
	DefaultReviveMultiplier = 2.0
	DefaultAdWatchDuration  = 3 * time.Second
)

// Overrides carries per-run tweaks such as simulation flags. Nil fields keep
// the configured value.
type Overrides struct {
	Mode             *string
	Delay            *time.Duration
	ReviveBase       *int
	ReviveMultiplier *float64
}

// Settings is the validated, normalized content the game runs on.
type Settings struct {
	Version string
	Wheels  wheel.Set
	Spin    game.SpinSettings
	Revive  game.ReviveSettings
}

type Resolver interface {
	// Returns merged RawConfig and normalized Settings
	Resolve(profile string, o Overrides) (RawConfig, Settings, error)
}

// Resolve loads, overrides, validates and normalizes a profile.
func (l *Loader) Resolve(profile string, o Overrides) (RawConfig, Settings, error) {
	raw, err := l.LoadMerged(profile)
	if err != nil {
		return RawConfig{}, Settings{}, err
	}
	raw = applyOverrides(raw, o)
	if err := Validate(raw); err != nil {
		return raw, Settings{}, err
	}
	s, err := Normalize(raw)
	return raw, s, err
}

func applyOverrides(raw RawConfig, o Overrides) RawConfig {
	spin := SpinConfig{}
	if raw.Spin != nil {
		spin = *raw.Spin
	}
	if o.Mode != nil {
		spin.Mode = *o.Mode
	}
	if o.Delay != nil {
		spin.Delay = o.Delay
	}
	raw.Spin = &spin

	rev := ReviveConfig{}
	if raw.Revive != nil {
		rev = *raw.Revive
	}
	if o.ReviveBase != nil {
		rev.BaseCost = o.ReviveBase
	}
	if o.ReviveMultiplier != nil {
		rev.Multiplier = o.ReviveMultiplier
	}
	raw.Revive = &rev
	return raw
}

// Normalize converts a validated RawConfig into Settings.
func Normalize(raw RawConfig) (Settings, error) {
	s := Settings{
		Version: raw.Version,
		Spin:    game.SpinSettings{Delay: DefaultSpinDelay},
		Revive: game.ReviveSettings{
			BaseCost:        game.DefaultReviveCost,
			Multiplier:      DefaultReviveMultiplier,
			AdWatchDuration: DefaultAdWatchDuration,
		},
	}

	if sp := raw.Spin; sp != nil {
		mode, err := wheel.ParseMode(sp.Mode)
		if err != nil {
			return Settings{}, err
		}
		s.Spin.Mode = mode
		if sp.Delay != nil {
			s.Spin.Delay = *sp.Delay
		}
		if sp.MinExtraRotations != nil {
			s.Spin.MinExtraRotations = *sp.MinExtraRotations
		}
		if sp.MaxExtraRotations != nil {
			s.Spin.MaxExtraRotations = *sp.MaxExtraRotations
		}
	}
	if rv := raw.Revive; rv != nil {
		if rv.BaseCost != nil {
			s.Revive.BaseCost = *rv.BaseCost
		}
		if rv.Multiplier != nil {
			s.Revive.Multiplier = *rv.Multiplier
		}
		if rv.AdWatchDuration != nil {
			s.Revive.AdWatchDuration = *rv.AdWatchDuration
		}
	}

	var err error
	if s.Wheels.Bronze, err = buildWheels(raw, zone.Bronze, raw.Wheels.Bronze); err != nil {
		return Settings{}, err
	}
	if s.Wheels.Silver, err = buildWheels(raw, zone.Safe, raw.Wheels.Silver); err != nil {
		return Settings{}, err
	}
	if s.Wheels.Golden, err = buildWheels(raw, zone.Super, raw.Wheels.Golden); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func buildWheels(raw RawConfig, tier zone.Tier, cfgs []WheelConfig) ([]wheel.Wheel, error) {
	out := make([]wheel.Wheel, 0, len(cfgs))
	for _, wc := range cfgs {
		w := wheel.Wheel{Name: wc.Name, Tier: tier, Slices: make([]wheel.Slice, 0, len(wc.Slices))}
		for _, sc := range wc.Slices {
			sl := wheel.Slice{Weight: 1, Bomb: sc.Bomb}
			if sc.Weight != nil {
				sl.Weight = *sc.Weight
			}
			if !sc.Bomb {
				spec, err := buildReward(raw, sc)
				if err != nil {
					return nil, fmt.Errorf("wheel %s: %w", wc.Name, err)
				}
				sl.Reward = spec
			}
			w.Slices = append(w.Slices, sl)
		}
		out = append(out, w)
	}
	return out, nil
}

func buildReward(raw RawConfig, sc SliceConfig) (reward.Spec, error) {
	kind, err := reward.ParseKind(sc.Kind)
	if err != nil {
		return reward.Spec{}, err
	}
	spec := reward.Spec{
		Kind:        kind,
		Name:        sc.Name,
		Icon:        sc.Icon,
		Description: sc.Description,
		Amount:      sc.Amount,
	}
	if kind == reward.Points {
		if spec.Points, err = reward.ParsePointsType(sc.Points); err != nil {
			return reward.Spec{}, err
		}
	}
	if kind == reward.RandomItem {
		for _, it := range raw.Pools[sc.Pool] {
			spec.Pool = append(spec.Pool, reward.Item{ID: it.ID, Name: it.Name, Icon: it.Icon, Description: it.Description})
		}
	}
	return spec, nil
}
