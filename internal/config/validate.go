package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/xtding233/riskwheel/internal/reward"
	"github.com/xtding233/riskwheel/internal/wheel"
)

// Validate checks semantic constraints of a merged RawConfig.
func Validate(cfg RawConfig) error {
	var errs []string

	mode := wheel.Uniform
	if cfg.Spin != nil {
		m, err := wheel.ParseMode(cfg.Spin.Mode)
		if err != nil {
			errs = append(errs, "spin.mode must be one of: uniform, weighted")
		}
		mode = m
		if cfg.Spin.Delay != nil && *cfg.Spin.Delay < 0 {
			errs = append(errs, "spin.delay must be >= 0")
		}
		lo, hi := 0, 0
		if cfg.Spin.MinExtraRotations != nil {
			lo = *cfg.Spin.MinExtraRotations
		}
		if cfg.Spin.MaxExtraRotations != nil {
			hi = *cfg.Spin.MaxExtraRotations
		}
		if lo < 0 || hi < 0 {
			errs = append(errs, "spin extra rotations must be >= 0")
		}
		if cfg.Spin.MaxExtraRotations != nil && hi < lo {
			errs = append(errs, "spin.max_extra_rotations must be >= min_extra_rotations")
		}
	}

	if cfg.Revive != nil {
		if cfg.Revive.BaseCost != nil && *cfg.Revive.BaseCost < 0 {
			errs = append(errs, "revive.base_cost must be >= 0")
		}
		// cost must never decrease between revives
		if cfg.Revive.Multiplier != nil && *cfg.Revive.Multiplier < 1 {
			errs = append(errs, "revive.multiplier must be >= 1")
		}
		if cfg.Revive.AdWatchDuration != nil && *cfg.Revive.AdWatchDuration < 0 {
			errs = append(errs, "revive.ad_watch_duration must be >= 0")
		}
	}

	for name, items := range cfg.Pools {
		if len(items) == 0 {
			errs = append(errs, fmt.Sprintf("pools.%s must not be empty", name))
		}
		for i, it := range items {
			if it.Name == "" {
				errs = append(errs, fmt.Sprintf("pools.%s[%d].name is required", name, i))
			}
		}
	}

	if len(cfg.Wheels.Bronze) == 0 {
		errs = append(errs, "wheels.bronze needs at least one wheel")
	}
	errs = append(errs, validateTier(cfg, "bronze", cfg.Wheels.Bronze, true, mode)...)
	errs = append(errs, validateTier(cfg, "silver", cfg.Wheels.Silver, false, mode)...)
	errs = append(errs, validateTier(cfg, "golden", cfg.Wheels.Golden, false, mode)...)

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTier(cfg RawConfig, tier string, wheels []WheelConfig, wantBomb bool, mode wheel.Mode) []string {
	var errs []string
	for wi, w := range wheels {
		at := fmt.Sprintf("wheels.%s[%d]", tier, wi)
		if w.Name == "" {
			errs = append(errs, at+".name is required")
		}
		if len(w.Slices) == 0 {
			errs = append(errs, at+" has no slices")
			continue
		}

		bombs := 0
		var total float64
		for si, s := range w.Slices {
			sat := fmt.Sprintf("%s.slices[%d]", at, si)
			weight := 1.0
			if s.Weight != nil {
				weight = *s.Weight
			}
			if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
				errs = append(errs, sat+".weight must be finite and >= 0")
			} else {
				total += weight
			}
			if s.Bomb {
				bombs++
				continue
			}
			errs = append(errs, validateReward(cfg, sat, s)...)
		}

		switch {
		case wantBomb && bombs == 0:
			errs = append(errs, at+" must contain a bomb slice")
		case !wantBomb && bombs > 0:
			errs = append(errs, at+" must not contain bomb slices")
		}
		if mode == wheel.Weighted && total <= 0 {
			errs = append(errs, at+" total weight must be > 0 in weighted mode")
		}
	}
	return errs
}

func validateReward(cfg RawConfig, at string, s SliceConfig) []string {
	var errs []string
	kind, err := reward.ParseKind(s.Kind)
	if err != nil {
		return append(errs, fmt.Sprintf("%s.kind %q is not a reward kind", at, s.Kind))
	}
	if s.Name == "" {
		errs = append(errs, at+".name is required")
	}
	switch kind {
	case reward.RandomItem:
		if s.Pool == "" {
			errs = append(errs, at+".pool is required for random_item")
		} else if _, ok := cfg.Pools[s.Pool]; !ok {
			errs = append(errs, fmt.Sprintf("%s.pool %q is not defined", at, s.Pool))
		}
	default:
		if s.Amount <= 0 {
			errs = append(errs, at+".amount must be > 0")
		}
	}
	if s.Points != "" {
		if kind != reward.Points {
			errs = append(errs, at+".points only applies to kind points")
		} else if _, err := reward.ParsePointsType(s.Points); err != nil {
			errs = append(errs, fmt.Sprintf("%s.points %q is not a points type", at, s.Points))
		}
	}
	return errs
}
