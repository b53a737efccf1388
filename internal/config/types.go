// types.go
package config

import "time"

// Raw content config loaded from YAML. Pointers distinguish "unset" from zero
// so profiles can override the default file field by field.
type RawConfig struct {
	Version string                  `yaml:"version"`
	Spin    *SpinConfig             `yaml:"spin,omitempty"`
	Revive  *ReviveConfig           `yaml:"revive,omitempty"`
	Pools   map[string][]ItemConfig `yaml:"pools,omitempty"`
	Wheels  WheelsConfig            `yaml:"wheels"`
	Notes   string                  `yaml:"notes,omitempty"`
}

type SpinConfig struct {
	Delay             *time.Duration `yaml:"delay,omitempty"`
	Mode              string         `yaml:"mode,omitempty"` // "uniform" | "weighted"
	MinExtraRotations *int           `yaml:"min_extra_rotations,omitempty"`
	MaxExtraRotations *int           `yaml:"max_extra_rotations,omitempty"`
}

type ReviveConfig struct {
	BaseCost        *int           `yaml:"base_cost,omitempty"`
	Multiplier      *float64       `yaml:"multiplier,omitempty"`
	AdWatchDuration *time.Duration `yaml:"ad_watch_duration,omitempty"`
}

// WheelsConfig lists wheels per tier in unlock order. A profile that sets a
// tier replaces the whole list.
type WheelsConfig struct {
	Bronze []WheelConfig `yaml:"bronze,omitempty"`
	Silver []WheelConfig `yaml:"silver,omitempty"`
	Golden []WheelConfig `yaml:"golden,omitempty"`
}

type WheelConfig struct {
	Name   string        `yaml:"name"`
	Slices []SliceConfig `yaml:"slices"`
}

type SliceConfig struct {
	Weight      *float64 `yaml:"weight,omitempty"` // defaults to 1
	Bomb        bool     `yaml:"bomb,omitempty"`
	Kind        string   `yaml:"kind,omitempty"`
	Name        string   `yaml:"name,omitempty"`
	Icon        string   `yaml:"icon,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Amount      int      `yaml:"amount,omitempty"`
	Points      string   `yaml:"points,omitempty"` // generic | pistol | rifle | shotgun
	Pool        string   `yaml:"pool,omitempty"`   // random_item only
}

type ItemConfig struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Icon        string `yaml:"icon,omitempty"`
	Description string `yaml:"description,omitempty"`
}
