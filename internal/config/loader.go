package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Paths helper for default/profile files.
type Paths struct {
	BaseDir string // base directory, e.g., /opt/riskwheel/content
}

func (p Paths) DefaultPath() string {
	return filepath.Join(p.BaseDir, "default.yaml")
}
func (p Paths) ProfilePath(profile string) string {
	return filepath.Join(p.BaseDir, "profiles", profile+".yaml")
}

// Loader reads YAML content and merges default → profile.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]RawConfig // key: profile name, "" for default only
}

// NewLoader creates a content loader with the given base directory.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]RawConfig),
	}
}

// Paths returns the files a profile is built from, for watching.
func (l *Loader) Paths(profile string) []string {
	out := []string{l.paths.DefaultPath()}
	if profile != "" {
		out = append(out, l.paths.ProfilePath(profile))
	}
	return out
}

// LoadMerged loads and merges default → profile (profile optional).
// It returns the merged RawConfig without validation.
func (l *Loader) LoadMerged(profile string) (RawConfig, error) {
	l.mu.RLock()
	if cfg, ok := l.cache[profile]; ok {
		l.mu.RUnlock()
		return cfg, nil
	}
	l.mu.RUnlock()

	defCfg, err := readYAML(l.paths.DefaultPath())
	if err != nil {
		return RawConfig{}, fmt.Errorf("read default: %w", err)
	}
	merged := defCfg
	if profile != "" {
		profCfg, err := readYAML(l.paths.ProfilePath(profile)) // profile file may not exist
		if err != nil {
			return RawConfig{}, fmt.Errorf("read profile %s: %w", profile, err)
		}
		merged = mergeRaw(defCfg, profCfg)
	}

	l.mu.Lock()
	l.cache[""] = defCfg
	l.cache[profile] = merged
	l.mu.Unlock()

	return merged, nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]RawConfig)
}

// readYAML loads a YAML file into RawConfig. Missing files return zero cfg, no error.
func readYAML(path string) (RawConfig, error) {
	var cfg RawConfig
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawConfig{}, nil
		}
		return RawConfig{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawConfig{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// mergeRaw overlays b on a: set scalars and pointers in b win, pools merge by
// name and each tier's wheel list is replaced wholesale when b provides one.
func mergeRaw(a, b RawConfig) RawConfig {
	out := a

	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}

	// spin
	switch {
	case out.Spin == nil && b.Spin != nil:
		c := *b.Spin
		out.Spin = &c
	case out.Spin != nil && b.Spin != nil:
		c := *out.Spin
		if b.Spin.Delay != nil {
			c.Delay = b.Spin.Delay
		}
		if b.Spin.Mode != "" {
			c.Mode = b.Spin.Mode
		}
		if b.Spin.MinExtraRotations != nil {
			c.MinExtraRotations = b.Spin.MinExtraRotations
		}
		if b.Spin.MaxExtraRotations != nil {
			c.MaxExtraRotations = b.Spin.MaxExtraRotations
		}
		out.Spin = &c
	}

	// revive
	switch {
	case out.Revive == nil && b.Revive != nil:
		c := *b.Revive
		out.Revive = &c
	case out.Revive != nil && b.Revive != nil:
		c := *out.Revive
		if b.Revive.BaseCost != nil {
			c.BaseCost = b.Revive.BaseCost
		}
		if b.Revive.Multiplier != nil {
			c.Multiplier = b.Revive.Multiplier
		}
		if b.Revive.AdWatchDuration != nil {
			c.AdWatchDuration = b.Revive.AdWatchDuration
		}
		out.Revive = &c
	}

	// pools
	if len(b.Pools) > 0 {
		pools := make(map[string][]ItemConfig, len(a.Pools)+len(b.Pools))
		maps.Copy(pools, a.Pools)
		maps.Copy(pools, b.Pools)
		out.Pools = pools
	}

	// wheels
	if len(b.Wheels.Bronze) > 0 {
		out.Wheels.Bronze = b.Wheels.Bronze
	}
	if len(b.Wheels.Silver) > 0 {
		out.Wheels.Silver = b.Wheels.Silver
	}
	if len(b.Wheels.Golden) > 0 {
		out.Wheels.Golden = b.Wheels.Golden
	}

	return out
}
