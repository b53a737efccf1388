package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/xtding233/riskwheel/internal/reward"
	"github.com/xtding233/riskwheel/internal/wheel"
)

const baseYAML = `
version: "1"
spin:
  delay: 1500ms
  mode: uniform
  min_extra_rotations: 2
  max_extra_rotations: 4
revive:
  base_cost: 1000
  multiplier: 2
pools:
  common:
    - {id: 1, name: Sword}
wheels:
  bronze:
    - name: B1
      slices:
        - {bomb: true}
        - {kind: cash, name: Cash, amount: 100}
        - {kind: points, name: Rifle Points, amount: 3, points: rifle}
  silver:
    - name: S1
      slices:
        - {kind: random_item, name: Mystery, pool: common}
  golden:
    - name: G1
      slices:
        - {kind: chest, name: Chest, amount: 1, weight: 3}
`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoaderMergesProfile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "default.yaml"), baseYAML)
	writeFile(t, filepath.Join(dir, "profiles", "hard.yaml"), `
version: "1-hard"
spin:
  mode: weighted
revive:
  multiplier: 3
pools:
  rare:
    - {id: 9, name: Crown}
wheels:
  golden:
    - name: G-hard
      slices:
        - {kind: gold, name: Gold, amount: 99}
`)

	l := NewLoader(dir)
	raw, err := l.LoadMerged("hard")
	if err != nil {
		t.Fatal(err)
	}
	if raw.Version != "1-hard" || raw.Spin.Mode != "weighted" {
		t.Fatalf("scalars not overridden: %+v %+v", raw.Version, raw.Spin)
	}
	if raw.Spin.Delay == nil || *raw.Spin.Delay != 1500*time.Millisecond {
		t.Fatal("unset profile field must keep the default")
	}
	if *raw.Revive.Multiplier != 3 || *raw.Revive.BaseCost != 1000 {
		t.Fatalf("revive %+v", raw.Revive)
	}
	if len(raw.Pools) != 2 {
		t.Fatalf("pools %v", raw.Pools)
	}
	if raw.Wheels.Golden[0].Name != "G-hard" || raw.Wheels.Bronze[0].Name != "B1" {
		t.Fatal("wheel lists not layered per tier")
	}

	// the default file alone is untouched by the merge
	def, err := l.LoadMerged("")
	if err != nil {
		t.Fatal(err)
	}
	if def.Spin.Mode != "uniform" || *def.Revive.Multiplier != 2 {
		t.Fatal("merge leaked into the default config")
	}
}

func TestLoaderCacheAndInvalidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "default.yaml")
	writeFile(t, path, baseYAML)
	l := NewLoader(dir)
	if _, err := l.LoadMerged(""); err != nil {
		t.Fatal(err)
	}
	writeFile(t, path, strings.Replace(baseYAML, `version: "1"`, `version: "2"`, 1))

	raw, _ := l.LoadMerged("")
	if raw.Version != "1" {
		t.Fatal("expected cached version")
	}
	l.Invalidate()
	raw, _ = l.LoadMerged("")
	if raw.Version != "2" {
		t.Fatalf("after invalidate version=%q", raw.Version)
	}
}

func TestLoaderMissingProfile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "default.yaml"), baseYAML)
	raw, err := NewLoader(dir).LoadMerged("nope")
	if err != nil || raw.Version != "1" {
		t.Fatalf("missing profile should fall back to default: %v %q", err, raw.Version)
	}
}

func TestLoaderBadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "default.yaml"), "wheels: [")
	if _, err := NewLoader(dir).LoadMerged(""); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "default.yaml"), baseYAML)
	mode := "weighted"
	base := 250
	_, s, err := NewLoader(dir).Resolve("", Overrides{Mode: &mode, ReviveBase: &base})
	if err != nil {
		t.Fatal(err)
	}
	if s.Spin.Mode != wheel.Weighted || s.Spin.Delay != 1500*time.Millisecond || s.Spin.MaxExtraRotations != 4 {
		t.Fatalf("spin %+v", s.Spin)
	}
	if s.Revive.BaseCost != 250 || s.Revive.Multiplier != 2 || s.Revive.AdWatchDuration != DefaultAdWatchDuration {
		t.Fatalf("revive %+v", s.Revive)
	}
	b := s.Wheels.Bronze[0]
	if !b.Slices[0].Bomb || b.Slices[1].Weight != 1 || b.Slices[2].Reward.Points != reward.RiflePoints {
		t.Fatalf("bronze %+v", b)
	}
	if pool := s.Wheels.Silver[0].Slices[0].Reward.Pool; len(pool) != 1 || pool[0].Name != "Sword" {
		t.Fatalf("pool %+v", pool)
	}
	if s.Wheels.Golden[0].Slices[0].Weight != 3 {
		t.Fatal("weight not carried")
	}
}

func TestShippedContentResolves(t *testing.T) {
	l := NewLoader(filepath.Join("..", "..", "content"))
	for _, profile := range []string{"", "weighted", "fast"} {
		if _, _, err := l.Resolve(profile, Overrides{}); err != nil {
			t.Fatalf("profile %q: %v", profile, err)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	bomb := SliceConfig{Bomb: true}
	cash := SliceConfig{Kind: "cash", Name: "Cash", Amount: 10}
	neg := -1.0
	mult := 0.5

	cases := []struct {
		name string
		cfg  RawConfig
		want string
	}{
		{"no bronze", RawConfig{}, "wheels.bronze needs at least one wheel"},
		{"bronze without bomb", RawConfig{Wheels: WheelsConfig{
			Bronze: []WheelConfig{{Name: "B", Slices: []SliceConfig{cash}}},
		}}, "must contain a bomb slice"},
		{"silver with bomb", RawConfig{Wheels: WheelsConfig{
			Bronze: []WheelConfig{{Name: "B", Slices: []SliceConfig{bomb, cash}}},
			Silver: []WheelConfig{{Name: "S", Slices: []SliceConfig{bomb, cash}}},
		}}, "wheels.silver[0] must not contain bomb slices"},
		{"negative weight", RawConfig{Wheels: WheelsConfig{
			Bronze: []WheelConfig{{Name: "B", Slices: []SliceConfig{bomb, {Kind: "cash", Name: "C", Amount: 1, Weight: &neg}}}},
		}}, "weight must be finite and >= 0"},
		{"zero amount", RawConfig{Wheels: WheelsConfig{
			Bronze: []WheelConfig{{Name: "B", Slices: []SliceConfig{bomb, {Kind: "gold", Name: "G"}}}},
		}}, "amount must be > 0"},
		{"unknown pool", RawConfig{Wheels: WheelsConfig{
			Bronze: []WheelConfig{{Name: "B", Slices: []SliceConfig{bomb, {Kind: "random_item", Name: "R", Pool: "x"}}}},
		}}, `pool "x" is not defined`},
		{"bad kind", RawConfig{Wheels: WheelsConfig{
			Bronze: []WheelConfig{{Name: "B", Slices: []SliceConfig{bomb, {Kind: "bomb", Name: "X", Amount: 1}}}},
		}}, "is not a reward kind"},
		{"empty wheel", RawConfig{Wheels: WheelsConfig{
			Bronze: []WheelConfig{{Name: "B"}},
		}}, "has no slices"},
		{"shrinking revive", RawConfig{
			Revive: &ReviveConfig{Multiplier: &mult},
			Wheels: WheelsConfig{Bronze: []WheelConfig{{Name: "B", Slices: []SliceConfig{bomb, cash}}}},
		}, "revive.multiplier must be >= 1"},
		{"bad mode", RawConfig{
			Spin:   &SpinConfig{Mode: "rigged"},
			Wheels: WheelsConfig{Bronze: []WheelConfig{{Name: "B", Slices: []SliceConfig{bomb, cash}}}},
		}, "spin.mode"},
	}
	for _, c := range cases {
		err := Validate(c.cfg)
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: got %v, want %q", c.name, err, c.want)
		}
	}
}

func TestValidateWeightedNeedsWeight(t *testing.T) {
	zero := 0.0
	cfg := RawConfig{
		Spin: &SpinConfig{Mode: "weighted"},
		Wheels: WheelsConfig{Bronze: []WheelConfig{{Name: "B", Slices: []SliceConfig{
			{Bomb: true, Weight: &zero},
		}}}},
	}
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "total weight must be > 0") {
		t.Fatalf("got %v", err)
	}
	cfg.Spin.Mode = "uniform"
	if err := Validate(cfg); err != nil {
		t.Fatalf("uniform mode ignores weights: %v", err)
	}
}

func TestReloaderAppliesValidChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "default.yaml")
	writeFile(t, path, baseYAML)
	l := NewLoader(dir)

	var got []Settings
	r := NewReloader(l, "", Overrides{}, zerolog.Nop(), func(s Settings) { got = append(got, s) })
	if !r.Reload() {
		t.Fatal("initial reload failed")
	}

	writeFile(t, path, "version: broken\nwheels: {}\n")
	if r.Reload() {
		t.Fatal("invalid content must be rejected")
	}
	writeFile(t, path, strings.Replace(baseYAML, `version: "1"`, `version: "3"`, 1))
	if !r.Reload() {
		t.Fatal("reload failed")
	}
	if len(got) != 2 || got[1].Version != "3" {
		t.Fatalf("applied %d settings", len(got))
	}
}

func TestFileWatcherDetectsChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "default.yaml")
	writeFile(t, path, baseYAML)

	changed := make(chan string, 4)
	w := NewFileWatcher([]string{path}, 10*time.Millisecond, zerolog.Nop(), func(p string) { changed <- p })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
	select {
	case p := <-changed:
		if p != path {
			t.Fatalf("changed %q", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("change not detected")
	}
}

func TestParseEnv(t *testing.T) {
	t.Setenv("RISKWHEEL_STORAGE", "sqlite")
	t.Setenv("RISKWHEEL_RELOAD_INTERVAL", "5s")
	t.Setenv("RISKWHEEL_STARTING_CASH", "2500")
	e, err := ParseEnv()
	if err != nil {
		t.Fatal(err)
	}
	if e.StorageDriver != "sqlite" || e.ReloadInterval != 5*time.Second || e.StartingCash != 2500 || e.HTTPAddr != ":8080" {
		t.Fatalf("env %+v", e)
	}

	t.Setenv("RISKWHEEL_STORAGE", "postgres")
	if _, err := ParseEnv(); err == nil {
		t.Fatal("postgres without DSN must fail")
	}
	t.Setenv("RISKWHEEL_STORAGE", "redis")
	if _, err := ParseEnv(); err == nil {
		t.Fatal("unknown driver must fail")
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file: %v", err)
	}
	path := filepath.Join(t.TempDir(), ".env")
	writeFile(t, path, "RISKWHEEL_TEST_DOTENV=yes\n")
	t.Setenv("RISKWHEEL_TEST_DOTENV", "")
	os.Unsetenv("RISKWHEEL_TEST_DOTENV")
	if err := LoadDotEnv(path); err != nil {
		t.Fatal(err)
	}
	if os.Getenv("RISKWHEEL_TEST_DOTENV") != "yes" {
		t.Fatal("dotenv value not loaded")
	}
}
