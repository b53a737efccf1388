package wheel

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/xtding233/riskwheel/internal/reward"
	"github.com/xtding233/riskwheel/internal/zone"
)

// scriptedRNG replays fixed draws.
type scriptedRNG struct {
	ints   []int
	floats []float64
}

func (s *scriptedRNG) UniformInt(lo, hi int) int {
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v
}

func (s *scriptedRNG) UniformFloat(lo, hi float64) float64 {
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func cash(n int) reward.Spec {
	return reward.Spec{Kind: reward.Cash, Name: "Cash", Amount: n}
}

func named(names ...string) []Wheel {
	ws := make([]Wheel, len(names))
	for i, n := range names {
		ws[i] = Wheel{Name: n, Slices: []Slice{{Weight: 1, Reward: cash(10)}}}
	}
	return ws
}

func TestSeededRNGBounds(t *testing.T) {
	rng := NewSeededRNG(1)
	for i := 0; i < 1000; i++ {
		if v := rng.UniformInt(2, 4); v < 2 || v > 4 {
			t.Fatalf("UniformInt out of range: %d", v)
		}
		if f := rng.UniformFloat(0, 3); f < 0 || f >= 3 {
			t.Fatalf("UniformFloat out of range: %f", f)
		}
	}
	if rng.UniformInt(5, 5) != 5 {
		t.Fatal("degenerate range should return lo")
	}
}

func TestDefaultRNGBounds(t *testing.T) {
	rng := DefaultRNG()
	for i := 0; i < 200; i++ {
		if v := rng.UniformInt(0, 2); v < 0 || v > 2 {
			t.Fatalf("UniformInt out of range: %d", v)
		}
		if f := rng.UniformFloat(1, 2); f < 1 || f >= 2 {
			t.Fatalf("UniformFloat out of range: %f", f)
		}
	}
}

func TestBucketIndex(t *testing.T) {
	cases := []struct {
		tier  zone.Tier
		zone  int
		count int
		want  int
	}{
		{zone.Bronze, 1, 3, 0},
		{zone.Bronze, 3, 3, 2},
		{zone.Bronze, 9, 3, 2},
		{zone.Safe, 5, 4, 0},
		{zone.Safe, 10, 4, 1},
		{zone.Safe, 35, 4, 3},
		{zone.Super, 30, 2, 0},
		{zone.Super, 60, 2, 1},
		{zone.Super, 90, 2, 1},
	}
	for _, c := range cases {
		if got := BucketIndex(c.tier, c.zone, c.count); got != c.want {
			t.Errorf("BucketIndex(%v,%d,%d)=%d, want %d", c.tier, c.zone, c.count, got, c.want)
		}
	}
}

func TestLoadForZone(t *testing.T) {
	set := Set{
		Bronze: named("b1", "b2"),
		Silver: named("s1", "s2"),
		Golden: named("g1"),
	}
	sel := NewSelector(set, NewSeededRNG(1), zerolog.Nop())

	for _, c := range []struct {
		zone int
		want string
	}{{1, "b1"}, {2, "b2"}, {4, "b2"}, {5, "s1"}, {10, "s2"}, {25, "s2"}, {30, "g1"}, {60, "g1"}} {
		w, err := sel.LoadForZone(c.zone)
		if err != nil {
			t.Fatalf("zone %d: %v", c.zone, err)
		}
		if w.Name != c.want {
			t.Fatalf("zone %d loaded %q, want %q", c.zone, w.Name, c.want)
		}
		cur, ok := sel.Current()
		if !ok || cur.Name != c.want {
			t.Fatalf("current = %q ok=%v", cur.Name, ok)
		}
	}
}

func TestLoadForZoneMissingTier(t *testing.T) {
	sel := NewSelector(Set{Bronze: named("b1")}, nil, zerolog.Nop())
	if _, err := sel.LoadForZone(1); err != nil {
		t.Fatal(err)
	}
	if _, err := sel.LoadForZone(5); !errors.Is(err, ErrNoWheel) {
		t.Fatalf("expected ErrNoWheel, got %v", err)
	}
	if _, ok := sel.Current(); ok {
		t.Fatal("failed load must clear the current wheel")
	}
}

func TestPickSliceEmpty(t *testing.T) {
	sel := NewSelector(Set{}, nil, zerolog.Nop())
	if _, _, err := sel.PickSlice(Wheel{Name: "empty"}, Uniform); !errors.Is(err, ErrNoSlices) {
		t.Fatalf("expected ErrNoSlices, got %v", err)
	}
}

func TestPickSliceUniform(t *testing.T) {
	w := Wheel{Slices: []Slice{{Bomb: true}, {Reward: cash(50)}}}
	sel := NewSelector(Set{}, &scriptedRNG{ints: []int{1, 0}}, zerolog.Nop())

	s, i, err := sel.PickSlice(w, Uniform)
	if err != nil || i != 1 || s.Bomb {
		t.Fatalf("got %+v idx=%d err=%v", s, i, err)
	}
	s, i, _ = sel.PickSlice(w, Uniform)
	if i != 0 || !s.Bomb {
		t.Fatalf("got %+v idx=%d", s, i)
	}
}

func TestPickSliceWeightedCumulative(t *testing.T) {
	w := Wheel{Slices: []Slice{
		{Weight: 1, Reward: cash(1)},
		{Weight: 1, Reward: cash(2)},
		{Weight: 2, Reward: cash(3)},
	}}
	sel := NewSelector(Set{}, &scriptedRNG{floats: []float64{0.5, 1.0, 1.5, 3.9}}, zerolog.Nop())
	for _, want := range []int{0, 0, 1, 2} {
		_, i, err := sel.PickSlice(w, Weighted)
		if err != nil {
			t.Fatal(err)
		}
		if i != want {
			t.Fatalf("idx=%d, want %d", i, want)
		}
	}
}

func TestPickSliceWeightedFallback(t *testing.T) {
	// r past the total leaves no slice selected; the first slice is the defined fallback.
	w := Wheel{Slices: []Slice{{Weight: 1, Reward: cash(1)}, {Weight: 1, Reward: cash(2)}}}
	sel := NewSelector(Set{}, &scriptedRNG{floats: []float64{2.5}}, zerolog.Nop())
	_, i, err := sel.PickSlice(w, Weighted)
	if err != nil || i != 0 {
		t.Fatalf("idx=%d err=%v, want fallback 0", i, err)
	}

	zero := Wheel{Slices: []Slice{{Weight: 0, Reward: cash(1)}, {Weight: 0, Reward: cash(2)}}}
	sel = NewSelector(Set{}, NewSeededRNG(3), zerolog.Nop())
	_, i, err = sel.PickSlice(zero, Weighted)
	if err != nil || i != 0 {
		t.Fatalf("zero total idx=%d err=%v, want 0", i, err)
	}
}

func TestPickSliceWeightedRejectsNegative(t *testing.T) {
	w := Wheel{Name: "bad", Slices: []Slice{{Weight: -1}}}
	sel := NewSelector(Set{}, NewSeededRNG(1), zerolog.Nop())
	if _, _, err := sel.PickSlice(w, Weighted); !errors.Is(err, ErrInvalidWeight) {
		t.Fatalf("expected ErrInvalidWeight, got %v", err)
	}
}

func TestPickSliceWeightedStatApprox(t *testing.T) {
	const n = 100000
	w := Wheel{Slices: []Slice{
		{Weight: 1, Reward: cash(1)},
		{Weight: 1, Reward: cash(2)},
		{Weight: 2, Reward: cash(3)},
	}}
	sel := NewSelector(Set{}, NewSeededRNG(42), zerolog.Nop())
	hit := 0
	for i := 0; i < n; i++ {
		_, idx, err := sel.PickSlice(w, Weighted)
		if err != nil {
			t.Fatal(err)
		}
		if idx == 2 {
			hit++
		}
	}
	freq := float64(hit) / float64(n)
	// should be around 0.5
	if diff := freq - 0.5; diff > 0.01 || diff < -0.01 {
		t.Fatalf("freq=%f not close to 0.5", freq)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("Weighted"); err != nil || m != Weighted {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}
	if m, err := ParseMode(""); err != nil || m != Uniform {
		t.Fatalf("default mode = %v, %v", m, err)
	}
	if _, err := ParseMode("rigged"); err == nil {
		t.Fatal("expected error")
	}
}
