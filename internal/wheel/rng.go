package wheel

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/big"
	"math/rand/v2"
)

// RandomSource abstract
type RandomSource interface {
	UniformInt(lo, hi int) int           // [lo, hi]
	UniformFloat(lo, hi float64) float64 // [lo, hi)
}

// crypto random : default generation method
type cryptoRNG struct{}

func (cryptoRNG) float64() float64 {
	// Read 53bit random => [0, 1)
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err != nil {
		// back to math/rand/v2
		return rand.Float64()
	}
	u := binary.BigEndian.Uint64(buf[:]) >> 11 // 53 bits
	return float64(u) / (1 << 53)
}

func (cryptoRNG) UniformInt(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	n, err := cryptoRand.Int(cryptoRand.Reader, big.NewInt(int64(hi-lo+1)))
	if err != nil {
		return lo + rand.IntN(hi-lo+1)
	}
	return lo + int(n.Int64())
}

func (c cryptoRNG) UniformFloat(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + c.float64()*(hi-lo)
}

func DefaultRNG() RandomSource { return cryptoRNG{} }

// Replicable RNG (simulations, replays, tests)
type seededRNG struct{ r *rand.Rand }

func NewSeededRNG(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededRNG) UniformInt(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.r.IntN(hi-lo+1)
}

func (s *seededRNG) UniformFloat(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + s.r.Float64()*(hi-lo)
}
