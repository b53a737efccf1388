// Package memory keeps inventory counters in process memory.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/xtding233/riskwheel/internal/game"
	"github.com/xtding233/riskwheel/internal/reward"
	"github.com/xtding233/riskwheel/internal/storage"
)

// Store is an in-memory inventory. The wallet is the Cash counter.
type Store struct {
	mu      sync.Mutex
	counts  map[string]int
	results []storage.Result
}

// New returns an empty store.
func New() *Store {
	return &Store{counts: map[string]int{}}
}

func (s *Store) Increment(ctx context.Context, key string, amount int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := storage.ValidateKey(key); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key] += amount
	return s.counts[key], nil
}

// IncrementAll applies every delta or none of them.
func (s *Store) IncrementAll(ctx context.Context, deltas []game.Delta) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, d := range deltas {
		if err := storage.ValidateKey(d.Key); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(deltas))
	for _, d := range deltas {
		s.counts[d.Key] += d.Amount
		out[d.Key] = s.counts[d.Key]
	}
	return out, nil
}

func (s *Store) Load(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.counts), nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = map[string]int{}
	return nil
}

func (s *Store) Balance(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[reward.KeyCash], nil
}

func (s *Store) Debit(ctx context.Context, amount int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount < 0 {
		return storage.ErrNegativeAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts[reward.KeyCash] < amount {
		return storage.ErrInsufficientFunds
	}
	s.counts[reward.KeyCash] -= amount
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) RecordResult(ctx context.Context, r storage.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return nil
}

// ListResults returns up to limit results, newest first. limit <= 0 means all.
func (s *Store) ListResults(ctx context.Context, limit int) ([]storage.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storage.Result, 0, len(s.results))
	for i := len(s.results) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.results[i])
	}
	return out, nil
}
