package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/xtding233/riskwheel/internal/game"
	"github.com/xtding233/riskwheel/internal/reward"
	"github.com/xtding233/riskwheel/internal/storage"
)

var _ storage.Store = (*Store)(nil)

func TestIncrementAndLoad(t *testing.T) {
	ctx := context.Background()
	s := New()
	if n, err := s.Increment(ctx, reward.KeyGold, 5); err != nil || n != 5 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if n, _ := s.Increment(ctx, reward.KeyGold, 7); n != 12 {
		t.Fatalf("n=%d", n)
	}
	if _, err := s.Increment(ctx, "Diamonds", 1); !errors.Is(err, storage.ErrUnknownKey) {
		t.Fatalf("got %v", err)
	}
	got, _ := s.Load(ctx)
	got[reward.KeyGold] = 0
	again, _ := s.Load(ctx)
	if again[reward.KeyGold] != 12 {
		t.Fatal("Load must return a copy")
	}
	if err := s.ClearAll(ctx); err != nil {
		t.Fatal(err)
	}
	if m, _ := s.Load(ctx); len(m) != 0 {
		t.Fatalf("after clear %v", m)
	}
}

func TestIncrementAllIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.IncrementAll(ctx, []game.Delta{{Key: reward.KeyCash, Amount: 10}, {Key: "bogus", Amount: 1}})
	if !errors.Is(err, storage.ErrUnknownKey) {
		t.Fatalf("got %v", err)
	}
	if bal, _ := s.Balance(ctx); bal != 0 {
		t.Fatal("partial batch applied")
	}
	totals, err := s.IncrementAll(ctx, []game.Delta{{Key: reward.KeyCash, Amount: 10}, {Key: reward.KeyChest, Amount: 2}})
	if err != nil || totals[reward.KeyCash] != 10 || totals[reward.KeyChest] != 2 {
		t.Fatalf("totals=%v err=%v", totals, err)
	}
}

func TestWallet(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := storage.Seed(ctx, s, 1500); err != nil {
		t.Fatal(err)
	}
	if err := storage.Seed(ctx, s, 9999); err != nil {
		t.Fatal(err)
	}
	if bal, _ := s.Balance(ctx); bal != 1500 {
		t.Fatalf("seed should only fund an empty wallet; balance=%d", bal)
	}
	if err := s.Debit(ctx, 1000); err != nil {
		t.Fatal(err)
	}
	if err := s.Debit(ctx, 1000); !errors.Is(err, storage.ErrInsufficientFunds) {
		t.Fatalf("got %v", err)
	}
	if err := s.Debit(ctx, -1); !errors.Is(err, storage.ErrNegativeAmount) {
		t.Fatalf("got %v", err)
	}
	if bal, _ := s.Balance(ctx); bal != 500 {
		t.Fatalf("balance=%d", bal)
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Increment(ctx, reward.KeyCash, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v", err)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i, id := range []string{"a", "b", "c"} {
		if err := s.RecordResult(ctx, storage.Result{SessionID: id, Outcome: storage.Collected, Zone: i + 1}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.ListResults(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].SessionID != "c" || got[1].SessionID != "b" {
		t.Fatalf("results %+v", got)
	}
	if all, _ := s.ListResults(ctx, 0); len(all) != 3 {
		t.Fatalf("limit 0 returned %d", len(all))
	}
}
