package game

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/xtding233/riskwheel/internal/event"
	"github.com/xtding233/riskwheel/internal/reward"
)

// DefaultReviveCost is charged when no revive settings are configured.
const DefaultReviveCost = 1000

// ReviveSettings prices money revives.
type ReviveSettings struct {
	BaseCost        int
	Multiplier      float64       // applied once per revive already bought this session
	AdWatchDuration time.Duration // shown to clients; the ad itself is simulated
}

// ReviveCost returns round(base * multiplier^count).
func ReviveCost(base int, multiplier float64, count int) int {
	factor := decimal.NewFromFloat(multiplier).Pow(decimal.NewFromInt(int64(count)))
	return int(decimal.NewFromInt(int64(base)).Mul(factor).Round(0).IntPart())
}

// ReviveResult is the payload of revive-succeeded.
type ReviveResult struct {
	Method string `json:"method"` // "money" or "ads"
	Cost   int    `json:"cost"`
	Count  int    `json:"revive_count"`
}

// ReviveShortfall is the payload of revive-failed.
type ReviveShortfall struct {
	Required  int `json:"required"`
	Available int `json:"available"`
}

// BombHandler resolves a bomb slice: the session waits on a decision until the
// player gives up or pays (cash or an ad) to keep going.
type BombHandler struct {
	s           *Session
	cfg         *ReviveSettings
	wallet      Wallet
	log         zerolog.Logger
	reviveCount int
	pending     bool
	warned      bool // missing settings already logged
}

// Pending reports whether a bomb is waiting on a decision.
func (b *BombHandler) Pending() bool { return b.pending }

// ReviveCount is the number of money revives bought this session.
func (b *BombHandler) ReviveCount() int { return b.reviveCount }

// ResetReviveCounter zeroes the revive count. Called on every new session.
func (b *BombHandler) ResetReviveCounter() { b.reviveCount = 0 }

// CurrentReviveCost prices the next money revive.
func (b *BombHandler) CurrentReviveCost() int {
	if b.cfg == nil {
		if !b.warned {
			b.warned = true
			b.log.Warn().Int("cost", DefaultReviveCost).Msg("no revive settings; using default cost")
		}
		return DefaultReviveCost
	}
	return ReviveCost(b.cfg.BaseCost, b.cfg.Multiplier, b.reviveCount)
}

func (b *BombHandler) hit() {
	b.pending = true
	b.s.sink.Emit(event.Event{Name: event.BombHit, Payload: b.s.zone.CurrentZone()})
	b.log.Info().Int("zone", b.s.zone.CurrentZone()).Msg("bomb hit; awaiting decision")
}

// GiveUp forfeits the session: the ledger is discarded and a fresh session
// starts. The discarded rewards are returned for display.
func (b *BombHandler) GiveUp() ([]reward.Record, error) {
	if !b.pending {
		b.log.Warn().Msg("give up without pending bomb")
		return nil, ErrNoPendingDecision
	}
	lost := b.s.ledger.Snapshot()
	b.s.ledger.Clear()
	b.s.sink.Emit(event.Event{Name: event.RewardsLost, Payload: lost})
	b.pending = false
	b.reviveCount = 0
	b.log.Info().Int("lost", len(lost)).Msg("player gave up")

	b.s.RestartGame()
	return lost, nil
}

// MoneyRevive buys a revive from the wallet. The charge is always the current
// revive cost; requestedCost is only logged. It reports false, leaving the
// decision pending, when the wallet cannot cover the cost.
func (b *BombHandler) MoneyRevive(ctx context.Context, requestedCost int) (bool, error) {
	if !b.pending {
		b.log.Warn().Msg("money revive without pending bomb")
		return false, ErrNoPendingDecision
	}
	if b.wallet == nil {
		return false, ErrNoWallet
	}
	cost := b.CurrentReviveCost()
	if requestedCost != cost {
		b.log.Debug().Int("requested", requestedCost).Int("cost", cost).Msg("ignoring requested revive cost")
	}

	balance, err := b.wallet.Balance(ctx)
	if err != nil {
		return false, fmt.Errorf("read wallet balance: %w", err)
	}
	if balance < cost {
		b.log.Warn().Int("required", cost).Int("available", balance).Msg("not enough cash to revive")
		b.s.sink.Emit(event.Event{Name: event.ReviveFailed, Payload: ReviveShortfall{Required: cost, Available: balance}})
		return false, nil
	}
	if err := b.wallet.Debit(ctx, cost); err != nil {
		return false, fmt.Errorf("debit revive cost: %w", err)
	}

	b.reviveCount++
	b.s.sink.Emit(event.Event{Name: event.ReviveSucceeded, Payload: ReviveResult{Method: "money", Cost: cost, Count: b.reviveCount}})
	b.log.Info().Int("cost", cost).Int("revive_count", b.reviveCount).Msg("money revive")
	b.resume()
	return true, nil
}

// AdsRevive revives for free after a (simulated) rewarded ad.
func (b *BombHandler) AdsRevive() error {
	if !b.pending {
		b.log.Warn().Msg("ads revive without pending bomb")
		return ErrNoPendingDecision
	}
	b.s.sink.Emit(event.Event{Name: event.ReviveSucceeded, Payload: ReviveResult{Method: "ads", Count: b.reviveCount}})
	b.log.Info().Msg("ads revive")
	b.resume()
	return nil
}

// resume returns to play on the same zone and wheel.
func (b *BombHandler) resume() {
	b.pending = false
	b.s.spinState = Idle
	b.s.setState(Playing)
	b.s.sink.Emit(event.Event{Name: event.SpinResultProcessed})
}
