// Package storage defines what the inventory backends share.
package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/xtding233/riskwheel/internal/game"
	"github.com/xtding233/riskwheel/internal/reward"
)

var (
	ErrUnknownKey        = errors.New("unknown inventory key")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNegativeAmount    = errors.New("amount must be >= 0")
)

// Store is an inventory that also serves as the wallet and keeps run history.
type Store interface {
	game.Inventory
	game.BatchInventory
	game.Wallet
	History
	Close() error
}

// ValidateKey rejects keys outside reward.InventoryKeys.
func ValidateKey(key string) error {
	if !slices.Contains(reward.InventoryKeys, key) {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return nil
}

// Seed credits startingCash to a store whose wallet is empty. It is a no-op
// on a store that already has cash.
func Seed(ctx context.Context, s Store, startingCash int) error {
	if startingCash <= 0 {
		return nil
	}
	bal, err := s.Balance(ctx)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if bal > 0 {
		return nil
	}
	_, err = s.Increment(ctx, reward.KeyCash, startingCash)
	return err
}

// Outcome is how a run ended.
type Outcome string

const (
	Collected Outcome = "collected"
	Forfeited Outcome = "forfeited"
)

// Result summarizes one finished run.
type Result struct {
	SessionID  string    `json:"session_id"`
	Outcome    Outcome   `json:"outcome"`
	Zone       int       `json:"zone"`
	Rewards    int       `json:"rewards"`
	FinishedAt time.Time `json:"finished_at"`
}

// History keeps finished runs, newest first.
type History interface {
	RecordResult(ctx context.Context, r Result) error
	ListResults(ctx context.Context, limit int) ([]Result, error)
}
