// Package game runs one player's wheel session: spinning, collecting rewards,
// climbing zones and deciding what to do when a bomb comes up.
package game

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrCannotSpin        = errors.New("cannot spin right now")
	ErrCannotLeave       = errors.New("cannot leave right now")
	ErrNoPendingDecision = errors.New("no bomb decision pending")
	ErrNoWallet          = errors.New("no wallet configured")
	ErrStopped           = errors.New("session runner stopped")
)

// SessionState is the top-level state of a session.
type SessionState int

const (
	Menu SessionState = iota
	Playing
	GameOver
	Victory
)

func (s SessionState) String() string {
	switch s {
	case Menu:
		return "menu"
	case Playing:
		return "playing"
	case GameOver:
		return "game_over"
	case Victory:
		return "victory"
	default:
		return "unknown"
	}
}

func (s SessionState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *SessionState) UnmarshalText(b []byte) error {
	for _, c := range []SessionState{Menu, Playing, GameOver, Victory} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", b)
}

// SpinState is the lifecycle of the current spin.
type SpinState int

const (
	Idle SpinState = iota
	Spinning
	Stopped
)

func (s SpinState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Spinning:
		return "spinning"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

func (s SpinState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *SpinState) UnmarshalText(b []byte) error {
	for _, c := range []SpinState{Idle, Spinning, Stopped} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown spin state %q", b)
}

// Wallet is the player's spendable cash, debited by money revives.
type Wallet interface {
	Balance(ctx context.Context) (int, error)
	Debit(ctx context.Context, amount int) error
}

// Inventory persists collected rewards as per-key counters.
type Inventory interface {
	Increment(ctx context.Context, key string, amount int) (int, error)
	Load(ctx context.Context) (map[string]int, error)
	ClearAll(ctx context.Context) error
}

// Delta is one counter change of a batched inventory write.
type Delta struct {
	Key    string
	Amount int
}

// BatchInventory is implemented by inventories that can apply several
// increments atomically. It returns the new totals by key.
type BatchInventory interface {
	IncrementAll(ctx context.Context, deltas []Delta) (map[string]int, error)
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// ImmediateScheduler runs f inline, ignoring the delay. Spins resolve before
// Spin returns.
type ImmediateScheduler struct{}

func (ImmediateScheduler) AfterFunc(_ time.Duration, f func()) { f() }
