// Package event carries session notifications from the core to whoever renders them.
package event

import "sync"

// Name identifies a notification. Values are part of the wire contract with UI clients.
type Name string

const (
	SpinStarted         Name = "spin-started"
	SpinCompleted       Name = "spin-completed"
	SpinResultProcessed Name = "spin-result-processed"
	RewardAdded         Name = "reward-added"
	RewardsCleared      Name = "rewards-cleared"
	ZoneChanged         Name = "zone-changed"
	BombHit             Name = "bomb-hit"
	SessionStateChanged Name = "session-state-changed"
	SessionCompleted    Name = "session-completed"

	RewardsLost      Name = "rewards-lost"
	RewardClaimed    Name = "reward-claimed"
	RewardFailed     Name = "reward-failed"
	SafeZoneReached  Name = "safe-zone-reached"
	SuperZoneReached Name = "super-zone-reached"
	InventoryUpdated Name = "inventory-updated"
	ReviveSucceeded  Name = "revive-succeeded"
	ReviveFailed     Name = "revive-failed"
)

// Event is one notification. Payload type depends on Name.
type Event struct {
	Name    Name `json:"type"`
	Payload any  `json:"payload,omitempty"`
}

// Sink receives notifications.
type Sink interface {
	Emit(e Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Emit(Event) {}

// Bus fans events out to subscribers in subscription order.
// Emit runs handlers synchronously on the caller's goroutine.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn func(Event)
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs...)
	b.mu.RUnlock()
	for _, s := range subs {
		s.fn(e)
	}
}

// Recorder keeps every event it sees. Useful for tests and replays.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many events named n were recorded.
func (r *Recorder) Count(n Name) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := 0
	for _, e := range r.events {
		if e.Name == n {
			c++
		}
	}
	return c
}

// Last returns the most recent event named n.
func (r *Recorder) Last(n Name) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Name == n {
			return r.events[i], true
		}
	}
	return Event{}, false
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
